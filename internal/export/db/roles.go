package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/gartstein/cafexport/internal/export/db/models"
	e "github.com/gartstein/cafexport/internal/export/errors"
	domain "github.com/gartstein/cafexport/internal/export/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (r *Repository) ListRoles(ctx context.Context) ([]domain.Role, error) {
	var rows []models.Role
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	roles := make([]domain.Role, 0, len(rows))
	for i := range rows {
		roles = append(roles, roleFromRow(&rows[i]))
	}
	return roles, nil
}

func (r *Repository) GetRole(ctx context.Context, id uuid.UUID) (*domain.Role, error) {
	var row models.Role
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	role := roleFromRow(&row)
	return &role, nil
}

// SaveRole creates or replaces role.
func (r *Repository) SaveRole(ctx context.Context, role *domain.Role) error {
	row := roleToRow(role)
	if err := r.db.WithContext(ctx).Save(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: role name %s already exists", e.ErrInvalidInput, role.Name)
		}
		return err
	}
	return nil
}

func (r *Repository) DeleteRole(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Role{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var row models.User
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &domain.User{ID: row.ID, Name: row.Name, RoleID: row.RoleID}, nil
}

func (r *Repository) SaveUser(ctx context.Context, u *domain.User) error {
	row := &models.User{ID: u.ID, Name: u.Name, RoleID: u.RoleID}
	return r.db.WithContext(ctx).Save(row).Error
}
