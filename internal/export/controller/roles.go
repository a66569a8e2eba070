package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gartstein/cafexport/internal/export/db"
	"github.com/gartstein/cafexport/internal/export/engine"
	e "github.com/gartstein/cafexport/internal/export/errors"
	"github.com/gartstein/cafexport/internal/export/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SaveRole creates or replaces a role after checking its permission set.
func (s *ExportService) SaveRole(ctx context.Context, role *models.Role) (*models.Role, error) {
	role.Name = strings.TrimSpace(role.Name)
	if role.Name == "" {
		return nil, fmt.Errorf("%w: role name required", e.ErrInvalidInput)
	}
	if err := engine.ValidatePermissions(role.Permissions); err != nil {
		return nil, err
	}
	if role.ID == uuid.Nil {
		role.ID = uuid.New()
	}
	if err := s.repo.SaveRole(ctx, role); err != nil {
		return nil, wrap(err, "failed to save role")
	}
	return role, nil
}

func (s *ExportService) ListRoles(ctx context.Context) ([]models.Role, error) {
	roles, err := s.repo.ListRoles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	return roles, nil
}

func (s *ExportService) GetRole(ctx context.Context, id uuid.UUID) (*models.Role, error) {
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return nil, wrap(err, "failed to get role")
	}
	return role, nil
}

// DeleteRole removes a role. Users still holding it are denied everything
// until they are assigned another role.
func (s *ExportService) DeleteRole(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteRole(ctx, id); err != nil {
		return wrap(err, "failed to delete role")
	}
	s.logger.Info("Role deleted", zap.String("role_id", id.String()))
	return nil
}

// AssignRole creates or updates user with the role it references, which must
// exist.
func (s *ExportService) AssignRole(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: invalid user ID", e.ErrInvalidInput)
	}
	user.Name = strings.TrimSpace(user.Name)

	err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		if _, err := tx.GetRole(ctx, user.RoleID); err != nil {
			if errors.Is(err, e.ErrNotFound) {
				return fmt.Errorf("%w: unknown role %s", e.ErrInvalidInput, user.RoleID)
			}
			return err
		}
		return tx.SaveUser(ctx, user)
	})
	if err != nil {
		return nil, wrap(err, "failed to assign role")
	}
	return user, nil
}

// Authorize reports whether the user may perform action on resource. Unknown
// users are denied without error.
func (s *ExportService) Authorize(ctx context.Context, userID uuid.UUID, resource models.Resource, action models.Action) (bool, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get user: %w", err)
	}
	roles, err := s.repo.ListRoles(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to list roles: %w", err)
	}

	allowed := engine.UserCan(user, roles, resource, action)
	if !allowed {
		s.logger.Debug("Permission denied",
			zap.String("user_id", userID.String()),
			zap.String("resource", string(resource)),
			zap.String("action", string(action)),
		)
	}
	return allowed, nil
}
