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
	"gorm.io/gorm/clause"
)

func byPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// ListContracts returns every contract of company with its partidas.
func (r *Repository) ListContracts(ctx context.Context, company domain.Company) ([]domain.Contract, error) {
	var rows []models.Contract
	result := r.db.WithContext(ctx).
		Preload("Partidas", byPosition).
		Where("company = ?", string(company)).
		Order("sale_date ASC, number ASC").
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	contracts := make([]domain.Contract, 0, len(rows))
	for i := range rows {
		contracts = append(contracts, contractFromRow(&rows[i]))
	}
	return contracts, nil
}

func (r *Repository) GetContract(ctx context.Context, id uuid.UUID) (*domain.Contract, error) {
	var row models.Contract
	result := r.db.WithContext(ctx).
		Preload("Partidas", byPosition).
		First(&row, "id = ?", id)
	if result.Error != nil {
		return nil, notFound(result.Error)
	}
	c := contractFromRow(&row)
	return &c, nil
}

// SaveContract upserts c and replaces its partidas. A lot number taken in
// the same scope by a concurrent writer surfaces as ErrDuplicateLotNumber; a
// partida ID owned by another contract fails with ErrInvalidInput.
func (r *Repository) SaveContract(ctx context.Context, c *domain.Contract) error {
	row := contractToRow(c)
	partidas := row.Partidas
	row.Partidas = nil

	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Save(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: contract number %s already exists", e.ErrInvalidInput, c.Number)
		}
		return err
	}
	if err := db.Where("contract_id = ?", row.ID).Delete(&models.Partida{}).Error; err != nil {
		return err
	}
	if len(partidas) > 0 {
		ids := make([]uuid.UUID, 0, len(partidas))
		for i := range partidas {
			ids = append(ids, partidas[i].ID)
		}
		var taken int64
		if err := db.Model(&models.Partida{}).Where("id IN ?", ids).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return fmt.Errorf("%w: partida ID belongs to another contract", e.ErrInvalidInput)
		}
		if err := db.Create(&partidas).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: lot scope already taken", e.ErrDuplicateLotNumber)
			}
			return err
		}
	}

	c.CreatedAt = row.CreatedAt
	c.UpdatedAt = row.UpdatedAt
	return nil
}

// DeleteContract removes c together with its partidas.
func (r *Repository) DeleteContract(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("contract_id = ?", id).Delete(&models.Partida{}).Error; err != nil {
		return err
	}
	result := db.Delete(&models.Contract{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}
