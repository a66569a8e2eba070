package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gartstein/cafexport/internal/export/db/models"
	e "github.com/gartstein/cafexport/internal/export/errors"
	domain "github.com/gartstein/cafexport/internal/export/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (r *Repository) ListDocuments(ctx context.Context, company domain.Company) ([]domain.Document, error) {
	var rows []models.Document
	result := r.db.WithContext(ctx).
		Where("company = ?", string(company)).
		Order("created_at ASC").
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	docs := make([]domain.Document, 0, len(rows))
	for i := range rows {
		docs = append(docs, documentFromRow(&rows[i]))
	}
	return docs, nil
}

func (r *Repository) GetDocument(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	var row models.Document
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	d := documentFromRow(&row)
	return &d, nil
}

func (r *Repository) CreateDocument(ctx context.Context, d *domain.Document) error {
	row := documentToRow(d)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: document number %s already used", e.ErrConcurrentUpdate, d.Number)
		}
		return err
	}
	d.CreatedAt = row.CreatedAt
	d.UpdatedAt = row.UpdatedAt
	return nil
}

// UpdateDocument writes the editable fields of d. Kind, company and number
// are never rewritten.
func (r *Repository) UpdateDocument(ctx context.Context, d *domain.Document) error {
	row := documentToRow(d)
	result := r.db.WithContext(ctx).Model(&models.Document{}).
		Where("id = ?", d.ID).
		Select("invoice_subtype", "issue_date", "contract_id", "shipment_id", "items",
			"total_quantity", "total_amount", "updated_at").
		Updates(row)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Document{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

// NextSequence advances the counter of scope key and returns the new value.
// The counter never falls below floor, the count-based number of documents
// already in scope, which seeds scopes that have no counter yet. A counter
// moved by a concurrent writer returns ErrConcurrentUpdate.
func (r *Repository) NextSequence(ctx context.Context, key string, floor int) (int, error) {
	db := r.db.WithContext(ctx)

	var seq models.Sequence
	err := db.First(&seq, "scope_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		seq = models.Sequence{ScopeKey: key, LastValue: floor + 1}
		if err := db.Create(&seq).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return 0, fmt.Errorf("%w: sequence %s", e.ErrConcurrentUpdate, key)
			}
			return 0, err
		}
		return seq.LastValue, nil
	}
	if err != nil {
		return 0, err
	}

	next := seq.LastValue + 1
	if floor >= next {
		next = floor + 1
	}
	result := db.Model(&models.Sequence{}).
		Where("scope_key = ? AND last_value = ?", key, seq.LastValue).
		Updates(map[string]interface{}{"last_value": next, "updated_at": time.Now()})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, fmt.Errorf("%w: sequence %s", e.ErrConcurrentUpdate, key)
	}
	return next, nil
}
