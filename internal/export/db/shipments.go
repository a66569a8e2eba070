package db

import (
	"context"
	"time"

	"github.com/gartstein/cafexport/internal/export/db/models"
	e "github.com/gartstein/cafexport/internal/export/errors"
	domain "github.com/gartstein/cafexport/internal/export/models"
	"github.com/google/uuid"
	"gorm.io/gorm/clause"
)

func (r *Repository) CreateShipment(ctx context.Context, s *domain.Shipment) error {
	row := shipmentToRow(s)
	tasks := row.Tasks
	row.Tasks = nil

	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(row).Error; err != nil {
		return err
	}
	if len(tasks) > 0 {
		if err := db.Create(&tasks).Error; err != nil {
			return err
		}
	}
	s.CreatedAt = row.CreatedAt
	s.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *Repository) GetShipment(ctx context.Context, id uuid.UUID) (*domain.Shipment, error) {
	var row models.Shipment
	result := r.db.WithContext(ctx).
		Preload("Tasks", byPosition).
		First(&row, "id = ?", id)
	if result.Error != nil {
		return nil, notFound(result.Error)
	}
	s := shipmentFromRow(&row)
	return &s, nil
}

// UpdateShipmentTasks writes status and priority of every task of s.
func (r *Repository) UpdateShipmentTasks(ctx context.Context, s *domain.Shipment) error {
	db := r.db.WithContext(ctx)
	for _, t := range tasksToRows(s.ID, s.Tasks) {
		result := db.Model(&models.ShipmentTask{}).
			Where("shipment_id = ? AND task_key = ?", s.ID, t.Key).
			Updates(map[string]interface{}{"status": t.Status, "priority": t.Priority})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return e.ErrNotFound
		}
	}
	return db.Model(&models.Shipment{}).Where("id = ?", s.ID).Update("updated_at", time.Now()).Error
}

func (r *Repository) DeleteShipment(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("shipment_id = ?", id).Delete(&models.ShipmentTask{}).Error; err != nil {
		return err
	}
	result := db.Delete(&models.Shipment{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}
