package models

import (
	"time"

	"github.com/google/uuid"
)

// Shipment groups lots of one contract for a physical movement.
type Shipment struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey"`
	ContractID  uuid.UUID      `gorm:"type:uuid;not null;index"`
	Company     string         `gorm:"size:16;not null;index"`
	PartidaIDs  []uuid.UUID    `gorm:"serializer:json"`
	DocumentIDs []uuid.UUID    `gorm:"serializer:json"`
	Tasks       []ShipmentTask `gorm:"foreignKey:ShipmentID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ShipmentTask is one checklist entry of a shipment.
type ShipmentTask struct {
	ShipmentID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Key        string    `gorm:"column:task_key;size:32;primaryKey"`
	Name       string    `gorm:"size:128;not null"`
	Position   int       `gorm:"not null"`
	Status     string    `gorm:"size:16;not null;default:pending"`
	Priority   string    `gorm:"size:8;not null;default:medium"`
	UpdatedAt  time.Time
}
