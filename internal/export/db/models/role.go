package models

import (
	"time"

	"github.com/google/uuid"
)

// Permission is stored as JSON inside the role row.
type Permission struct {
	Resource string   `json:"resource"`
	Actions  []string `json:"actions"`
}

// Role owns a flat set of permissions.
type Role struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey"`
	Name        string       `gorm:"size:64;not null;uniqueIndex"`
	Permissions []Permission `gorm:"serializer:json"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// User references exactly one role.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"size:64;not null"`
	RoleID    uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
