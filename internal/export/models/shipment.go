package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the status of a shipment task. Any status may follow any
// other.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskSkipped    TaskStatus = "skipped"
	TaskBacklog    TaskStatus = "backlog"
)

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted, TaskSkipped, TaskBacklog:
		return true
	}
	return false
}

// TaskPriority is the priority of a shipment task.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// Valid reports whether p is a known priority.
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task is one entry of a shipment checklist.
type Task struct {
	Key      string
	Name     string
	Position int
	Status   TaskStatus
	Priority TaskPriority
}

// Shipment groups a subset of a contract's partidas for one physical
// movement.
type Shipment struct {
	ID         uuid.UUID
	ContractID uuid.UUID
	Company    Company
	PartidaIDs []uuid.UUID
	Tasks      []Task
	// DocumentIDs are the certificates created with the shipment.
	DocumentIDs []uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
