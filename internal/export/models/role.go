package models

import (
	"github.com/google/uuid"
)

// Resource is a protected collection.
type Resource string

const (
	ResourceContracts Resource = "contracts"
	ResourcePartidas  Resource = "partidas"
	ResourceDocuments Resource = "documents"
	ResourceShipments Resource = "shipments"
	ResourceRoles     Resource = "roles"
	ResourceAlerts    Resource = "alerts"
)

// Action is an operation on a resource.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// Permission grants a set of actions on one resource.
type Permission struct {
	Resource Resource
	Actions  []Action
}

// Role owns a flat set of permissions. Roles do not inherit from each other.
type Role struct {
	ID          uuid.UUID
	Name        string
	Permissions []Permission
}

// User references exactly one role.
type User struct {
	ID     uuid.UUID
	Name   string
	RoleID uuid.UUID
}
