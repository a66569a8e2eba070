package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItem is stored as JSON inside the document row.
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
}

// Document is a trade document row. Numbers are unique per company and kind.
type Document struct {
	ID             uuid.UUID           `gorm:"type:uuid;primaryKey"`
	Kind           string              `gorm:"size:32;not null;uniqueIndex:idx_document_number;index:idx_document_scope"`
	Company        string              `gorm:"size:16;not null;uniqueIndex:idx_document_number;index:idx_document_scope"`
	Number         string              `gorm:"size:32;not null;uniqueIndex:idx_document_number"`
	InvoiceSubtype string              `gorm:"size:16"`
	IssueDate      time.Time           `gorm:"not null"`
	ContractID     *uuid.UUID          `gorm:"type:uuid;index"`
	ShipmentID     *uuid.UUID          `gorm:"type:uuid;index"`
	Items          []LineItem          `gorm:"serializer:json"`
	TotalQuantity  decimal.NullDecimal `gorm:"type:numeric(14,2)"`
	TotalAmount    decimal.NullDecimal `gorm:"type:numeric(14,2)"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Sequence is the persisted monotonic counter of one numbering scope. It
// only ever grows, so deleted documents never free their numbers.
type Sequence struct {
	ScopeKey  string `gorm:"primaryKey;size:96"`
	LastValue int    `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
