// Package models contains the database rows of the export service,
// configured to work using GORM as the ORM.
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Contract is a sale agreement row. Its partidas live in their own table and
// are replaced wholesale on every save.
type Contract struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Company            string          `gorm:"size:16;not null;uniqueIndex:idx_contract_number"`
	Number             string          `gorm:"size:64;not null;uniqueIndex:idx_contract_number"`
	BuyerRef           string          `gorm:"size:128"`
	SaleDate           time.Time       `gorm:"index"`
	HarvestYear        string          `gorm:"size:9"`
	Organic            bool            `gorm:"not null;default:false"`
	FairTrade          bool            `gorm:"not null;default:false"`
	RainforestAlliance bool            `gorm:"not null;default:false"`
	CafePractices      bool            `gorm:"not null;default:false"`
	Terminated         bool            `gorm:"not null;default:false;index"`
	LicenseRental      bool            `gorm:"not null;default:false"`
	CoffeeType         string          `gorm:"size:128"`
	Differential       decimal.Decimal `gorm:"type:numeric(12,4);not null;default:0"`
	Partidas           []Partida       `gorm:"foreignKey:ContractID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// PackagingRequirement is stored as JSON inside the partida row.
type PackagingRequirement struct {
	MaterialName   string `json:"material_name"`
	RequiredCount  int    `json:"required_count"`
	PurchasedCount int    `json:"purchased_count"`
}

// Partida is a lot row. Company, HarvestYear and LotKey denormalize the
// uniqueness scope at save time; LotKey is NULL for blank lot numbers so
// they never collide.
type Partida struct {
	ID              uuid.UUID              `gorm:"type:uuid;primaryKey"`
	ContractID      uuid.UUID              `gorm:"type:uuid;not null;index"`
	Position        int                    `gorm:"not null"`
	Company         string                 `gorm:"size:16;not null;uniqueIndex:idx_partida_lot_scope"`
	HarvestYear     string                 `gorm:"size:9;not null;uniqueIndex:idx_partida_lot_scope"`
	LotKey          *string                `gorm:"size:64;uniqueIndex:idx_partida_lot_scope"`
	LotNumber       string                 `gorm:"size:64"`
	UnitCount       int                    `gorm:"not null;default:0;check:unit_count >= 0"`
	WeightKg        decimal.Decimal        `gorm:"type:numeric(14,2);not null;default:0"`
	WeightQuintales decimal.Decimal        `gorm:"type:numeric(14,2);not null;default:0"`
	PackageType     string                 `gorm:"size:128"`
	PackageKind     string                 `gorm:"size:16"`
	Packaging       []PackagingRequirement `gorm:"serializer:json"`
	CutoffDate      *time.Time
	ETD             *time.Time
	MarksStatus     string          `gorm:"size:16;not null;default:pending"`
	FixingPrice     decimal.Decimal `gorm:"type:numeric(12,4);not null;default:0"`
	FinalPrice      decimal.Decimal `gorm:"type:numeric(12,4);not null;default:0"`
	ISFRequired     bool            `gorm:"not null;default:false"`
	ISFSent         bool            `gorm:"not null;default:false"`
}
