package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Certifications holds the certification flags of a contract.
type Certifications struct {
	Organic            bool
	FairTrade          bool
	RainforestAlliance bool
	CafePractices      bool
}

// Contract is a sale agreement. It owns its partidas: deleting the contract
// deletes them.
type Contract struct {
	// ID is the unique identifier for the contract.
	ID uuid.UUID
	// Company scopes the contract.
	Company Company
	// Number is the human contract number shown to operators.
	Number string
	// BuyerRef is the buyer's reference for the contract.
	BuyerRef string
	// SaleDate is the date the sale was agreed.
	SaleDate time.Time
	// HarvestYear is an explicit harvest-year label. When blank it is derived
	// from SaleDate on every read.
	HarvestYear string
	// Certifications of the coffee sold.
	Certifications Certifications
	// Terminated contracts produce no alerts.
	Terminated bool
	// LicenseRental marks contracts exported under a rented export license.
	LicenseRental bool
	// CoffeeType is a free-text description of the coffee.
	CoffeeType string
	// Differential is added to every lot's fixing price.
	Differential decimal.Decimal
	// Partidas are the lots of the contract, in order.
	Partidas []Partida
	// CreatedAt records the timestamp when the contract was created.
	CreatedAt time.Time
	// UpdatedAt records the timestamp when the contract was last updated.
	UpdatedAt time.Time
}

// Partida looks up a lot of the contract by ID.
func (c *Contract) Partida(id uuid.UUID) (*Partida, bool) {
	for i := range c.Partidas {
		if c.Partidas[i].ID == id {
			return &c.Partidas[i], true
		}
	}
	return nil, false
}
