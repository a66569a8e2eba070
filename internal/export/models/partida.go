package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MarksStatus tracks the confirmation of shipping marks with the buyer.
type MarksStatus string

const (
	MarksPending   MarksStatus = "pending"
	MarksSent      MarksStatus = "sent"
	MarksConfirmed MarksStatus = "confirmed"
)

// Valid reports whether s is a known marks status. Blank counts as pending.
func (s MarksStatus) Valid() bool {
	switch s {
	case "", MarksPending, MarksSent, MarksConfirmed:
		return true
	}
	return false
}

// PackageKind is the tagged package type of a lot. Legacy lots carry only the
// free-text PackageType label and leave this blank.
type PackageKind string

const (
	PackageSack      PackageKind = "sack"
	PackageSackLiner PackageKind = "sack_liner"
	PackageBigBag    PackageKind = "big_bag"
	PackageJumbo     PackageKind = "jumbo"
	PackageBulk      PackageKind = "bulk"
)

// Valid reports whether k is blank or a known kind.
func (k PackageKind) Valid() bool {
	switch k {
	case "", PackageSack, PackageSackLiner, PackageBigBag, PackageJumbo, PackageBulk:
		return true
	}
	return false
}

// PackagingRequirement is an explicit packaging material record of a lot.
type PackagingRequirement struct {
	MaterialName   string
	RequiredCount  int
	PurchasedCount int
}

// Partida is a lot: one shippable quantity of coffee within a contract.
type Partida struct {
	ID         uuid.UUID
	ContractID uuid.UUID
	// LotNumber is free text, unique within company and harvest year.
	LotNumber string
	// UnitCount is the number of bags or units.
	UnitCount int
	WeightKg  decimal.Decimal
	// WeightQuintales is WeightKg / 46 rounded to 2 places while the lot is
	// edited in linked mode.
	WeightQuintales decimal.Decimal
	PackageType     string
	PackageKind     PackageKind
	// Packaging holds explicit requirement records. When empty, requirements
	// are inferred from the package type.
	Packaging   []PackagingRequirement
	CutoffDate  *time.Time
	ETD         *time.Time
	MarksStatus MarksStatus
	FixingPrice decimal.Decimal
	// FinalPrice is Differential + FixingPrice, recomputed at every save.
	FinalPrice  decimal.Decimal
	ISFRequired bool
	ISFSent     bool
}
