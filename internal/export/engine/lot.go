package engine

import (
	"strings"

	e "github.com/gartstein/cafexport/internal/export/errors"
	"github.com/gartstein/cafexport/internal/export/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// KgPerQuintal is the weight of one 46 kg unit.
var KgPerQuintal = decimal.NewFromInt(46)

// QuintalesFromKg converts kilograms to 46 kg units rounded to 2 places.
func QuintalesFromKg(kg decimal.Decimal) decimal.Decimal {
	return kg.Div(KgPerQuintal).Round(2)
}

// FinalPrice is the settlement price of a lot.
func FinalPrice(differential, fixingPrice decimal.Decimal) decimal.Decimal {
	return differential.Add(fixingPrice)
}

// LotDisplayNumber renders the lot number shown on documents.
func LotDisplayNumber(company models.Company, lotNumber string) string {
	return company.LotPrefix() + strings.TrimSpace(lotNumber)
}

// LotEdit carries a lot through an edit session together with the weight
// link mode. The mode belongs to the session and is never stored with the
// lot.
type LotEdit struct {
	Lot          *models.Partida
	WeightLinked bool
}

// NewLotEdit starts an edit session in linked mode.
func NewLotEdit(p *models.Partida) *LotEdit {
	return &LotEdit{Lot: p, WeightLinked: true}
}

// SetWeightKg sets the kilogram weight, deriving quintales when linked.
func (le *LotEdit) SetWeightKg(kg decimal.Decimal) {
	le.Lot.WeightKg = kg
	if le.WeightLinked {
		le.Lot.WeightQuintales = QuintalesFromKg(kg)
	}
}

// SetWeightQuintales sets quintales independently. Only allowed when unlinked.
func (le *LotEdit) SetWeightQuintales(q decimal.Decimal) error {
	if le.WeightLinked {
		return e.ErrInvalidInput
	}
	le.Lot.WeightQuintales = q
	return nil
}

// Unlink lets quintales be edited independently of kilograms.
func (le *LotEdit) Unlink() {
	le.WeightLinked = false
}

// Link re-links the weights and recomputes quintales.
func (le *LotEdit) Link() {
	le.WeightLinked = true
	le.Lot.WeightQuintales = QuintalesFromKg(le.Lot.WeightKg)
}

// SetISFRequired toggles the ISF requirement. Turning it off clears ISFSent.
func (le *LotEdit) SetISFRequired(required bool) {
	le.Lot.ISFRequired = required
	if !required {
		le.Lot.ISFSent = false
	}
}

// SetISFSent marks the ISF as sent. When no ISF is required the flag stays
// false and ErrInconsistentToggle is returned; the lot remains consistent.
func (le *LotEdit) SetISFSent(sent bool) error {
	if sent && !le.Lot.ISFRequired {
		le.Lot.ISFSent = false
		return e.ErrInconsistentToggle
	}
	le.Lot.ISFSent = sent
	return nil
}

// PrepareContract applies the save-time derivations to every lot of c: lot
// numbers are trimmed, final prices recomputed, quintales recomputed for
// lots not listed in unlinked, and ISF flags normalized. It returns how many
// ISF toggles had to be corrected.
func PrepareContract(c *models.Contract, unlinked map[uuid.UUID]bool) int {
	corrected := 0
	for i := range c.Partidas {
		p := &c.Partidas[i]
		p.ContractID = c.ID
		p.LotNumber = strings.TrimSpace(p.LotNumber)
		p.FinalPrice = FinalPrice(c.Differential, p.FixingPrice)
		if !unlinked[p.ID] {
			p.WeightQuintales = QuintalesFromKg(p.WeightKg)
		}
		if p.MarksStatus == "" {
			p.MarksStatus = models.MarksPending
		}
		if p.ISFSent && !p.ISFRequired {
			p.ISFSent = false
			corrected++
		}
	}
	return corrected
}
