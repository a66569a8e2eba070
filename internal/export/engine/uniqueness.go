package engine

import (
	"fmt"
	"strings"

	e "github.com/gartstein/cafexport/internal/export/errors"
	"github.com/gartstein/cafexport/internal/export/models"
	"github.com/google/uuid"
)

// ValidateLotNumber checks candidate against every lot of the contracts that
// belong to company and resolve to harvestYear. The lot being edited is
// skipped via excludeLotID. Blank candidates are not checked.
func ValidateLotNumber(
	candidate string,
	company models.Company,
	harvestYear string,
	contracts []models.Contract,
	excludeLotID uuid.UUID,
) error {
	lot := strings.TrimSpace(candidate)
	if lot == "" {
		return nil
	}
	if company == "" || strings.TrimSpace(harvestYear) == "" {
		return fmt.Errorf("%w: company and harvest year required", e.ErrMissingScope)
	}

	for i := range contracts {
		c := &contracts[i]
		if c.Company != company {
			continue
		}
		hy, err := ContractHarvestYear(c)
		if err != nil || hy != harvestYear {
			continue
		}
		for j := range c.Partidas {
			p := &c.Partidas[j]
			if excludeLotID != uuid.Nil && p.ID == excludeLotID {
				continue
			}
			if strings.TrimSpace(p.LotNumber) == lot {
				return &e.DuplicateLotError{
					LotNumber:      lot,
					ContractID:     c.ID.String(),
					ContractNumber: c.Number,
				}
			}
		}
	}
	return nil
}

// ValidateContractLots checks every lot of c against the other contracts of
// the snapshot and against the other lots of c itself. The stored copy of c
// in contracts, if any, is ignored. Lots of other contracts are never
// skipped, whatever IDs the lots of c carry.
func ValidateContractLots(c *models.Contract, contracts []models.Contract) error {
	hasLots := false
	for i := range c.Partidas {
		if strings.TrimSpace(c.Partidas[i].LotNumber) != "" {
			hasLots = true
			break
		}
	}
	if !hasLots {
		return nil
	}

	hy, err := ContractHarvestYear(c)
	if err != nil {
		return err
	}

	others := make([]models.Contract, 0, len(contracts))
	for i := range contracts {
		if contracts[i].ID != c.ID {
			others = append(others, contracts[i])
		}
	}

	seen := make(map[string]struct{}, len(c.Partidas))
	for i := range c.Partidas {
		p := &c.Partidas[i]
		lot := strings.TrimSpace(p.LotNumber)
		if lot == "" {
			continue
		}
		if _, dup := seen[lot]; dup {
			return &e.DuplicateLotError{LotNumber: lot, ContractID: c.ID.String(), ContractNumber: c.Number}
		}
		seen[lot] = struct{}{}
		if err := ValidateLotNumber(lot, c.Company, hy, others, uuid.Nil); err != nil {
			return err
		}
	}
	return nil
}
