// Package engine implements the export lifecycle state and derivation rules:
// harvest-year resolution, document and lot numbering, lot-number uniqueness,
// packaging reconciliation, operational alerts, permission evaluation and the
// shipment task checklist.
//
// Every function here is a pure computation over a snapshot supplied by the
// caller. Nothing in this package performs I/O, logs, or reads the clock.
package engine

import (
	"fmt"
	"strings"
	"time"

	e "github.com/gartstein/cafexport/internal/export/errors"
	"github.com/gartstein/cafexport/internal/export/models"
)

// HarvestBoundaryMonth is the first month of a harvest year.
const HarvestBoundaryMonth = time.October

// ResolveHarvestYear returns the harvest-year label of t, e.g. "2024-2025"
// for any date from October 2024 through September 2025. A zero time
// resolves to "".
func ResolveHarvestYear(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	y := t.Year()
	if t.Month() < HarvestBoundaryMonth {
		y--
	}
	return fmt.Sprintf("%d-%d", y, y+1)
}

// ContractHarvestYear returns the stored harvest year of c when present,
// otherwise the one derived from its sale date.
func ContractHarvestYear(c *models.Contract) (string, error) {
	if hy := strings.TrimSpace(c.HarvestYear); hy != "" {
		return hy, nil
	}
	if hy := ResolveHarvestYear(c.SaleDate); hy != "" {
		return hy, nil
	}
	return "", fmt.Errorf("%w: contract %s has neither harvest year nor sale date", e.ErrMissingScope, c.Number)
}
