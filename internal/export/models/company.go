// Package models defines the domain model of the export lifecycle: the two
// operating companies, contracts and their lots (partidas), trade documents,
// shipments with their task checklist, and roles.
package models

import (
	"fmt"
	"strings"

	e "github.com/gartstein/cafexport/internal/export/errors"
)

// Company identifies one of the two operating companies. Nearly every query
// and every sequence is scoped by it.
type Company string

const (
	CompanyDelta    Company = "delta"
	CompanyPacifico Company = "pacifico"
)

// Companies lists the tenants in their fixed order.
var Companies = []Company{CompanyDelta, CompanyPacifico}

// ParseCompany normalizes s and rejects unknown companies.
func ParseCompany(s string) (Company, error) {
	c := Company(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: unknown company %q", e.ErrInvalidInput, s)
	}
	return c, nil
}

// Valid reports whether c is one of the known companies.
func (c Company) Valid() bool {
	return c == CompanyDelta || c == CompanyPacifico
}

// Letter is the single-letter company code used in certificate numbers.
func (c Company) Letter() string {
	switch c {
	case CompanyDelta:
		return "D"
	case CompanyPacifico:
		return "P"
	default:
		return ""
	}
}

// LotPrefix is prepended to user-entered lot numbers for display.
func (c Company) LotPrefix() string {
	switch c {
	case CompanyDelta:
		return "DEL-"
	case CompanyPacifico:
		return "PAC-"
	default:
		return ""
	}
}
