package engine

import (
	"strings"

	"github.com/gartstein/cafexport/internal/export/models"
	"github.com/google/uuid"
)

// Packaging material categories.
const (
	MaterialSacks     = "Sacks"
	MaterialLinerBags = "Liner bags"
	MaterialBigBags   = "Big bags"
	MaterialJumboBags = "Jumbo bags"
)

// RequirementSource tells where the requirements of a lot came from.
type RequirementSource string

const (
	SourceExplicit  RequirementSource = "explicit"
	SourceTemplate  RequirementSource = "template"
	SourceHeuristic RequirementSource = "heuristic"
	SourceNone      RequirementSource = "none"
)

// packageTemplates maps tagged package kinds to the materials they need, one
// unit of each per bag.
var packageTemplates = map[models.PackageKind][]string{
	models.PackageSack:      {MaterialSacks},
	models.PackageSackLiner: {MaterialSacks, MaterialLinerBags},
	models.PackageBigBag:    {MaterialBigBags},
	models.PackageJumbo:     {MaterialJumboBags},
	models.PackageBulk:      nil,
}

var (
	sackTerms   = []string{"sack", "saco"}
	linerTerms  = []string{"liner", "grainpro", "grain pro"}
	bigBagTerms = []string{"big bag", "big-bag", "bigbag"}
	jumboTerms  = []string{"jumbo"}
)

// ReconciliationLine compares required and purchased counts of one material.
type ReconciliationLine struct {
	Material  string
	Required  int
	Purchased int
	Missing   int
}

// Reconciliation is the packaging state of one lot.
type Reconciliation struct {
	LotID  uuid.UUID
	Lines  []ReconciliationLine
	Source RequirementSource
}

// Missing sums the missing units over all materials.
func (r Reconciliation) Missing() int {
	n := 0
	for _, l := range r.Lines {
		n += l.Missing
	}
	return n
}

// Reconcile derives the packaging requirements of p. Explicit records win;
// otherwise the tagged package kind selects a template; otherwise the
// free-text package type is matched against known terms. The label match is
// best effort and callers should treat it as a data-quality warning.
func Reconcile(p *models.Partida) Reconciliation {
	rec := Reconciliation{LotID: p.ID}

	if len(p.Packaging) > 0 {
		rec.Source = SourceExplicit
		for _, req := range p.Packaging {
			rec.Lines = append(rec.Lines, line(req.MaterialName, req.RequiredCount, req.PurchasedCount))
		}
		return rec
	}

	var materials []string
	if tpl, ok := packageTemplates[p.PackageKind]; ok {
		rec.Source = SourceTemplate
		materials = tpl
	} else {
		materials = InferMaterials(p.PackageType)
		rec.Source = SourceHeuristic
		if strings.TrimSpace(p.PackageType) == "" {
			rec.Source = SourceNone
		}
	}
	for _, m := range materials {
		rec.Lines = append(rec.Lines, line(m, p.UnitCount, 0))
	}
	return rec
}

// InferMaterials guesses the materials a package-type label needs.
func InferMaterials(label string) []string {
	l := strings.ToLower(label)
	var out []string
	if containsAny(l, sackTerms) {
		out = append(out, MaterialSacks)
		if containsAny(l, linerTerms) {
			out = append(out, MaterialLinerBags)
		}
	}
	if containsAny(l, bigBagTerms) {
		out = append(out, MaterialBigBags)
	}
	if containsAny(l, jumboTerms) {
		out = append(out, MaterialJumboBags)
	}
	return out
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func line(material string, required, purchased int) ReconciliationLine {
	missing := required - purchased
	if missing < 0 {
		missing = 0
	}
	return ReconciliationLine{
		Material:  material,
		Required:  required,
		Purchased: purchased,
		Missing:   missing,
	}
}

// MaterialTotal aggregates one material over many lots. Missing is the sum
// of per-lot shortfalls; a surplus in one lot does not cover another.
type MaterialTotal struct {
	Material  string
	Required  int
	Purchased int
	Missing   int
}

// PackagingSummary aggregates the reconciliation of a contract's lots.
type PackagingSummary struct {
	ContractID     uuid.UUID
	ContractNumber string
	Materials      []MaterialTotal
	Lots           []Reconciliation
	// Shortfall is set when any lot misses material.
	Shortfall bool
}

// SummarizeContract reconciles every lot of c. Materials keep the order in
// which they first appear.
func SummarizeContract(c *models.Contract) PackagingSummary {
	sum := PackagingSummary{ContractID: c.ID, ContractNumber: c.Number}
	index := make(map[string]int)
	for i := range c.Partidas {
		rec := Reconcile(&c.Partidas[i])
		sum.Lots = append(sum.Lots, rec)
		if rec.Missing() > 0 {
			sum.Shortfall = true
		}
		for _, l := range rec.Lines {
			pos, ok := index[l.Material]
			if !ok {
				pos = len(sum.Materials)
				index[l.Material] = pos
				sum.Materials = append(sum.Materials, MaterialTotal{Material: l.Material})
			}
			t := &sum.Materials[pos]
			t.Required += l.Required
			t.Purchased += l.Purchased
			t.Missing += l.Missing
		}
	}
	return sum
}
