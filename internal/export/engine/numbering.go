package engine

import (
	"fmt"

	e "github.com/gartstein/cafexport/internal/export/errors"
	"github.com/gartstein/cafexport/internal/export/models"
)

// NumberRequest describes the document to be numbered.
type NumberRequest struct {
	Kind    models.DocumentKind
	Company models.Company
	// InvoiceSubtype applies to invoices; blank means export.
	InvoiceSubtype models.InvoiceSubtype
	// Year scopes waybills and payment instructions (calendar year of issue).
	Year int
}

// certificateCodes are the type codes of certificates created in bulk with a
// shipment.
var certificateCodes = map[models.DocumentKind]string{
	models.KindWeightCertificate:  "WT",
	models.KindQualityCertificate: "QC",
	models.KindPackingList:        "PL",
}

// CertificateKinds are created, in this order, for every new shipment.
var CertificateKinds = []models.DocumentKind{
	models.KindWeightCertificate,
	models.KindQualityCertificate,
	models.KindPackingList,
}

func (r NumberRequest) subtype() models.InvoiceSubtype {
	if r.InvoiceSubtype == "" {
		return models.InvoiceExport
	}
	return r.InvoiceSubtype
}

func (r NumberRequest) validate() error {
	if r.Company == "" {
		return fmt.Errorf("%w: company required", e.ErrMissingScope)
	}
	if !r.Company.Valid() {
		return fmt.Errorf("%w: unknown company %q", e.ErrInvalidInput, r.Company)
	}
	switch r.Kind {
	case models.KindInvoice:
		if s := r.subtype(); s != models.InvoiceExport && s != models.InvoiceOther {
			return fmt.Errorf("%w: unknown invoice subtype %q", e.ErrInvalidInput, s)
		}
	case models.KindPorte, models.KindPaymentInstruction:
		if r.Year <= 0 {
			return fmt.Errorf("%w: year required for %s", e.ErrMissingScope, r.Kind)
		}
	case models.KindWeightCertificate, models.KindQualityCertificate, models.KindPackingList:
	default:
		return fmt.Errorf("%w: unknown document kind %q", e.ErrInvalidInput, r.Kind)
	}
	return nil
}

// ScopeKey identifies the sequence a request draws from.
func ScopeKey(r NumberRequest) (string, error) {
	if err := r.validate(); err != nil {
		return "", err
	}
	switch r.Kind {
	case models.KindInvoice:
		return fmt.Sprintf("invoice/%s/%s", r.Company, r.subtype()), nil
	case models.KindPorte, models.KindPaymentInstruction:
		return fmt.Sprintf("%s/%s/%d", r.Kind, r.Company, r.Year), nil
	default:
		return fmt.Sprintf("%s/%s", certificateCodes[r.Kind], r.Company), nil
	}
}

// InScope reports whether doc counts towards the sequence of r.
func InScope(r NumberRequest, doc *models.Document) bool {
	if doc.Company != r.Company || doc.Kind != r.Kind {
		return false
	}
	switch r.Kind {
	case models.KindInvoice:
		sub := doc.InvoiceSubtype
		if sub == "" {
			sub = models.InvoiceExport
		}
		return sub == r.subtype()
	case models.KindPorte, models.KindPaymentInstruction:
		return doc.IssueDate.Year() == r.Year
	}
	return true
}

// CountExisting counts the documents of docs in the scope of r.
func CountExisting(r NumberRequest, docs []models.Document) int {
	n := 0
	for i := range docs {
		if InScope(r, &docs[i]) {
			n++
		}
	}
	return n
}

// Format renders sequence number seq for r.
//
//	invoice              INV-003 / VAR-003
//	porte                CP-2024-003
//	payment instruction  PI-2024-003
//	certificates         WT-D03-001, QC-P12-001, PL-D01-001
//
// The trailing -001 of certificate numbers is a constant suffix.
func Format(r NumberRequest, seq int) (string, error) {
	if err := r.validate(); err != nil {
		return "", err
	}
	switch r.Kind {
	case models.KindInvoice:
		prefix := "INV"
		if r.subtype() == models.InvoiceOther {
			prefix = "VAR"
		}
		return fmt.Sprintf("%s-%03d", prefix, seq), nil
	case models.KindPorte:
		return fmt.Sprintf("CP-%d-%03d", r.Year, seq), nil
	case models.KindPaymentInstruction:
		return fmt.Sprintf("PI-%d-%03d", r.Year, seq), nil
	default:
		return fmt.Sprintf("%s-%s%02d-001", certificateCodes[r.Kind], r.Company.Letter(), seq), nil
	}
}

// Generate returns the next identifier for r from a count over docs.
func Generate(r NumberRequest, docs []models.Document) (string, error) {
	return Format(r, CountExisting(r, docs)+1)
}

// Sequencer numbers several documents against one snapshot. Counts are taken
// once per scope and then advanced locally, so documents numbered within the
// same save never observe different counts.
type Sequencer struct {
	docs []models.Document
	last map[string]int
}

// NewSequencer reads docs once for all subsequent requests.
func NewSequencer(docs []models.Document) *Sequencer {
	return &Sequencer{docs: docs, last: make(map[string]int)}
}

// Count returns the snapshot count for the scope of r, ignoring numbers
// already handed out by Next.
func (s *Sequencer) Count(r NumberRequest) (int, error) {
	if _, err := ScopeKey(r); err != nil {
		return 0, err
	}
	return CountExisting(r, s.docs), nil
}

// Next hands out the next identifier for the scope of r and its sequence.
func (s *Sequencer) Next(r NumberRequest) (string, int, error) {
	key, err := ScopeKey(r)
	if err != nil {
		return "", 0, err
	}
	last, ok := s.last[key]
	if !ok {
		last = CountExisting(r, s.docs)
	}
	last++
	id, err := Format(r, last)
	if err != nil {
		return "", 0, err
	}
	s.last[key] = last
	return id, last, nil
}
