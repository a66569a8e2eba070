package engine

import (
	"testing"
	"time"

	e "github.com/gartstein/cafexport/internal/export/errors"
	"github.com/gartstein/cafexport/internal/export/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doc(kind models.DocumentKind, company models.Company, sub models.InvoiceSubtype, issued time.Time) models.Document {
	return models.Document{ID: uuid.New(), Kind: kind, Company: company, InvoiceSubtype: sub, IssueDate: issued}
}

func TestGenerate(t *testing.T) {
	d := date(2024, time.November, 1)
	docs := []models.Document{
		doc(models.KindInvoice, models.CompanyDelta, models.InvoiceExport, d),
		doc(models.KindInvoice, models.CompanyDelta, models.InvoiceExport, d),
		doc(models.KindInvoice, models.CompanyDelta, models.InvoiceOther, d),
		doc(models.KindInvoice, models.CompanyPacifico, models.InvoiceExport, d),
		doc(models.KindPorte, models.CompanyDelta, "", d),
		doc(models.KindPorte, models.CompanyDelta, "", date(2023, time.December, 31)),
		doc(models.KindPaymentInstruction, models.CompanyPacifico, "", d),
		doc(models.KindWeightCertificate, models.CompanyDelta, "", d),
		doc(models.KindWeightCertificate, models.CompanyDelta, "", d),
		doc(models.KindQualityCertificate, models.CompanyPacifico, "", d),
	}

	tests := []struct {
		name string
		req  NumberRequest
		want string
	}{
		{
			name: "third export invoice",
			req:  NumberRequest{Kind: models.KindInvoice, Company: models.CompanyDelta, InvoiceSubtype: models.InvoiceExport},
			want: "INV-003",
		},
		{
			name: "blank subtype counts as export",
			req:  NumberRequest{Kind: models.KindInvoice, Company: models.CompanyDelta},
			want: "INV-003",
		},
		{
			name: "other invoice",
			req:  NumberRequest{Kind: models.KindInvoice, Company: models.CompanyDelta, InvoiceSubtype: models.InvoiceOther},
			want: "VAR-002",
		},
		{
			name: "other company export invoice",
			req:  NumberRequest{Kind: models.KindInvoice, Company: models.CompanyPacifico, InvoiceSubtype: models.InvoiceExport},
			want: "INV-002",
		},
		{
			name: "porte scoped by year",
			req:  NumberRequest{Kind: models.KindPorte, Company: models.CompanyDelta, Year: 2024},
			want: "CP-2024-002",
		},
		{
			name: "porte new year",
			req:  NumberRequest{Kind: models.KindPorte, Company: models.CompanyDelta, Year: 2025},
			want: "CP-2025-001",
		},
		{
			name: "payment instruction",
			req:  NumberRequest{Kind: models.KindPaymentInstruction, Company: models.CompanyPacifico, Year: 2024},
			want: "PI-2024-002",
		},
		{
			name: "weight certificate keeps constant suffix",
			req:  NumberRequest{Kind: models.KindWeightCertificate, Company: models.CompanyDelta},
			want: "WT-D03-001",
		},
		{
			name: "quality certificate second company",
			req:  NumberRequest{Kind: models.KindQualityCertificate, Company: models.CompanyPacifico},
			want: "QC-P02-001",
		},
		{
			name: "first packing list",
			req:  NumberRequest{Kind: models.KindPackingList, Company: models.CompanyPacifico},
			want: "PL-P01-001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Generate(tt.req, docs)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		req     NumberRequest
		wantErr error
	}{
		{name: "no company", req: NumberRequest{Kind: models.KindInvoice}, wantErr: e.ErrMissingScope},
		{name: "unknown company", req: NumberRequest{Kind: models.KindInvoice, Company: "acme"}, wantErr: e.ErrInvalidInput},
		{name: "porte without year", req: NumberRequest{Kind: models.KindPorte, Company: models.CompanyDelta}, wantErr: e.ErrMissingScope},
		{name: "unknown kind", req: NumberRequest{Kind: "memo", Company: models.CompanyDelta}, wantErr: e.ErrInvalidInput},
		{
			name:    "unknown subtype",
			req:     NumberRequest{Kind: models.KindInvoice, Company: models.CompanyDelta, InvoiceSubtype: "proforma"},
			wantErr: e.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Generate(tt.req, nil)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGenerate_DeterministicAndAdvancing(t *testing.T) {
	req := NumberRequest{Kind: models.KindInvoice, Company: models.CompanyDelta, InvoiceSubtype: models.InvoiceExport}
	docs := []models.Document{
		doc(models.KindInvoice, models.CompanyDelta, models.InvoiceExport, date(2024, time.May, 1)),
		doc(models.KindInvoice, models.CompanyDelta, models.InvoiceExport, date(2024, time.May, 2)),
	}

	first, err := Generate(req, docs)
	require.NoError(t, err)
	again, err := Generate(req, docs)
	require.NoError(t, err)
	assert.Equal(t, "INV-003", first)
	assert.Equal(t, first, again)

	persisted := doc(models.KindInvoice, models.CompanyDelta, models.InvoiceExport, date(2024, time.May, 3))
	persisted.Number = first
	docs = append(docs, persisted)

	next, err := Generate(req, docs)
	require.NoError(t, err)
	assert.Equal(t, "INV-004", next)
}

func TestScopeKey(t *testing.T) {
	tests := []struct {
		req  NumberRequest
		want string
	}{
		{req: NumberRequest{Kind: models.KindInvoice, Company: models.CompanyDelta}, want: "invoice/delta/export"},
		{req: NumberRequest{Kind: models.KindPorte, Company: models.CompanyPacifico, Year: 2024}, want: "porte/pacifico/2024"},
		{req: NumberRequest{Kind: models.KindPackingList, Company: models.CompanyDelta}, want: "PL/delta"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got, err := ScopeKey(tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSequencer(t *testing.T) {
	docs := []models.Document{
		doc(models.KindWeightCertificate, models.CompanyDelta, "", date(2024, time.May, 1)),
	}
	seq := NewSequencer(docs)

	wt := NumberRequest{Kind: models.KindWeightCertificate, Company: models.CompanyDelta}
	qc := NumberRequest{Kind: models.KindQualityCertificate, Company: models.CompanyDelta}

	id, n, err := seq.Next(wt)
	require.NoError(t, err)
	assert.Equal(t, "WT-D02-001", id)
	assert.Equal(t, 2, n)

	id, _, err = seq.Next(wt)
	require.NoError(t, err)
	assert.Equal(t, "WT-D03-001", id)

	id, _, err = seq.Next(qc)
	require.NoError(t, err)
	assert.Equal(t, "QC-D01-001", id)

	count, err := seq.Count(wt)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "Count reports the snapshot only")

	_, _, err = seq.Next(NumberRequest{Kind: models.KindPorte, Company: models.CompanyDelta})
	assert.ErrorIs(t, err, e.ErrMissingScope)
}
