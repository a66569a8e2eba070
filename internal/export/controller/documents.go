package controller

import (
	"context"
	"fmt"

	"github.com/gartstein/cafexport/internal/export/db"
	"github.com/gartstein/cafexport/internal/export/engine"
	e "github.com/gartstein/cafexport/internal/export/errors"
	"github.com/gartstein/cafexport/internal/export/events"
	"github.com/gartstein/cafexport/internal/export/models"
	"github.com/google/uuid"
)

func numberRequest(d *models.Document) engine.NumberRequest {
	return engine.NumberRequest{
		Kind:           d.Kind,
		Company:        d.Company,
		InvoiceSubtype: d.InvoiceSubtype,
		Year:           d.IssueDate.Year(),
	}
}

// prepareDocument normalizes the subtype and derives invoice totals.
func prepareDocument(d *models.Document) {
	if d.Kind != models.KindInvoice {
		d.InvoiceSubtype = ""
		d.Totals = nil
		return
	}
	if d.InvoiceSubtype == "" {
		d.InvoiceSubtype = models.InvoiceExport
	}
	items, totals := engine.ComputeInvoiceTotals(d.Items)
	d.Items = items
	d.Totals = &totals
}

// allocateNumber numbers d from the persisted counter of its scope. The
// counter is seeded, and kept at least at, the count of documents already in
// scope.
func allocateNumber(ctx context.Context, tx *db.Repository, req engine.NumberRequest, seq *engine.Sequencer) (string, error) {
	key, err := engine.ScopeKey(req)
	if err != nil {
		return "", err
	}
	floor, err := seq.Count(req)
	if err != nil {
		return "", err
	}
	n, err := tx.NextSequence(ctx, key, floor)
	if err != nil {
		return "", err
	}
	return engine.Format(req, n)
}

// CreateDocument assigns the next number in the document's scope and stores
// it. Any number set by the caller is replaced.
func (s *ExportService) CreateDocument(ctx context.Context, d *models.Document) (*models.Document, error) {
	if !d.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown document kind %q", e.ErrInvalidInput, d.Kind)
	}
	if !d.Company.Valid() {
		return nil, fmt.Errorf("%w: unknown company %q", e.ErrInvalidInput, d.Company)
	}
	if d.IssueDate.IsZero() {
		d.IssueDate = s.today()
	}
	prepareDocument(d)
	req := numberRequest(d)
	if _, err := engine.ScopeKey(req); err != nil {
		return nil, err
	}

	err := s.inTransaction(ctx, "create_document", func(tx *db.Repository) error {
		docs, err := tx.ListDocuments(ctx, d.Company)
		if err != nil {
			return err
		}
		number, err := allocateNumber(ctx, tx, req, engine.NewSequencer(docs))
		if err != nil {
			return err
		}
		d.ID = uuid.New()
		d.Number = number
		return tx.CreateDocument(ctx, d)
	})
	if err != nil {
		return nil, wrap(err, "failed to create document")
	}

	s.publish(events.DocumentCreated, d.Company, d.ID, d)
	return d, nil
}

// UpdateDocument rewrites the editable fields of a document. Kind, company,
// invoice subtype and number are fixed once issued.
func (s *ExportService) UpdateDocument(ctx context.Context, d *models.Document) (*models.Document, error) {
	if d.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: invalid document ID", e.ErrInvalidInput)
	}

	var updated *models.Document
	err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		existing, err := tx.GetDocument(ctx, d.ID)
		if err != nil {
			return err
		}
		if err := checkImmutable(existing, d); err != nil {
			return err
		}
		d.Kind = existing.Kind
		d.Company = existing.Company
		d.InvoiceSubtype = existing.InvoiceSubtype
		d.Number = existing.Number
		d.CreatedAt = existing.CreatedAt
		if d.IssueDate.IsZero() {
			d.IssueDate = existing.IssueDate
		}
		prepareDocument(d)

		if err := tx.UpdateDocument(ctx, d); err != nil {
			return err
		}
		updated, err = tx.GetDocument(ctx, d.ID)
		return err
	})
	if err != nil {
		return nil, wrap(err, "failed to update document")
	}
	return updated, nil
}

func checkImmutable(existing, d *models.Document) error {
	switch {
	case d.Number != "" && d.Number != existing.Number:
		return fmt.Errorf("%w: number", e.ErrImmutableField)
	case d.Kind != "" && d.Kind != existing.Kind:
		return fmt.Errorf("%w: kind", e.ErrImmutableField)
	case d.Company != "" && d.Company != existing.Company:
		return fmt.Errorf("%w: company", e.ErrImmutableField)
	case d.InvoiceSubtype != "" && d.InvoiceSubtype != existing.InvoiceSubtype:
		return fmt.Errorf("%w: invoice subtype", e.ErrImmutableField)
	}
	return nil
}

func (s *ExportService) GetDocument(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	d, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return nil, wrap(err, "failed to get document")
	}
	return d, nil
}

// DeleteDocument removes a document. Its number is not handed out again.
func (s *ExportService) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteDocument(ctx, id); err != nil {
		return wrap(err, "failed to delete document")
	}
	return nil
}

func (s *ExportService) ListDocuments(ctx context.Context, company models.Company) ([]models.Document, error) {
	if !company.Valid() {
		return nil, fmt.Errorf("%w: unknown company %q", e.ErrInvalidInput, company)
	}
	docs, err := s.repo.ListDocuments(ctx, company)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}
