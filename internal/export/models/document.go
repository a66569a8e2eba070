package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentKind is one of the six trade document kinds.
type DocumentKind string

const (
	KindWeightCertificate  DocumentKind = "weight_certificate"
	KindQualityCertificate DocumentKind = "quality_certificate"
	KindPackingList        DocumentKind = "packing_list"
	KindInvoice            DocumentKind = "invoice"
	KindPorte              DocumentKind = "porte"
	KindPaymentInstruction DocumentKind = "payment_instruction"
)

// Valid reports whether k is a known document kind.
func (k DocumentKind) Valid() bool {
	switch k {
	case KindWeightCertificate, KindQualityCertificate, KindPackingList,
		KindInvoice, KindPorte, KindPaymentInstruction:
		return true
	}
	return false
}

// InvoiceSubtype distinguishes export invoices from other invoices.
type InvoiceSubtype string

const (
	InvoiceExport InvoiceSubtype = "export"
	InvoiceOther  InvoiceSubtype = "other"
)

// LineItem is one line of a document.
type LineItem struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	// Amount is Quantity * UnitPrice, computed for invoices.
	Amount decimal.Decimal
}

// InvoiceTotals are the computed totals of an invoice.
type InvoiceTotals struct {
	Quantity decimal.Decimal
	Amount   decimal.Decimal
}

// Document is a certificate, invoice, waybill (porte) or payment instruction.
type Document struct {
	ID      uuid.UUID
	Kind    DocumentKind
	Company Company
	// InvoiceSubtype is set for invoices only.
	InvoiceSubtype InvoiceSubtype
	IssueDate      time.Time
	// Number is assigned once on creation and never reassigned.
	Number     string
	ContractID *uuid.UUID
	ShipmentID *uuid.UUID
	Items      []LineItem
	// Totals is set for invoices only.
	Totals    *InvoiceTotals
	CreatedAt time.Time
	UpdatedAt time.Time
}
