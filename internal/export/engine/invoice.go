package engine

import (
	"github.com/gartstein/cafexport/internal/export/models"
	"github.com/shopspring/decimal"
)

// ComputeInvoiceTotals fills each line amount (quantity x unit price, 2
// places) and sums quantities and amounts. items is not modified.
func ComputeInvoiceTotals(items []models.LineItem) ([]models.LineItem, models.InvoiceTotals) {
	out := make([]models.LineItem, len(items))
	totals := models.InvoiceTotals{Quantity: decimal.Zero, Amount: decimal.Zero}
	for i, it := range items {
		it.Amount = it.Quantity.Mul(it.UnitPrice).Round(2)
		out[i] = it
		totals.Quantity = totals.Quantity.Add(it.Quantity)
		totals.Amount = totals.Amount.Add(it.Amount)
	}
	return out, totals
}
