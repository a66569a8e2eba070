// Package report renders alerts and packaging reconciliation as an Excel
// workbook.
package report

import (
	"fmt"
	"io"

	"github.com/gartstein/cafexport/internal/export/engine"
	"github.com/xuri/excelize/v2"
)

const (
	AlertsSheet    = "Alerts"
	PackagingSheet = "Packaging"
)

var (
	alertHeaders     = []string{"Contract", "Lot", "Kind", "Days remaining", "Message"}
	packagingHeaders = []string{"Contract", "Material", "Required", "Purchased", "Missing"}
)

// WriteAlerts writes a workbook with one row per alert on the Alerts sheet
// and one row per contract and material on the Packaging sheet.
func WriteAlerts(w io.Writer, alerts []engine.Alert, summaries []engine.PackagingSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", AlertsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(PackagingSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	overdueStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "C00000"},
	})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	if err := writeHeader(f, AlertsSheet, alertHeaders, headerStyle); err != nil {
		return err
	}
	for i, a := range alerts {
		row := i + 2
		values := []interface{}{a.ContractNumber, a.LotNumber, string(a.Kind), a.DaysRemaining, a.Message}
		if err := writeRow(f, AlertsSheet, row, values); err != nil {
			return err
		}
		if a.DaysRemaining < 0 {
			from, to := fmt.Sprintf("A%d", row), fmt.Sprintf("E%d", row)
			if err := f.SetCellStyle(AlertsSheet, from, to, overdueStyle); err != nil {
				return err
			}
		}
	}

	if err := writeHeader(f, PackagingSheet, packagingHeaders, headerStyle); err != nil {
		return err
	}
	row := 2
	for _, s := range summaries {
		for _, m := range s.Materials {
			values := []interface{}{s.ContractNumber, m.Material, m.Required, m.Purchased, m.Missing}
			if err := writeRow(f, PackagingSheet, row, values); err != nil {
				return err
			}
			row++
		}
	}

	for _, sheet := range []string{AlertsSheet, PackagingSheet} {
		if err := f.SetColWidth(sheet, "A", "B", 16); err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, "E", "E", 36); err != nil {
			return err
		}
	}

	_, err = f.WriteTo(w)
	return err
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) error {
	for i, h := range headers {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		cell := col + "1"
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
