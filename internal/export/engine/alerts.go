package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gartstein/cafexport/internal/export/models"
	"github.com/google/uuid"
)

// AlertKind classifies an alert.
type AlertKind string

const (
	AlertCutoff    AlertKind = "cutoff"
	AlertETD       AlertKind = "etd"
	AlertPackaging AlertKind = "packaging"
	AlertMarks     AlertKind = "marks"
)

// Alert thresholds in days.
const (
	CutoffAlertDays   = 5
	ETDAlertDays      = 5
	PreparationWindow = 7
)

// Alert is a time-sensitive notice about one lot.
type Alert struct {
	ContractID     uuid.UUID
	ContractNumber string
	LotID          uuid.UUID
	LotNumber      string
	Kind           AlertKind
	// DaysRemaining is negative when the date has passed.
	DaysRemaining int
	Message       string
}

// DaysUntil counts calendar days from today to target. Clock times are
// ignored, so a deadline later today is 0 days away although
// ceil((target - today) / 24h) would give 1. Both agree when the dates
// carry no clock time.
func DaysUntil(target, today time.Time) int {
	d := civilDate(target).Sub(civilDate(today))
	return int(d.Hours() / 24)
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ComputeAlerts scans the non-terminated contracts of company and returns
// their alerts sorted by DaysRemaining, most urgent first. Alerts with equal
// days keep contract, lot and kind order (cutoff, packaging, marks, etd).
func ComputeAlerts(contracts []models.Contract, company models.Company, today time.Time) []Alert {
	var alerts []Alert
	for i := range contracts {
		c := &contracts[i]
		if c.Company != company || c.Terminated {
			continue
		}
		for j := range c.Partidas {
			alerts = append(alerts, lotAlerts(c, &c.Partidas[j], today)...)
		}
	}
	sort.SliceStable(alerts, func(a, b int) bool {
		return alerts[a].DaysRemaining < alerts[b].DaysRemaining
	})
	return alerts
}

func lotAlerts(c *models.Contract, p *models.Partida, today time.Time) []Alert {
	var out []Alert
	base := Alert{
		ContractID:     c.ID,
		ContractNumber: c.Number,
		LotID:          p.ID,
		LotNumber:      LotDisplayNumber(c.Company, p.LotNumber),
	}

	if p.CutoffDate != nil {
		days := DaysUntil(*p.CutoffDate, today)
		if days <= CutoffAlertDays {
			a := base
			a.Kind = AlertCutoff
			a.DaysRemaining = days
			a.Message = dueMessage("port cutoff", days)
			out = append(out, a)
		}
		if days >= 0 && days <= PreparationWindow {
			if rec := Reconcile(p); rec.Missing() > 0 {
				a := base
				a.Kind = AlertPackaging
				a.DaysRemaining = days
				a.Message = "missing packaging: " + missingList(rec)
				out = append(out, a)
			}
			if p.MarksStatus != models.MarksConfirmed {
				status := p.MarksStatus
				if status == "" {
					status = models.MarksPending
				}
				a := base
				a.Kind = AlertMarks
				a.DaysRemaining = days
				a.Message = fmt.Sprintf("shipping marks %s", status)
				out = append(out, a)
			}
		}
	}

	if p.ETD != nil {
		days := DaysUntil(*p.ETD, today)
		if days <= ETDAlertDays {
			a := base
			a.Kind = AlertETD
			a.DaysRemaining = days
			a.Message = dueMessage("departure", days)
			out = append(out, a)
		}
	}
	return out
}

func dueMessage(what string, days int) string {
	switch {
	case days < 0:
		return fmt.Sprintf("%s overdue by %d day(s)", what, -days)
	case days == 0:
		return what + " today"
	default:
		return fmt.Sprintf("%s in %d day(s)", what, days)
	}
}

func missingList(rec Reconciliation) string {
	parts := make([]string, 0, len(rec.Lines))
	for _, l := range rec.Lines {
		if l.Missing > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", l.Missing, l.Material))
		}
	}
	return strings.Join(parts, ", ")
}
