package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/gartstein/cafexport/internal/export/controller"
	"github.com/gartstein/cafexport/internal/export/db"
	"github.com/gartstein/cafexport/internal/export/models"
	"github.com/gartstein/cafexport/internal/pkg/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
)

func TestParseFlags(t *testing.T) {
	now := time.Date(2024, time.November, 1, 12, 0, 0, 0, time.UTC)

	opts, err := parseFlags(nil, "delta", now)
	require.NoError(t, err)
	assert.Equal(t, "delta", opts.company)
	assert.Equal(t, "2024-11-01", opts.today.Format(dateLayout))
	assert.Equal(t, "alerts.xlsx", opts.out)

	opts, err = parseFlags([]string{"-company", "PACIFICO", "-today", "2025-01-31", "-out", "x.xlsx"}, "delta", now)
	require.NoError(t, err)
	assert.Equal(t, "pacifico", opts.company)
	assert.Equal(t, time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC), opts.today)
	assert.Equal(t, "x.xlsx", opts.out)

	_, err = parseFlags([]string{"-company", "gamma"}, "", now)
	assert.Error(t, err)
	_, err = parseFlags([]string{"-today", "01/11/2024"}, "delta", now)
	assert.Error(t, err)
	_, err = parseFlags(nil, "", now)
	assert.Error(t, err, "no company configured")
}

func TestRun(t *testing.T) {
	repo, err := db.Open(sqlite.Open(filepath.Join(t.TempDir(), "export.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	svc := controller.NewExportService(repo, discardProducer{}, zaptest.NewLogger(t))
	today := time.Date(2024, time.November, 1, 0, 0, 0, 0, time.UTC)

	_, err = svc.SaveContract(context.Background(), &models.Contract{
		Company:     models.CompanyDelta,
		Number:      "C-9",
		HarvestYear: "2024-2025",
		Partidas: []models.Partida{{
			LotNumber:   "7",
			UnitCount:   1,
			WeightKg:    decimal.NewFromInt(20000),
			PackageKind: models.PackageBulk,
			MarksStatus: models.MarksConfirmed,
			CutoffDate:  utils.Ptr(today.AddDate(0, 0, 2)),
		}},
	}, nil)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "alerts.xlsx")
	n, err := run(context.Background(), svc, &options{company: "delta", today: today, out: out})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Alerts")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"C-9", "DEL-7", "cutoff", "2", "port cutoff in 2 day(s)"}, rows[1])
}
