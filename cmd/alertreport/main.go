// Command alertreport computes the current alerts and packaging
// reconciliation of one company and writes them to an .xlsx workbook.
//
//	alertreport -company delta -today 2024-11-01 -out alerts.xlsx
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gartstein/cafexport/internal/export/config"
	"github.com/gartstein/cafexport/internal/export/controller"
	"github.com/gartstein/cafexport/internal/export/db"
	"github.com/gartstein/cafexport/internal/export/events"
	"github.com/gartstein/cafexport/internal/export/models"
	"github.com/gartstein/cafexport/internal/export/report"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// discardProducer drops events; the report only reads.
type discardProducer struct{}

func (discardProducer) Produce(events.EventType, models.Company, uuid.UUID, interface{}) {}

type options struct {
	company string
	today   time.Time
	out     string
}

func parseFlags(args []string, defaultCompany string, now time.Time) (*options, error) {
	fs := flag.NewFlagSet("alertreport", flag.ContinueOnError)
	company := fs.String("company", defaultCompany, "company to report on (delta or pacifico)")
	today := fs.String("today", now.Format(dateLayout), "reference date, YYYY-MM-DD")
	out := fs.String("out", "alerts.xlsx", "output workbook path")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	c, err := models.ParseCompany(*company)
	if err != nil {
		return nil, err
	}
	day, err := time.Parse(dateLayout, *today)
	if err != nil {
		return nil, fmt.Errorf("invalid -today %q: %w", *today, err)
	}
	return &options{company: string(c), today: day, out: *out}, nil
}

func run(ctx context.Context, svc *controller.ExportService, opts *options) (int, error) {
	company := models.Company(opts.company)
	alerts, err := svc.Alerts(ctx, company, opts.today)
	if err != nil {
		return 0, err
	}
	summaries, err := svc.PackagingSummaries(ctx, company)
	if err != nil {
		return 0, err
	}

	f, err := os.Create(opts.out)
	if err != nil {
		return 0, err
	}
	if err := report.WriteAlerts(f, alerts, summaries); err != nil {
		f.Close()
		return 0, err
	}
	return len(alerts), f.Close()
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			logger.Error("failed to sync logger", zap.Error(err))
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	opts, err := parseFlags(os.Args[1:], cfg.ActiveCompany, time.Now().UTC())
	if err != nil {
		logger.Fatal("invalid arguments", zap.Error(err))
	}

	repo, err := db.NewRepository(cfg.Database())
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer repo.Close()

	svc := controller.NewExportService(repo, discardProducer{}, logger)
	n, err := run(context.Background(), svc, opts)
	if err != nil {
		logger.Fatal("failed to write report", zap.Error(err))
	}
	logger.Info("Report written",
		zap.String("company", opts.company),
		zap.String("today", opts.today.Format(dateLayout)),
		zap.String("out", opts.out),
		zap.Int("alerts", n))
}
