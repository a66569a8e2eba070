package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gartstein/cafexport/internal/export/auth"
	"github.com/gartstein/cafexport/internal/export/config"
	"github.com/gartstein/cafexport/internal/export/controller"
	"github.com/gartstein/cafexport/internal/export/db"
	"github.com/gartstein/cafexport/internal/export/events"
	"github.com/gartstein/cafexport/internal/export/handlers"
	"go.uber.org/zap"
)

const healthInterval = 10 * time.Second

func main() {
	logger := initLogger()
	defer func(logger *zap.Logger) {
		err := logger.Sync()
		if err != nil {
			logger.Error("failed to sync logger", zap.Error(err))
		}
	}(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	if cfg.ActiveCompany != "" {
		logger = logger.With(zap.String("active_company", cfg.ActiveCompany))
	}

	repo, err := db.NewRepository(cfg.Database())
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer repo.Close()

	producer, err := events.NewProducer(cfg.KafkaBrokers, logger, cfg.Topic)
	if err != nil {
		logger.Fatal("failed to initialize Kafka producer", zap.Error(err))
	}
	defer producer.Close()

	exportSvc := controller.NewExportService(repo, producer, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumer := events.NewConsumer(cfg.KafkaBrokers, cfg.EventsGroupID, cfg.Topic, logger)
	defer consumer.Close()
	exportSvc.RegisterAlertWatcher(consumer)
	consumer.Start(ctx)

	exportHandler := handlers.NewExportHandler(exportSvc, logger)
	guard := auth.NewGuard(exportSvc, logger)
	router := handlers.NewRouter(exportHandler, guard, cfg.JWTSecret)

	server := handlers.NewServer(cfg.GRPCPort, cfg.HTTPPort, router, logger)
	go server.WatchHealth(ctx, exportSvc.Ping, healthInterval)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	waitForShutdown(server, errChan, logger)
}

// initLogger initializes a Zap production logger.
func initLogger() *zap.Logger {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	return logger
}

// waitForShutdown blocks until an interrupt, SIGTERM or a server failure,
// then shuts down servers.
func waitForShutdown(server *handlers.Server, errChan <-chan error, logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case <-stop:
	case err := <-errChan:
		if err != nil {
			logger.Error("Server failed", zap.Error(err))
		}
	}

	server.Stop()
	logger.Info("Servers stopped properly")
}
