package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/folio/internal/clients/marketdata"
	"github.com/aristath/folio/internal/config"
	"github.com/aristath/folio/internal/database"
	"github.com/aristath/folio/internal/events"
	"github.com/aristath/folio/internal/modules/certificates"
	"github.com/aristath/folio/internal/modules/dividends"
	"github.com/aristath/folio/internal/modules/history"
	"github.com/aristath/folio/internal/modules/ledger"
	"github.com/aristath/folio/internal/modules/performance"
	"github.com/aristath/folio/internal/modules/valuation"
	"github.com/aristath/folio/internal/scheduler"
	"github.com/aristath/folio/internal/server"
	"github.com/aristath/folio/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting Folio")

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Create tables
	if err := initSchemas(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize schemas")
	}

	// Event manager
	ev := events.NewManager(log)

	// Repositories
	ledgerRepo := ledger.NewRepository(db.Conn(), log)
	certRepo := certificates.NewRepository(db.Conn(), log)
	dividendRepo := dividends.NewRepository(db.Conn(), log)
	snapshotRepo := performance.NewSnapshotRepository(db.Conn(), log)
	historyRepo := history.NewRepository(db.Conn(), log)

	// Services
	ledgerSvc := ledger.NewService(ledgerRepo, ev, log)
	certSvc := certificates.NewService(certRepo, log)
	dividendSvc := dividends.NewService(dividendRepo, ledgerRepo, ev, log)
	analyzer := performance.NewAnalyzer(ledgerRepo, dividendRepo, snapshotRepo, ev, log)

	// Price feed client
	feed := marketdata.NewClient(cfg.PriceFeedURL, log)
	valuationSvc := valuation.NewService(feed, ledgerRepo, historyRepo, log)

	// Initialize scheduler
	sched := scheduler.New(log)
	sched.Start()
	defer sched.Stop()

	// Register background jobs
	refreshJob := scheduler.NewRefreshCycleJob(ledgerSvc, analyzer, historyRepo, feed, ev, log)
	if err := sched.AddJob(cfg.RefreshSchedule, refreshJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register refresh job")
	}

	// Initialize HTTP server
	srv := server.New(server.Config{
		Port:    cfg.Port,
		Log:     log,
		DB:      db,
		Config:  cfg,
		DevMode: cfg.DevMode,

		Ledger:       ledger.NewHandlers(ledgerSvc, log),
		Certificates: certificates.NewHandlers(certRepo, certSvc, log),
		Dividends:    dividends.NewHandlers(dividendRepo, dividendSvc, log),
		Performance:  performance.NewHandlers(analyzer, snapshotRepo, log),
		Valuation:    valuation.NewHandlers(valuationSvc, log),

		Scheduler:  sched,
		RefreshJob: refreshJob,
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

func initSchemas(db *database.DB) error {
	if err := ledger.InitSchema(db.Conn()); err != nil {
		return err
	}
	if err := certificates.InitSchema(db.Conn()); err != nil {
		return err
	}
	if err := dividends.InitSchema(db.Conn()); err != nil {
		return err
	}
	if err := performance.InitSchema(db.Conn()); err != nil {
		return err
	}
	return history.InitSchema(db.Conn())
}
