// Package main is the entry point for the Optioneer options strategy engine.
// The application classifies market regimes (rule-based, HMM, ensemble),
// routes regimes to ranked option strategies, and monitors open positions
// for defensive repair.
//
// Startup sequence:
//  1. Load configuration from environment variables
//  2. Initialize structured logging
//  3. Open and migrate the two databases (models.db, snapshots.db)
//  4. Wire the pipeline: providers -> classifiers -> router -> repair
//  5. Register the end-of-day watchlist refresh with the scheduler
//  6. Start the health HTTP mux
//  7. Wait for shutdown signal and stop gracefully
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aristath/optioneer/internal/config"
	"github.com/aristath/optioneer/internal/database"
	"github.com/aristath/optioneer/internal/engine"
	"github.com/aristath/optioneer/internal/events"
	"github.com/aristath/optioneer/internal/hmm"
	"github.com/aristath/optioneer/internal/marketdata"
	"github.com/aristath/optioneer/internal/playbook"
	"github.com/aristath/optioneer/internal/regime"
	"github.com/aristath/optioneer/internal/repair"
	"github.com/aristath/optioneer/internal/router"
	"github.com/aristath/optioneer/internal/scheduler"
	"github.com/aristath/optioneer/internal/snapshots"
	"github.com/aristath/optioneer/internal/valuation"
	"github.com/aristath/optioneer/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting Optioneer")

	// Databases
	modelsDB, err := database.New(database.Config{
		Path:    cfg.ModelsDBPath(),
		Profile: database.ProfileStandard,
		Name:    "models",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open models database")
	}
	defer modelsDB.Close()

	snapshotsDB, err := database.New(database.Config{
		Path:    cfg.SnapshotsDBPath(),
		Profile: database.ProfileLedger,
		Name:    "snapshots",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open snapshots database")
	}
	defer snapshotsDB.Close()

	for _, db := range []*database.DB{modelsDB, snapshotsDB} {
		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Str("database", db.Name()).Msg("Migration failed")
		}
	}
	log.Info().Msg("Databases ready")

	// Playbook
	pb, err := playbook.Load(cfg.PlaybookPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load playbook")
	}
	log.Info().Int("version", pb.Version).Msg("Playbook loaded")

	// Pipeline wiring
	provider := marketdata.NewFileProvider(cfg.DataDir, log)
	publisher := events.NewLogPublisher(log)

	thresholds := regime.DefaultThresholds()
	thresholds.ConfirmationBars = cfg.ConfirmationBars
	registry := regime.NewRegistry(thresholds, log)

	valuer := valuation.NewEngine(cfg.RiskFreeRate)
	rt := router.New(pb, valuer, log)

	repairer := repair.NewEngine(repair.Config{
		DeltaThreshold:     cfg.RepairDeltaThreshold,
		LossRatioThreshold: cfg.RepairLossRatio,
	}, nil, log)

	modelStore := hmm.NewSQLiteStore(modelsDB, log)
	audit := snapshots.NewRepository(snapshotsDB, log)

	eng := engine.New(provider, provider, registry, modelStore, rt, repairer, audit, publisher, engine.Options{
		BarHistory:    cfg.BarHistory,
		Workers:       cfg.Workers,
		AccountEquity: cfg.AccountEquity,
	}, log)

	// Scheduler: end-of-day watchlist refresh
	sched := scheduler.New(log)
	refreshJob := scheduler.NewRefreshJob(eng, cfg.Watchlist, 0, publisher)
	if err := sched.AddJob(cfg.RefreshCron, refreshJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register refresh job")
	}
	sched.Start()

	// Health mux (liveness + database health); domain API is external
	mux := chi.NewRouter()
	mux.Use(middleware.Recoverer)
	mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		for _, db := range []*database.DB{modelsDB, snapshotsDB} {
			if err := db.QuickCheck(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				fmt.Fprintf(w, "database %s unhealthy: %v", db.Name(), err)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Health server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Health server failed")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Health server shutdown failed")
	}

	log.Info().Msg("Shutdown complete")
}
