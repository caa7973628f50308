package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/cache"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/config"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/domain/srs"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/health"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/notify"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/platform/postgres"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/refresher"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/service/authz"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/service/quickaction"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/service/review"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/store"
)

// application holds the shared dependencies so wiring and shutdown stay
// in one place.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores
	cardStore   store.CardStore
	actionStore store.QuickActionStore
	rollupStore store.RollupStore
	rosterStore store.RosterStore

	// Core services
	srsService    srs.Service
	metricsCache  *cache.MetricsCache
	healthService *health.Service
	refresher     *refresher.Refresher
	policy        *authz.Policy
	notifier      notify.Notifier
	reviewService *review.Service
	executor      *quickaction.Executor
}

// newApplication wires every component from configuration, the logger
// and an open database connection.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	app.cardStore = postgres.NewPostgresCardStore(db, logger)
	app.actionStore = postgres.NewPostgresQuickActionStore(db, logger)
	app.rollupStore = postgres.NewPostgresRollupStore(db, logger)
	app.rosterStore = postgres.NewPostgresRosterStore(db)

	srsParams := srs.NewDefaultParams()
	srsParams.MaxIntervalDays = cfg.SRS.MaxIntervalDays
	srsService, err := srs.NewService(srsParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create SRS service: %w", err)
	}
	app.srsService = srsService

	healthCfg := health.Config{
		OverloadThreshold: cfg.Health.OverloadThreshold,
		GracePeriod:       time.Duration(cfg.Health.GracePeriodHours) * time.Hour,
		StaleAfter:        time.Duration(cfg.Health.StaleAfterMinutes) * time.Minute,
	}

	app.refresher = refresher.New(app.rollupStore, healthCfg.StaleAfter, logger)

	fast := health.NewMaterializedViewSource(app.rollupStore, healthCfg)
	slow := health.NewLiveQuerySource(app.cardStore, healthCfg)
	probe := health.NewFreshnessProbeSource(fast, slow, app.refresher, logger)

	app.metricsCache = cache.New(logger)
	app.healthService = health.NewService(
		app.metricsCache,
		probe,
		time.Duration(cfg.Health.CacheTTLSeconds)*time.Second,
		logger,
	)

	app.policy = authz.NewPolicy(app.rosterStore)
	app.notifier = notify.NewLogNotifier(logger)

	app.reviewService = review.NewService(
		db,
		app.cardStore,
		app.rosterStore,
		app.srsService,
		app.metricsCache,
		logger,
	)

	app.executor = quickaction.NewExecutor(
		db,
		app.actionStore,
		app.cardStore,
		app.rosterStore,
		app.policy,
		app.srsService,
		app.notifier,
		app.metricsCache,
		quickaction.Config{
			GracePeriod:      healthCfg.GracePeriod,
			StuckAfter:       time.Duration(cfg.Health.StuckActionMinutes) * time.Minute,
			DefaultCardLimit: cfg.Health.DefaultCardLimit,
			MaxDeferDays:     cfg.Health.MaxDeferDays,
		},
		logger,
	)

	logger.Info("application initialized")
	return app, nil
}

// Run starts the HTTP server and blocks until shutdown.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup releases application resources on shutdown.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
