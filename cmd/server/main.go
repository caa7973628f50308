// Package main implements the entry point for the review-health API
// server, which schedules spaced-repetition reviews and serves
// multi-scope review-health metrics.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/config"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/platform/logger"
)

func main() {
	migrateCmd := flag.String("migrate", "", "run migrations: up, down or status")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.Setup(cfg.Server.LogLevel)
	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)

	db, err := setupAppDatabase(cfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if *migrateCmd != "" {
		err := runMigrations(db, *migrateCmd, appLogger)
		closeErr := db.Close()
		if err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		if closeErr != nil {
			log.Fatalf("Failed to close database: %v", closeErr)
		}
		return
	}

	ctx := context.Background()

	app, err := newApplication(cfg, appLogger, db)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := app.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
