// Package main provides the mock session gateway backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raphaelgruber/creative-go/internal/config"
	"github.com/raphaelgruber/creative-go/internal/metrics"
	"github.com/raphaelgruber/creative-go/internal/server"
	"github.com/raphaelgruber/creative-go/internal/service"
	"github.com/raphaelgruber/creative-go/internal/store"
)

func main() {
	// Parse flags
	wipeDB := flag.Bool("wipe", false, "wipe all data from database on startup (testing only)")
	flag.Parse()

	// Load configuration
	cfg := config.Load()

	// Initialize logging
	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel, true)
	defer func() { _ = cleanup() }()
	slog.SetDefault(logger)

	slog.Info("starting creative-server", "port", cfg.ServerPort, "store", cfg.Store)

	st, err := openStore(cfg, logger, *wipeDB || os.Getenv("CREATIVE_WIPE_DB") == "true")
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			slog.Error("failed to close store", "error", err)
		}
	}()

	collector := metrics.NewCollector()
	turns := service.NewTurnService(st, collector, cfg.TurnStep)
	defer turns.Close()

	srv := server.New(turns, collector, logger, server.Options{CORSOrigins: cfg.CORSOrigins})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("API available", "url", fmt.Sprintf("http://localhost:%d/api/v1", cfg.ServerPort))
	if err := srv.Run(ctx, fmt.Sprintf(":%d", cfg.ServerPort)); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

// openStore selects the persistence backend.
func openStore(cfg config.Config, logger *slog.Logger, wipe bool) (store.Store, error) {
	switch cfg.Store {
	case "memory":
		return store.NewMemory(), nil

	case "surrealdb":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := store.NewSurreal(ctx, store.SurrealConfig{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
			AuthLevel: cfg.SurrealDBAuthLevel,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := db.InitSchema(ctx); err != nil {
			_ = db.Close(context.Background())
			return nil, fmt.Errorf("initialize schema: %w", err)
		}
		if wipe {
			if err := db.WipeData(ctx); err != nil {
				_ = db.Close(context.Background())
				return nil, fmt.Errorf("wipe database: %w", err)
			}
			slog.Warn("database wiped")
		}
		return db, nil

	default:
		return nil, fmt.Errorf("unknown store %q (want memory or surrealdb)", cfg.Store)
	}
}
