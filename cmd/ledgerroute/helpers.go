package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/buildledger/ledgerroute/internal/audit"
	"github.com/buildledger/ledgerroute/internal/config"
	"github.com/buildledger/ledgerroute/internal/directory"
	"github.com/buildledger/ledgerroute/internal/engine"
	"github.com/buildledger/ledgerroute/internal/storage"
)

// app bundles the wired-up components a command needs.
type app struct {
	cfg    *config.Config
	db     *storage.SQLiteStorage
	engine *engine.RoutingEngine
	sink   *audit.Sink
	dir    *directory.Directory
}

// openApp opens storage, runs migrations, and wires the engine.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	db, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	dir := directory.New(db, cfg.Engine.LookupTimeout)
	sink := audit.NewSink(db, 0)

	eng := engine.NewWithConfig(db, dir, sink, engine.Config{
		ConfidenceThreshold: cfg.Engine.ConfidenceThreshold,
		LookupTimeout:       cfg.Engine.LookupTimeout,
		Workers:             cfg.Engine.Workers,
	})

	return &app{
		cfg:    cfg,
		db:     db,
		engine: eng,
		sink:   sink,
		dir:    dir,
	}, nil
}

// close drains the audit sink and closes the database.
func (a *app) close() {
	a.sink.Close()
	if err := a.db.Close(); err != nil {
		slog.Error("Failed to close database", "error", err)
	}
}
