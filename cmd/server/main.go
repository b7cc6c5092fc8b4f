// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/shoprec/internal/api"
	"github.com/tomtom215/shoprec/internal/config"
	"github.com/tomtom215/shoprec/internal/database"
	"github.com/tomtom215/shoprec/internal/logging"
	"github.com/tomtom215/shoprec/internal/supervisor"
	"github.com/tomtom215/shoprec/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(cfg.Logging.ToLogging())
	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("db_path", cfg.Database.Path).
		Msg("Starting shoprec")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server failed")
	}
	logging.Info().Msg("Application stopped gracefully")
}

// run wires every component and blocks until SIGINT or SIGTERM.
func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	if cfg.Database.SeedPath != "" {
		if _, err := db.SeedIfEmpty(ctx, cfg.Database.SeedPath); err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
	}

	features, err := initFeatures(cfg, db, logging.WithComponent("provider"))
	if err != nil {
		return err
	}
	defer func() {
		if err := features.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing feature cache")
		}
	}()

	engine, err := initEngine(cfg, features.Provider, logging.WithComponent("recommend"))
	if err != nil {
		return err
	}

	eventComponents, err := initEvents(cfg, features, engine)
	if err != nil {
		return fmt.Errorf("initialize events: %w", err)
	}
	defer func() {
		if err := eventComponents.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event transport")
		}
	}()

	deps := api.Dependencies{
		Engine:         engine,
		Catalog:        db,
		Interactions:   db,
		Database:       db,
		Publisher:      eventComponents.Publisher,
		RequestTimeout: cfg.Server.RequestTimeout,
	}
	if features.Breaker != nil {
		deps.Breaker = features.Breaker
	}

	middlewareCfg := api.DefaultChiMiddlewareConfig()
	middlewareCfg.CORSAllowedOrigins = cfg.Server.CORSOrigins
	router := api.NewRouter(api.NewHandler(deps), middlewareCfg)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(
		logging.NewSlogLogger(logging.WithComponent("supervisor")),
		supervisor.TreeConfig{ShutdownTimeout: cfg.Server.ShutdownTimeout},
	)
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	if cfg.Warmer.Enabled {
		tree.AddIndexService(services.NewIndexWarmerService(engine, services.IndexWarmerConfig{
			OnStartup: cfg.Warmer.OnStartup,
			Interval:  cfg.Warmer.Interval,
		}, logging.WithComponent("supervisor")))
	}
	tree.AddMessagingService(services.NewEventRouterService(
		eventComponents.Router, cfg.Events.CloseTimeout, logging.WithComponent("supervisor")))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for services to stop")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("supervisor tree: %w", err)
		}
		return nil
	}

	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor shutdown error")
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
		}
	}

	// Deferred closes run in reverse: events, feature cache, database.
	return nil
}
