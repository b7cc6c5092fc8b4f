// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// IndexRefresher rebuilds strategy indexes. Satisfied by *recommend.Engine.
type IndexRefresher interface {
	// Refresh rebuilds one index, or every index when name is empty.
	Refresh(ctx context.Context, name string) error

	// RefreshStale rebuilds only the indexes past their interval.
	RefreshStale(ctx context.Context) error
}

// IndexWarmerConfig configures the index warmer.
type IndexWarmerConfig struct {
	// OnStartup builds every index before the first tick.
	OnStartup bool

	// Interval between stale sweeps. Default: 10m.
	Interval time.Duration

	// Timeout bounds a single sweep. Default: 5m.
	Timeout time.Duration
}

// IndexWarmerService keeps strategy indexes built ahead of requests, so the
// first request after startup or expiry does not pay for the rebuild.
// Refresh failures are logged; strategies keep serving their previous index.
type IndexWarmerService struct {
	engine IndexRefresher
	config IndexWarmerConfig
	logger zerolog.Logger
	name   string
}

// NewIndexWarmerService creates an index warmer.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewIndexWarmerService(engine IndexRefresher, cfg IndexWarmerConfig, logger zerolog.Logger) *IndexWarmerService {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Minute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	return &IndexWarmerService{
		engine: engine,
		config: cfg,
		logger: logger.With().Str("service", "index-warmer").Logger(),
		name:   "index-warmer",
	}
}

// Serve implements suture.Service.
func (s *IndexWarmerService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("on_startup", s.config.OnStartup).
		Dur("interval", s.config.Interval).
		Msg("Index warmer starting")

	if s.config.OnStartup {
		s.sweep(ctx, "startup", func(ctx context.Context) error {
			return s.engine.Refresh(ctx, "")
		})
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Index warmer stopping")
			return ctx.Err()

		case <-ticker.C:
			s.sweep(ctx, "scheduled", s.engine.RefreshStale)
		}
	}
}

func (s *IndexWarmerService) sweep(ctx context.Context, trigger string, refresh func(context.Context) error) {
	sweepCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	start := time.Now()
	if err := refresh(sweepCtx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Warn().Err(err).Str("trigger", trigger).Msg("Index refresh failed")
		return
	}
	s.logger.Debug().
		Str("trigger", trigger).
		Dur("duration", time.Since(start)).
		Msg("Index refresh complete")
}

// String implements fmt.Stringer for suture logs.
func (s *IndexWarmerService) String() string {
	return s.name
}
