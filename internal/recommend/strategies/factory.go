// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

// Package strategies contains the recommendation strategies and the factory
// that builds them from configuration.
//
// Every strategy owns a copy-on-write index that is rebuilt from the
// FeatureProvider when it is older than the strategy's refresh interval.
package strategies

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shoprec/internal/recommend"
)

// Option configures strategy construction.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock sets the clock used for staleness checks.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func applyOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func strategyLogger(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().
		Str("component", "strategy").
		Str("strategy", name).
		Logger()
}

// New builds the strategy registered under name.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(name string, cfg *recommend.Config, fp recommend.FeatureProvider, logger zerolog.Logger, opts ...Option) (recommend.Strategy, error) {
	switch name {
	case recommend.StrategyPopular:
		return NewPopularity(cfg.Popular, fp, logger, opts...), nil
	case recommend.StrategyContent:
		return NewContentSimilarity(cfg.Content, fp, logger, opts...), nil
	case recommend.StrategyItemCF:
		return NewItemToItemCF(cfg.ItemCF, fp, logger, opts...), nil
	case recommend.StrategyUserCF:
		return NewUserToUserCF(cfg.UserCF, fp, logger, opts...), nil
	default:
		return nil, fmt.Errorf("%w: %s", recommend.ErrUnknownStrategy, name)
	}
}

// Build constructs every strategy enabled in cfg and registers it.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Build(cfg *recommend.Config, fp recommend.FeatureProvider, logger zerolog.Logger, opts ...Option) (*recommend.Registry, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if fp == nil {
		return nil, errors.New("feature provider is required")
	}

	registry := recommend.NewRegistry(logger)
	for _, name := range cfg.Enabled {
		s, err := New(name, cfg, fp, logger, opts...)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(s); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
