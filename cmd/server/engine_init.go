// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package main

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/tomtom215/shoprec/internal/config"
	"github.com/tomtom215/shoprec/internal/provider"
	"github.com/tomtom215/shoprec/internal/recommend"
	"github.com/tomtom215/shoprec/internal/recommend/strategies"
)

// FeatureComponents is the feature provider chain in front of the store.
type FeatureComponents struct {
	// Provider is the outermost provider handed to the strategies.
	Provider recommend.FeatureProvider

	// Cache is nil when the feature cache is disabled.
	Cache *provider.CachedProvider

	// Breaker is nil when the circuit breaker is disabled.
	Breaker *provider.BreakerProvider

	store *badger.DB
}

// Close releases the feature cache store.
func (c *FeatureComponents) Close() error {
	if c == nil || c.store == nil {
		return nil
	}
	return c.store.Close()
}

// initFeatures wraps base with the breaker and then the cache, so cache
// hits keep working while the breaker is open.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func initFeatures(cfg *config.Config, base recommend.FeatureProvider, logger zerolog.Logger) (*FeatureComponents, error) {
	fc := &FeatureComponents{Provider: base}

	if cfg.Breaker.Enabled {
		fc.Breaker = provider.NewBreakerProvider(fc.Provider, breakerConfig(&cfg.Breaker), logger)
		fc.Provider = fc.Breaker
	}

	if cfg.FeatureCache.Enabled {
		store, err := provider.OpenBadger(cfg.FeatureCache.Path)
		if err != nil {
			return nil, err
		}
		fc.store = store
		fc.Cache = provider.NewCachedProvider(fc.Provider, store, provider.CacheConfig{
			ItemsTTL:   cfg.FeatureCache.ItemsTTL,
			DefaultTTL: cfg.FeatureCache.DefaultTTL,
		}, logger)
		fc.Provider = fc.Cache
	}

	logger.Info().
		Bool("breaker", fc.Breaker != nil).
		Bool("feature_cache", fc.Cache != nil).
		Str("feature_cache_path", cfg.FeatureCache.Path).
		Msg("Feature provider initialized")
	return fc, nil
}

func breakerConfig(c *config.BreakerConfig) provider.BreakerConfig {
	bc := provider.DefaultBreakerConfig()
	if c.MaxRequests > 0 {
		bc.MaxRequests = c.MaxRequests
	}
	if c.Interval > 0 {
		bc.Interval = c.Interval
	}
	if c.Timeout > 0 {
		bc.Timeout = c.Timeout
	}
	if c.MinRequests > 0 {
		bc.MinRequests = c.MinRequests
	}
	if c.FailureRatio > 0 {
		bc.FailureRatio = c.FailureRatio
	}
	return bc
}

// initEngine builds every configured strategy over fp and the engine that
// blends them.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func initEngine(cfg *config.Config, fp recommend.FeatureProvider, logger zerolog.Logger) (*recommend.Engine, error) {
	registry, err := strategies.Build(&cfg.Recommend, fp, logger)
	if err != nil {
		return nil, fmt.Errorf("build strategies: %w", err)
	}

	engine, err := recommend.NewEngine(&cfg.Recommend, registry, logger)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	logger.Info().Strs("strategies", registry.Names()).Msg("Recommendation engine initialized")
	return engine, nil
}
