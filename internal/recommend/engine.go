// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shoprec/internal/logging"
	"github.com/tomtom215/shoprec/internal/metrics"
)

// AlgorithmHybrid is the algorithm name reported on blended responses.
const AlgorithmHybrid = "hybrid"

// Engine validates requests, serves cached responses and delegates to the
// blender. It is safe for concurrent use.
type Engine struct {
	config   *Config
	registry *Registry
	blender  *Blender
	cache    *responseCache
	logger   zerolog.Logger

	requestCount atomic.Int64
	cacheHits    atomic.Int64
	cacheMisses  atomic.Int64
	errorCount   atomic.Int64
}

// Stats holds engine counters since startup.
type Stats struct {
	RequestCount int64 `json:"request_count"`
	CacheHits    int64 `json:"cache_hits"`
	CacheMisses  int64 `json:"cache_misses"`
	ErrorCount   int64 `json:"error_count"`
	CacheEntries int   `json:"cache_entries"`
}

// NewEngine creates a recommendation engine over the strategies in registry.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, registry *Registry, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if registry == nil {
		return nil, errors.New("registry is required")
	}

	cfg = cfg.Clone()
	logger = logger.With().Str("component", "recommend").Logger()

	return &Engine{
		config:   cfg,
		registry: registry,
		blender:  NewBlender(cfg, registry, logger),
		cache:    newResponseCache(cfg.Cache.TTL, cfg.Cache.MaxEntries),
		logger:   logger,
	}, nil
}

// Recommend returns blended recommendations for userID.
//
// The request ID is taken from ctx when present. A deadline on ctx bounds
// the request: strategies still running when it expires are left out and
// the response is marked partial.
//
//nolint:gocritic // hugeParam: rc passed by value for immutability
func (e *Engine) Recommend(ctx context.Context, userID string, rc Context) (*Response, error) {
	start := time.Now()
	e.requestCount.Add(1)

	rc, err := e.prepareContext(userID, rc)
	if err != nil {
		e.errorCount.Add(1)
		metrics.RecordRecommendRequest("invalid", "error", time.Since(start), 0)
		return nil, err
	}

	requestID := logging.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = logging.GenerateRequestID()
		ctx = logging.ContextWithRequestID(ctx, requestID)
	}

	logger := e.logger.With().
		Str("request_id", requestID).
		Str("user_id", userID).
		Str("scene", rc.Scene).
		Logger()
	logger.Debug().Msg("processing recommendation request")

	key := cacheKey(userID, rc)
	if resp := e.tryGetCachedResponse(key, requestID, start); resp != nil {
		logger.Debug().Msg("cache hit")
		metrics.RecordRecommendRequest(resp.Scene, "cache_hit", time.Since(start), len(resp.Items))
		return resp, nil
	}

	result := e.blender.Recommend(ctx, userID, rc, rc.Count)

	if result.allUnavailable() {
		e.errorCount.Add(1)
		metrics.RecordRecommendRequest(result.Scene, "error", time.Since(start), 0)
		return nil, fmt.Errorf("all strategies failed: %w", errors.Join(result.Errors...))
	}

	resp := &Response{
		Items:     result.Items,
		RequestID: requestID,
		Scene:     result.Scene,
		Algorithm: AlgorithmHybrid,
		TookMS:    time.Since(start).Milliseconds(),
		Partial:   result.Partial,
	}

	outcome := "ok"
	switch {
	case result.Partial:
		outcome = "partial"
	case len(result.Errors) == 0 && e.config.Cache.Enabled:
		e.cache.put(key, resp)
	}
	metrics.RecordRecommendRequest(result.Scene, outcome, time.Since(start), len(resp.Items))

	logger.Debug().
		Int("returned", len(resp.Items)).
		Int("failed_strategies", len(result.Errors)).
		Bool("partial", resp.Partial).
		Int64("latency_ms", resp.TookMS).
		Msg("recommendation complete")

	return resp, nil
}

// prepareContext validates the request and applies the default count.
//
//nolint:gocritic // hugeParam: rc passed by value for immutability
func (e *Engine) prepareContext(userID string, rc Context) (Context, error) {
	if userID == "" {
		return rc, fmt.Errorf("%w: user id is required", ErrInvalidRequest)
	}
	if rc.Count < 0 || rc.Count > e.config.Limits.MaxCount {
		return rc, fmt.Errorf("%w: count must be between 1 and %d, got %d",
			ErrInvalidRequest, e.config.Limits.MaxCount, rc.Count)
	}
	if rc.Count == 0 {
		rc.Count = e.config.Limits.DefaultCount
	}
	return rc, nil
}

// tryGetCachedResponse returns a cached response stamped for this request, or nil.
func (e *Engine) tryGetCachedResponse(key, requestID string, start time.Time) *Response {
	if !e.config.Cache.Enabled {
		return nil
	}

	resp := e.cache.get(key)
	metrics.RecordCacheLookup("response", resp != nil)
	if resp == nil {
		e.cacheMisses.Add(1)
		return nil
	}

	e.cacheHits.Add(1)
	resp.RequestID = requestID
	resp.CacheHit = true
	resp.TookMS = time.Since(start).Milliseconds()
	return resp
}

// InvalidateCache drops every cached response and returns how many were removed.
func (e *Engine) InvalidateCache() int {
	n := e.cache.clear()
	e.logger.Debug().Int("entries", n).Msg("response cache cleared")
	return n
}

// Refresh rebuilds the index of one strategy, or of every strategy when
// name is empty, and clears the response cache on success.
func (e *Engine) Refresh(ctx context.Context, name string) error {
	var err error
	if name == "" {
		err = e.registry.RefreshAll(ctx, true)
	} else {
		s, ok := e.registry.Get(name)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownStrategy, name)
		}
		err = s.Refresh(ctx)
	}
	if err != nil {
		return err
	}

	e.InvalidateCache()
	return nil
}

// RefreshStale rebuilds only the indexes past their refresh interval and
// clears the response cache.
func (e *Engine) RefreshStale(ctx context.Context) error {
	if err := e.registry.RefreshAll(ctx, false); err != nil {
		return err
	}
	e.InvalidateCache()
	return nil
}

// Stats returns the engine counters.
func (e *Engine) Stats() Stats {
	return Stats{
		RequestCount: e.requestCount.Load(),
		CacheHits:    e.cacheHits.Load(),
		CacheMisses:  e.cacheMisses.Load(),
		ErrorCount:   e.errorCount.Load(),
		CacheEntries: e.cache.len(),
	}
}

// Strategies returns the index status of every registered strategy.
func (e *Engine) Strategies() []StrategyStatus {
	return e.registry.Statuses()
}

// Registry returns the strategy registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *Config {
	return e.config.Clone()
}
