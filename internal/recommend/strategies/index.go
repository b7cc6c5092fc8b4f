// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package strategies

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shoprec/internal/metrics"
	"github.com/tomtom215/shoprec/internal/recommend"
)

// snapshot is an immutable, fully built index.
type snapshot[T any] struct {
	value       T
	size        int
	refreshedAt time.Time
}

// buildFunc computes a new index value and its size from provider data.
type buildFunc[T any] func(ctx context.Context) (T, int, error)

// refreshableIndex holds a copy-on-write index with staleness tracking.
//
// Readers load the current snapshot through an atomic pointer. A refresh
// builds a new snapshot without holding any reader-visible state and swaps
// it in, so readers see either the old or the new index.
type refreshableIndex[T any] struct {
	name     string
	interval time.Duration
	build    buildFunc[T]
	now      func() time.Time
	logger   zerolog.Logger

	current atomic.Pointer[snapshot[T]]

	// mu serialises rebuilds. Stale-path callers use TryLock and keep
	// serving the installed index when a rebuild is already running.
	mu         sync.Mutex
	refreshing atomic.Bool

	errMu   sync.RWMutex
	lastErr error
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func newRefreshableIndex[T any](name string, interval time.Duration, build buildFunc[T], now func() time.Time, logger zerolog.Logger) *refreshableIndex[T] {
	if now == nil {
		now = time.Now
	}
	return &refreshableIndex[T]{
		name:     name,
		interval: interval,
		build:    build,
		now:      now,
		logger:   logger,
	}
}

// load returns the installed snapshot, or nil before the first refresh.
func (ix *refreshableIndex[T]) load() *snapshot[T] {
	return ix.current.Load()
}

// stale reports whether s is missing or older than the refresh interval.
func (ix *refreshableIndex[T]) stale(s *snapshot[T]) bool {
	return s == nil || ix.now().Sub(s.refreshedAt) > ix.interval
}

// refreshIfStale rebuilds the index when it is missing or stale.
//
// With an index installed, a caller that finds a rebuild in flight returns
// immediately and keeps using the stale index. Without one, the caller
// waits for the in-flight rebuild so the first request can be served.
func (ix *refreshableIndex[T]) refreshIfStale(ctx context.Context) error {
	s := ix.load()
	if !ix.stale(s) {
		return nil
	}

	if s != nil {
		if !ix.mu.TryLock() {
			metrics.RecordIndexRefreshSkipped(ix.name)
			return nil
		}
	} else {
		ix.mu.Lock()
	}
	defer ix.mu.Unlock()

	// Another caller may have finished a rebuild while we waited.
	if !ix.stale(ix.load()) {
		return nil
	}

	return ix.rebuildLocked(ctx)
}

// refresh rebuilds the index unconditionally.
func (ix *refreshableIndex[T]) refresh(ctx context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.rebuildLocked(ctx)
}

// rebuildLocked builds and installs a new snapshot. Must be called with mu held.
func (ix *refreshableIndex[T]) rebuildLocked(ctx context.Context) error {
	ix.refreshing.Store(true)
	defer ix.refreshing.Store(false)

	start := time.Now()
	value, size, err := ix.build(ctx)
	duration := time.Since(start)
	metrics.RecordIndexRefresh(ix.name, duration, size, err)

	if err != nil {
		ix.setLastErr(err)
		ix.logger.Error().
			Err(err).
			Dur("duration", duration).
			Bool("has_index", ix.load() != nil).
			Msg("index refresh failed")
		return fmt.Errorf("refresh %s index: %w", ix.name, err)
	}

	ix.current.Store(&snapshot[T]{
		value:       value,
		size:        size,
		refreshedAt: ix.now(),
	})
	ix.setLastErr(nil)

	ix.logger.Info().
		Int("index_size", size).
		Dur("duration", duration).
		Msg("index refreshed")
	return nil
}

// ensure refreshes a stale index and returns the snapshot to serve from.
// A failed refresh is tolerated when an older snapshot is still installed.
func (ix *refreshableIndex[T]) ensure(ctx context.Context) (*snapshot[T], error) {
	err := ix.refreshIfStale(ctx)
	s := ix.load()
	if s == nil {
		if err == nil {
			err = recommend.DataUnavailable(ix.name, fmt.Errorf("index not built"))
		}
		return nil, err
	}
	if err != nil {
		ix.logger.Warn().
			Err(err).
			Time("last_refreshed", s.refreshedAt).
			Msg("serving stale index after failed refresh")
	}
	return s, nil
}

func (ix *refreshableIndex[T]) setLastErr(err error) {
	ix.errMu.Lock()
	ix.lastErr = err
	ix.errMu.Unlock()
}

// status reports the installed index state.
func (ix *refreshableIndex[T]) status() recommend.StrategyStatus {
	st := recommend.StrategyStatus{
		Name:            ix.name,
		RefreshInterval: ix.interval,
		Refreshing:      ix.refreshing.Load(),
	}

	s := ix.load()
	if s != nil {
		st.LastRefreshed = s.refreshedAt
		st.IndexSize = s.size
	}
	st.Stale = ix.stale(s)

	ix.errMu.RLock()
	if ix.lastErr != nil {
		st.LastError = ix.lastErr.Error()
	}
	ix.errMu.RUnlock()

	return st
}
