// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Strategy names recognised by the factory and the default weight tables.
const (
	StrategyPopular = "popular_items"
	StrategyContent = "content_based"
	StrategyItemCF  = "item_cf"
	StrategyUserCF  = "user_cf"
)

// KnownStrategies lists every strategy name in a stable order.
var KnownStrategies = []string{StrategyPopular, StrategyContent, StrategyItemCF, StrategyUserCF}

// Strategy produces scored candidates for a user and request context.
//
// Implementations keep a derived index that is rebuilt off to the side and
// swapped in atomically, so Recommend is safe to call concurrently with a
// refresh.
type Strategy interface {
	// Name returns the strategy identifier.
	Name() string

	// Recommend returns candidates sorted by score descending, ties by item ID.
	// Missing context (no anchor, unknown user) yields an empty result, not an error.
	Recommend(ctx context.Context, userID string, rc Context) ([]ScoredCandidate, error)

	// RefreshIfStale rebuilds the index when it is missing or older than the
	// refresh interval. It does not block on a refresh already in flight
	// once an index is installed.
	RefreshIfStale(ctx context.Context) error

	// Refresh rebuilds the index unconditionally.
	Refresh(ctx context.Context) error

	// Status reports the installed index state.
	Status() StrategyStatus
}

// Registry maps strategy names to instances. It is built at startup and
// is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
	logger     zerolog.Logger
}

// NewRegistry creates an empty registry.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		strategies: make(map[string]Strategy),
		logger:     logger.With().Str("component", "registry").Logger(),
	}
}

// Register adds a strategy. Registering a name twice is an error.
func (r *Registry) Register(s Strategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := s.Name()
	if _, exists := r.strategies[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateStrategy, name)
	}
	r.strategies[name] = s

	r.logger.Info().
		Str("strategy", name).
		Msg("registered strategy")
	return nil
}

// Get returns the strategy registered under name.
func (r *Registry) Get(name string) (Strategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[name]
	return s, ok
}

// Names returns the registered strategy names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Statuses returns the index status of every strategy, sorted by name.
func (r *Registry) Statuses() []StrategyStatus {
	names := r.Names()
	statuses := make([]StrategyStatus, 0, len(names))
	for _, name := range names {
		if s, ok := r.Get(name); ok {
			statuses = append(statuses, s.Status())
		}
	}
	return statuses
}

// RefreshAll refreshes every registered strategy. Strategies refresh
// independently; failures are joined and do not stop the others.
func (r *Registry) RefreshAll(ctx context.Context, force bool) error {
	names := r.Names()
	errs := make([]error, len(names))

	var wg sync.WaitGroup
	for i, name := range names {
		s, ok := r.Get(name)
		if !ok {
			continue
		}
		wg.Add(1)
		go func(idx int, s Strategy) {
			defer wg.Done()
			var err error
			if force {
				err = s.Refresh(ctx)
			} else {
				err = s.RefreshIfStale(ctx)
			}
			if err != nil {
				errs[idx] = fmt.Errorf("refresh %s: %w", s.Name(), err)
			}
		}(i, s)
	}
	wg.Wait()

	return errors.Join(errs...)
}
