// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package recommend

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// mockStrategy implements Strategy for testing.
type mockStrategy struct {
	name       string
	candidates []ScoredCandidate
	err        error
	refreshErr error
	delay      time.Duration

	calls     atomic.Int32
	refreshes atomic.Int32
}

func (m *mockStrategy) Name() string { return m.name }

func (m *mockStrategy) Recommend(ctx context.Context, _ string, rc Context) ([]ScoredCandidate, error) {
	m.calls.Add(1)
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}

	out := append([]ScoredCandidate(nil), m.candidates...)
	if n := rc.CountOr(len(out)); n < len(out) {
		out = out[:n]
	}
	return out, nil
}

func (m *mockStrategy) RefreshIfStale(context.Context) error { return nil }

func (m *mockStrategy) Refresh(context.Context) error {
	m.refreshes.Add(1)
	return m.refreshErr
}

func (m *mockStrategy) Status() StrategyStatus {
	return StrategyStatus{Name: m.name, IndexSize: len(m.candidates)}
}

func candidates(strategy string, pairs ...any) []ScoredCandidate {
	out := make([]ScoredCandidate, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, ScoredCandidate{
			ItemID:   pairs[i].(string),
			Score:    pairs[i+1].(float64),
			Reason:   strategy + " reason",
			Strategy: strategy,
		})
	}
	return out
}

func newTestRegistry(t *testing.T, strategies ...Strategy) *Registry {
	t.Helper()
	r := NewRegistry(zerolog.Nop())
	for _, s := range strategies {
		if err := r.Register(s); err != nil {
			t.Fatalf("Register(%s) error = %v", s.Name(), err)
		}
	}
	return r
}

func itemIDs(recs []Recommendation) []string {
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.ItemID
	}
	return ids
}
