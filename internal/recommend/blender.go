// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package recommend

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shoprec/internal/logging"
	"github.com/tomtom215/shoprec/internal/metrics"
)

// Blender fuses the outputs of several strategies using per-scene weight tables.
// It is safe for concurrent use.
type Blender struct {
	registry        *Registry
	scenes          map[string]WeightTable
	strategyTimeout time.Duration
	logger          zerolog.Logger
}

// BlendResult is the outcome of a blended request.
type BlendResult struct {
	Items []Recommendation

	// Scene is the weight table actually used.
	Scene string

	// Partial is set when the caller's deadline ended blending early.
	Partial bool

	// Attempted counts the strategies that were invoked.
	Attempted int

	// Errors holds one entry per failed strategy.
	Errors []error
}

// strategyOutput holds the result of a single strategy invocation.
type strategyOutput struct {
	name       string
	candidates []ScoredCandidate
	err        error
}

// NewBlender creates a blender over the strategies in registry.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBlender(cfg *Config, registry *Registry, logger zerolog.Logger) *Blender {
	scenes := make(map[string]WeightTable, len(cfg.Scenes))
	for scene, table := range cfg.Scenes {
		scenes[scene] = append(WeightTable(nil), table...)
	}

	return &Blender{
		registry:        registry,
		scenes:          scenes,
		strategyTimeout: cfg.Limits.StrategyTimeout,
		logger:          logger.With().Str("component", "blender").Logger(),
	}
}

// ResolveScene returns the weight table for scene. Unknown scenes fall back
// to the default table; the second return value reports whether that happened.
func (b *Blender) ResolveScene(scene string) (string, WeightTable, bool) {
	if scene == "" {
		return DefaultScene, b.scenes[DefaultScene], false
	}
	if table, ok := b.scenes[scene]; ok {
		return scene, table, false
	}
	return DefaultScene, b.scenes[DefaultScene], true
}

// Recommend invokes every weighted strategy of the request's scene and blends
// their outputs into at most count results.
//
// Strategies run concurrently. A failing strategy is logged and left out.
// If ctx ends first, whatever has completed is blended and the result is
// marked partial.
func (b *Blender) Recommend(ctx context.Context, userID string, rc Context, count int) BlendResult {
	logger := b.logger.With().
		Str("request_id", logging.RequestIDFromContext(ctx)).
		Str("user_id", userID).
		Logger()

	scene, table, fellBack := b.ResolveScene(rc.Scene)
	if fellBack {
		logger.Warn().
			Str("scene", rc.Scene).
			Str("fallback", scene).
			Msg("unknown scene, using default weights")
		metrics.RecordSceneFallback(rc.Scene)
	}

	rc.Scene = scene
	rc.Count = count

	result := BlendResult{Scene: scene}
	outputs := make(chan strategyOutput, len(table))

	for _, w := range table {
		if w.Weight <= 0 {
			continue
		}
		s, ok := b.registry.Get(w.Name)
		if !ok {
			logger.Warn().
				Str("strategy", w.Name).
				Str("scene", scene).
				Msg("strategy not registered, skipping")
			metrics.RecordStrategyCall(w.Name, "skipped", 0)
			continue
		}

		result.Attempted++
		go func(s Strategy) {
			outputs <- b.runStrategy(ctx, s, userID, rc)
		}(s)
	}

	collected := make(map[string][]ScoredCandidate, result.Attempted)
	for pending := result.Attempted; pending > 0; pending-- {
		select {
		case out := <-outputs:
			if out.err != nil {
				logger.Warn().
					Err(out.err).
					Str("strategy", out.name).
					Msg("strategy failed, blending without it")
				result.Errors = append(result.Errors, out.err)
				continue
			}
			collected[out.name] = out.candidates
		case <-ctx.Done():
			logger.Warn().
				Int("completed", result.Attempted-pending).
				Int("attempted", result.Attempted).
				Msg("deadline reached, returning partial blend")
			result.Partial = true
		}
		if result.Partial {
			break
		}
	}

	result.Items = Blend(table, collected, count)
	return result
}

// runStrategy calls a single strategy and records its metrics.
func (b *Blender) runStrategy(ctx context.Context, s Strategy, userID string, rc Context) strategyOutput {
	out := strategyOutput{name: s.Name()}

	callCtx := ctx
	if b.strategyTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, b.strategyTimeout)
		defer cancel()
	}

	start := time.Now()
	out.candidates, out.err = s.Recommend(callCtx, userID, rc)

	switch {
	case out.err != nil:
		metrics.RecordStrategyCall(out.name, "error", time.Since(start))
	case len(out.candidates) == 0:
		metrics.RecordStrategyCall(out.name, "empty", time.Since(start))
	default:
		metrics.RecordStrategyCall(out.name, "ok", time.Since(start))
	}

	return out
}

// blendEntry accumulates the weighted score of one item.
type blendEntry struct {
	rec           Recommendation
	primaryWeight float64
}

// Blend combines strategy outputs with the weights of table.
//
// For every strategy in table order with weight > 0, each candidate score is
// multiplied by the weight and added to the item's total. The result is sorted
// by total descending (ties by item ID), truncated to count, and every score
// is clamped to 1.0. Provenance comes from the contributing strategy with the
// highest weight, the first in table order on ties.
//
// Blend is a pure function: equal inputs always produce equal output.
func Blend(table WeightTable, outputs map[string][]ScoredCandidate, count int) []Recommendation {
	entries := make(map[string]*blendEntry)

	for _, w := range table {
		if w.Weight <= 0 {
			continue
		}
		for _, c := range outputs[w.Name] {
			e, ok := entries[c.ItemID]
			if !ok {
				e = &blendEntry{
					rec:           Recommendation{ItemID: c.ItemID},
					primaryWeight: -1,
				}
				entries[c.ItemID] = e
			}

			n := len(e.rec.Strategies)
			if n > 0 && e.rec.Strategies[n-1] == w.Name {
				continue
			}

			e.rec.Score += c.Score * w.Weight
			e.rec.Strategies = append(e.rec.Strategies, w.Name)
			if w.Weight > e.primaryWeight {
				e.primaryWeight = w.Weight
				e.rec.Strategy = w.Name
				e.rec.Reason = c.Reason
			}
		}
	}

	recs := make([]Recommendation, 0, len(entries))
	for _, e := range entries {
		recs = append(recs, e.rec)
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].ItemID < recs[j].ItemID
	})

	if count >= 0 && len(recs) > count {
		recs = recs[:count]
	}

	for i := range recs {
		if recs[i].Score > 1 {
			recs[i].Score = 1
		}
	}

	return recs
}

// allUnavailable reports whether every attempted strategy failed and at least
// one failure was a data-source outage.
func (r *BlendResult) allUnavailable() bool {
	if r.Attempted == 0 || len(r.Errors) < r.Attempted {
		return false
	}
	for _, err := range r.Errors {
		if errors.Is(err, ErrDataUnavailable) {
			return true
		}
	}
	return false
}
