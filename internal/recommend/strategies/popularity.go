// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package strategies

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shoprec/internal/recommend"
)

const (
	reasonPopular           = "Popular right now"
	reasonPopularInCategory = "Popular in "
)

// popularIndex holds the overall and per-category popularity rankings.
type popularIndex struct {
	overall    []recommend.PopularItem
	byCategory map[string][]recommend.PopularItem
}

// Popularity recommends the most popular items overall or within a category.
// It is stateless with respect to the user.
type Popularity struct {
	cfg      recommend.PopularConfig
	provider recommend.FeatureProvider
	index    *refreshableIndex[*popularIndex]
	logger   zerolog.Logger
}

// NewPopularity creates the popularity strategy.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewPopularity(cfg recommend.PopularConfig, fp recommend.FeatureProvider, logger zerolog.Logger, opts ...Option) *Popularity {
	o := applyOptions(opts)
	p := &Popularity{
		cfg:      cfg,
		provider: fp,
		logger:   strategyLogger(logger, recommend.StrategyPopular),
	}
	p.index = newRefreshableIndex(recommend.StrategyPopular, cfg.RefreshInterval, p.build, o.now, p.logger)
	return p
}

// Name returns "popular_items".
func (p *Popularity) Name() string { return recommend.StrategyPopular }

// Recommend returns the top items of the requested category, or of the
// overall ranking when the category is empty or not indexed.
//
//nolint:gocritic // hugeParam: rc passed by value for immutability
func (p *Popularity) Recommend(ctx context.Context, _ string, rc recommend.Context) ([]recommend.ScoredCandidate, error) {
	snap, err := p.index.ensure(ctx)
	if err != nil {
		return nil, err
	}
	ix := snap.value

	list, reason := ix.overall, reasonPopular
	if rc.CategoryID != "" {
		if ranked, ok := ix.byCategory[rc.CategoryID]; ok {
			list, reason = ranked, reasonPopularInCategory+rc.CategoryID
		} else {
			p.logger.Debug().
				Str("category_id", rc.CategoryID).
				Msg("category not indexed, using overall ranking")
		}
	}

	n := rc.CountOr(p.cfg.DefaultCount)
	if n > len(list) {
		n = len(list)
	}

	out := make([]recommend.ScoredCandidate, 0, n)
	for _, pi := range list[:n] {
		out = append(out, recommend.ScoredCandidate{
			ItemID:   pi.ItemID,
			Score:    pi.Score,
			Reason:   reason,
			Strategy: recommend.StrategyPopular,
		})
	}
	return out, nil
}

// RefreshIfStale rebuilds the rankings when they are missing or stale.
func (p *Popularity) RefreshIfStale(ctx context.Context) error { return p.index.refreshIfStale(ctx) }

// Refresh rebuilds the rankings.
func (p *Popularity) Refresh(ctx context.Context) error { return p.index.refresh(ctx) }

// Status reports the index state.
func (p *Popularity) Status() recommend.StrategyStatus { return p.index.status() }

func (p *Popularity) build(ctx context.Context) (*popularIndex, int, error) {
	overall, err := p.provider.PopularItems(ctx, "", p.cfg.OverallLimit)
	if err != nil {
		return nil, 0, recommend.DataUnavailable("popular items", err)
	}

	categories, err := p.provider.Categories(ctx)
	if err != nil {
		return nil, 0, recommend.DataUnavailable("categories", err)
	}

	ix := &popularIndex{
		overall:    rankPopular(overall, p.cfg.OverallLimit),
		byCategory: make(map[string][]recommend.PopularItem, len(categories)),
	}
	size := len(ix.overall)

	for _, cat := range categories {
		ranked, err := p.provider.PopularItems(ctx, cat, p.cfg.CategoryLimit)
		if err != nil {
			return nil, 0, recommend.DataUnavailable("popular items in "+cat, err)
		}
		if len(ranked) == 0 {
			continue
		}
		ix.byCategory[cat] = rankPopular(ranked, p.cfg.CategoryLimit)
		size += len(ix.byCategory[cat])
	}

	return ix, size, nil
}

// rankPopular copies a provider ranking, dropping duplicates and
// negative scores, and sorts it deterministically.
func rankPopular(in []recommend.PopularItem, limit int) []recommend.PopularItem {
	seen := make(map[string]struct{}, len(in))
	out := make([]recommend.PopularItem, 0, len(in))
	for _, pi := range in {
		if _, dup := seen[pi.ItemID]; dup || pi.ItemID == "" {
			continue
		}
		seen[pi.ItemID] = struct{}{}
		if pi.Score < 0 {
			pi.Score = 0
		}
		out = append(out, pi)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ItemID < out[j].ItemID
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
