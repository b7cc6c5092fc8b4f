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
	reasonBoughtTogether  = "Frequently bought together"
	reasonPurchaseHistory = "Based on your purchase history"
)

// itemCFIndex holds Jaccard neighbours per item. It is symmetric: b is a
// neighbour of a with similarity s exactly when a is a neighbour of b with s.
type itemCFIndex struct {
	neighbors map[string][]neighbor
	sims      map[string]map[string]float64
}

// itemPair is an unordered item pair with a < b.
type itemPair struct {
	a, b string
}

// ItemToItemCF recommends items co-purchased with an anchor item or with
// the user's history.
type ItemToItemCF struct {
	cfg      recommend.ItemCFConfig
	provider recommend.FeatureProvider
	index    *refreshableIndex[*itemCFIndex]
	logger   zerolog.Logger
}

// NewItemToItemCF creates the item-to-item collaborative filtering strategy.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewItemToItemCF(cfg recommend.ItemCFConfig, fp recommend.FeatureProvider, logger zerolog.Logger, opts ...Option) *ItemToItemCF {
	o := applyOptions(opts)
	s := &ItemToItemCF{
		cfg:      cfg,
		provider: fp,
		logger:   strategyLogger(logger, recommend.StrategyItemCF),
	}
	s.index = newRefreshableIndex(recommend.StrategyItemCF, cfg.RefreshInterval, s.build, o.now, s.logger)
	return s
}

// Name returns "item_cf".
func (s *ItemToItemCF) Name() string { return recommend.StrategyItemCF }

// Recommend returns the neighbours of rc.ItemID when an anchor is given.
// Otherwise it sums neighbour similarities over the user's purchases (or
// views, when the user has no purchases) and excludes every item the user
// has already interacted with.
//
//nolint:gocritic // hugeParam: rc passed by value for immutability
func (s *ItemToItemCF) Recommend(ctx context.Context, userID string, rc recommend.Context) ([]recommend.ScoredCandidate, error) {
	snap, err := s.index.ensure(ctx)
	if err != nil {
		return nil, err
	}
	ix := snap.value
	n := rc.CountOr(s.cfg.DefaultCount)

	if rc.ItemID != "" {
		return s.anchorNeighbors(ix, rc.ItemID, n), nil
	}
	return s.fromHistory(ctx, ix, userID, n)
}

func (s *ItemToItemCF) anchorNeighbors(ix *itemCFIndex, itemID string, n int) []recommend.ScoredCandidate {
	ns := ix.neighbors[itemID]
	if len(ns) == 0 {
		s.logger.Debug().Str("item_id", itemID).Msg("anchor item has no co-purchase neighbours")
		return nil
	}

	if n > len(ns) {
		n = len(ns)
	}
	out := make([]recommend.ScoredCandidate, 0, n)
	for _, nb := range ns[:n] {
		out = append(out, recommend.ScoredCandidate{
			ItemID:   nb.id,
			Score:    nb.sim,
			Reason:   reasonBoughtTogether,
			Strategy: recommend.StrategyItemCF,
		})
	}
	return out
}

func (s *ItemToItemCF) fromHistory(ctx context.Context, ix *itemCFIndex, userID string, n int) ([]recommend.ScoredCandidate, error) {
	history, err := s.provider.UserItems(ctx, userID, recommend.EventPurchase)
	if err != nil {
		return nil, recommend.DataUnavailable("user purchases", err)
	}
	if len(history) == 0 {
		history, err = s.provider.UserItems(ctx, userID, recommend.EventView)
		if err != nil {
			return nil, recommend.DataUnavailable("user views", err)
		}
	}
	if len(history) == 0 {
		s.logger.Debug().Str("user_id", userID).Msg("user has no history")
		return nil, nil
	}

	all, err := s.provider.UserItems(ctx, userID, "")
	if err != nil {
		return nil, recommend.DataUnavailable("user items", err)
	}
	exclude := stringSet(history, all)

	scores := make(map[string]float64)
	for _, h := range sortedUnique(history) {
		for _, nb := range ix.neighbors[h] {
			if _, owned := exclude[nb.id]; owned {
				continue
			}
			scores[nb.id] += nb.sim
		}
	}

	return rankScores(scores, n, recommend.StrategyItemCF, reasonPurchaseHistory), nil
}

// Similarity returns the indexed similarity of a and b, or 0 when the pair
// is not indexed.
func (s *ItemToItemCF) Similarity(a, b string) float64 {
	snap := s.index.load()
	if snap == nil {
		return 0
	}
	return snap.value.sims[a][b]
}

// RefreshIfStale rebuilds the similarity index when it is missing or stale.
func (s *ItemToItemCF) RefreshIfStale(ctx context.Context) error {
	return s.index.refreshIfStale(ctx)
}

// Refresh rebuilds the similarity index.
func (s *ItemToItemCF) Refresh(ctx context.Context) error { return s.index.refresh(ctx) }

// Status reports the index state.
func (s *ItemToItemCF) Status() recommend.StrategyStatus { return s.index.status() }

func (s *ItemToItemCF) build(ctx context.Context) (*itemCFIndex, int, error) {
	purchases, err := s.provider.PurchaseData(ctx)
	if err != nil {
		return nil, 0, recommend.DataUnavailable("purchase data", err)
	}

	buyers := make(map[string]map[string]struct{})
	baskets := make(map[string]map[string]struct{})
	for _, p := range purchases {
		if p.UserID == "" || p.ItemID == "" {
			continue
		}
		if buyers[p.ItemID] == nil {
			buyers[p.ItemID] = make(map[string]struct{})
		}
		buyers[p.ItemID][p.UserID] = struct{}{}
		if baskets[p.UserID] == nil {
			baskets[p.UserID] = make(map[string]struct{})
		}
		baskets[p.UserID][p.ItemID] = struct{}{}
	}

	// Co-occurrence counts: one increment per user who bought both items.
	common := make(map[itemPair]int)
	for _, basket := range baskets {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		items := make([]string, 0, len(basket))
		for id := range basket {
			items = append(items, id)
		}
		sort.Strings(items)
		for i := 0; i < len(items); i++ {
			for j := i + 1; j < len(items); j++ {
				common[itemPair{items[i], items[j]}]++
			}
		}
	}

	ix := &itemCFIndex{
		neighbors: make(map[string][]neighbor),
		sims:      make(map[string]map[string]float64),
	}
	pairs := 0
	for pair, c := range common {
		if c < s.cfg.MinCommonUsers {
			continue
		}
		union := len(buyers[pair.a]) + len(buyers[pair.b]) - c
		sim := float64(c) / float64(union)

		ix.add(pair.a, pair.b, sim)
		ix.add(pair.b, pair.a, sim)
		pairs++
	}

	for id := range ix.neighbors {
		sortNeighbors(ix.neighbors[id])
	}

	return ix, pairs, nil
}

func (ix *itemCFIndex) add(from, to string, sim float64) {
	ix.neighbors[from] = append(ix.neighbors[from], neighbor{id: to, sim: sim})
	if ix.sims[from] == nil {
		ix.sims[from] = make(map[string]float64)
	}
	ix.sims[from][to] = sim
}

// sortedUnique returns the distinct IDs of ids in ascending order.
func sortedUnique(ids []string) []string {
	set := stringSet(ids)
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
