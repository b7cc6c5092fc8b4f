// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package strategies

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shoprec/internal/recommend"
)

const reasonPickedForYou = "Picked for you"

// userCFIndex holds the top-K neighbours per user and the items each user
// interacted with.
type userCFIndex struct {
	neighbors map[string][]neighbor

	// weighted lists the items with a positive interaction weight per user,
	// sorted by ID.
	weighted map[string][]string

	// seen holds every item a user interacted with, of any kind.
	seen map[string]map[string]struct{}
}

// posting is one entry of the item -> users inverted index.
type posting struct {
	user   int
	weight float64
}

// UserToUserCF recommends items that similar users interacted with.
type UserToUserCF struct {
	cfg      recommend.UserCFConfig
	provider recommend.FeatureProvider
	index    *refreshableIndex[*userCFIndex]
	logger   zerolog.Logger
}

// NewUserToUserCF creates the user-to-user collaborative filtering strategy.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewUserToUserCF(cfg recommend.UserCFConfig, fp recommend.FeatureProvider, logger zerolog.Logger, opts ...Option) *UserToUserCF {
	o := applyOptions(opts)
	s := &UserToUserCF{
		cfg:      cfg,
		provider: fp,
		logger:   strategyLogger(logger, recommend.StrategyUserCF),
	}
	s.index = newRefreshableIndex(recommend.StrategyUserCF, cfg.RefreshInterval, s.build, o.now, s.logger)
	return s
}

// Name returns "user_cf".
func (s *UserToUserCF) Name() string { return recommend.StrategyUserCF }

// Recommend scores each item by the summed similarity of the neighbours who
// interacted with it. Items the user already has are excluded. Users unknown
// to the index get an empty result.
//
//nolint:gocritic // hugeParam: rc passed by value for immutability
func (s *UserToUserCF) Recommend(ctx context.Context, userID string, rc recommend.Context) ([]recommend.ScoredCandidate, error) {
	snap, err := s.index.ensure(ctx)
	if err != nil {
		return nil, err
	}
	ix := snap.value

	if _, known := ix.seen[userID]; !known {
		s.logger.Warn().Str("user_id", userID).Msg("cold-start user, no interaction history")
		return nil, nil
	}

	neighbors := ix.neighbors[userID]
	if len(neighbors) == 0 {
		s.logger.Debug().Str("user_id", userID).Msg("no neighbours above similarity threshold")
		return nil, nil
	}

	// Interactions recorded since the last refresh are excluded too.
	recent, err := s.provider.UserItems(ctx, userID, "")
	if err != nil {
		return nil, recommend.DataUnavailable("user items", err)
	}
	recentSet := stringSet(recent)

	scores := make(map[string]float64)
	for _, nb := range neighbors {
		for _, item := range ix.weighted[nb.id] {
			if _, owned := ix.seen[userID][item]; owned {
				continue
			}
			if _, owned := recentSet[item]; owned {
				continue
			}
			scores[item] += nb.sim
		}
	}

	return rankScores(scores, rc.CountOr(s.cfg.DefaultCount), recommend.StrategyUserCF, reasonPickedForYou), nil
}

// RefreshIfStale rebuilds the neighbour index when it is missing or stale.
func (s *UserToUserCF) RefreshIfStale(ctx context.Context) error {
	return s.index.refreshIfStale(ctx)
}

// Refresh rebuilds the neighbour index.
func (s *UserToUserCF) Refresh(ctx context.Context) error { return s.index.refresh(ctx) }

// Status reports the index state.
func (s *UserToUserCF) Status() recommend.StrategyStatus { return s.index.status() }

// Neighbors returns the indexed neighbours of userID with their similarities.
func (s *UserToUserCF) Neighbors(userID string) map[string]float64 {
	snap := s.index.load()
	if snap == nil {
		return nil
	}
	out := make(map[string]float64, len(snap.value.neighbors[userID]))
	for _, nb := range snap.value.neighbors[userID] {
		out[nb.id] = nb.sim
	}
	return out
}

func (s *UserToUserCF) build(ctx context.Context) (*userCFIndex, int, error) {
	events, err := s.provider.InteractionData(ctx)
	if err != nil {
		return nil, 0, recommend.DataUnavailable("interaction data", err)
	}

	rows := make(map[string]map[string]float64)
	seen := make(map[string]map[string]struct{})
	for _, ev := range events {
		if ev.UserID == "" || ev.ItemID == "" {
			continue
		}
		if seen[ev.UserID] == nil {
			seen[ev.UserID] = make(map[string]struct{})
		}
		seen[ev.UserID][ev.ItemID] = struct{}{}

		w := s.cfg.EventWeights[ev.Kind]
		if w <= 0 {
			continue
		}
		if rows[ev.UserID] == nil {
			rows[ev.UserID] = make(map[string]float64)
		}
		rows[ev.UserID][ev.ItemID] += w
	}

	userIDs := make([]string, 0, len(rows))
	for uid := range rows {
		userIDs = append(userIDs, uid)
	}
	sort.Strings(userIDs)

	norms := make([]float64, len(userIDs))
	inverted := make(map[string][]posting)
	weighted := make(map[string][]string, len(userIDs))
	for u, uid := range userIDs {
		items := make([]string, 0, len(rows[uid]))
		for item := range rows[uid] {
			items = append(items, item)
		}
		sort.Strings(items)
		weighted[uid] = items

		var sq float64
		for _, item := range items {
			w := rows[uid][item]
			sq += w * w
			inverted[item] = append(inverted[item], posting{user: u, weight: w})
		}
		norms[u] = math.Sqrt(sq)
	}

	ix := &userCFIndex{
		neighbors: make(map[string][]neighbor, len(userIDs)),
		weighted:  weighted,
		seen:      seen,
	}

	workers := s.cfg.NumWorkers
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	chunkSize := (len(userIDs) + workers - 1) / workers

	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > len(userIDs) {
			end = len(userIDs)
		}
		if start >= end {
			break
		}

		wg.Add(1)
		go func(first, last int) {
			defer wg.Done()

			for u := first; u < last; u++ {
				if ctx.Err() != nil {
					return
				}

				neighbors := s.userNeighbors(u, userIDs, weighted[userIDs[u]], rows[userIDs[u]], norms, inverted)

				mu.Lock()
				if len(neighbors) > 0 {
					ix.neighbors[userIDs[u]] = neighbors
				}
				mu.Unlock()
			}
		}(start, end)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	return ix, len(ix.neighbors), nil
}

// userNeighbors computes the top-K users most similar to user u.
func (s *UserToUserCF) userNeighbors(u int, userIDs, items []string, row map[string]float64, norms []float64, inverted map[string][]posting) []neighbor {
	if norms[u] == 0 {
		return nil
	}

	// Sparse dot products through the inverted index.
	dots := make(map[int]float64)
	for _, item := range items {
		w := row[item]
		for _, p := range inverted[item] {
			if p.user != u {
				dots[p.user] += w * p.weight
			}
		}
	}

	out := make([]neighbor, 0, len(dots))
	for v, dot := range dots {
		if norms[v] == 0 {
			continue
		}
		sim := dot / (norms[u] * norms[v])
		if sim > 1 {
			sim = 1
		}
		if sim < s.cfg.MinSimilarity || sim <= 0 {
			continue
		}
		out = append(out, neighbor{id: userIDs[v], sim: sim})
	}

	sortNeighbors(out)
	if len(out) > s.cfg.MaxNeighbors {
		out = out[:s.cfg.MaxNeighbors]
	}
	return out
}
