// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package strategies

import (
	"sort"

	"github.com/tomtom215/shoprec/internal/recommend"
)

// neighbor is a similar item or user with its similarity.
type neighbor struct {
	id  string
	sim float64
}

// sortNeighbors orders by similarity descending, ties by ID ascending.
func sortNeighbors(ns []neighbor) {
	sort.Slice(ns, func(i, j int) bool {
		if ns[i].sim != ns[j].sim {
			return ns[i].sim > ns[j].sim
		}
		return ns[i].id < ns[j].id
	})
}

// sortCandidates orders by score descending, ties by item ID ascending.
func sortCandidates(cs []recommend.ScoredCandidate) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].Score != cs[j].Score {
			return cs[i].Score > cs[j].Score
		}
		return cs[i].ItemID < cs[j].ItemID
	})
}

// rankScores turns accumulated scores into the top n sorted candidates.
func rankScores(scores map[string]float64, n int, strategy, reason string) []recommend.ScoredCandidate {
	out := make([]recommend.ScoredCandidate, 0, len(scores))
	for id, score := range scores {
		out = append(out, recommend.ScoredCandidate{
			ItemID:   id,
			Score:    score,
			Reason:   reason,
			Strategy: strategy,
		})
	}
	sortCandidates(out)
	return truncate(out, n)
}

func truncate(cs []recommend.ScoredCandidate, n int) []recommend.ScoredCandidate {
	if n >= 0 && len(cs) > n {
		return cs[:n]
	}
	return cs
}

// stringSet builds a set from any number of ID lists.
func stringSet(lists ...[]string) map[string]struct{} {
	size := 0
	for _, l := range lists {
		size += len(l)
	}
	set := make(map[string]struct{}, size)
	for _, l := range lists {
		for _, id := range l {
			set[id] = struct{}{}
		}
	}
	return set
}
