// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package strategies

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shoprec/internal/recommend"
	"github.com/tomtom215/shoprec/internal/recommend/textvec"
)

// contentIndex holds one TF-IDF vector per catalog item.
type contentIndex struct {
	ids     []string
	names   []string
	vectors []textvec.Vector
	pos     map[string]int
}

// ContentSimilarity recommends items whose text is most similar to an
// anchor item.
type ContentSimilarity struct {
	cfg      recommend.ContentConfig
	provider recommend.FeatureProvider
	index    *refreshableIndex[*contentIndex]
	logger   zerolog.Logger
}

// NewContentSimilarity creates the content-similarity strategy.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewContentSimilarity(cfg recommend.ContentConfig, fp recommend.FeatureProvider, logger zerolog.Logger, opts ...Option) *ContentSimilarity {
	o := applyOptions(opts)
	c := &ContentSimilarity{
		cfg:      cfg,
		provider: fp,
		logger:   strategyLogger(logger, recommend.StrategyContent),
	}
	c.index = newRefreshableIndex(recommend.StrategyContent, cfg.RefreshInterval, c.build, o.now, c.logger)
	return c
}

// Name returns "content_based".
func (c *ContentSimilarity) Name() string { return recommend.StrategyContent }

// Recommend scores every other item by cosine similarity to rc.ItemID.
// Without an anchor, or with an anchor that has no vector, the result is empty.
//
//nolint:gocritic // hugeParam: rc passed by value for immutability
func (c *ContentSimilarity) Recommend(ctx context.Context, userID string, rc recommend.Context) ([]recommend.ScoredCandidate, error) {
	if rc.ItemID == "" {
		c.logger.Warn().
			Str("user_id", userID).
			Msg("no anchor item, content similarity skipped")
		return nil, nil
	}

	snap, err := c.index.ensure(ctx)
	if err != nil {
		return nil, err
	}
	ix := snap.value

	anchor, ok := ix.pos[rc.ItemID]
	if !ok {
		c.logger.Warn().
			Str("item_id", rc.ItemID).
			Msg("anchor item not indexed")
		return nil, nil
	}

	reason := fmt.Sprintf("Similar to %q", ix.names[anchor])
	out := make([]recommend.ScoredCandidate, 0, len(ix.ids))
	for i, id := range ix.ids {
		if i == anchor {
			continue
		}
		// Items with no shared terms stay in with score 0 and sort last.
		sim := textvec.Cosine(ix.vectors[anchor], ix.vectors[i])
		switch {
		case sim < 0:
			sim = 0
		case sim > 1:
			sim = 1
		}
		out = append(out, recommend.ScoredCandidate{
			ItemID:   id,
			Score:    sim,
			Reason:   reason,
			Strategy: recommend.StrategyContent,
		})
	}

	sortCandidates(out)
	return truncate(out, rc.CountOr(c.cfg.DefaultCount)), nil
}

// RefreshIfStale rebuilds the vectors when they are missing or stale.
func (c *ContentSimilarity) RefreshIfStale(ctx context.Context) error {
	return c.index.refreshIfStale(ctx)
}

// Refresh refits the vectorizer and rebuilds every item vector.
func (c *ContentSimilarity) Refresh(ctx context.Context) error { return c.index.refresh(ctx) }

// Status reports the index state.
func (c *ContentSimilarity) Status() recommend.StrategyStatus { return c.index.status() }

func (c *ContentSimilarity) build(ctx context.Context) (*contentIndex, int, error) {
	items, err := c.provider.AllItems(ctx)
	if err != nil {
		return nil, 0, recommend.DataUnavailable("all items", err)
	}

	sorted := make([]recommend.Item, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for i := range items {
		if _, dup := seen[items[i].ID]; dup || items[i].ID == "" {
			continue
		}
		seen[items[i].ID] = struct{}{}
		sorted = append(sorted, items[i])
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	ix := &contentIndex{
		ids:   make([]string, len(sorted)),
		names: make([]string, len(sorted)),
		pos:   make(map[string]int, len(sorted)),
	}
	docs := make([]string, len(sorted))
	for i := range sorted {
		ix.ids[i] = sorted[i].ID
		ix.names[i] = sorted[i].Name
		ix.pos[sorted[i].ID] = i
		docs[i] = ItemText(&sorted[i])
	}

	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	ix.vectors = textvec.New(c.cfg.MaxFeatures, c.cfg.NGramMax).Fit(docs)
	return ix, len(ix.ids), nil
}

// ItemText concatenates the descriptive text of an item: name,
// description, brand, categories and string-valued attributes in key order.
func ItemText(item *recommend.Item) string {
	parts := make([]string, 0, 4+len(item.Categories)+len(item.Attributes))
	parts = append(parts, item.Name, item.Description, item.Brand)
	parts = append(parts, item.Categories...)

	keys := make([]string, 0, len(item.Attributes))
	for k := range item.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if s, ok := item.Attributes[k].(string); ok {
			parts = append(parts, s)
		}
	}

	return strings.ToLower(strings.Join(parts, " "))
}
