// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package database

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/shoprec/internal/logging"
	"github.com/tomtom215/shoprec/internal/recommend"
)

// Fixture is the JSON document accepted by Seed.
type Fixture struct {
	Items        []recommend.Item        `json:"items"`
	Interactions []recommend.Interaction `json:"interactions"`
}

// SeedResult reports how many rows a seed wrote.
type SeedResult struct {
	Items        int
	Interactions int
}

// SeedIfEmpty loads the fixture at path when the catalog has no items.
// It returns a nil result when the catalog was already populated.
func (db *DB) SeedIfEmpty(ctx context.Context, path string) (*SeedResult, error) {
	stats, err := db.Stats(ctx)
	if err != nil {
		return nil, err
	}
	if stats.Items > 0 {
		logging.Info().Int64("items", stats.Items).Msg("Catalog already populated, skipping seed")
		return nil, nil
	}

	f, err := os.Open(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("open seed fixture: %w", err)
	}
	defer closeQuietly(f)

	return db.Seed(ctx, f)
}

// Seed decodes a Fixture from r and writes it in a single transaction.
// Interactions without a timestamp are spaced one minute apart, oldest
// first, so recency ordering follows the fixture order.
func (db *DB) Seed(ctx context.Context, r io.Reader) (result *SeedResult, err error) {
	var fixture Fixture
	if err := json.NewDecoder(r).Decode(&fixture); err != nil {
		return nil, fmt.Errorf("decode seed fixture: %w", err)
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for i := range fixture.Items {
		item := &fixture.Items[i]
		if item.ID == "" || item.Name == "" {
			return nil, fmt.Errorf("seed item %d: id and name are required", i)
		}
		var attrs string
		if attrs, err = encodeAttributes(item); err != nil {
			return nil, err
		}
		if err = upsertItemTx(ctx, tx, item, attrs); err != nil {
			return nil, err
		}
	}

	base := time.Now().UTC().Add(-time.Duration(len(fixture.Interactions)) * time.Minute)
	for i, in := range fixture.Interactions {
		if !in.Kind.Valid() {
			return nil, fmt.Errorf("seed interaction %d: unknown event kind %q", i, in.Kind)
		}
		ts := in.Timestamp
		if ts.IsZero() {
			ts = base.Add(time.Duration(i) * time.Minute)
		}
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO interactions (id, user_id, item_id, event_type, occurred_at) VALUES (?, ?, ?, ?, ?)`,
			uuid.New().String(), in.UserID, in.ItemID, string(in.Kind), ts); err != nil {
			return nil, fmt.Errorf("seed interaction %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit seed: %w", err)
	}

	result = &SeedResult{Items: len(fixture.Items), Interactions: len(fixture.Interactions)}
	logging.Info().
		Int("items", result.Items).
		Int("interactions", result.Interactions).
		Msg("Seeded catalog fixture")
	return result, nil
}
