// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/shoprec/internal/metrics"
	"github.com/tomtom215/shoprec/internal/recommend"
)

// Popularity weights per event kind. Kinds not listed do not count.
const (
	popularityViewWeight     = 1.0
	popularityClickWeight    = 2.0
	popularityPurchaseWeight = 5.0
)

// RecordInteraction stores a user event and returns its generated ID.
// A zero timestamp is replaced with the current time.
func (db *DB) RecordInteraction(ctx context.Context, in recommend.Interaction) (id string, err error) {
	if in.UserID == "" || in.ItemID == "" {
		return "", fmt.Errorf("%w: user_id and item_id are required", recommend.ErrInvalidRequest)
	}
	if !in.Kind.Valid() {
		return "", fmt.Errorf("%w: unknown event kind %q", recommend.ErrInvalidRequest, in.Kind)
	}
	if in.Timestamp.IsZero() {
		in.Timestamp = time.Now().UTC()
	}

	start := time.Now()
	defer func() { metrics.RecordDBQuery("insert", "interactions", time.Since(start), err) }()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	id = uuid.New().String()
	if _, err = db.conn.ExecContext(ctx,
		`INSERT INTO interactions (id, user_id, item_id, event_type, occurred_at) VALUES (?, ?, ?, ?, ?)`,
		id, in.UserID, in.ItemID, string(in.Kind), in.Timestamp); err != nil {
		return "", recommend.DataUnavailable("record interaction", err)
	}
	return id, nil
}

// PopularItems ranks items by weighted event counts normalised to the
// highest score: views count 1, clicks 2 and purchases 5. An empty
// category ranks the whole catalog. Items without any counted event are
// not returned.
func (db *DB) PopularItems(ctx context.Context, category string, limit int) (popular []recommend.PopularItem, err error) {
	if limit <= 0 {
		return nil, nil
	}

	start := time.Now()
	defer func() { metrics.RecordDBQuery("popular", "interactions", time.Since(start), err) }()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	args := []any{popularityViewWeight, popularityClickWeight, popularityPurchaseWeight}
	categoryFilter := ""
	if category != "" {
		categoryFilter = `AND EXISTS (
				SELECT 1 FROM item_categories c
				WHERE c.item_id = e.item_id AND c.category_id = ?
			)`
		args = append(args, category)
	}

	// limit is an int; formatting it keeps LIMIT out of the parameter list.
	query := fmt.Sprintf(`
		WITH raw AS (
			SELECT e.item_id,
				SUM(CASE e.event_type
					WHEN 'view' THEN CAST(? AS DOUBLE)
					WHEN 'click' THEN CAST(? AS DOUBLE)
					WHEN 'purchase' THEN CAST(? AS DOUBLE)
					ELSE 0.0 END) AS score
			FROM interactions e
			JOIN items i ON i.id = e.item_id
			WHERE 1 = 1 %s
			GROUP BY e.item_id
		)
		SELECT item_id, score / MAX(score) OVER () AS normalized
		FROM raw
		WHERE score > 0
		ORDER BY normalized DESC, item_id
		LIMIT %d`, categoryFilter, limit)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, recommend.DataUnavailable("popular items", err)
	}
	defer closeRows(rows)

	for rows.Next() {
		var p recommend.PopularItem
		if err = rows.Scan(&p.ItemID, &p.Score); err != nil {
			return nil, recommend.DataUnavailable("popular items", err)
		}
		popular = append(popular, p)
	}
	if err = rows.Err(); err != nil {
		return nil, recommend.DataUnavailable("popular items", err)
	}
	return popular, nil
}

// UserItems returns the distinct items a user interacted with, most recent
// first. An empty kind matches every event kind.
func (db *DB) UserItems(ctx context.Context, userID string, kind recommend.EventKind) (items []string, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("select", "interactions", time.Since(start), err) }()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT item_id FROM interactions WHERE user_id = ?`
	args := []any{userID}
	if kind != "" {
		query += ` AND event_type = ?`
		args = append(args, string(kind))
	}
	query += ` GROUP BY item_id ORDER BY MAX(occurred_at) DESC, item_id`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, recommend.DataUnavailable("user items", err)
	}
	defer closeRows(rows)

	for rows.Next() {
		var itemID string
		if err = rows.Scan(&itemID); err != nil {
			return nil, recommend.DataUnavailable("user items", err)
		}
		items = append(items, itemID)
	}
	if err = rows.Err(); err != nil {
		return nil, recommend.DataUnavailable("user items", err)
	}
	return items, nil
}

// PurchaseData returns every distinct (user, item) purchase pair.
func (db *DB) PurchaseData(ctx context.Context) (purchases []recommend.Purchase, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("select", "interactions", time.Since(start), err) }()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT DISTINCT user_id, item_id
		FROM interactions
		WHERE event_type = 'purchase'
		ORDER BY user_id, item_id`)
	if err != nil {
		return nil, recommend.DataUnavailable("purchase data", err)
	}
	defer closeRows(rows)

	for rows.Next() {
		var p recommend.Purchase
		if err = rows.Scan(&p.UserID, &p.ItemID); err != nil {
			return nil, recommend.DataUnavailable("purchase data", err)
		}
		purchases = append(purchases, p)
	}
	if err = rows.Err(); err != nil {
		return nil, recommend.DataUnavailable("purchase data", err)
	}
	return purchases, nil
}

// InteractionData returns every event as (user, item, kind). Repeated
// events are returned once per occurrence. Clicks are included; consumers
// weight event kinds themselves.
func (db *DB) InteractionData(ctx context.Context) (events []recommend.UserItemEvent, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("select", "interactions", time.Since(start), err) }()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT user_id, item_id, event_type
		FROM interactions
		ORDER BY user_id, item_id, event_type, occurred_at`)
	if err != nil {
		return nil, recommend.DataUnavailable("interaction data", err)
	}
	defer closeRows(rows)

	for rows.Next() {
		var (
			ev   recommend.UserItemEvent
			kind string
		)
		if err = rows.Scan(&ev.UserID, &ev.ItemID, &kind); err != nil {
			return nil, recommend.DataUnavailable("interaction data", err)
		}
		ev.Kind = recommend.EventKind(kind)
		events = append(events, ev)
	}
	if err = rows.Err(); err != nil {
		return nil, recommend.DataUnavailable("interaction data", err)
	}
	return events, nil
}

// Stats reports table row counts.
type Stats struct {
	Items        int64 `json:"items"`
	Categories   int64 `json:"categories"`
	Interactions int64 `json:"interactions"`
}

// Stats returns catalog and interaction counts.
func (db *DB) Stats(ctx context.Context) (*Stats, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var s Stats
	err := db.conn.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM items),
			(SELECT COUNT(DISTINCT category_id) FROM item_categories),
			(SELECT COUNT(*) FROM interactions)`).Scan(&s.Items, &s.Categories, &s.Interactions)
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}
	return &s, nil
}
