// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/shoprec/internal/metrics"
	"github.com/tomtom215/shoprec/internal/recommend"
)

const itemColumns = `id, name, description, brand, attributes, price, original_price, image_url`

// UpsertItem inserts or replaces a catalog item and its category list.
func (db *DB) UpsertItem(ctx context.Context, item *recommend.Item) (err error) {
	if item == nil || item.ID == "" || item.Name == "" {
		return fmt.Errorf("%w: item id and name are required", recommend.ErrInvalidRequest)
	}

	start := time.Now()
	defer func() { metrics.RecordDBQuery("upsert", "items", time.Since(start), err) }()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	attrs, err := encodeAttributes(item)
	if err != nil {
		return err
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = upsertItemTx(ctx, tx, item, attrs); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit item %s: %w", item.ID, err)
	}
	return nil
}

// encodeAttributes returns the JSON form of the item attributes.
func encodeAttributes(item *recommend.Item) (string, error) {
	if len(item.Attributes) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(item.Attributes)
	if err != nil {
		return "", fmt.Errorf("encode attributes for %s: %w", item.ID, err)
	}
	return string(b), nil
}

func upsertItemTx(ctx context.Context, tx *sql.Tx, item *recommend.Item, attrs string) error {
	var originalPrice any
	if item.OriginalPrice != nil {
		originalPrice = *item.OriginalPrice
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO items (`+itemColumns+`, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, current_timestamp)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			brand = EXCLUDED.brand,
			attributes = EXCLUDED.attributes,
			price = EXCLUDED.price,
			original_price = EXCLUDED.original_price,
			image_url = EXCLUDED.image_url,
			updated_at = EXCLUDED.updated_at`,
		item.ID, item.Name, item.Description, item.Brand, attrs,
		item.Price, originalPrice, item.ImageURL)
	if err != nil {
		return fmt.Errorf("upsert item %s: %w", item.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM item_categories WHERE item_id = ?`, item.ID); err != nil {
		return fmt.Errorf("clear categories for %s: %w", item.ID, err)
	}

	seen := make(map[string]struct{}, len(item.Categories))
	position := 0
	for _, category := range item.Categories {
		if category == "" {
			continue
		}
		if _, dup := seen[category]; dup {
			continue
		}
		seen[category] = struct{}{}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO item_categories (item_id, category_id, position) VALUES (?, ?, ?)`,
			item.ID, category, position); err != nil {
			return fmt.Errorf("insert category %s for %s: %w", category, item.ID, err)
		}
		position++
	}
	return nil
}

// AllItems returns every catalog item ordered by ID.
func (db *DB) AllItems(ctx context.Context) (items []recommend.Item, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("select", "items", time.Since(start), err) }()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	items, err = db.queryItems(ctx, `SELECT `+itemColumns+` FROM items ORDER BY id`)
	if err != nil {
		return nil, recommend.DataUnavailable("all items", err)
	}

	categories, err := db.queryCategories(ctx, `SELECT item_id, category_id FROM item_categories ORDER BY item_id, position`)
	if err != nil {
		return nil, recommend.DataUnavailable("all items", err)
	}
	for i := range items {
		items[i].Categories = categories[items[i].ID]
	}
	return items, nil
}

// GetItems returns the catalog items with the given IDs, keyed by ID.
// Unknown IDs are absent from the result.
func (db *DB) GetItems(ctx context.Context, ids []string) (result map[string]recommend.Item, err error) {
	result = make(map[string]recommend.Item, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	start := time.Now()
	defer func() { metrics.RecordDBQuery("select", "items", time.Since(start), err) }()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	items, err := db.queryItems(ctx, `SELECT `+itemColumns+` FROM items WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, recommend.DataUnavailable("get items", err)
	}
	categories, err := db.queryCategories(ctx,
		`SELECT item_id, category_id FROM item_categories WHERE item_id IN (`+placeholders+`) ORDER BY item_id, position`,
		args...)
	if err != nil {
		return nil, recommend.DataUnavailable("get items", err)
	}

	for i := range items {
		items[i].Categories = categories[items[i].ID]
		result[items[i].ID] = items[i]
	}
	return result, nil
}

// Categories returns every category identifier in ascending order.
func (db *DB) Categories(ctx context.Context) (categories []string, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("select", "item_categories", time.Since(start), err) }()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `SELECT DISTINCT category_id FROM item_categories ORDER BY category_id`)
	if err != nil {
		return nil, recommend.DataUnavailable("categories", err)
	}
	defer closeRows(rows)

	for rows.Next() {
		var category string
		if err = rows.Scan(&category); err != nil {
			return nil, recommend.DataUnavailable("categories", err)
		}
		categories = append(categories, category)
	}
	if err = rows.Err(); err != nil {
		return nil, recommend.DataUnavailable("categories", err)
	}
	return categories, nil
}

func (db *DB) queryItems(ctx context.Context, query string, args ...any) ([]recommend.Item, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer closeRows(rows)

	var items []recommend.Item
	for rows.Next() {
		var (
			item          recommend.Item
			attrs         string
			originalPrice sql.NullFloat64
		)
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &item.Brand,
			&attrs, &item.Price, &originalPrice, &item.ImageURL); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		if originalPrice.Valid {
			price := originalPrice.Float64
			item.OriginalPrice = &price
		}
		if attrs != "" && attrs != "{}" {
			if err := json.Unmarshal([]byte(attrs), &item.Attributes); err != nil {
				return nil, fmt.Errorf("decode attributes for %s: %w", item.ID, err)
			}
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

func (db *DB) queryCategories(ctx context.Context, query string, args ...any) (map[string][]string, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer closeRows(rows)

	out := make(map[string][]string)
	for rows.Next() {
		var itemID, category string
		if err := rows.Scan(&itemID, &category); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out[itemID] = append(out[itemID], category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}
