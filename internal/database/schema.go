// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

/*
schema.go - Database Schema

Tables:
  - items: catalog products; attributes are stored as a JSON document
  - item_categories: ordered category membership per item
  - interactions: append-only user events (view, click, add_to_cart, purchase)

Category membership lives in its own table so popularity rankings can be
filtered with a plain EXISTS and category listing is a DISTINCT scan.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

var tableQueries = []string{
	`CREATE TABLE IF NOT EXISTS items (
		id VARCHAR PRIMARY KEY,
		name VARCHAR NOT NULL,
		description VARCHAR NOT NULL DEFAULT '',
		brand VARCHAR NOT NULL DEFAULT '',
		attributes VARCHAR NOT NULL DEFAULT '{}',
		price DOUBLE NOT NULL DEFAULT 0,
		original_price DOUBLE,
		image_url VARCHAR NOT NULL DEFAULT '',
		updated_at TIMESTAMP NOT NULL DEFAULT current_timestamp
	)`,
	`CREATE TABLE IF NOT EXISTS item_categories (
		item_id VARCHAR NOT NULL,
		category_id VARCHAR NOT NULL,
		position INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS interactions (
		id VARCHAR PRIMARY KEY,
		user_id VARCHAR NOT NULL,
		item_id VARCHAR NOT NULL,
		event_type VARCHAR NOT NULL,
		occurred_at TIMESTAMP NOT NULL
	)`,
}

var indexQueries = []string{
	`CREATE INDEX IF NOT EXISTS idx_item_categories_item ON item_categories(item_id)`,
	`CREATE INDEX IF NOT EXISTS idx_item_categories_category ON item_categories(category_id)`,
	`CREATE INDEX IF NOT EXISTS idx_interactions_user ON interactions(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_interactions_event ON interactions(event_type)`,
}

// createTables creates the tables and indexes.
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableQueries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	for _, query := range indexQueries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute index query: %s: %w", query, err)
		}
	}
	return nil
}
