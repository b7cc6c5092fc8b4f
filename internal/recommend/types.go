// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package recommend

import (
	"fmt"
	"time"
)

// EventKind identifies the type of user interaction with an item.
type EventKind string

const (
	// EventView is a product page view.
	EventView EventKind = "view"

	// EventClick is a click on a product tile or link.
	EventClick EventKind = "click"

	// EventAddToCart is an add-to-cart action.
	EventAddToCart EventKind = "add_to_cart"

	// EventPurchase is a completed purchase.
	EventPurchase EventKind = "purchase"
)

// AllEventKinds lists every recognised event kind in ascending signal strength.
var AllEventKinds = []EventKind{EventView, EventClick, EventAddToCart, EventPurchase}

// Valid reports whether k is a recognised event kind.
func (k EventKind) Valid() bool {
	switch k {
	case EventView, EventClick, EventAddToCart, EventPurchase:
		return true
	default:
		return false
	}
}

// String returns the wire representation of the event kind.
func (k EventKind) String() string {
	return string(k)
}

// ParseEventKind parses an event kind string.
func ParseEventKind(s string) (EventKind, error) {
	k := EventKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown event kind %q", s)
	}
	return k, nil
}

// Item represents a catalog product.
// Items are owned by the catalog and are never mutated by the engine.
type Item struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	Brand         string         `json:"brand,omitempty"`
	Categories    []string       `json:"categories,omitempty"`
	Attributes    map[string]any `json:"attributes,omitempty"`
	Price         float64        `json:"price"`
	OriginalPrice *float64       `json:"original_price,omitempty"`
	ImageURL      string         `json:"image_url,omitempty"`
}

// Interaction is a single recorded user action on an item.
type Interaction struct {
	UserID    string    `json:"user_id"`
	ItemID    string    `json:"item_id"`
	Kind      EventKind `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// Purchase is a (user, item) pair taken from purchase events.
type Purchase struct {
	UserID string `json:"user_id"`
	ItemID string `json:"item_id"`
}

// UserItemEvent is an interaction without its timestamp.
type UserItemEvent struct {
	UserID string    `json:"user_id"`
	ItemID string    `json:"item_id"`
	Kind   EventKind `json:"event_type"`
}

// PopularItem is an entry of a popularity ranking.
type PopularItem struct {
	ItemID string  `json:"item_id"`
	Score  float64 `json:"score"`
}

// ScoredCandidate is a single strategy output.
type ScoredCandidate struct {
	ItemID   string
	Score    float64
	Reason   string
	Strategy string
}

// Context carries the request options a strategy may use.
// Zero values mean "not provided".
type Context struct {
	// Count is the number of results requested. Zero selects the
	// strategy's own default.
	Count int

	// Scene names the page or surface (home, detail, cart, ...).
	Scene string

	// ItemID is the anchor item for similarity-based strategies.
	ItemID string

	// CategoryID scopes popularity rankings.
	CategoryID string
}

// CountOr returns c.Count, or def when no count was provided.
func (c Context) CountOr(def int) int {
	if c.Count > 0 {
		return c.Count
	}
	return def
}

// Recommendation is a blended, ranked result.
type Recommendation struct {
	ItemID string  `json:"item_id"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason,omitempty"`

	// Strategy is the contributing strategy with the highest configured weight.
	Strategy string `json:"strategy,omitempty"`

	// Strategies lists every contributing strategy in configured order.
	Strategies []string `json:"strategies,omitempty"`
}

// Response is the engine output for a single request.
type Response struct {
	Items     []Recommendation `json:"recommendations"`
	RequestID string           `json:"request_id"`
	Scene     string           `json:"scene"`
	Algorithm string           `json:"algorithm"`
	TookMS    int64            `json:"took_ms"`

	// Partial is set when the caller's deadline expired before every
	// strategy completed.
	Partial bool `json:"partial,omitempty"`

	CacheHit bool `json:"cache_hit,omitempty"`
}

// StrategyStatus describes the index state of a strategy.
type StrategyStatus struct {
	Name            string        `json:"name"`
	LastRefreshed   time.Time     `json:"last_refreshed"`
	RefreshInterval time.Duration `json:"refresh_interval"`
	IndexSize       int           `json:"index_size"`
	Refreshing      bool          `json:"refreshing"`
	Stale           bool          `json:"stale"`
	LastError       string        `json:"last_error,omitempty"`
}
