// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package models

import (
	"time"

	"github.com/tomtom215/shoprec/internal/recommend"
)

// RecommendedItem is a recommendation enriched with catalog details.
type RecommendedItem struct {
	ItemID        string   `json:"item_id"`
	Name          string   `json:"name"`
	ImageURL      string   `json:"image_url,omitempty"`
	Price         float64  `json:"price"`
	OriginalPrice *float64 `json:"original_price,omitempty"`
	Score         float64  `json:"score"`
	Reason        string   `json:"reason,omitempty"`
	Strategy      string   `json:"strategy,omitempty"`
	Strategies    []string `json:"strategies,omitempty"`
}

// NewRecommendedItem merges an engine result with its catalog item.
func NewRecommendedItem(rec *recommend.Recommendation, item *recommend.Item) RecommendedItem {
	return RecommendedItem{
		ItemID:        rec.ItemID,
		Name:          item.Name,
		ImageURL:      item.ImageURL,
		Price:         item.Price,
		OriginalPrice: item.OriginalPrice,
		Score:         rec.Score,
		Reason:        rec.Reason,
		Strategy:      rec.Strategy,
		Strategies:    rec.Strategies,
	}
}

// RecommendationsData is the payload of POST /api/v1/recommendations.
type RecommendationsData struct {
	Recommendations []RecommendedItem `json:"recommendations"`
	RequestID       string            `json:"request_id"`
	Scene           string            `json:"scene"`
	Algorithm       string            `json:"algorithm"`
	TookMS          int64             `json:"took_ms"`
	Partial         bool              `json:"partial"`
	CacheHit        bool              `json:"cache_hit"`
}

// InteractionRecorded is the payload of POST /api/v1/interactions.
type InteractionRecorded struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ItemID    string    `json:"item_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// RefreshResult is the payload of POST /api/v1/recommendations/refresh.
type RefreshResult struct {
	Refreshed []string `json:"refreshed"`
}

// HealthStatus is the payload of GET /api/v1/health.
type HealthStatus struct {
	Status     string                     `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Uptime     string                     `json:"uptime"`
	Database   bool                       `json:"database"`
	Breaker    string                     `json:"breaker,omitempty"`
	Strategies []recommend.StrategyStatus `json:"strategies"`
}
