// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// RecommendationRequest is the body of POST /api/v1/recommendations.
//
// Fields:
//   - UserID: user to recommend for (required)
//   - SceneID: page or surface; unknown scenes use the home weights
//   - ItemID: anchor item for similarity strategies
//   - CategoryID: scope for popularity rankings
//   - Count: number of results (1-50, default from config)
type RecommendationRequest struct {
	UserID     string `json:"user_id" validate:"required,identifier"`
	SceneID    string `json:"scene_id" validate:"omitempty,identifier"`
	ItemID     string `json:"item_id" validate:"omitempty,identifier"`
	CategoryID string `json:"category_id" validate:"omitempty,identifier"`
	Count      int    `json:"count" validate:"omitempty,min=1,max=50"`
}

// InteractionRequest is the body of POST /api/v1/interactions.
// A zero Timestamp is replaced with the server time.
type InteractionRequest struct {
	UserID    string    `json:"user_id" validate:"required,identifier"`
	ItemID    string    `json:"item_id" validate:"required,identifier"`
	EventType string    `json:"event_type" validate:"required,event_kind"`
	Timestamp time.Time `json:"timestamp"`
}

// RefreshRequest holds the query parameters of the refresh endpoint.
type RefreshRequest struct {
	Strategy string `json:"strategy" validate:"omitempty,identifier"`
}

// errEmptyBody is returned when a required JSON body is missing.
var errEmptyBody = errors.New("request body is empty")

// decodeJSONBody decodes a size-limited JSON body into dst.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}
