// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/shoprec/internal/events"
	"github.com/tomtom215/shoprec/internal/logging"
	"github.com/tomtom215/shoprec/internal/models"
	"github.com/tomtom215/shoprec/internal/recommend"
)

// publishTimeout bounds change announcements made after a write.
const publishTimeout = 2 * time.Second

// Recommendations handles POST /api/v1/recommendations.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req RecommendationRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "Invalid JSON request body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, r, apiErr)
		return
	}

	engineCtx := r.Context()
	if h.requestTimeout > 0 {
		var cancel context.CancelFunc
		engineCtx, cancel = context.WithTimeout(engineCtx, h.requestTimeout)
		defer cancel()
	}

	resp, err := h.engine.Recommend(engineCtx, req.UserID, recommend.Context{
		Count:      req.Count,
		Scene:      req.SceneID,
		ItemID:     req.ItemID,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		respondEngineError(w, r, err)
		return
	}

	// Enrichment runs on the request context: the engine deadline may
	// already have expired for a partial response.
	items, err := h.enrich(r.Context(), resp.Items)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}

	respondSuccess(w, r, http.StatusOK, models.RecommendationsData{
		Recommendations: items,
		RequestID:       resp.RequestID,
		Scene:           resp.Scene,
		Algorithm:       resp.Algorithm,
		TookMS:          resp.TookMS,
		Partial:         resp.Partial,
		CacheHit:        resp.CacheHit,
	}, start)
}

// enrich joins recommendations with catalog details, keeping engine order.
// Items no longer in the catalog are dropped.
func (h *Handler) enrich(ctx context.Context, recs []recommend.Recommendation) ([]models.RecommendedItem, error) {
	out := make([]models.RecommendedItem, 0, len(recs))
	if len(recs) == 0 {
		return out, nil
	}

	ids := make([]string, len(recs))
	for i := range recs {
		ids[i] = recs[i].ItemID
	}

	catalog, err := h.catalog.GetItems(ctx, ids)
	if err != nil {
		return nil, err
	}

	for i := range recs {
		item, ok := catalog[recs[i].ItemID]
		if !ok {
			logging.Ctx(ctx).Debug().Str("item_id", recs[i].ItemID).Msg("Dropping recommendation missing from catalog")
			continue
		}
		out = append(out, models.NewRecommendedItem(&recs[i], &item))
	}
	return out, nil
}

// Strategies handles GET /api/v1/recommendations/strategies.
func (h *Handler) Strategies(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	respondSuccess(w, r, http.StatusOK, map[string]interface{}{
		"strategies": h.engine.Strategies(),
		"stats":      h.engine.Stats(),
	}, start)
}

// Refresh handles POST /api/v1/recommendations/refresh[?strategy=name].
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req := RefreshRequest{Strategy: r.URL.Query().Get("strategy")}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, r, apiErr)
		return
	}

	if err := h.engine.Refresh(r.Context(), req.Strategy); err != nil {
		respondEngineError(w, r, err)
		return
	}

	refreshed := []string{req.Strategy}
	if req.Strategy == "" {
		statuses := h.engine.Strategies()
		refreshed = make([]string, len(statuses))
		for i := range statuses {
			refreshed[i] = statuses[i].Name
		}
	}

	logging.Ctx(r.Context()).Info().Strs("strategies", refreshed).Msg("Index refresh requested")
	respondSuccess(w, r, http.StatusOK, models.RefreshResult{Refreshed: refreshed}, start)
}

// RecordInteraction handles POST /api/v1/interactions.
func (h *Handler) RecordInteraction(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req InteractionRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "Invalid JSON request body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, r, apiErr)
		return
	}

	in := recommend.Interaction{
		UserID:    req.UserID,
		ItemID:    req.ItemID,
		Kind:      recommend.EventKind(req.EventType),
		Timestamp: req.Timestamp.UTC(),
	}
	if req.Timestamp.IsZero() {
		in.Timestamp = time.Now().UTC()
	}

	id, err := h.interactions.RecordInteraction(r.Context(), in)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}

	h.announce(r.Context(), events.Change{
		Kind:       events.KindInteractions,
		IDs:        []string{in.ItemID},
		OccurredAt: in.Timestamp,
	})

	respondSuccess(w, r, http.StatusCreated, models.InteractionRecorded{
		ID:        id,
		UserID:    in.UserID,
		ItemID:    in.ItemID,
		EventType: string(in.Kind),
		Timestamp: in.Timestamp,
	}, start)
}

// announce publishes c when a publisher is configured. Failures are logged;
// the write itself already succeeded.
func (h *Handler) announce(ctx context.Context, c events.Change) {
	if h.publisher == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := h.publisher.PublishChange(ctx, c); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("kind", string(c.Kind)).Msg("Failed to publish change event")
	}
}
