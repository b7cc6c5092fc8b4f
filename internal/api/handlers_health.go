// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/shoprec/internal/models"
)

// healthCheckTimeout bounds the database ping.
const healthCheckTimeout = 2 * time.Second

// Health handles GET /api/v1/health. It always answers 200; Status is
// "degraded" when the database is unreachable or the breaker is open.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	respondSuccess(w, r, http.StatusOK, h.healthStatus(r.Context()), start)
}

// HealthLive handles GET /api/v1/health/live.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	respondSuccess(w, r, http.StatusOK, map[string]string{"status": "alive"}, start)
}

// HealthReady handles GET /api/v1/health/ready. It answers 503 until the
// database is reachable.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	health := h.healthStatus(r.Context())
	if !health.Database {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeDataUnavailable, "Database is not reachable", nil)
		return
	}
	respondSuccess(w, r, http.StatusOK, map[string]string{"status": "ready"}, start)
}

func (h *Handler) healthStatus(ctx context.Context) models.HealthStatus {
	dbConnected := false
	if h.db != nil {
		pingCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
		dbConnected = h.db.Ping(pingCtx) == nil
		cancel()
	}

	health := models.HealthStatus{
		Status:     "healthy",
		Timestamp:  time.Now().UTC(),
		Uptime:     time.Since(h.startTime).Round(time.Second).String(),
		Database:   dbConnected,
		Strategies: h.engine.Strategies(),
	}
	if h.breaker != nil {
		health.Breaker = h.breaker.State()
	}
	if !dbConnected || health.Breaker == "open" {
		health.Status = "degraded"
	}
	return health
}
