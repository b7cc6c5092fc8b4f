// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package api

import (
	"context"
	"time"

	"github.com/tomtom215/shoprec/internal/events"
	"github.com/tomtom215/shoprec/internal/recommend"
)

// Recommender is the engine surface used by the handlers.
type Recommender interface {
	Recommend(ctx context.Context, userID string, rc recommend.Context) (*recommend.Response, error)
	Refresh(ctx context.Context, name string) error
	Strategies() []recommend.StrategyStatus
	Stats() recommend.Stats
}

// Catalog looks up items for response enrichment.
type Catalog interface {
	GetItems(ctx context.Context, ids []string) (map[string]recommend.Item, error)
}

// InteractionStore records user interactions.
type InteractionStore interface {
	RecordInteraction(ctx context.Context, in recommend.Interaction) (string, error)
}

// Pinger reports database reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ChangePublisher announces data changes to other instances.
type ChangePublisher interface {
	PublishChange(ctx context.Context, c events.Change) error
}

// BreakerState reports the feature provider circuit breaker state.
type BreakerState interface {
	State() string
}

// Dependencies are the collaborators of Handler. Publisher and Breaker are
// optional.
type Dependencies struct {
	Engine       Recommender
	Catalog      Catalog
	Interactions InteractionStore
	Database     Pinger
	Publisher    ChangePublisher
	Breaker      BreakerState

	// RequestTimeout bounds engine work per recommendation request. When it
	// expires the engine returns what it has and marks the response partial.
	RequestTimeout time.Duration
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers.go: Handler struct and constructor (this file)
//   - handlers_recommend.go: recommendation, strategy and interaction endpoints
//   - handlers_health.go: health endpoints
type Handler struct {
	engine         Recommender
	catalog        Catalog
	interactions   InteractionStore
	db             Pinger
	publisher      ChangePublisher
	breaker        BreakerState
	requestTimeout time.Duration
	startTime      time.Time
}

// NewHandler creates the API handler.
func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		engine:         deps.Engine,
		catalog:        deps.Catalog,
		interactions:   deps.Interactions,
		db:             deps.Database,
		publisher:      deps.Publisher,
		breaker:        deps.Breaker,
		requestTimeout: deps.RequestTimeout,
		startTime:      time.Now(),
	}
}
