// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package events

import (
	"context"
	"errors"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/tomtom215/shoprec/internal/logging"
	"github.com/tomtom215/shoprec/internal/metrics"
	"github.com/tomtom215/shoprec/internal/provider"
	"github.com/tomtom215/shoprec/internal/recommend"
)

// FeatureCache drops cached provider results by key prefix.
type FeatureCache interface {
	Invalidate(ctx context.Context, prefixes ...string) (int, error)
}

// Engine is the part of recommend.Engine the handler drives.
type Engine interface {
	InvalidateCache() int
	Refresh(ctx context.Context, name string) error
}

// Handler applies change notifications to the local caches and indexes.
type Handler struct {
	cache  FeatureCache
	engine Engine
	logger zerolog.Logger

	// refresh lists the strategies rebuilt for each kind of change.
	refresh map[ChangeKind][]string
}

// NewHandler creates a handler. cache may be nil when the feature cache is
// disabled.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewHandler(cache FeatureCache, engine Engine, logger zerolog.Logger) *Handler {
	return &Handler{
		cache:  cache,
		engine: engine,
		logger: logger.With().Str("component", "events").Logger(),
		refresh: map[ChangeKind][]string{
			KindCatalog: {recommend.StrategyContent, recommend.StrategyPopular},
		},
	}
}

// Handle is a Watermill consumer handler. Malformed payloads are logged and
// acknowledged. Cache invalidation failures are returned so the message is
// retried. Index refresh failures are logged only; the stale index keeps
// serving and the staleness timer retries the rebuild.
func (h *Handler) Handle(msg *message.Message) error {
	change, err := DecodeChange(msg)
	if err != nil {
		h.logger.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping malformed change event")
		metrics.RecordEventConsumed("unknown", "invalid")
		return nil
	}
	topic, _ := change.Topic()

	ctx := logging.ContextWithLogger(msg.Context(), h.logger.With().Str("message_uuid", msg.UUID).Logger())
	if err := h.Apply(ctx, change); err != nil {
		metrics.RecordEventConsumed(topic, "error")
		return err
	}
	metrics.RecordEventConsumed(topic, "ok")
	return nil
}

// Apply invalidates caches and refreshes indexes for one change. It logs
// through the logger carried by ctx, falling back to the global logger.
func (h *Handler) Apply(ctx context.Context, change *Change) error {
	logger := logging.Ctx(ctx).With().Str("kind", string(change.Kind)).Int("ids", len(change.IDs)).Logger()

	if h.cache != nil {
		prefixes := provider.InteractionKeys
		if change.Kind == KindCatalog {
			prefixes = provider.CatalogKeys
		}
		removed, err := h.cache.Invalidate(ctx, prefixes...)
		if err != nil {
			return err
		}
		logger.Debug().Int("removed", removed).Msg("Feature cache invalidated")
	}

	cleared := h.engine.InvalidateCache()

	for _, name := range h.refresh[change.Kind] {
		err := h.engine.Refresh(ctx, name)
		switch {
		case err == nil:
		case errors.Is(err, recommend.ErrUnknownStrategy):
			logger.Debug().Str("strategy", name).Msg("Strategy not enabled, skipping refresh")
		default:
			logger.Warn().Err(err).Str("strategy", name).Msg("Index refresh after change failed")
		}
	}

	logger.Info().Int("responses_cleared", cleared).Msg("Change applied")
	return nil
}
