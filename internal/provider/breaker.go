// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/shoprec/internal/metrics"
	"github.com/tomtom215/shoprec/internal/recommend"
)

// BreakerConfig configures the circuit breaker around a feature provider.
type BreakerConfig struct {
	// Name labels metrics and logs.
	Name string

	// MaxRequests is the number of probes allowed while half-open.
	MaxRequests uint32

	// Interval clears the counts while closed. Zero never clears them.
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration

	// MinRequests is the number of requests needed before the failure
	// ratio is considered.
	MinRequests uint32

	// FailureRatio opens the breaker once reached.
	FailureRatio float64
}

// DefaultBreakerConfig opens after 10 requests with at least 60% failures.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:         "feature-provider",
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		MinRequests:  10,
		FailureRatio: 0.6,
	}
}

// BreakerProvider guards a FeatureProvider with a circuit breaker.
// While the breaker is open, calls fail fast with ErrDataUnavailable and
// never reach the wrapped provider.
type BreakerProvider struct {
	next   recommend.FeatureProvider
	cb     *gobreaker.CircuitBreaker[any]
	name   string
	logger zerolog.Logger
}

var _ recommend.FeatureProvider = (*BreakerProvider)(nil)

// NewBreakerProvider wraps next with a circuit breaker.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewBreakerProvider(next recommend.FeatureProvider, cfg BreakerConfig, logger zerolog.Logger) *BreakerProvider {
	if cfg.Name == "" {
		cfg.Name = DefaultBreakerConfig().Name
	}
	logger = logger.With().Str("component", "breaker").Str("breaker", cfg.Name).Logger()

	metrics.CircuitBreakerState.WithLabelValues(cfg.Name).Set(0)

	p := &BreakerProvider{next: next, name: cfg.Name, logger: logger}

	p.cb = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= cfg.FailureRatio
			if shouldTrip {
				logger.Warn().
					Uint32("failures", counts.TotalFailures).
					Uint32("requests", counts.Requests).
					Float64("failure_rate", failureRatio*100).
					Msg("Opening circuit")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logger.Info().Str("from", fromStr).Str("to", toStr).Msg("Circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},

		// Cancelled requests and bad input say nothing about provider health.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, context.Canceled) ||
				errors.Is(err, recommend.ErrInvalidRequest)
		},
	})

	return p
}

// State returns the breaker state: closed, half-open or open.
func (p *BreakerProvider) State() string {
	return stateToString(p.cb.State())
}

// execute runs fn through the breaker. Rejections are reported as
// ErrDataUnavailable for op.
func (p *BreakerProvider) execute(op string, fn func() (any, error)) (any, error) {
	result, err := p.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(p.name, "rejected").Inc()
			p.logger.Debug().Str("op", op).Err(err).Msg("Request rejected")
			return nil, recommend.DataUnavailable(op, err)
		}
		metrics.CircuitBreakerRequests.WithLabelValues(p.name, "failure").Inc()
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(p.name, "success").Inc()
	return result, nil
}

// castResult type-asserts a breaker result.
func castResult[T any](result any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if result == nil {
		return zero, nil
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// AllItems implements recommend.FeatureProvider.
func (p *BreakerProvider) AllItems(ctx context.Context) ([]recommend.Item, error) {
	return castResult[[]recommend.Item](p.execute("all items", func() (any, error) {
		return p.next.AllItems(ctx)
	}))
}

// Categories implements recommend.FeatureProvider.
func (p *BreakerProvider) Categories(ctx context.Context) ([]string, error) {
	return castResult[[]string](p.execute("categories", func() (any, error) {
		return p.next.Categories(ctx)
	}))
}

// PopularItems implements recommend.FeatureProvider.
func (p *BreakerProvider) PopularItems(ctx context.Context, category string, limit int) ([]recommend.PopularItem, error) {
	return castResult[[]recommend.PopularItem](p.execute("popular items", func() (any, error) {
		return p.next.PopularItems(ctx, category, limit)
	}))
}

// UserItems implements recommend.FeatureProvider.
func (p *BreakerProvider) UserItems(ctx context.Context, userID string, kind recommend.EventKind) ([]string, error) {
	return castResult[[]string](p.execute("user items", func() (any, error) {
		return p.next.UserItems(ctx, userID, kind)
	}))
}

// PurchaseData implements recommend.FeatureProvider.
func (p *BreakerProvider) PurchaseData(ctx context.Context) ([]recommend.Purchase, error) {
	return castResult[[]recommend.Purchase](p.execute("purchase data", func() (any, error) {
		return p.next.PurchaseData(ctx)
	}))
}

// InteractionData implements recommend.FeatureProvider.
func (p *BreakerProvider) InteractionData(ctx context.Context) ([]recommend.UserItemEvent, error) {
	return castResult[[]recommend.UserItemEvent](p.execute("interaction data", func() (any, error) {
		return p.next.InteractionData(ctx)
	}))
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to string for logging
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
