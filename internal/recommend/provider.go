// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package recommend

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors. Use errors.Is to test for them.
var (
	// ErrDataUnavailable is returned when the feature provider cannot serve data.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrInvalidRequest is returned for malformed recommendation requests.
	ErrInvalidRequest = errors.New("invalid recommendation request")

	// ErrUnknownStrategy is returned when a strategy name is not recognised.
	ErrUnknownStrategy = errors.New("unknown strategy")

	// ErrDuplicateStrategy is returned when a strategy name is registered twice.
	ErrDuplicateStrategy = errors.New("strategy already registered")
)

// FeatureProvider supplies catalog, interaction and popularity data.
// This is typically implemented by the database layer, optionally wrapped by
// caching and circuit-breaking decorators.
//
// Implementations must honour ctx cancellation and report failures as
// ErrDataUnavailable (see DataUnavailable). The engine never retries.
type FeatureProvider interface {
	// AllItems returns every catalog item, ordered by ID.
	AllItems(ctx context.Context) ([]Item, error)

	// Categories returns every category identifier, ordered.
	Categories(ctx context.Context) ([]string, error)

	// PopularItems returns up to limit items ranked by popularity score.
	// An empty category means the overall ranking.
	PopularItems(ctx context.Context, category string, limit int) ([]PopularItem, error)

	// UserItems returns the items a user interacted with, most recent first.
	// An empty kind matches every event kind.
	UserItems(ctx context.Context, userID string, kind EventKind) ([]string, error)

	// PurchaseData returns every (user, item) purchase pair.
	PurchaseData(ctx context.Context) ([]Purchase, error)

	// InteractionData returns every (user, item, kind) interaction.
	InteractionData(ctx context.Context) ([]UserItemEvent, error)
}

// dataUnavailableError wraps a provider failure with the failing operation.
type dataUnavailableError struct {
	op  string
	err error
}

func (e *dataUnavailableError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("%s: %s", e.op, ErrDataUnavailable)
	}
	return fmt.Sprintf("%s: %s: %v", e.op, ErrDataUnavailable, e.err)
}

// Is makes errors.Is(err, ErrDataUnavailable) true.
func (e *dataUnavailableError) Is(target error) bool {
	return target == ErrDataUnavailable
}

func (e *dataUnavailableError) Unwrap() error {
	return e.err
}

// DataUnavailable wraps err as a data-unavailable failure of op.
// Errors that already carry ErrDataUnavailable are returned unchanged.
func DataUnavailable(op string, err error) error {
	if err != nil && errors.Is(err, ErrDataUnavailable) {
		return err
	}
	return &dataUnavailableError{op: op, err: err}
}
