// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package recommend

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry(zerolog.Nop())

	for _, name := range []string{"user_cf", "content_based", "popular_items"} {
		if err := r.Register(&mockStrategy{name: name}); err != nil {
			t.Fatalf("Register(%s) error = %v", name, err)
		}
	}

	err := r.Register(&mockStrategy{name: "user_cf"})
	if !errors.Is(err, ErrDuplicateStrategy) {
		t.Errorf("duplicate Register() error = %v, want ErrDuplicateStrategy", err)
	}

	if want := []string{"content_based", "popular_items", "user_cf"}; !reflect.DeepEqual(r.Names(), want) {
		t.Errorf("Names() = %v, want %v", r.Names(), want)
	}

	if _, ok := r.Get("popular_items"); !ok {
		t.Error("Get(popular_items) not found")
	}
	if _, ok := r.Get("item_cf"); ok {
		t.Error("Get(item_cf) found an unregistered strategy")
	}

	statuses := r.Statuses()
	if len(statuses) != 3 || statuses[0].Name != "content_based" {
		t.Errorf("Statuses() = %+v", statuses)
	}
}

func TestRegistry_RefreshAllJoinsErrors(t *testing.T) {
	good := &mockStrategy{name: "good"}
	bad := &mockStrategy{name: "bad", refreshErr: DataUnavailable("test", errors.New("down"))}
	r := newTestRegistry(t, good, bad)

	err := r.RefreshAll(context.Background(), true)
	if !errors.Is(err, ErrDataUnavailable) {
		t.Errorf("RefreshAll() error = %v, want ErrDataUnavailable", err)
	}
	if good.refreshes.Load() != 1 || bad.refreshes.Load() != 1 {
		t.Errorf("refreshes = %d/%d, want 1/1", good.refreshes.Load(), bad.refreshes.Load())
	}

	// Non-forced refresh goes through RefreshIfStale, which the mock treats as fresh.
	if err := r.RefreshAll(context.Background(), false); err != nil {
		t.Errorf("RefreshAll(false) error = %v", err)
	}
	if good.refreshes.Load() != 1 {
		t.Error("non-forced refresh should not call Refresh")
	}
}
