// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package recommend

import (
	"errors"
	"testing"
)

func TestParseEventKind(t *testing.T) {
	tests := []struct {
		in      string
		want    EventKind
		wantErr bool
	}{
		{"view", EventView, false},
		{"click", EventClick, false},
		{"add_to_cart", EventAddToCart, false},
		{"purchase", EventPurchase, false},
		{"wishlist", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEventKind(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseEventKind(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseEventKind(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestContext_CountOr(t *testing.T) {
	if got := (Context{}).CountOr(6); got != 6 {
		t.Errorf("CountOr() = %d, want 6", got)
	}
	if got := (Context{Count: 3}).CountOr(6); got != 3 {
		t.Errorf("CountOr() = %d, want 3", got)
	}
}

func TestDataUnavailable(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := DataUnavailable("purchase data", cause)

	if !errors.Is(err, ErrDataUnavailable) {
		t.Error("errors.Is(err, ErrDataUnavailable) = false")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false")
	}
	if want := "purchase data: data unavailable: dial tcp: connection refused"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	if again := DataUnavailable("outer", err); again != err {
		t.Error("wrapping an unavailable error twice should return it unchanged")
	}
}
