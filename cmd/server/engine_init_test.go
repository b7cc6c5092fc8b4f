// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package main

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shoprec/internal/config"
	"github.com/tomtom215/shoprec/internal/provider"
	"github.com/tomtom215/shoprec/internal/recommend"
)

type staticProvider struct {
	items []recommend.Item
	calls int
}

func (s *staticProvider) AllItems(context.Context) ([]recommend.Item, error) {
	s.calls++
	return s.items, nil
}

func (s *staticProvider) Categories(context.Context) ([]string, error) { return nil, nil }

func (s *staticProvider) PopularItems(context.Context, string, int) ([]recommend.PopularItem, error) {
	return nil, nil
}

func (s *staticProvider) UserItems(context.Context, string, recommend.EventKind) ([]string, error) {
	return nil, nil
}

func (s *staticProvider) PurchaseData(context.Context) ([]recommend.Purchase, error) { return nil, nil }

func (s *staticProvider) InteractionData(context.Context) ([]recommend.UserItemEvent, error) {
	return nil, nil
}

func TestInitFeatures_Disabled(t *testing.T) {
	cfg := &config.Config{}
	base := &staticProvider{}

	fc, err := initFeatures(cfg, base, zerolog.Nop())
	if err != nil {
		t.Fatalf("initFeatures() error = %v", err)
	}
	defer fc.Close()

	if fc.Cache != nil || fc.Breaker != nil {
		t.Error("cache and breaker should be nil when disabled")
	}
	if fc.Provider != recommend.FeatureProvider(base) {
		t.Error("provider should be the base provider when nothing wraps it")
	}
}

func TestInitFeatures_CacheWrapsBreaker(t *testing.T) {
	cfg := &config.Config{}
	cfg.Breaker.Enabled = true
	cfg.FeatureCache.Enabled = true
	base := &staticProvider{items: []recommend.Item{{ID: "P1", Name: "Headphones"}}}

	fc, err := initFeatures(cfg, base, zerolog.Nop())
	if err != nil {
		t.Fatalf("initFeatures() error = %v", err)
	}
	defer func() {
		if err := fc.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	}()

	if _, ok := fc.Provider.(*provider.CachedProvider); !ok {
		t.Fatalf("outermost provider = %T, want *provider.CachedProvider", fc.Provider)
	}
	if fc.Breaker == nil || fc.Breaker.State() != "closed" {
		t.Error("breaker should be present and closed")
	}

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		items, err := fc.Provider.AllItems(ctx)
		if err != nil {
			t.Fatalf("AllItems() error = %v", err)
		}
		if len(items) != 1 || items[0].ID != "P1" {
			t.Errorf("AllItems() = %+v", items)
		}
	}
	if base.calls != 1 {
		t.Errorf("base calls = %d, want 1 (second call served from cache)", base.calls)
	}
}

func TestBreakerConfig(t *testing.T) {
	got := breakerConfig(&config.BreakerConfig{Timeout: time.Minute, FailureRatio: 0.5})
	def := provider.DefaultBreakerConfig()

	if got.Timeout != time.Minute || got.FailureRatio != 0.5 {
		t.Errorf("overrides not applied: %+v", got)
	}
	if got.MinRequests != def.MinRequests || got.MaxRequests != def.MaxRequests || got.Name != def.Name {
		t.Errorf("zero values should keep defaults: %+v", got)
	}
}

func TestInitEngine(t *testing.T) {
	cfg := &config.Config{Recommend: *recommend.DefaultConfig()}

	engine, err := initEngine(cfg, &staticProvider{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("initEngine() error = %v", err)
	}
	if len(engine.Strategies()) == 0 {
		t.Error("engine should have registered strategies")
	}
}
