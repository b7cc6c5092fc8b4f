// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package strategies

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shoprec/internal/recommend"
)

func TestBuild_RegistersEnabledStrategies(t *testing.T) {
	cfg := recommend.DefaultConfig()
	registry, err := Build(cfg, newFakeProvider(), zerolog.Nop())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	want := []string{"content_based", "item_cf", "popular_items", "user_cf"}
	if got := registry.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name    string
		enabled []string
		wantErr error
	}{
		{"unknown strategy", []string{"popular_items", "deep_learning"}, recommend.ErrUnknownStrategy},
		{"duplicate strategy", []string{"item_cf", "item_cf"}, recommend.ErrDuplicateStrategy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := recommend.DefaultConfig()
			cfg.Enabled = tt.enabled
			_, err := Build(cfg, newFakeProvider(), zerolog.Nop())
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Build() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuild_RequiresProvider(t *testing.T) {
	if _, err := Build(recommend.DefaultConfig(), nil, zerolog.Nop()); err == nil {
		t.Error("Build() without provider should fail")
	}
}

func TestNew_WithClock(t *testing.T) {
	clock := newFakeClock()
	fp := newFakeProvider()
	fp.popular[""] = []recommend.PopularItem{{ItemID: "P1", Score: 0.9}}

	s, err := New(recommend.StrategyPopular, recommend.DefaultConfig(), fp, zerolog.Nop(), WithClock(clock.Now))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := context.Background()
	if err := s.RefreshIfStale(ctx); err != nil {
		t.Fatalf("RefreshIfStale() error = %v", err)
	}
	if got := s.Status().LastRefreshed; !got.Equal(clock.Now()) {
		t.Errorf("LastRefreshed = %v, want %v", got, clock.Now())
	}

	clock.Advance(25 * time.Hour)
	if !s.Status().Stale {
		t.Error("index older than 24h should be stale")
	}
	if err := s.RefreshIfStale(ctx); err != nil {
		t.Fatalf("RefreshIfStale() error = %v", err)
	}
	if got := fp.callCount("PopularItems"); got != 2 {
		t.Errorf("PopularItems calls = %d, want 2", got)
	}
}

// storeProvider models a small shop for end-to-end engine tests.
func storeProvider() *fakeProvider {
	fp := userCFProvider()
	fp.addEvents(recommend.EventPurchase,
		[2]string{"alice", "C"}, [2]string{"carol", "B"},
		[2]string{"erin", "A"}, [2]string{"erin", "B"},
	)
	fp.items = []recommend.Item{
		{ID: "A", Name: "Espresso Beans", Description: "Dark roast coffee beans", Categories: []string{"coffee"}},
		{ID: "B", Name: "Filter Coffee", Description: "Medium roast ground coffee", Categories: []string{"coffee"}},
		{ID: "C", Name: "Milk Frother", Description: "Handheld milk frother", Categories: []string{"gear"}},
		{ID: "D", Name: "Pour Over Kettle", Description: "Gooseneck kettle for coffee", Categories: []string{"gear"}},
		{ID: "E", Name: "Ceramic Mug", Description: "Stoneware coffee mug", Categories: []string{"gear"}},
	}
	fp.categories = []string{"coffee", "gear"}
	fp.popular[""] = []recommend.PopularItem{
		{ItemID: "A", Score: 1}, {ItemID: "B", Score: 0.8}, {ItemID: "C", Score: 0.5},
		{ItemID: "D", Score: 0.3}, {ItemID: "E", Score: 0.3},
	}
	fp.popular["coffee"] = []recommend.PopularItem{{ItemID: "A", Score: 1}, {ItemID: "B", Score: 0.8}}
	fp.popular["gear"] = []recommend.PopularItem{{ItemID: "C", Score: 0.5}, {ItemID: "D", Score: 0.3}}
	return fp
}

func newStoreEngine(t *testing.T) *recommend.Engine {
	t.Helper()

	cfg := recommend.DefaultConfig()
	cfg.ItemCF.MinCommonUsers = 1
	cfg.Cache.Enabled = false

	registry, err := Build(cfg, storeProvider(), zerolog.Nop())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	engine, err := recommend.NewEngine(cfg, registry, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return engine
}

func TestEngine_DeterministicAcrossScenes(t *testing.T) {
	requests := []recommend.Context{
		{Scene: "home"},
		{Scene: "detail", ItemID: "A"},
		{Scene: "cart", ItemID: "B"},
		{Scene: "category", CategoryID: "gear"},
		{Scene: "search", ItemID: "D"},
		{Scene: "nonexistent"},
	}

	ctx := context.Background()
	for _, rc := range requests {
		first, err := newStoreEngine(t).Recommend(ctx, "alice", rc)
		if err != nil {
			t.Fatalf("%s: Recommend() error = %v", rc.Scene, err)
		}
		second, err := newStoreEngine(t).Recommend(ctx, "alice", rc)
		if err != nil {
			t.Fatalf("%s: Recommend() error = %v", rc.Scene, err)
		}

		if !reflect.DeepEqual(first.Items, second.Items) {
			t.Errorf("%s: output differs between runs:\n%v\n%v", rc.Scene, first.Items, second.Items)
		}
		for _, item := range first.Items {
			if item.Score < 0 || item.Score > 1 {
				t.Errorf("%s: score %v for %s outside [0,1]", rc.Scene, item.Score, item.ItemID)
			}
		}
	}
}

func TestEngine_HomeSceneExcludesOwnedUserCFItems(t *testing.T) {
	engine := newStoreEngine(t)

	resp, err := engine.Recommend(context.Background(), "alice", recommend.Context{Scene: "home", Count: 10})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if resp.Algorithm != recommend.AlgorithmHybrid {
		t.Errorf("Algorithm = %q, want %q", resp.Algorithm, recommend.AlgorithmHybrid)
	}

	for _, item := range resp.Items {
		if item.Strategy == recommend.StrategyUserCF && (item.ItemID == "A" || item.ItemID == "B" || item.ItemID == "C") {
			t.Errorf("user_cf provenance on owned item %s", item.ItemID)
		}
	}
}
