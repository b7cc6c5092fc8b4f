// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package strategies

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/shoprec/internal/recommend"
)

// fakeProvider is an in-memory FeatureProvider. Purchases and per-user
// items are derived from the interaction list.
type fakeProvider struct {
	mu           sync.Mutex
	items        []recommend.Item
	categories   []string
	popular      map[string][]recommend.PopularItem
	interactions []recommend.UserItemEvent
	err          error
	calls        map[string]int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		popular: make(map[string][]recommend.PopularItem),
		calls:   make(map[string]int),
	}
}

func (f *fakeProvider) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.err
}

func (f *fakeProvider) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeProvider) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeProvider) addEvents(kind recommend.EventKind, pairs ...[2]string) {
	for _, p := range pairs {
		f.interactions = append(f.interactions, recommend.UserItemEvent{UserID: p[0], ItemID: p[1], Kind: kind})
	}
}

func (f *fakeProvider) AllItems(_ context.Context) ([]recommend.Item, error) {
	if err := f.record("AllItems"); err != nil {
		return nil, err
	}
	return append([]recommend.Item(nil), f.items...), nil
}

func (f *fakeProvider) Categories(_ context.Context) ([]string, error) {
	if err := f.record("Categories"); err != nil {
		return nil, err
	}
	return append([]string(nil), f.categories...), nil
}

func (f *fakeProvider) PopularItems(_ context.Context, category string, limit int) ([]recommend.PopularItem, error) {
	if err := f.record("PopularItems"); err != nil {
		return nil, err
	}
	list := f.popular[category]
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return append([]recommend.PopularItem(nil), list...), nil
}

func (f *fakeProvider) UserItems(_ context.Context, userID string, kind recommend.EventKind) ([]string, error) {
	if err := f.record("UserItems"); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var out []string
	for i := len(f.interactions) - 1; i >= 0; i-- {
		ev := f.interactions[i]
		if ev.UserID != userID || (kind != "" && ev.Kind != kind) {
			continue
		}
		if _, dup := seen[ev.ItemID]; dup {
			continue
		}
		seen[ev.ItemID] = struct{}{}
		out = append(out, ev.ItemID)
	}
	return out, nil
}

func (f *fakeProvider) PurchaseData(_ context.Context) ([]recommend.Purchase, error) {
	if err := f.record("PurchaseData"); err != nil {
		return nil, err
	}
	var out []recommend.Purchase
	for _, ev := range f.interactions {
		if ev.Kind == recommend.EventPurchase {
			out = append(out, recommend.Purchase{UserID: ev.UserID, ItemID: ev.ItemID})
		}
	}
	return out, nil
}

func (f *fakeProvider) InteractionData(_ context.Context) ([]recommend.UserItemEvent, error) {
	if err := f.record("InteractionData"); err != nil {
		return nil, err
	}
	return append([]recommend.UserItemEvent(nil), f.interactions...), nil
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func candidateIDs(cs []recommend.ScoredCandidate) []string {
	ids := make([]string, len(cs))
	for i, c := range cs {
		ids[i] = c.ItemID
	}
	return ids
}
