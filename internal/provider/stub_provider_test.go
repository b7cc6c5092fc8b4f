// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package provider

import (
	"context"
	"sync"

	"github.com/tomtom215/shoprec/internal/recommend"
)

// stubProvider counts calls and returns canned data or err.
type stubProvider struct {
	mu    sync.Mutex
	calls map[string]int
	err   error

	items        []recommend.Item
	categories   []string
	popular      []recommend.PopularItem
	userItems    []string
	purchases    []recommend.Purchase
	interactions []recommend.UserItemEvent
}

func newStubProvider() *stubProvider {
	return &stubProvider{
		calls: make(map[string]int),
		items: []recommend.Item{
			{ID: "P1", Name: "Headphones", Categories: []string{"audio"}, Price: 199},
			{ID: "P2", Name: "Speaker", Categories: []string{"audio"}, Price: 89},
		},
		categories: []string{"audio"},
		popular:    []recommend.PopularItem{{ItemID: "P1", Score: 1}, {ItemID: "P2", Score: 0.5}},
		userItems:  []string{"P2", "P1"},
		purchases:  []recommend.Purchase{{UserID: "alice", ItemID: "P1"}},
		interactions: []recommend.UserItemEvent{
			{UserID: "alice", ItemID: "P1", Kind: recommend.EventPurchase},
		},
	}
}

func (s *stubProvider) record(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[op]++
	return s.err
}

func (s *stubProvider) count(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *stubProvider) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *stubProvider) AllItems(context.Context) ([]recommend.Item, error) {
	if err := s.record("AllItems"); err != nil {
		return nil, err
	}
	return s.items, nil
}

func (s *stubProvider) Categories(context.Context) ([]string, error) {
	if err := s.record("Categories"); err != nil {
		return nil, err
	}
	return s.categories, nil
}

func (s *stubProvider) PopularItems(_ context.Context, _ string, _ int) ([]recommend.PopularItem, error) {
	if err := s.record("PopularItems"); err != nil {
		return nil, err
	}
	return s.popular, nil
}

func (s *stubProvider) UserItems(_ context.Context, _ string, _ recommend.EventKind) ([]string, error) {
	if err := s.record("UserItems"); err != nil {
		return nil, err
	}
	return s.userItems, nil
}

func (s *stubProvider) PurchaseData(context.Context) ([]recommend.Purchase, error) {
	if err := s.record("PurchaseData"); err != nil {
		return nil, err
	}
	return s.purchases, nil
}

func (s *stubProvider) InteractionData(context.Context) ([]recommend.UserItemEvent, error) {
	if err := s.record("InteractionData"); err != nil {
		return nil, err
	}
	return s.interactions, nil
}
