// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package events

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/shoprec/internal/config"
	"github.com/tomtom215/shoprec/internal/provider"
	"github.com/tomtom215/shoprec/internal/recommend"
)

type fakeCache struct {
	mu       sync.Mutex
	prefixes [][]string
	err      error
}

func (f *fakeCache) Invalidate(_ context.Context, prefixes ...string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prefixes = append(f.prefixes, prefixes)
	return len(prefixes), f.err
}

func (f *fakeCache) calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.prefixes...)
}

type fakeEngine struct {
	mu          sync.Mutex
	invalidated int
	refreshed   []string
	refreshErr  map[string]error
}

func (f *fakeEngine) InvalidateCache() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated++
	return 3
}

func (f *fakeEngine) Refresh(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshed = append(f.refreshed, name)
	return f.refreshErr[name]
}

func (f *fakeEngine) snapshot() (int, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.invalidated, append([]string(nil), f.refreshed...)
}

func TestChangeTopic(t *testing.T) {
	c := Change{Kind: KindCatalog}
	topic, err := c.Topic()
	require.NoError(t, err)
	assert.Equal(t, TopicCatalogChanged, topic)

	c.Kind = KindInteractions
	topic, err = c.Topic()
	require.NoError(t, err)
	assert.Equal(t, TopicInteractionsChanged, topic)

	c.Kind = "orders"
	_, err = c.Topic()
	assert.ErrorIs(t, err, ErrInvalidChange)
}

func TestNewMessageAndDecode(t *testing.T) {
	msg, err := NewMessage(&Change{Kind: KindInteractions, IDs: []string{"P1", "P2"}})
	require.NoError(t, err)
	assert.Equal(t, "interactions", msg.Metadata.Get("kind"))

	decoded, err := DecodeChange(msg)
	require.NoError(t, err)
	assert.Equal(t, KindInteractions, decoded.Kind)
	assert.Equal(t, []string{"P1", "P2"}, decoded.IDs)
	assert.False(t, decoded.OccurredAt.IsZero())
}

func TestDecodeChange_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", "{"},
		{"unknown kind", `{"kind":"orders"}`},
		{"missing kind", `{"ids":["P1"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeChange(message.NewMessage(watermill.NewUUID(), []byte(tt.payload)))
			assert.ErrorIs(t, err, ErrInvalidChange)
		})
	}
}

func TestHandler_CatalogChange(t *testing.T) {
	cache := &fakeCache{}
	engine := &fakeEngine{refreshErr: map[string]error{
		recommend.StrategyPopular: recommend.ErrUnknownStrategy,
	}}
	h := NewHandler(cache, engine, zerolog.Nop())

	err := h.Apply(context.Background(), &Change{Kind: KindCatalog, IDs: []string{"P1"}})
	require.NoError(t, err)

	assert.Equal(t, [][]string{provider.CatalogKeys}, cache.calls())
	invalidated, refreshed := engine.snapshot()
	assert.Equal(t, 1, invalidated)
	assert.Equal(t, []string{recommend.StrategyContent, recommend.StrategyPopular}, refreshed)
}

func TestHandler_InteractionChange(t *testing.T) {
	cache := &fakeCache{}
	engine := &fakeEngine{}
	h := NewHandler(cache, engine, zerolog.Nop())

	require.NoError(t, h.Apply(context.Background(), &Change{Kind: KindInteractions}))

	assert.Equal(t, [][]string{provider.InteractionKeys}, cache.calls())
	invalidated, refreshed := engine.snapshot()
	assert.Equal(t, 1, invalidated)
	assert.Empty(t, refreshed)
}

func TestHandler_RefreshFailureIsNotFatal(t *testing.T) {
	engine := &fakeEngine{refreshErr: map[string]error{
		recommend.StrategyContent: recommend.DataUnavailable("all items", errors.New("down")),
	}}
	h := NewHandler(nil, engine, zerolog.Nop())

	assert.NoError(t, h.Apply(context.Background(), &Change{Kind: KindCatalog}))
}

func TestHandler_CacheFailureIsRetried(t *testing.T) {
	cache := &fakeCache{err: errors.New("badger closed")}
	engine := &fakeEngine{}
	h := NewHandler(cache, engine, zerolog.Nop())

	msg, err := NewMessage(&Change{Kind: KindInteractions})
	require.NoError(t, err)

	assert.Error(t, h.Handle(msg))
	invalidated, _ := engine.snapshot()
	assert.Zero(t, invalidated)
}

func TestHandler_LogsWithMessageUUID(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(&fakeCache{}, &fakeEngine{}, zerolog.New(&buf))

	msg, err := NewMessage(&Change{Kind: KindInteractions, IDs: []string{"P1"}})
	require.NoError(t, err)
	require.NoError(t, h.Handle(msg))

	out := buf.String()
	assert.Contains(t, out, `"message_uuid":"`+msg.UUID+`"`)
	assert.Contains(t, out, `"component":"events"`)
	assert.Contains(t, out, "Change applied")
}

func TestHandler_MalformedMessageAcked(t *testing.T) {
	cache := &fakeCache{}
	engine := &fakeEngine{}
	h := NewHandler(cache, engine, zerolog.Nop())

	err := h.Handle(message.NewMessage(watermill.NewUUID(), []byte("not json")))
	assert.NoError(t, err)
	assert.Empty(t, cache.calls())
}

func TestPublisher_UnknownKind(t *testing.T) {
	transport := NewLocalTransport(watermill.NopLogger{})
	defer func() { _ = transport.Close() }()

	p := NewPublisher(transport.Publisher)
	err := p.PublishChange(context.Background(), Change{Kind: "orders"})
	assert.ErrorIs(t, err, ErrInvalidChange)

	p.Close()
	err = p.PublishChange(context.Background(), Change{Kind: KindCatalog})
	assert.Error(t, err)
}

func TestNewTransport_DisabledIsLocal(t *testing.T) {
	transport, err := NewTransport(&config.EventsConfig{Enabled: false}, nil)
	require.NoError(t, err)
	defer func() { _ = transport.Close() }()

	assert.True(t, transport.Local)
}

func TestRouter_EndToEnd(t *testing.T) {
	transport := NewLocalTransport(watermill.NopLogger{})
	defer func() { _ = transport.Close() }()

	cache := &fakeCache{}
	engine := &fakeEngine{}
	router, err := NewRouter(DefaultRouterConfig(), transport.Subscriber, NewHandler(cache, engine, zerolog.Nop()), watermill.NopLogger{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- router.Run(ctx) }()

	select {
	case <-router.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("router did not start")
	}

	pub := NewPublisher(transport.Publisher)
	require.NoError(t, pub.PublishChange(ctx, Change{Kind: KindCatalog, IDs: []string{"P9"}}))

	assert.Eventually(t, func() bool {
		_, refreshed := engine.snapshot()
		return len(refreshed) == 2
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, router.Close())
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("router did not stop")
	}
}
