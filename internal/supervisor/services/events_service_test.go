// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"
)

type mockEventRouter struct {
	runErr    error
	closeErr  error
	runs      atomic.Int32
	closes    atomic.Int32
	started   chan struct{}
	closed    chan struct{}
	blockRun  bool
	closeOnce atomic.Bool
}

func newMockEventRouter(block bool) *mockEventRouter {
	return &mockEventRouter{
		started:  make(chan struct{}, 1),
		closed:   make(chan struct{}),
		blockRun: block,
	}
}

func (m *mockEventRouter) Run(ctx context.Context) error {
	m.runs.Add(1)
	select {
	case m.started <- struct{}{}:
	default:
	}
	if !m.blockRun {
		return m.runErr
	}
	select {
	case <-ctx.Done():
	case <-m.closed:
	}
	return nil
}

func (m *mockEventRouter) Close() error {
	m.closes.Add(1)
	if m.closeOnce.CompareAndSwap(false, true) {
		close(m.closed)
	}
	return m.closeErr
}

func TestEventRouterService_Interface(t *testing.T) {
	var _ suture.Service = (*EventRouterService)(nil)
}

func TestNewEventRouterService_DefaultTimeout(t *testing.T) {
	svc := NewEventRouterService(newMockEventRouter(true), 0, zerolog.Nop())
	if svc.closeTimeout != 10*time.Second {
		t.Errorf("closeTimeout = %v, want 10s", svc.closeTimeout)
	}
	if svc.String() != "event-router" {
		t.Errorf("String() = %q", svc.String())
	}
}

func TestEventRouterService_Serve(t *testing.T) {
	t.Run("closes router on cancellation", func(t *testing.T) {
		router := newMockEventRouter(true)
		svc := NewEventRouterService(router, time.Second, zerolog.Nop())

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(ctx) }()

		select {
		case <-router.started:
		case <-time.After(time.Second):
			t.Fatal("router did not start")
		}
		cancel()

		select {
		case err := <-errCh:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Serve() error = %v, want context.Canceled", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Serve did not return")
		}
		if router.closes.Load() != 1 {
			t.Errorf("Close calls = %d, want 1", router.closes.Load())
		}
	})

	t.Run("unexpected exit is not restarted", func(t *testing.T) {
		router := newMockEventRouter(false)
		router.runErr = errors.New("subscribe failed")
		svc := NewEventRouterService(router, time.Second, zerolog.Nop())

		err := svc.Serve(context.Background())
		if !errors.Is(err, suture.ErrDoNotRestart) {
			t.Errorf("Serve() error = %v, want suture.ErrDoNotRestart", err)
		}
	})

	t.Run("reports close failure", func(t *testing.T) {
		router := newMockEventRouter(true)
		router.closeErr = errors.New("close failed")
		svc := NewEventRouterService(router, time.Second, zerolog.Nop())

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(ctx) }()

		<-router.started
		cancel()

		select {
		case err := <-errCh:
			if !errors.Is(err, router.closeErr) {
				t.Errorf("Serve() error = %v, want close error", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Serve did not return")
		}
	})
}
