// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"
)

// EventRouter is the lifecycle of *events.Router.
type EventRouter interface {
	Run(ctx context.Context) error
	Close() error
}

// EventRouterService runs the change event router under supervision.
//
// A watermill router cannot be run again once it has stopped, so an
// unexpected exit is logged and the service is not restarted. The API keeps
// serving; indexes then only change through the warmer and manual refresh.
type EventRouterService struct {
	router       EventRouter
	closeTimeout time.Duration
	logger       zerolog.Logger
	name         string
}

// NewEventRouterService wraps router. A non-positive closeTimeout defaults
// to 10s.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewEventRouterService(router EventRouter, closeTimeout time.Duration, logger zerolog.Logger) *EventRouterService {
	if closeTimeout <= 0 {
		closeTimeout = 10 * time.Second
	}
	return &EventRouterService{
		router:       router,
		closeTimeout: closeTimeout,
		logger:       logger.With().Str("service", "event-router").Logger(),
		name:         "event-router",
	}
}

// Serve implements suture.Service.
func (s *EventRouterService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.router.Run(ctx)
	}()

	select {
	case err := <-errCh:
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Error().Err(err).Msg("Event router stopped unexpectedly; change events are no longer consumed")
		return suture.ErrDoNotRestart

	case <-ctx.Done():
		closeErr := make(chan error, 1)
		go func() { closeErr <- s.router.Close() }()

		select {
		case err := <-closeErr:
			if err != nil {
				return fmt.Errorf("event router close failed: %w", err)
			}
		case <-time.After(s.closeTimeout):
			return fmt.Errorf("event router close timed out after %s", s.closeTimeout)
		}

		<-errCh
		return ctx.Err()
	}
}

// String implements fmt.Stringer for suture logs.
func (s *EventRouterService) String() string {
	return s.name
}
