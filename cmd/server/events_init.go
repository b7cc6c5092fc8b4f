// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package main

import (
	"errors"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/tomtom215/shoprec/internal/config"
	"github.com/tomtom215/shoprec/internal/events"
	"github.com/tomtom215/shoprec/internal/logging"
	"github.com/tomtom215/shoprec/internal/recommend"
)

// EventComponents holds the change event transport and its consumers.
type EventComponents struct {
	Transport *events.Transport
	Publisher *events.Publisher
	Router    *events.Router
	Server    *events.EmbeddedServer
}

// Close closes the publisher, the transport and the embedded server. The
// router is closed by its supervisor service.
func (c *EventComponents) Close() error {
	if c == nil {
		return nil
	}
	if c.Publisher != nil {
		c.Publisher.Close()
	}
	var err error
	if c.Transport != nil {
		err = c.Transport.Close()
	}
	if c.Server != nil {
		c.Server.Shutdown()
	}
	return err
}

// initEvents connects the change event transport and builds the router
// that applies changes to fc's cache and the engine.
func initEvents(cfg *config.Config, fc *FeatureComponents, engine *recommend.Engine) (*EventComponents, error) {
	wmLogger := watermill.NewSlogLogger(logging.NewSlogLogger(logging.WithComponent("events")))

	var embedded *events.EmbeddedServer
	if cfg.Events.Enabled && cfg.Events.Embedded {
		srv, err := events.NewEmbeddedServer(&cfg.Events)
		if err != nil {
			return nil, err
		}
		embedded = srv
		cfg.Events.URL = srv.ClientURL()
		logging.Info().Str("url", srv.ClientURL()).Bool("jetstream", srv.JetStreamEnabled()).Msg("Embedded NATS server started")
	}
	shutdownEmbedded := func() {
		if embedded != nil {
			embedded.Shutdown()
		}
	}

	transport, err := events.NewTransport(&cfg.Events, wmLogger)
	if err != nil {
		shutdownEmbedded()
		return nil, err
	}

	// A nil *CachedProvider must not become a non-nil interface.
	var cache events.FeatureCache
	if fc.Cache != nil {
		cache = fc.Cache
	}
	handler := events.NewHandler(cache, engine, logging.WithComponent("events"))

	routerCfg := events.DefaultRouterConfig()
	if cfg.Events.CloseTimeout > 0 {
		routerCfg.CloseTimeout = cfg.Events.CloseTimeout
	}
	router, err := events.NewRouter(routerCfg, transport.Subscriber, handler, wmLogger)
	if err != nil {
		err = errors.Join(err, transport.Close())
		shutdownEmbedded()
		return nil, err
	}

	logging.Info().
		Bool("nats", cfg.Events.Enabled).
		Bool("embedded", embedded != nil).
		Bool("jetstream", cfg.Events.Enabled && cfg.Events.JetStream).
		Msg("Change events initialized")

	return &EventComponents{
		Transport: transport,
		Publisher: events.NewPublisher(transport.Publisher),
		Router:    router,
		Server:    embedded,
	}, nil
}
