// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

/*
Package supervisor provides process supervision for shoprec using suture v4.

Every long-running component runs as a suture.Service inside a three layer
tree:

	RootSupervisor ("shoprec")
	├── IndexSupervisor ("index-layer")
	│   └── IndexWarmerService
	├── MessagingSupervisor ("messaging-layer")
	│   └── EventRouterService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Crashed services are restarted with suture's decaying failure counter;
once FailureThreshold is exceeded the layer waits FailureBackoff before the
next restart. Supervisor events are logged through sutureslog.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddIndexService(services.NewIndexWarmerService(engine, warmerCfg, logger))
	tree.AddMessagingService(services.NewEventRouterService(router, 10*time.Second))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    return err
	}

The DuckDB store and the badger feature cache are not supervised. They are
embedded libraries opened and closed by main.

Services return nil to stop permanently, an error to be restarted, and
ctx.Err() after cancellation.
*/
package supervisor
