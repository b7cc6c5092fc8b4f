// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

/*
Package api provides the HTTP REST API for Shoprec.

Endpoints:

  - POST /api/v1/recommendations: blended recommendations enriched with
    catalog details
  - GET /api/v1/recommendations/strategies: index status per strategy
  - POST /api/v1/recommendations/refresh: force an index rebuild of every
    strategy, or of one with ?strategy=name
  - POST /api/v1/interactions: record a user interaction and announce it
    on the change topic
  - GET /api/v1/health: liveness, database reachability and index status
  - GET /metrics: Prometheus metrics

Every JSON response uses the models.APIResponse envelope. Errors map to
HTTP status codes as follows:

	recommend.ErrInvalidRequest, validation failures -> 400 VALIDATION_ERROR
	recommend.ErrUnknownStrategy                     -> 404 NOT_FOUND
	recommend.ErrDataUnavailable                     -> 503 DATA_UNAVAILABLE
	anything else                                    -> 500 INTERNAL_ERROR

Middleware (see internal/middleware) adds request IDs, access logging and
Prometheus instrumentation. Panics are recovered by chi's Recoverer and CORS
is handled by go-chi/cors.

Usage Example:

	handler := api.NewHandler(api.Dependencies{
	    Engine:       engine,
	    Catalog:      db,
	    Interactions: db,
	    Database:     db,
	    Publisher:    publisher,
	})
	router := api.NewRouter(handler, api.DefaultChiMiddlewareConfig())
	http.ListenAndServe(":8090", router.SetupChi())
*/
package api
