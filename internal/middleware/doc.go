// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

/*
Package middleware provides HTTP middleware for the recommendation API.

All middleware uses the chi signature func(http.Handler) http.Handler and is
installed globally by the api router:

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.AccessLog)
	r.Use(middleware.PrometheusMetrics)

Key Components:

  - RequestID: accepts or generates X-Request-ID and stores it in the request
    context through the logging package, so every log line and engine
    response for the request carries the same ID
  - AccessLog: one zerolog line per request with status, size and latency
  - PrometheusMetrics: request counters and latency histograms labelled by
    chi route pattern rather than raw path, which keeps label cardinality
    bounded when paths contain identifiers

See Also:

  - internal/api: router and handlers wrapped by this middleware
  - internal/metrics: Prometheus metric definitions
*/
package middleware
