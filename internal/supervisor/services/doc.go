// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

/*
Package services adapts shoprec components to suture.Service.

  - HTTPServerService: runs an *http.Server and shuts it down gracefully
  - IndexWarmerService: builds strategy indexes at startup and refreshes
    stale ones on an interval
  - EventRouterService: runs the change event router and closes it on
    shutdown

Each wrapper depends on a narrow interface so it can be tested without the
real component, and implements fmt.Stringer so suture logs a readable name.
*/
package services
