// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

/*
Package models defines the wire types of the Shoprec HTTP API.

Key Components:

  - APIResponse: standard envelope {status, data, metadata, error}
  - Metadata: response timestamp and query time
  - APIError: machine-readable error code with details
  - RecommendationsData: enriched recommendation list returned by
    POST /api/v1/recommendations
  - HealthStatus: liveness summary with per-strategy index state

Engine-side types (Item, Interaction, Recommendation) live in
internal/recommend. The types here add catalog enrichment and the response
envelope and are never read back by the engine.
*/
package models
