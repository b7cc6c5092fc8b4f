// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered with the default registry through promauto and
exposed at /metrics by the API router.

# Available Metrics

Recommendation Metrics:
  - recommend_requests_total: Requests by resolved scene and outcome (counter)
  - recommend_request_duration_seconds: End-to-end latency (histogram)
  - recommend_items_returned: Result size per request (histogram)
  - recommend_scene_fallbacks_total: Unknown scenes served with the default table

Strategy Metrics:
  - recommend_strategy_calls_total: Invocations by strategy and result
  - recommend_strategy_duration_seconds: Per-strategy latency
  - recommend_index_refreshes_total: Index rebuilds by result (success, failure, skipped)
  - recommend_index_refresh_duration_seconds: Rebuild time
  - recommend_index_entries: Size of the installed index
  - recommend_index_last_refresh_timestamp_seconds: Last successful rebuild

Infrastructure Metrics:
  - cache_hits_total / cache_misses_total: Labelled by cache_type (response, feature)
  - duckdb_query_duration_seconds / duckdb_query_errors_total
  - circuit_breaker_state / circuit_breaker_requests_total / circuit_breaker_state_transitions_total
  - api_requests_total / api_request_duration_seconds / api_active_requests
  - events_consumed_total / events_published_total

# Usage

	start := time.Now()
	rows, err := db.QueryContext(ctx, query)
	metrics.RecordDBQuery("select", "interactions", time.Since(start), err)
*/
package metrics
