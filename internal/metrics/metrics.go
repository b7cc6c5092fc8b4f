// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for:
// - Recommendation requests and per-strategy latency
// - Similarity index refreshes
// - Response and feature caches
// - DuckDB feature queries
// - Circuit breaker state
// - HTTP API and event consumption

var (
	// Recommendation Metrics
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_requests_total",
			Help: "Total number of recommendation requests",
		},
		[]string{"scene", "outcome"}, // outcome: "ok", "partial", "cache_hit", "error"
	)

	RecommendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommend_request_duration_seconds",
			Help:    "End-to-end recommendation latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"scene"},
	)

	RecommendItemsReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_items_returned",
			Help:    "Number of items returned per recommendation request",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	SceneFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_scene_fallbacks_total",
			Help: "Requests whose scene had no weight table and used the default",
		},
		[]string{"scene"},
	)

	// Strategy Metrics
	StrategyCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_strategy_calls_total",
			Help: "Total number of strategy invocations",
		},
		[]string{"strategy", "result"}, // result: "ok", "empty", "error", "skipped"
	)

	StrategyDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommend_strategy_duration_seconds",
			Help:    "Duration of a single strategy invocation in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"strategy"},
	)

	// Index Refresh Metrics
	IndexRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_index_refreshes_total",
			Help: "Total number of similarity index rebuilds",
		},
		[]string{"strategy", "result"}, // result: "success", "failure", "skipped"
	)

	IndexRefreshDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommend_index_refresh_duration_seconds",
			Help:    "Duration of similarity index rebuilds in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
		[]string{"strategy"},
	)

	IndexSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "recommend_index_entries",
			Help: "Number of entries in the installed similarity index",
		},
		[]string{"strategy"},
	)

	IndexLastRefresh = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "recommend_index_last_refresh_timestamp_seconds",
			Help: "Unix timestamp of the last successful index rebuild",
		},
		[]string{"strategy"},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "response", "feature"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache_type"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of cache evictions",
		},
		[]string{"cache_type"},
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Event Metrics
	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_consumed_total",
			Help: "Total number of change notifications consumed",
		},
		[]string{"topic", "result"}, // result: "ok", "invalid", "error"
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of change notifications published",
		},
		[]string{"topic", "result"},
	)

	// Application Info
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "shoprec_info",
			Help: "Application build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordRecommendRequest records the outcome and latency of a recommendation request.
func RecordRecommendRequest(scene, outcome string, duration time.Duration, returned int) {
	RecommendRequests.WithLabelValues(scene, outcome).Inc()
	RecommendDuration.WithLabelValues(scene).Observe(duration.Seconds())
	RecommendItemsReturned.Observe(float64(returned))
}

// RecordSceneFallback counts a request whose scene fell back to the default table.
func RecordSceneFallback(scene string) {
	SceneFallbacks.WithLabelValues(scene).Inc()
}

// RecordStrategyCall records a single strategy invocation.
func RecordStrategyCall(strategy, result string, duration time.Duration) {
	StrategyCalls.WithLabelValues(strategy, result).Inc()
	if result != "skipped" {
		StrategyDuration.WithLabelValues(strategy).Observe(duration.Seconds())
	}
}

// RecordIndexRefresh records an index rebuild. size is ignored on failure.
func RecordIndexRefresh(strategy string, duration time.Duration, size int, err error) {
	IndexRefreshDuration.WithLabelValues(strategy).Observe(duration.Seconds())
	if err != nil {
		IndexRefreshes.WithLabelValues(strategy, "failure").Inc()
		return
	}
	IndexRefreshes.WithLabelValues(strategy, "success").Inc()
	IndexSize.WithLabelValues(strategy).Set(float64(size))
	IndexLastRefresh.WithLabelValues(strategy).Set(float64(time.Now().Unix()))
}

// RecordIndexRefreshSkipped counts a refresh that was not started because one was in flight.
func RecordIndexRefreshSkipped(strategy string) {
	IndexRefreshes.WithLabelValues(strategy, "skipped").Inc()
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(cacheType string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cacheType).Inc()
		return
	}
	CacheMisses.WithLabelValues(cacheType).Inc()
}

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordEventConsumed records a consumed change notification.
// result is one of "ok", "invalid" or "error".
func RecordEventConsumed(topic, result string) {
	EventsConsumed.WithLabelValues(topic, result).Inc()
}

// RecordEventPublished records a published change notification.
func RecordEventPublished(topic string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	EventsPublished.WithLabelValues(topic, result).Inc()
}
