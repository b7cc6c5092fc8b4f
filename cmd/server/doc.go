// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

// Package main is the shoprec server.
//
// Startup order:
//
//  1. Configuration (koanf: defaults, optional config.yaml, environment)
//  2. Logging (zerolog)
//  3. DuckDB store, seeded from the configured fixture when empty
//  4. Feature provider chain: badger cache, circuit breaker, DuckDB
//  5. Strategy registry and recommendation engine
//  6. Change events over NATS (external, or an embedded server with
//     JetStream), or in process when NATS is disabled
//  7. Supervisor tree: index warmer, event router, HTTP server
//
// SIGINT and SIGTERM cancel the tree; each service shuts down within
// server.shutdown_timeout, then the event transport, feature cache and
// database are closed in that order.
//
// Example:
//
//	DUCKDB_PATH=/data/shoprec.duckdb \
//	SEED_PATH=/etc/shoprec/catalog.json \
//	NATS_ENABLED=true \
//	NATS_URL=nats://nats:4222 \
//	./shoprec
//
// Single node with an embedded broker:
//
//	NATS_ENABLED=true NATS_EMBEDDED=true NATS_STORE_DIR=/data/nats ./shoprec
package main
