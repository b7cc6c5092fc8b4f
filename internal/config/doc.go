// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

/*
Package config loads and validates Shoprec configuration.

Configuration is layered with koanf: built-in defaults, then an optional
YAML file, then environment variables. The file is found through
CONFIG_PATH or the first of DefaultConfigPaths that exists.

# Sections

  - server: HTTP listener, timeouts and CORS origins
  - logging: level, format and caller output
  - database: DuckDB path, memory limit and seed fixture
  - featurecache: Badger-backed cache in front of the feature provider
  - breaker: circuit breaker around the feature provider
  - events: NATS connection for catalog and interaction change events
  - warmer: background index refresh
  - recommend: scene weight tables and strategy parameters

# Environment Variables

Only names listed in the mapping table are read, for example HTTP_PORT,
LOG_LEVEL, DUCKDB_PATH, NATS_URL and RECOMMEND_ENABLED. List values such
as CORS_ORIGINS and RECOMMEND_ENABLED are comma-separated. Scene weight
tables can only be set in the YAML file:

	recommend:
	  scenes:
	    detail:
	      - name: content_based
	        weight: 0.6
	      - name: item_cf
	        weight: 0.4
*/
package config
