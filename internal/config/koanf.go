// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/shoprec/config.yaml",
	"/etc/shoprec/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Load reads configuration from layered sources:
//  1. Defaults: built-in values from defaultConfig
//  2. Config file: optional YAML file (CONFIG_PATH or DefaultConfigPaths)
//  3. Environment variables: the mapped names in envTransformFunc
//
// Later layers override earlier ones. The result is validated before it
// is returned.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// HTTP_PORT -> server.port, RECOMMEND_ENABLED -> recommend.enabled
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file that exists, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths are parsed as comma-separated lists when set from the environment.
var sliceConfigPaths = []string{
	"server.cors_origins",
	"recommend.enabled",
}

// processSliceFields converts comma-separated string values to slices.
// YAML lists are left untouched.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
// Scene weight tables are structured data and can only be set in the file.
var envMappings = map[string]string{
	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"request_timeout":       "server.request_timeout",
	"cors_origins":          "server.cors_origins",
	"environment":           "server.environment",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Database
	"duckdb_path":          "database.path",
	"duckdb_max_memory":    "database.max_memory",
	"duckdb_threads":       "database.threads",
	"duckdb_query_timeout": "database.query_timeout",
	"seed_path":            "database.seed_path",

	// Feature cache
	"feature_cache_enabled":     "featurecache.enabled",
	"feature_cache_path":        "featurecache.path",
	"feature_cache_items_ttl":   "featurecache.items_ttl",
	"feature_cache_default_ttl": "featurecache.default_ttl",

	// Circuit breaker
	"breaker_enabled":       "breaker.enabled",
	"breaker_max_requests":  "breaker.max_requests",
	"breaker_interval":      "breaker.interval",
	"breaker_timeout":       "breaker.timeout",
	"breaker_min_requests":  "breaker.min_requests",
	"breaker_failure_ratio": "breaker.failure_ratio",

	// Events
	"nats_enabled":        "events.enabled",
	"nats_url":            "events.url",
	"nats_jetstream":      "events.jetstream",
	"nats_durable_prefix": "events.durable_prefix",
	"nats_queue_group":    "events.queue_group",
	"nats_subscribers":    "events.subscribers_count",
	"nats_ack_wait":       "events.ack_wait_timeout",
	"nats_close_timeout":  "events.close_timeout",
	"nats_max_reconnects": "events.max_reconnects",
	"nats_reconnect_wait": "events.reconnect_wait",
	"nats_embedded":       "events.embedded",
	"nats_embedded_host":  "events.embedded_host",
	"nats_embedded_port":  "events.embedded_port",
	"nats_store_dir":      "events.store_dir",

	// Index warmer
	"warmer_enabled":    "warmer.enabled",
	"warmer_interval":   "warmer.interval",
	"warmer_on_startup": "warmer.on_startup",

	// Recommendation engine
	"recommend_enabled":          "recommend.enabled",
	"recommend_default_count":    "recommend.limits.default_count",
	"recommend_max_count":        "recommend.limits.max_count",
	"recommend_strategy_timeout": "recommend.limits.strategy_timeout",
	"recommend_cache_enabled":    "recommend.cache.enabled",
	"recommend_cache_ttl":        "recommend.cache.ttl",
	"recommend_cache_max":        "recommend.cache.max_entries",
	// Popularity
	"recommend_popular_refresh":        "recommend.popular_items.refresh_interval",
	"recommend_popular_overall_limit":  "recommend.popular_items.overall_limit",
	"recommend_popular_category_limit": "recommend.popular_items.category_limit",
	// Content similarity
	"recommend_content_refresh":      "recommend.content_based.refresh_interval",
	"recommend_content_max_features": "recommend.content_based.max_features",
	"recommend_content_ngram_max":    "recommend.content_based.ngram_max",
	// Item CF
	"recommend_itemcf_refresh":    "recommend.item_cf.refresh_interval",
	"recommend_itemcf_min_common": "recommend.item_cf.min_common_users",
	// User CF
	"recommend_usercf_refresh":        "recommend.user_cf.refresh_interval",
	"recommend_usercf_neighbors":      "recommend.user_cf.max_neighbors",
	"recommend_usercf_min_similarity": "recommend.user_cf.min_similarity",
	"recommend_usercf_workers":        "recommend.user_cf.num_workers",
}

// envTransformFunc maps an environment variable name to a koanf path.
// Unmapped names return "" so unrelated variables never leak into the config.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
