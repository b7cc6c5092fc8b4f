// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package config

import (
	"time"

	"github.com/tomtom215/shoprec/internal/logging"
	"github.com/tomtom215/shoprec/internal/recommend"
)

// Config holds all application configuration.
type Config struct {
	Server       ServerConfig       `koanf:"server"`
	Logging      LoggingConfig      `koanf:"logging"`
	Database     DatabaseConfig     `koanf:"database"`
	FeatureCache FeatureCacheConfig `koanf:"featurecache"`
	Breaker      BreakerConfig      `koanf:"breaker"`
	Events       EventsConfig       `koanf:"events"`
	Warmer       WarmerConfig       `koanf:"warmer"`
	Recommend    recommend.Config   `koanf:"recommend"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	// RequestTimeout bounds a single recommendation request end to end.
	RequestTimeout time.Duration `koanf:"request_timeout"`
	CORSOrigins    []string      `koanf:"cors_origins"`
	Environment    string        `koanf:"environment"` // development or production
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`  // trace, debug, info, warn, error
	Format string `koanf:"format"` // json, console
	Caller bool   `koanf:"caller"`
}

// ToLogging converts the section to the logging package configuration.
func (l LoggingConfig) ToLogging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = l.Level
	cfg.Format = l.Format
	cfg.Caller = l.Caller
	return cfg
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the database file. ":memory:" or empty opens an in-memory database.
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()

	// SeedPath points to a JSON fixture with items and interactions that is
	// loaded when the catalog is empty.
	SeedPath string `koanf:"seed_path"`

	QueryTimeout time.Duration `koanf:"query_timeout"`
}

// FeatureCacheConfig holds settings for the Badger-backed feature cache.
type FeatureCacheConfig struct {
	Enabled bool `koanf:"enabled"`
	// Path is the Badger directory. Empty runs Badger in memory.
	Path       string        `koanf:"path"`
	ItemsTTL   time.Duration `koanf:"items_ttl"`
	DefaultTTL time.Duration `koanf:"default_ttl"`
}

// BreakerConfig holds circuit breaker settings for the feature provider.
type BreakerConfig struct {
	Enabled bool `koanf:"enabled"`
	// MaxRequests is the number of probes allowed while half-open.
	MaxRequests uint32 `koanf:"max_requests"`
	// Interval clears the counts while closed. Zero never clears them.
	Interval time.Duration `koanf:"interval"`
	// Timeout is how long the breaker stays open.
	Timeout      time.Duration `koanf:"timeout"`
	MinRequests  uint32        `koanf:"min_requests"`
	FailureRatio float64       `koanf:"failure_ratio"`
}

// EventsConfig holds catalog and interaction change notification settings.
type EventsConfig struct {
	// Enabled connects to NATS. When false, events stay in process.
	Enabled          bool          `koanf:"enabled"`
	URL              string        `koanf:"url"`
	JetStream        bool          `koanf:"jetstream"`
	DurablePrefix    string        `koanf:"durable_prefix"`
	QueueGroup       string        `koanf:"queue_group"`
	SubscribersCount int           `koanf:"subscribers_count"`
	AckWaitTimeout   time.Duration `koanf:"ack_wait_timeout"`
	CloseTimeout     time.Duration `koanf:"close_timeout"`
	MaxReconnects    int           `koanf:"max_reconnects"`
	ReconnectWait    time.Duration `koanf:"reconnect_wait"`

	// Embedded starts an in-process NATS server with JetStream and
	// connects to it instead of URL.
	Embedded     bool   `koanf:"embedded"`
	EmbeddedHost string `koanf:"embedded_host"`
	EmbeddedPort int    `koanf:"embedded_port"` // -1 picks a free port
	StoreDir     string `koanf:"store_dir"`     // empty uses a temp dir
}

// WarmerConfig holds settings for the background index warmer.
type WarmerConfig struct {
	Enabled bool `koanf:"enabled"`
	// Interval between refresh sweeps. Each sweep only rebuilds stale indexes.
	Interval time.Duration `koanf:"interval"`
	// OnStartup builds every index before the first sweep.
	OnStartup bool `koanf:"on_startup"`
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// defaultConfig returns a Config with every default applied.
// Defaults are loaded first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8090,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RequestTimeout:  2 * time.Second,
			CORSOrigins:     []string{"*"},
			Environment:     "development",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Database: DatabaseConfig{
			Path:         "/data/shoprec.duckdb",
			MaxMemory:    "1GB",
			QueryTimeout: 30 * time.Second,
		},
		FeatureCache: FeatureCacheConfig{
			Enabled:    true,
			ItemsTTL:   24 * time.Hour,
			DefaultTTL: time.Hour,
		},
		Breaker: BreakerConfig{
			Enabled:      true,
			MaxRequests:  1,
			Interval:     time.Minute,
			Timeout:      30 * time.Second,
			MinRequests:  10,
			FailureRatio: 0.6,
		},
		Events: EventsConfig{
			Enabled:          false,
			URL:              "nats://127.0.0.1:4222",
			JetStream:        true,
			DurablePrefix:    "shoprec",
			QueueGroup:       "shoprec",
			SubscribersCount: 1,
			AckWaitTimeout:   30 * time.Second,
			CloseTimeout:     30 * time.Second,
			MaxReconnects:    -1,
			ReconnectWait:    2 * time.Second,
			Embedded:         false,
			EmbeddedHost:     "127.0.0.1",
			EmbeddedPort:     4222,
			StoreDir:         "/data/nats/jetstream",
		},
		Warmer: WarmerConfig{
			Enabled:   true,
			Interval:  10 * time.Minute,
			OnStartup: true,
		},
		Recommend: *recommend.DefaultConfig(),
	}
}
