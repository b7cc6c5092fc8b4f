// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package recommend

import (
	"fmt"
	"time"

	"github.com/tomtom215/shoprec/internal/validation"
)

// DefaultScene is the weight table used when a request names an unknown scene.
const DefaultScene = "home"

// Config contains all configuration for the recommendation engine.
type Config struct {
	// Scenes maps a scene name to its ordered weight table.
	// Order matters: it breaks provenance ties between equally weighted strategies.
	Scenes map[string]WeightTable `json:"scenes" koanf:"scenes" validate:"required,min=1,dive,min=1,dive"`

	// Enabled lists the strategies the factory constructs.
	Enabled []string `json:"enabled" koanf:"enabled" validate:"required,min=1,dive,oneof=popular_items content_based item_cf user_cf"`

	// Popular contains parameters for the popularity strategy.
	Popular PopularConfig `json:"popular_items" koanf:"popular_items"`

	// Content contains parameters for the content-similarity strategy.
	Content ContentConfig `json:"content_based" koanf:"content_based"`

	// ItemCF contains parameters for item-to-item collaborative filtering.
	ItemCF ItemCFConfig `json:"item_cf" koanf:"item_cf"`

	// UserCF contains parameters for user-to-user collaborative filtering.
	UserCF UserCFConfig `json:"user_cf" koanf:"user_cf"`

	// Limits contains request limits.
	Limits LimitsConfig `json:"limits" koanf:"limits"`

	// Cache contains response cache parameters.
	Cache CacheConfig `json:"cache" koanf:"cache"`
}

// StrategyWeight is one row of a scene weight table.
type StrategyWeight struct {
	Name   string  `json:"name" koanf:"name" validate:"required"`
	Weight float64 `json:"weight" koanf:"weight" validate:"gte=0,lte=1"`
}

// WeightTable is an ordered list of strategy weights for a scene.
type WeightTable []StrategyWeight

// Weight returns the configured weight for name, or 0.
func (t WeightTable) Weight(name string) float64 {
	for _, w := range t {
		if w.Name == name {
			return w.Weight
		}
	}
	return 0
}

// PopularConfig contains parameters for the popularity strategy.
type PopularConfig struct {
	// RefreshInterval is the maximum index age before a rebuild.
	// Default: 24h.
	RefreshInterval time.Duration `json:"refresh_interval" koanf:"refresh_interval" validate:"gt=0"`

	// OverallLimit is the size of the overall ranking.
	// Default: 100.
	OverallLimit int `json:"overall_limit" koanf:"overall_limit" validate:"min=1"`

	// CategoryLimit is the size of each per-category ranking.
	// Default: 50.
	CategoryLimit int `json:"category_limit" koanf:"category_limit" validate:"min=1"`

	// DefaultCount applies when the request has no count.
	// Default: 10.
	DefaultCount int `json:"default_count" koanf:"default_count" validate:"min=1"`
}

// ContentConfig contains parameters for the content-similarity strategy.
type ContentConfig struct {
	// RefreshInterval is the maximum index age before a rebuild.
	// Default: 24h.
	RefreshInterval time.Duration `json:"refresh_interval" koanf:"refresh_interval" validate:"gt=0"`

	// MaxFeatures caps the vectorizer vocabulary.
	// Default: 5000.
	MaxFeatures int `json:"max_features" koanf:"max_features" validate:"min=1"`

	// NGramMax is the longest n-gram added to the vocabulary.
	// Default: 2 (unigrams and bigrams).
	NGramMax int `json:"ngram_max" koanf:"ngram_max" validate:"min=1,max=3"`

	// DefaultCount applies when the request has no count.
	// Default: 6.
	DefaultCount int `json:"default_count" koanf:"default_count" validate:"min=1"`
}

// ItemCFConfig contains parameters for item-to-item collaborative filtering.
type ItemCFConfig struct {
	// RefreshInterval is the maximum index age before a rebuild.
	// Default: 24h.
	RefreshInterval time.Duration `json:"refresh_interval" koanf:"refresh_interval" validate:"gt=0"`

	// MinCommonUsers is the minimum number of users who purchased both
	// items for a pair to be stored.
	// Default: 3.
	MinCommonUsers int `json:"min_common_users" koanf:"min_common_users" validate:"min=1"`

	// DefaultCount applies when the request has no count.
	// Default: 6.
	DefaultCount int `json:"default_count" koanf:"default_count" validate:"min=1"`
}

// UserCFConfig contains parameters for user-to-user collaborative filtering.
type UserCFConfig struct {
	// RefreshInterval is the maximum index age before a rebuild.
	// Default: 12h.
	RefreshInterval time.Duration `json:"refresh_interval" koanf:"refresh_interval" validate:"gt=0"`

	// MaxNeighbors is the number of neighbours kept per user.
	// Default: 50.
	MaxNeighbors int `json:"max_neighbors" koanf:"max_neighbors" validate:"min=1"`

	// MinSimilarity is the neighbour similarity threshold.
	// Default: 0.1.
	MinSimilarity float64 `json:"min_similarity" koanf:"min_similarity" validate:"gte=0,lte=1"`

	// EventWeights maps event kinds to matrix weights. Kinds with a zero
	// or missing weight do not contribute.
	// Default: purchase=1.0, add_to_cart=0.5, view=0.2.
	EventWeights map[EventKind]float64 `json:"event_weights" koanf:"event_weights" validate:"dive,keys,event_kind,endkeys,gte=0"`

	// NumWorkers bounds the parallelism of the neighbour computation.
	// Default: 4.
	NumWorkers int `json:"num_workers" koanf:"num_workers" validate:"min=1,max=64"`

	// DefaultCount applies when the request has no count.
	// Default: 8.
	DefaultCount int `json:"default_count" koanf:"default_count" validate:"min=1"`
}

// LimitsConfig contains request limits.
type LimitsConfig struct {
	// DefaultCount is the blended result size when the request has none.
	// Default: 10.
	DefaultCount int `json:"default_count" koanf:"default_count" validate:"min=1"`

	// MaxCount is the largest allowed result size.
	// Default: 50.
	MaxCount int `json:"max_count" koanf:"max_count" validate:"min=1"`

	// StrategyTimeout bounds a single strategy call, including any inline
	// refresh. Zero means only the caller's deadline applies.
	// Default: 0.
	StrategyTimeout time.Duration `json:"strategy_timeout" koanf:"strategy_timeout" validate:"gte=0"`
}

// CacheConfig contains response cache parameters.
type CacheConfig struct {
	// Enabled controls whether caching is active.
	// Default: true.
	Enabled bool `json:"enabled" koanf:"enabled"`

	// TTL is the cache entry time-to-live.
	// Default: 1h.
	TTL time.Duration `json:"ttl" koanf:"ttl" validate:"gte=0"`

	// MaxEntries is the maximum number of cached responses.
	// Default: 10000.
	MaxEntries int `json:"max_entries" koanf:"max_entries" validate:"gte=0"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		Scenes: map[string]WeightTable{
			"home": {
				{Name: StrategyUserCF, Weight: 0.5},
				{Name: StrategyPopular, Weight: 0.5},
			},
			"detail": {
				{Name: StrategyContent, Weight: 0.6},
				{Name: StrategyItemCF, Weight: 0.4},
			},
			"cart": {
				{Name: StrategyItemCF, Weight: 0.7},
				{Name: StrategyPopular, Weight: 0.3},
			},
			"category": {
				{Name: StrategyUserCF, Weight: 0.4},
				{Name: StrategyPopular, Weight: 0.3},
				{Name: StrategyContent, Weight: 0.3},
			},
			"search": {
				{Name: StrategyUserCF, Weight: 0.4},
				{Name: StrategyContent, Weight: 0.6},
			},
		},
		Enabled: []string{StrategyPopular, StrategyContent, StrategyItemCF, StrategyUserCF},
		Popular: PopularConfig{
			RefreshInterval: 24 * time.Hour,
			OverallLimit:    100,
			CategoryLimit:   50,
			DefaultCount:    10,
		},
		Content: ContentConfig{
			RefreshInterval: 24 * time.Hour,
			MaxFeatures:     5000,
			NGramMax:        2,
			DefaultCount:    6,
		},
		ItemCF: ItemCFConfig{
			RefreshInterval: 24 * time.Hour,
			MinCommonUsers:  3,
			DefaultCount:    6,
		},
		UserCF: UserCFConfig{
			RefreshInterval: 12 * time.Hour,
			MaxNeighbors:    50,
			MinSimilarity:   0.1,
			EventWeights: map[EventKind]float64{
				EventPurchase:  1.0,
				EventAddToCart: 0.5,
				EventView:      0.2,
			},
			NumWorkers:   4,
			DefaultCount: 8,
		},
		Limits: LimitsConfig{
			DefaultCount: 10,
			MaxCount:     50,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        time.Hour,
			MaxEntries: 10000,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	if _, ok := c.Scenes[DefaultScene]; !ok {
		return fmt.Errorf("scenes must define the %q table", DefaultScene)
	}

	for scene, table := range c.Scenes {
		seen := make(map[string]struct{}, len(table))
		for _, w := range table {
			if _, dup := seen[w.Name]; dup {
				return fmt.Errorf("scenes[%s]: strategy %q listed twice", scene, w.Name)
			}
			seen[w.Name] = struct{}{}
		}
	}

	if c.Limits.MaxCount < c.Limits.DefaultCount {
		return fmt.Errorf("limits.max_count must be >= limits.default_count, got %d < %d",
			c.Limits.MaxCount, c.Limits.DefaultCount)
	}

	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	out := *c

	out.Scenes = make(map[string]WeightTable, len(c.Scenes))
	for scene, table := range c.Scenes {
		out.Scenes[scene] = append(WeightTable(nil), table...)
	}

	out.Enabled = append([]string(nil), c.Enabled...)

	out.UserCF.EventWeights = make(map[EventKind]float64, len(c.UserCF.EventWeights))
	for k, w := range c.UserCF.EventWeights {
		out.UserCF.EventWeights[k] = w
	}

	return &out
}
