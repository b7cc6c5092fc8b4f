// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package provider

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/shoprec/internal/metrics"
	"github.com/tomtom215/shoprec/internal/recommend"
)

// Cache key prefixes. Keys are built as prefix[:arg...].
const (
	KeyAllItems        = "all_items"
	KeyCategories      = "categories"
	KeyPopularItems    = "popular_items"
	KeyPurchaseData    = "purchase_data"
	KeyInteractionData = "interaction_data"
	KeyUserItems       = "user_items"
)

// CatalogKeys are the prefixes derived from catalog data.
var CatalogKeys = []string{KeyAllItems, KeyCategories, KeyPopularItems}

// InteractionKeys are the prefixes derived from interaction data.
var InteractionKeys = []string{KeyPopularItems, KeyPurchaseData, KeyInteractionData, KeyUserItems}

// CacheConfig configures the feature cache TTLs.
type CacheConfig struct {
	// ItemsTTL applies to the full catalog.
	ItemsTTL time.Duration

	// DefaultTTL applies to every other call.
	DefaultTTL time.Duration
}

// DefaultCacheConfig caches the catalog for a day and everything else for an hour.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{ItemsTTL: 24 * time.Hour, DefaultTTL: time.Hour}
}

// OpenBadger opens the feature cache store. An empty path runs in memory.
func OpenBadger(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger feature cache: %w", err)
	}
	return db, nil
}

// CachedProvider is a read-through cache in front of a FeatureProvider.
// Cache failures are logged and the call falls through to the wrapped
// provider; wrapped provider errors are never cached.
type CachedProvider struct {
	next   recommend.FeatureProvider
	db     *badger.DB
	cfg    CacheConfig
	logger zerolog.Logger
}

var _ recommend.FeatureProvider = (*CachedProvider)(nil)

// NewCachedProvider wraps next with a cache stored in db.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewCachedProvider(next recommend.FeatureProvider, db *badger.DB, cfg CacheConfig, logger zerolog.Logger) *CachedProvider {
	defaults := DefaultCacheConfig()
	if cfg.ItemsTTL <= 0 {
		cfg.ItemsTTL = defaults.ItemsTTL
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = defaults.DefaultTTL
	}
	return &CachedProvider{
		next:   next,
		db:     db,
		cfg:    cfg,
		logger: logger.With().Str("component", "feature_cache").Logger(),
	}
}

// readThrough returns the cached value for key, or loads and stores it.
func readThrough[T any](ctx context.Context, c *CachedProvider, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	prefix, _, _ := strings.Cut(key, ":")

	var cached T
	hit, err := c.get(key, &cached)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Feature cache read failed")
	}
	metrics.RecordCacheLookup(prefix, hit)
	if hit {
		return cached, nil
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	if err := c.set(key, value, ttl); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Feature cache write failed")
	}
	return value, nil
}

func (c *CachedProvider) get(key string, dst any) (bool, error) {
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, dst)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *CachedProvider) set(key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(key), data).WithTTL(ttl))
	})
}

// Invalidate deletes every key starting with one of prefixes and returns
// the number of keys removed. With no prefixes the whole cache is cleared.
func (c *CachedProvider) Invalidate(_ context.Context, prefixes ...string) (int, error) {
	scopes := prefixes
	if len(scopes) == 0 {
		scopes = []string{""}
	}

	removed := 0
	err := c.db.Update(func(txn *badger.Txn) error {
		var keys [][]byte
		for _, prefix := range scopes {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = []byte(prefix)
			opts.PrefetchValues = false
			it := txn.NewIterator(opts)
			for it.Rewind(); it.Valid(); it.Next() {
				keys = append(keys, it.Item().KeyCopy(nil))
			}
			it.Close()
		}

		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("invalidate feature cache %v: %w", prefixes, err)
	}

	metrics.CacheEvictions.WithLabelValues("feature").Add(float64(removed))
	c.logger.Debug().Strs("prefixes", prefixes).Int("removed", removed).Msg("Feature cache invalidated")
	return removed, nil
}

// AllItems implements recommend.FeatureProvider.
func (c *CachedProvider) AllItems(ctx context.Context) ([]recommend.Item, error) {
	return readThrough(ctx, c, KeyAllItems, c.cfg.ItemsTTL, c.next.AllItems)
}

// Categories implements recommend.FeatureProvider.
func (c *CachedProvider) Categories(ctx context.Context) ([]string, error) {
	return readThrough(ctx, c, KeyCategories, c.cfg.DefaultTTL, c.next.Categories)
}

// PopularItems implements recommend.FeatureProvider.
func (c *CachedProvider) PopularItems(ctx context.Context, category string, limit int) ([]recommend.PopularItem, error) {
	scope := category
	if scope == "" {
		scope = "all"
	}
	key := KeyPopularItems + ":" + scope + ":" + strconv.Itoa(limit)
	return readThrough(ctx, c, key, c.cfg.DefaultTTL, func(ctx context.Context) ([]recommend.PopularItem, error) {
		return c.next.PopularItems(ctx, category, limit)
	})
}

// UserItems implements recommend.FeatureProvider.
func (c *CachedProvider) UserItems(ctx context.Context, userID string, kind recommend.EventKind) ([]string, error) {
	scope := string(kind)
	if scope == "" {
		scope = "any"
	}
	key := KeyUserItems + ":" + userID + ":" + scope
	return readThrough(ctx, c, key, c.cfg.DefaultTTL, func(ctx context.Context) ([]string, error) {
		return c.next.UserItems(ctx, userID, kind)
	})
}

// PurchaseData implements recommend.FeatureProvider.
func (c *CachedProvider) PurchaseData(ctx context.Context) ([]recommend.Purchase, error) {
	return readThrough(ctx, c, KeyPurchaseData, c.cfg.DefaultTTL, c.next.PurchaseData)
}

// InteractionData implements recommend.FeatureProvider.
func (c *CachedProvider) InteractionData(ctx context.Context) ([]recommend.UserItemEvent, error) {
	return readThrough(ctx, c, KeyInteractionData, c.cfg.DefaultTTL, c.next.InteractionData)
}
