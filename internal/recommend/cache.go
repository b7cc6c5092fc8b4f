// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package recommend

import (
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/shoprec/internal/metrics"
)

// cacheEntry holds a cached recommendation response.
type cacheEntry struct {
	response  *Response
	expiresAt time.Time
}

// responseCache is a TTL map of blended responses with a size cap.
type responseCache struct {
	mu         sync.RWMutex
	entries    map[string]cacheEntry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

func newResponseCache(ttl time.Duration, maxEntries int) *responseCache {
	return &responseCache{
		entries:    make(map[string]cacheEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// cacheKey identifies a request by every input that changes its output.
func cacheKey(userID string, rc Context) string {
	return fmt.Sprintf("rec:%s:%s:%s:%s:%d", userID, rc.Scene, rc.ItemID, rc.CategoryID, rc.Count)
}

// get returns a copy of the cached response, or nil.
func (c *responseCache) get(key string) *Response {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || c.now().After(entry.expiresAt) {
		return nil
	}

	return copyResponse(entry.response)
}

// put stores resp under key, evicting expired and then oldest entries when full.
func (c *responseCache) put(key string, resp *Response) {
	if c.maxEntries <= 0 || c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictLocked()
	}

	c.entries[key] = cacheEntry{
		response:  copyResponse(resp),
		expiresAt: c.now().Add(c.ttl),
	}
	metrics.CacheSize.WithLabelValues("response").Set(float64(len(c.entries)))
}

// evictLocked removes expired entries, then the entry closest to expiry if
// the cache is still full. Must be called with mu held.
func (c *responseCache) evictLocked() {
	now := c.now()
	evicted := 0
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			evicted++
		}
	}

	if len(c.entries) >= c.maxEntries {
		var oldestKey string
		var oldest time.Time
		for key, entry := range c.entries {
			if oldestKey == "" || entry.expiresAt.Before(oldest) ||
				(entry.expiresAt.Equal(oldest) && key < oldestKey) {
				oldestKey, oldest = key, entry.expiresAt
			}
		}
		delete(c.entries, oldestKey)
		evicted++
	}

	metrics.CacheEvictions.WithLabelValues("response").Add(float64(evicted))
}

// clear removes every entry.
func (c *responseCache) clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.entries)
	c.entries = make(map[string]cacheEntry)
	metrics.CacheSize.WithLabelValues("response").Set(0)
	return n
}

// len returns the number of stored entries, expired or not.
func (c *responseCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// copyResponse copies the item slice so callers cannot mutate cached state.
func copyResponse(resp *Response) *Response {
	out := *resp
	out.Items = make([]Recommendation, len(resp.Items))
	copy(out.Items, resp.Items)
	return &out
}
