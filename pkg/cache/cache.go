// Package cache provides caching mechanisms for API responses
// to improve performance and reduce external API calls.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// TTLCache is a thread-safe, size-bounded cache with time-based expiration.
// An entry is unreadable once its TTL has elapsed; when the cache is full the
// oldest entry is evicted.
type TTLCache struct {
	lru *expirable.LRU[string, any]
	ttl time.Duration
}

// NewTTLCache creates a new cache holding at most maxItems entries, each
// living for ttl.
func NewTTLCache(maxItems int, ttl time.Duration) *TTLCache {
	if maxItems < 0 {
		maxItems = 0
	}
	return &TTLCache{
		lru: expirable.NewLRU[string, any](maxItems, nil, ttl),
		ttl: ttl,
	}
}

// Set adds an item to the cache with the default TTL
func (c *TTLCache) Set(key string, value any) {
	c.lru.Add(key, value)
}

// Get retrieves an item from the cache
// Returns the item and a bool indicating if the item was found
func (c *TTLCache) Get(key string) (any, bool) {
	return c.lru.Get(key)
}

// Delete removes an item from the cache
func (c *TTLCache) Delete(key string) {
	c.lru.Remove(key)
}

// Count returns the number of items in the cache
func (c *TTLCache) Count() int {
	return c.lru.Len()
}

// Clear removes all items from the cache
func (c *TTLCache) Clear() {
	c.lru.Purge()
}

// TTL returns the lifetime given to every entry.
func (c *TTLCache) TTL() time.Duration {
	return c.ttl
}
