// Package respcache provides the bounded TTL response cache keyed by
// request fingerprints.
//
// Entries are evicted lazily on TTL expiry (an expired entry reads as
// absent) and eagerly by least-recently-used order when the cache is at
// capacity. A hit promotes the entry to most-recently-used.
package respcache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache is a thread-safe LRU+TTL cache. The zero value is not usable;
// construct with New.
type Cache[V any] struct {
	lru *expirable.LRU[string, V]
}

// New creates a cache holding at most maxEntries values, each valid for ttl
// after insertion.
func New[V any](ttl time.Duration, maxEntries int) *Cache[V] {
	return &Cache[V]{
		lru: expirable.NewLRU[string, V](maxEntries, nil, ttl),
	}
}

// Get returns the cached value for key. An entry past its TTL is treated as
// absent; a live entry is promoted to most-recently-used.
func (c *Cache[V]) Get(key string) (V, bool) {
	return c.lru.Get(key)
}

// Put stores value under key, evicting the least-recently-used entry first
// when the cache is at capacity.
func (c *Cache[V]) Put(key string, value V) {
	c.lru.Add(key, value)
}

// Clear removes all entries.
func (c *Cache[V]) Clear() {
	c.lru.Purge()
}

// Len returns the number of live entries.
func (c *Cache[V]) Len() int {
	return c.lru.Len()
}
