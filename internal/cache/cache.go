// Package cache provides a typed, size-bounded cache with per-entry expiry,
// backed by hashicorp/golang-lru.
package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

// DefaultSize bounds caches created with New.
const DefaultSize = 1024

type item[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is an LRU cache whose entries expire after a TTL.
type Cache[K comparable, V any] struct {
	lru        *lru.Cache
	defaultTTL time.Duration
	now        func() time.Time
}

// New creates a cache holding up to DefaultSize entries.
func New[K comparable, V any](defaultTTL time.Duration) *Cache[K, V] {
	c, err := NewWithSize[K, V](DefaultSize, defaultTTL)
	if err != nil {
		panic("cache: " + err.Error())
	}
	return c
}

// NewWithSize creates a cache holding up to size entries.
func NewWithSize[K comparable, V any](size int, defaultTTL time.Duration) (*Cache[K, V], error) {
	l, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Cache[K, V]{lru: l, defaultTTL: defaultTTL, now: time.Now}, nil
}

// Get returns the value for key if present and not expired.
func (c *Cache[K, V]) Get(_ context.Context, key K) (V, bool) {
	var zero V

	raw, ok := c.lru.Get(key)
	if !ok {
		return zero, false
	}

	it := raw.(item[V])
	if !it.expiresAt.IsZero() && c.now().After(it.expiresAt) {
		c.lru.Remove(key)
		return zero, false
	}
	return it.value, true
}

// Set stores value under key. A ttl of zero uses the cache default; a
// negative ttl stores the entry without expiry.
func (c *Cache[K, V]) Set(_ context.Context, key K, value V, ttl time.Duration) {
	if ttl == 0 {
		ttl = c.defaultTTL
	}

	it := item[V]{value: value}
	if ttl > 0 {
		it.expiresAt = c.now().Add(ttl)
	}
	c.lru.Add(key, it)
}

// Delete removes key.
func (c *Cache[K, V]) Delete(_ context.Context, key K) {
	c.lru.Remove(key)
}

// Len returns the number of entries, expired ones included.
func (c *Cache[K, V]) Len() int {
	return c.lru.Len()
}

// Close drops every entry.
func (c *Cache[K, V]) Close() {
	c.lru.Purge()
}
