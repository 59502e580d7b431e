// ABOUTME: In-memory cache with TTL-based expiration
// ABOUTME: Generic, mutex-guarded cache used for short-lived API responses

package cache

import (
	"log/slog"
	"sync"
	"time"
)

type entry[V any] struct {
	data      V
	expiresAt time.Time
}

// Cache holds values of a single type with a shared default TTL.
type Cache[V any] struct {
	mu    sync.Mutex
	store map[string]entry[V]
	ttl   time.Duration
}

func New[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		store: make(map[string]entry[V]),
		ttl:   ttl,
	}
}

func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.store[key]
	if !ok {
		slog.Debug("Cache miss", "key", key)
		return zero, false
	}

	if time.Now().After(e.expiresAt) {
		delete(c.store, key)
		slog.Debug("Cache expired", "key", key)
		return zero, false
	}

	slog.Debug("Cache hit", "key", key)
	return e.data, true
}

func (c *Cache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores a value with a custom TTL
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store[key] = entry[V]{
		data:      value,
		expiresAt: time.Now().Add(ttl),
	}
	slog.Debug("Cache set", "key", key, "ttl", ttl)
}

func (c *Cache[V]) Clear(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
}
