package scanner

import (
	"sync"
	"time"
)

// Cache holds one value with a TTL. Per-process and best-effort: a cold
// instance simply recomputes.
type Cache[T any] struct {
	mu    sync.RWMutex
	value T
	setAt time.Time
	ttl   time.Duration
}

// NewCache creates a cache with the given TTL.
func NewCache[T any](ttl time.Duration) *Cache[T] {
	return &Cache[T]{ttl: ttl}
}

// Get returns the cached value and its age when still fresh.
func (c *Cache[T]) Get() (value T, age time.Duration, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.setAt.IsZero() {
		return value, 0, false
	}
	age = time.Since(c.setAt)
	if age >= c.ttl {
		return value, 0, false
	}
	return c.value, age, true
}

// Put stores a fresh value.
func (c *Cache[T]) Put(value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = value
	c.setAt = time.Now()
}
