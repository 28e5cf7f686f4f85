package client

import (
	"sync"
	"time"
)

// Cache is a TTL cache keyed by request URL. Stale entries are evicted when
// read. It is safe for concurrent use.
type Cache[T any] struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]cacheItem[T]
}

type cacheItem[T any] struct {
	data      T
	expiresAt time.Time
}

func NewCache[T any](ttl time.Duration) *Cache[T] {
	return &Cache[T]{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]cacheItem[T]),
	}
}

// Get returns the cached value for key. A nil cache never hits.
func (c *Cache[T]) Get(key string) (T, bool) {
	var zero T
	if c == nil {
		return zero, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[key]
	if !ok {
		return zero, false
	}
	if !c.now().Before(item.expiresAt) {
		delete(c.items, key)
		return zero, false
	}
	return item.data, true
}

func (c *Cache[T]) Set(key string, data T) {
	if c == nil || c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = cacheItem[T]{data: data, expiresAt: c.now().Add(c.ttl)}
}

func (c *Cache[T]) Delete(key string) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Len counts entries, stale ones included until they are read.
func (c *Cache[T]) Len() int {
	if c == nil {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
