// Package cache provides a generic, thread-safe LRU cache with metrics,
// used to memoize resolved definitions during compilation.
package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
)

// Cache is a generic thread-safe LRU cache. When full, the least recently
// used entry is evicted.
type Cache[K comparable, V any] struct {
	mu       sync.RWMutex
	items    map[K]*entry[K, V]
	order    *list.List
	capacity int

	// Metrics (lock-free using atomics)
	hits   atomic.Uint64
	misses atomic.Uint64
	evicts atomic.Uint64
}

type entry[K comparable, V any] struct {
	key     K
	value   V
	element *list.Element
}

// New creates a Cache with the specified capacity.
func New[K comparable, V any](capacity int) *Cache[K, V] {
	if capacity <= 0 {
		capacity = 100
	}
	return &Cache[K, V]{
		items:    make(map[K]*entry[K, V], capacity),
		order:    list.New(),
		capacity: capacity,
	}
}

// Get retrieves a value. Accessing an entry marks it most recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()

	if !ok {
		c.misses.Add(1)
		var zero V
		return zero, false
	}

	c.hits.Add(1)

	c.mu.Lock()
	c.order.MoveToFront(e.element)
	c.mu.Unlock()

	return e.value, true
}

// Set adds or updates a value, evicting the least recently used entry when
// the cache is at capacity.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.items[key]; ok {
		e.value = value
		c.order.MoveToFront(e.element)
		return
	}

	if len(c.items) >= c.capacity {
		c.evictOldest()
	}

	element := c.order.PushFront(key)
	c.items[key] = &entry[K, V]{
		key:     key,
		value:   value,
		element: element,
	}
}

// evictOldest removes the least recently used entry.
// Must be called with mu held.
func (c *Cache[K, V]) evictOldest() {
	back := c.order.Back()
	if back == nil {
		return
	}
	key := back.Value.(K)
	c.order.Remove(back)
	delete(c.items, key)
	c.evicts.Add(1)
}

// Len returns the number of cached entries.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Clear removes every entry without resetting metrics.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]*entry[K, V], c.capacity)
	c.order.Init()
}

// Stats reports cumulative cache metrics.
type Stats struct {
	Hits   uint64
	Misses uint64
	Evicts uint64
}

// Stats returns the cache's cumulative metrics.
func (c *Cache[K, V]) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Evicts: c.evicts.Load(),
	}
}
