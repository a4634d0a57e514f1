package cache

import (
	"sync"
)

type mapStore[K comparable, V any] struct {
	mu   sync.RWMutex
	data map[K]V
}

// NewMapStore returns an unbounded Store guarded by a read-write mutex.
// Readers never block each other.
func NewMapStore[K comparable, V any]() Store[K, V] {
	return &mapStore[K, V]{
		data: make(map[K]V, 64),
	}
}

func (c *mapStore[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.data[key]
	return v, ok
}

func (c *mapStore[K, V]) GetOrSet(key K, value V) (V, bool) {
	c.mu.RLock()
	if existing, ok := c.data[key]; ok {
		c.mu.RUnlock()
		return existing, true
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock
	if existing, ok := c.data[key]; ok {
		return existing, true
	}
	c.data[key] = value
	return value, false
}

func (c *mapStore[K, V]) Contains(key K) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.data[key]
	return ok
}

func (c *mapStore[K, V]) Keys() []K {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]K, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}
	return keys
}

func (c *mapStore[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

func (c *mapStore[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.data)
}
