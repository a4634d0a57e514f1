package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LRUStore is a bounded Store. When full, the least recently used entry is
// evicted and onEvict (if set) is called with it.
type LRUStore[K comparable, V any] struct {
	cache *lru.Cache[K, V]
}

// NewLRUStore creates a bounded store holding at most size entries.
func NewLRUStore[K comparable, V any](size int, onEvict func(K, V)) (*LRUStore[K, V], error) {
	if size <= 0 {
		return nil, fmt.Errorf("lru store size must be positive, got %d", size)
	}

	var (
		c   *lru.Cache[K, V]
		err error
	)
	if onEvict != nil {
		c, err = lru.NewWithEvict(size, onEvict)
	} else {
		c, err = lru.New[K, V](size)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create lru store: %w", err)
	}

	return &LRUStore[K, V]{cache: c}, nil
}

func (s *LRUStore[K, V]) Get(key K) (V, bool) {
	return s.cache.Get(key)
}

// GetOrSet relies on PeekOrAdd, which checks and inserts under the cache's
// own lock, so concurrent callers converge on a single stored value.
func (s *LRUStore[K, V]) GetOrSet(key K, value V) (V, bool) {
	previous, ok, _ := s.cache.PeekOrAdd(key, value)
	if ok {
		// Refresh recency for the winner
		s.cache.Get(key)
		return previous, true
	}
	return value, false
}

func (s *LRUStore[K, V]) Contains(key K) bool {
	return s.cache.Contains(key)
}

func (s *LRUStore[K, V]) Keys() []K {
	return s.cache.Keys()
}

func (s *LRUStore[K, V]) Len() int {
	return s.cache.Len()
}

// Purge triggers the eviction callback for every entry.
func (s *LRUStore[K, V]) Purge() {
	s.cache.Purge()
}
