package cache

// Store is a concurrent key-value store where an insert never replaces an
// entry that is already present. The first value stored for a key is the
// canonical one; every later GetOrSet for that key returns it.
type Store[K comparable, V any] interface {
	// Get returns the value stored for key.
	Get(key K) (V, bool)
	// GetOrSet stores value unless key is already present and returns the
	// stored value. loaded reports whether the value was already present.
	GetOrSet(key K, value V) (actual V, loaded bool)
	// Contains reports whether key is present without touching recency.
	Contains(key K) bool
	// Keys returns a snapshot of the stored keys. Order is unspecified.
	Keys() []K
	// Len returns the number of stored entries.
	Len() int
	// Purge removes every entry.
	Purge()
}
