package cache

// Cache is the capability set shared by every replacement policy.
// All methods are safe for concurrent use by multiple goroutines, and
// callers can swap LRU for LFU without code changes.
type Cache[K comparable, V any] interface {
	// Get returns the value for k and whether it was present.
	// A hit updates the policy's ordering metadata (recency or frequency).
	// A miss is a normal result, never an error.
	Get(k K) (V, bool)

	// Put inserts or overwrites k→v, evicting the policy's victim when the
	// cache would otherwise exceed its capacity. Eviction is silent.
	// A nil key or value is rejected with ErrInvalidArgument before any
	// shared state is touched.
	Put(k K, v V) error

	// Len returns the number of resident entries.
	Len() int
}

// Stats is a point-in-time snapshot of a cache's counters.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}
