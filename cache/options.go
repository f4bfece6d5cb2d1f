package cache

import (
	"log/slog"

	"github.com/IvanBrykalov/stripecache/internal/util"
	"github.com/IvanBrykalov/stripecache/policy"
)

// Options configures a cache. Zero values are safe; defaults are applied by
// the constructors:
//   - Policy        => policy.LRU (only consulted by New)
//   - Segments <= 0 => 16 stripe locks (LRU only), otherwise rounded up to a power of two
//   - nil Hash      => util.Hash (xxhash, maphash for arbitrary comparable keys)
//   - nil Metrics   => NoopMetrics
//   - nil Logger    => discard
type Options[K comparable, V any] struct {
	// Capacity is the entry count limit. LRU rejects values <= 0;
	// LFU treats them as a permanently empty cache.
	Capacity int

	// Policy selects the replacement policy used by New.
	Policy policy.Kind

	// Segments is the number of key stripe locks used by LRU.
	Segments int

	// Hash maps a key to a stripe. It must be deterministic.
	Hash func(K) uint64

	// Metrics receives Hit/Miss/Evict/Size signals outside the cache locks.
	Metrics Metrics

	// Logger receives construction info and debug-level eviction records.
	Logger *slog.Logger
}

// withDefaults returns a copy of o with nil hooks replaced by defaults.
func (o Options[K, V]) withDefaults() Options[K, V] {
	if o.Hash == nil {
		o.Hash = util.Hash[K]
	}
	if o.Metrics == nil {
		o.Metrics = NoopMetrics{}
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	o.Segments = util.StripeCount(o.Segments)
	return o
}
