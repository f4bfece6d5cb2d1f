// Package cache provides process-local, concurrent, capacity-bounded
// key/value caches with two replacement policies behind one interface.
//
// Design
//
//   - LRU: a key→entry table plus an intrusive MRU↔LRU doubly linked list
//     bounded by head/tail sentinels. Operations on the same key are
//     serialized by one of a fixed array of stripe locks (16 by default,
//     chosen by hashing the key); list splices, the table and the size are
//     serialized by a separate structural lock, always taken after the
//     stripe. The victim is the entry next to the tail sentinel.
//
//   - LFU: a key→entry table plus frequency buckets (FIFO lists keyed by
//     access count) and the lowest populated frequency. A single mutex
//     guards all of it. The victim is the oldest entry of the lowest
//     frequency bucket; eviction happens before the new key is admitted.
//
//   - Both implement Cache, so callers can switch policy through
//     Options.Policy without code changes.
//
// Errors
//
// Nil keys and values are rejected with ErrInvalidArgument. LRU requires a
// positive capacity; LFU with a non-positive capacity is a valid, always
// empty cache. A missing key is a normal miss, not an error.
//
// Basic usage
//
//	c, err := cache.New[string, string](cache.Options[string, string]{
//	    Capacity: 10_000,
//	    Policy:   policy.LFU,
//	})
//	if err != nil {
//	    return err
//	}
//	_ = c.Put("a", "1")
//	if v, ok := c.Get("a"); ok {
//	    _ = v
//	}
//
// Read-through loading
//
//	rt, _ := cache.NewReadThrough(c, func(ctx context.Context, k string) (string, error) {
//	    return fetch(ctx, k)
//	})
//	v, err := rt.Get(ctx, "key")
//
// Metrics and logging
//
// Options.Metrics receives Hit/Miss/Evict/Size signals (see metrics/prom and
// metrics/otel); Options.Logger receives debug-level eviction records. Both
// are invoked after locks are released.
//
// Invariant assertions inside the ordering structures are compiled in with
// the cachedebug build tag.
package cache
