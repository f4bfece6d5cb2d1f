package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/IvanBrykalov/stripecache/internal/assert"
	"github.com/IvanBrykalov/stripecache/internal/util"
)

// LRU is a least-recently-used cache.
//
// Ordering lives in one intrusive list (head side = MRU, tail side = LRU)
// next to a key→entry table. Key stripes serialize operations on the same
// key; the structural lock mu serializes every table/list mutation, because
// a splice anywhere in the list touches shared neighbour links. Locks are
// always taken stripe first, mu second.
type LRU[K comparable, V any] struct {
	stripes []util.PaddedMutex
	hash    func(K) uint64

	// ---- guarded by mu ----
	mu    sync.RWMutex
	table map[K]*entry[K, V]
	order list[K, V]
	cap   int

	metrics Metrics
	size    sizeGauge
	logger  *slog.Logger

	hits   util.PaddedAtomicUint64
	misses util.PaddedAtomicUint64
	evicts util.PaddedAtomicUint64
}

// NewLRU constructs an LRU cache. Capacity must be positive.
func NewLRU[K comparable, V any](opt Options[K, V]) (*LRU[K, V], error) {
	if opt.Capacity <= 0 {
		return nil, fmt.Errorf("%w: lru capacity must be > 0, got %d", ErrInvalidArgument, opt.Capacity)
	}
	opt = opt.withDefaults()
	assert.That(util.IsPowerOfTwo(uint64(opt.Segments)), "lru: stripe count is not a power of two")

	c := &LRU[K, V]{
		stripes: make([]util.PaddedMutex, opt.Segments),
		hash:    opt.Hash,
		table:   make(map[K]*entry[K, V], opt.Capacity),
		cap:     opt.Capacity,
		metrics: opt.Metrics,
		logger:  opt.Logger,
	}
	c.order.init()

	c.logger.Info("cache created",
		slog.String("policy", "lru"),
		slog.Int("capacity", opt.Capacity),
		slog.Int("segments", opt.Segments))
	return c, nil
}

// Get returns the value for k and promotes it to MRU.
//
// Presence is checked under a read lock first so misses never contend on a
// stripe. A hit re-fetches the entry under the stripe and structural locks,
// since another goroutine may have evicted it in between.
func (c *LRU[K, V]) Get(k K) (V, bool) {
	var zero V
	if isNil(k) {
		return zero, false
	}

	c.mu.RLock()
	_, ok := c.table[k]
	c.mu.RUnlock()
	if !ok {
		c.miss()
		return zero, false
	}

	s := c.stripe(k)
	s.Lock()
	c.mu.Lock()
	n, ok := c.table[k]
	var v V
	if ok {
		c.order.moveToFront(n)
		v = n.val
	}
	c.mu.Unlock()
	s.Unlock()

	if !ok {
		c.miss()
		return zero, false
	}
	c.hits.Add(1)
	c.metrics.Hit()
	return v, true
}

// Put inserts or overwrites k→v as MRU. Inserting past capacity evicts the
// entry next to the tail sentinel in the same critical section, so the
// cache is never observed over capacity.
func (c *LRU[K, V]) Put(k K, v V) error {
	if err := checkEntry(k, v); err != nil {
		return err
	}

	s := c.stripe(k)
	s.Lock()
	c.mu.Lock()
	var victim *entry[K, V]
	if n, ok := c.table[k]; ok {
		n.val = v
		c.order.moveToFront(n)
	} else {
		n = &entry[K, V]{key: k, val: v}
		c.table[k] = n
		c.order.pushFront(n)
		if c.order.len > c.cap {
			victim = c.evictLocked()
		}
	}
	c.size.set(c.order.len)
	c.mu.Unlock()
	s.Unlock()

	if victim != nil {
		c.evicted(victim.key)
	}
	c.size.publish(c.metrics)
	return nil
}

// Len returns the number of resident entries.
func (c *LRU[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.order.len
}

// Cap returns the configured capacity.
func (c *LRU[K, V]) Cap() int { return c.cap }

// Keys returns a snapshot of resident keys from most to least recently used.
func (c *LRU[K, V]) Keys() []K {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.order.keys(make([]K, 0, c.order.len))
}

// Stats returns hit, miss and eviction counters.
func (c *LRU[K, V]) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evicts.Load(),
	}
}

// -------------------- internals --------------------

func (c *LRU[K, V]) stripe(k K) *util.PaddedMutex {
	return &c.stripes[util.StripeIndex(c.hash(k), len(c.stripes))]
}

// evictLocked unlinks the LRU entry from the list and the table (mu held).
func (c *LRU[K, V]) evictLocked() *entry[K, V] {
	n := c.order.back()
	assert.That(n != nil, "lru: over capacity with an empty list")
	if n == nil {
		return nil
	}
	c.order.remove(n)
	delete(c.table, n.key)
	return n
}

func (c *LRU[K, V]) miss() {
	c.misses.Add(1)
	c.metrics.Miss()
}

func (c *LRU[K, V]) evicted(k K) {
	c.evicts.Add(1)
	c.metrics.Evict()
	if c.logger.Enabled(context.Background(), slog.LevelDebug) {
		c.logger.LogAttrs(context.Background(), slog.LevelDebug, "evicted",
			slog.String("policy", "lru"), slog.Any("key", k))
	}
}

// checkInvariants walks the list both ways and cross-checks it against the
// table: one acyclic chain, every table key reachable exactly once, size
// within capacity.
func (c *LRU[K, V]) checkInvariants() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[K]struct{}, len(c.table))
	count := 0
	for n := c.order.head.next; n != &c.order.tail; n = n.next {
		if n == nil {
			return fmt.Errorf("lru: broken forward link after %d entries", count)
		}
		if n.prev.next != n {
			return fmt.Errorf("lru: prev/next mismatch at key %v", n.key)
		}
		if _, dup := seen[n.key]; dup {
			return fmt.Errorf("lru: key %v linked twice", n.key)
		}
		seen[n.key] = struct{}{}
		if c.table[n.key] != n {
			return fmt.Errorf("lru: key %v linked but table points elsewhere", n.key)
		}
		count++
		if count > len(c.table) {
			return fmt.Errorf("lru: list longer than table (%d)", len(c.table))
		}
	}

	back := 0
	for n := c.order.tail.prev; n != &c.order.head; n = n.prev {
		back++
		if back > count {
			return fmt.Errorf("lru: backward walk longer than forward walk (%d)", count)
		}
	}

	switch {
	case back != count:
		return fmt.Errorf("lru: backward walk %d != forward walk %d", back, count)
	case count != len(c.table):
		return fmt.Errorf("lru: %d linked entries, %d in table", count, len(c.table))
	case count != c.order.len:
		return fmt.Errorf("lru: size counter %d, linked entries %d", c.order.len, count)
	case count > c.cap:
		return fmt.Errorf("lru: size %d exceeds capacity %d", count, c.cap)
	case (count == 0) != c.order.empty():
		return fmt.Errorf("lru: empty-list sentinel state disagrees with size %d", count)
	}
	return nil
}

var _ Cache[string, int] = (*LRU[string, int])(nil)
