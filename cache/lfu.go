package cache

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/IvanBrykalov/stripecache/internal/assert"
	"github.com/IvanBrykalov/stripecache/internal/util"
)

// LFU is a least-frequently-used cache with O(1) eviction.
//
// Entries are grouped into FIFO buckets by access count; minFreq tracks the
// lowest populated bucket so the victim is always the front of
// buckets[minFreq]. One mutex guards the table, the buckets and minFreq:
// bucket migration and minFreq tracking do not stripe cleanly.
type LFU[K comparable, V any] struct {
	// ---- guarded by mu ----
	mu      sync.Mutex
	table   map[K]*entry[K, V]
	buckets map[int]*list[K, V]
	minFreq int
	cap     int

	metrics Metrics
	size    sizeGauge
	logger  *slog.Logger

	hits   util.PaddedAtomicUint64
	misses util.PaddedAtomicUint64
	evicts util.PaddedAtomicUint64
}

// NewLFU constructs an LFU cache. It never fails: a non-positive capacity
// yields a cache whose Put is a no-op and whose Get always misses.
func NewLFU[K comparable, V any](opt Options[K, V]) *LFU[K, V] {
	opt = opt.withDefaults()
	size := max(opt.Capacity, 0)
	c := &LFU[K, V]{
		table:   make(map[K]*entry[K, V], size),
		buckets: make(map[int]*list[K, V]),
		cap:     opt.Capacity,
		metrics: opt.Metrics,
		logger:  opt.Logger,
	}
	if opt.Capacity <= 0 {
		c.logger.Warn("lfu cache has no capacity; Put is a no-op", slog.Int("capacity", opt.Capacity))
	}
	c.logger.Info("cache created", slog.String("policy", "lfu"), slog.Int("capacity", opt.Capacity))
	return c
}

// Get returns the value for k and bumps its frequency by one.
func (c *LFU[K, V]) Get(k K) (V, bool) {
	var zero V
	if isNil(k) {
		return zero, false
	}

	c.mu.Lock()
	n, ok := c.table[k]
	var v V
	if ok {
		c.touchLocked(n)
		v = n.val
	}
	c.mu.Unlock()

	if !ok {
		c.misses.Add(1)
		c.metrics.Miss()
		return zero, false
	}
	c.hits.Add(1)
	c.metrics.Hit()
	return v, true
}

// Put inserts or overwrites k→v. Overwriting counts as an access. Inserting
// a new key into a full cache evicts first, then admits the key at
// frequency 1, so the size never exceeds capacity even transiently.
func (c *LFU[K, V]) Put(k K, v V) error {
	if err := checkEntry(k, v); err != nil {
		return err
	}
	if c.cap <= 0 {
		return nil
	}

	c.mu.Lock()
	var victim *entry[K, V]
	if n, ok := c.table[k]; ok {
		n.val = v
		c.touchLocked(n)
	} else {
		if len(c.table) >= c.cap {
			victim = c.evictLocked()
		}
		n = &entry[K, V]{key: k, val: v, freq: 1}
		c.table[k] = n
		c.bucket(1).pushBack(n)
		c.minFreq = 1
	}
	c.size.set(len(c.table))
	c.mu.Unlock()

	if victim != nil {
		c.evicts.Add(1)
		c.metrics.Evict()
		if c.logger.Enabled(context.Background(), slog.LevelDebug) {
			c.logger.LogAttrs(context.Background(), slog.LevelDebug, "evicted",
				slog.String("policy", "lfu"), slog.Any("key", victim.key), slog.Int("freq", victim.freq))
		}
	}
	c.size.publish(c.metrics)
	return nil
}

// Len returns the number of resident entries.
func (c *LFU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.table)
}

// Cap returns the configured capacity.
func (c *LFU[K, V]) Cap() int { return c.cap }

// Keys returns a snapshot of resident keys in eviction order: lowest
// frequency first, oldest first within a frequency.
func (c *LFU[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	freqs := make([]int, 0, len(c.buckets))
	for f := range c.buckets {
		freqs = append(freqs, f)
	}
	slices.Sort(freqs)

	keys := make([]K, 0, len(c.table))
	for _, f := range freqs {
		keys = c.buckets[f].keys(keys)
	}
	return keys
}

// Stats returns hit, miss and eviction counters.
func (c *LFU[K, V]) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evicts.Load(),
	}
}

// -------------------- internals (mu held) --------------------

// bucket returns the list for freq f, creating it on demand.
func (c *LFU[K, V]) bucket(f int) *list[K, V] {
	b, ok := c.buckets[f]
	if !ok {
		b = new(list[K, V]).init()
		c.buckets[f] = b
	}
	return b
}

// touchLocked moves n from its bucket to the back of the next one, dropping
// the old bucket when it empties and advancing minFreq past it.
func (c *LFU[K, V]) touchLocked(n *entry[K, V]) {
	old := c.buckets[n.freq]
	assert.That(old != nil, "lfu: entry frequency has no bucket")
	old.remove(n)
	if old.empty() {
		delete(c.buckets, n.freq)
		if c.minFreq == n.freq {
			c.minFreq++
		}
	}
	n.freq++
	c.bucket(n.freq).pushBack(n)
}

// evictLocked removes the oldest entry of the lowest-frequency bucket.
func (c *LFU[K, V]) evictLocked() *entry[K, V] {
	b := c.buckets[c.minFreq]
	assert.That(b != nil && !b.empty(), "lfu: minFreq bucket missing on a full cache")
	if b == nil {
		return nil
	}
	n := b.front()
	b.remove(n)
	if b.empty() {
		delete(c.buckets, c.minFreq)
	}
	delete(c.table, n.key)
	return n
}

// checkInvariants verifies bucket membership, link consistency, minFreq and
// that every table key is linked exactly once.
func (c *LFU[K, V]) checkInvariants() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cap <= 0 && len(c.table) != 0 {
		return fmt.Errorf("lfu: zero-capacity cache holds %d entries", len(c.table))
	}
	if c.cap > 0 && len(c.table) > c.cap {
		return fmt.Errorf("lfu: size %d exceeds capacity %d", len(c.table), c.cap)
	}

	seen := make(map[K]struct{}, len(c.table))
	lowest := 0
	for f, b := range c.buckets {
		if b.empty() {
			return fmt.Errorf("lfu: empty bucket %d kept", f)
		}
		if lowest == 0 || f < lowest {
			lowest = f
		}
		count := 0
		for n := b.head.next; n != &b.tail; n = n.next {
			if n.prev.next != n {
				return fmt.Errorf("lfu: prev/next mismatch at key %v", n.key)
			}
			if n.freq != f {
				return fmt.Errorf("lfu: key %v with freq %d in bucket %d", n.key, n.freq, f)
			}
			if _, dup := seen[n.key]; dup {
				return fmt.Errorf("lfu: key %v linked twice", n.key)
			}
			seen[n.key] = struct{}{}
			if c.table[n.key] != n {
				return fmt.Errorf("lfu: key %v linked but table points elsewhere", n.key)
			}
			count++
		}
		if count != b.len {
			return fmt.Errorf("lfu: bucket %d len %d, linked %d", f, b.len, count)
		}
	}
	if len(seen) != len(c.table) {
		return fmt.Errorf("lfu: %d linked entries, %d in table", len(seen), len(c.table))
	}
	if len(c.table) > 0 && c.minFreq != lowest {
		return fmt.Errorf("lfu: minFreq %d, lowest bucket %d", c.minFreq, lowest)
	}
	return nil
}

var _ Cache[string, int] = (*LFU[string, int])(nil)
