package cache

import (
	"sync"
	"sync/atomic"
)

// Metrics exposes cache-level observability hooks.
// Implementations must be safe for concurrent use. Hooks are always invoked
// after the cache has released its locks. Size calls are serialized per
// cache and always carry the entry count current at call time, so the last
// Size observed matches the cache once writers go quiet.
type Metrics interface {
	Hit()
	Miss()
	Evict()
	Size(entries int)
}

// NoopMetrics is a drop-in Metrics implementation that does nothing.
// It is the default when no observability backend is configured.
type NoopMetrics struct{}

func (NoopMetrics) Hit()     {}
func (NoopMetrics) Miss()    {}
func (NoopMetrics) Evict()   {}
func (NoopMetrics) Size(int) {}

// Ensure NoopMetrics implements the Metrics interface at compile time.
var _ Metrics = NoopMetrics{}

// Tee fans every hook out to each non-nil m, in order.
func Tee(ms ...Metrics) Metrics {
	out := make(tee, 0, len(ms))
	for _, m := range ms {
		if m != nil {
			out = append(out, m)
		}
	}
	switch len(out) {
	case 0:
		return NoopMetrics{}
	case 1:
		return out[0]
	}
	return out
}

type tee []Metrics

func (t tee) Hit() {
	for _, m := range t {
		m.Hit()
	}
}

func (t tee) Miss() {
	for _, m := range t {
		m.Miss()
	}
}

func (t tee) Evict() {
	for _, m := range t {
		m.Evict()
	}
}

func (t tee) Size(entries int) {
	for _, m := range t {
		m.Size(entries)
	}
}

// sizeGauge publishes the entry count outside the cache locks. The count is
// stored while the structural lock is held; publish re-reads it under its
// own mutex, so concurrent publishers cannot leave a stale value behind.
type sizeGauge struct {
	mu sync.Mutex
	n  atomic.Int64
}

func (g *sizeGauge) set(n int) { g.n.Store(int64(n)) }

func (g *sizeGauge) publish(m Metrics) {
	g.mu.Lock()
	m.Size(int(g.n.Load()))
	g.mu.Unlock()
}
