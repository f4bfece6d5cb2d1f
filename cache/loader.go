package cache

import (
	"context"

	"github.com/IvanBrykalov/stripecache/internal/singleflight"
)

// LoadFunc fetches the value for k on a cache miss.
type LoadFunc[K comparable, V any] func(ctx context.Context, k K) (V, error)

// ReadThrough wraps a Cache and fills misses from a LoadFunc, running at
// most one load per key at a time. Concurrent callers for the same key share
// the leader's result.
type ReadThrough[K comparable, V any] struct {
	c    Cache[K, V]
	load LoadFunc[K, V]
	sf   singleflight.Group[K, V]
}

// NewReadThrough binds load to c. A nil load returns ErrNoLoader.
func NewReadThrough[K comparable, V any](c Cache[K, V], load LoadFunc[K, V]) (*ReadThrough[K, V], error) {
	if load == nil {
		return nil, ErrNoLoader
	}
	return &ReadThrough[K, V]{c: c, load: load}, nil
}

// Get returns the cached value for k, loading and storing it on a miss.
// Load errors are returned as-is and nothing is cached. If ctx is cancelled
// while waiting on another caller's load, Get returns ctx.Err() and the
// load keeps running.
func (r *ReadThrough[K, V]) Get(ctx context.Context, k K) (V, error) {
	if v, ok := r.c.Get(k); ok {
		return v, nil
	}
	if isNil(k) {
		var zero V
		return zero, errNilKey
	}

	return r.sf.Do(ctx, k, func() (V, error) {
		// double-check after winning the flight
		if v, ok := r.c.Get(k); ok {
			return v, nil
		}
		v, err := r.load(ctx, k)
		if err != nil {
			return v, err
		}
		if err := r.c.Put(k, v); err != nil {
			var zero V
			return zero, err
		}
		return v, nil
	})
}

// Cache returns the wrapped cache.
func (r *ReadThrough[K, V]) Cache() Cache[K, V] { return r.c }
