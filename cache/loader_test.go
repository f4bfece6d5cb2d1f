package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IvanBrykalov/stripecache/policy"
)

func TestReadThrough_NoLoader(t *testing.T) {
	t.Parallel()

	c := newTestCache[string, string](t, policy.LRU, 2)
	rt, err := NewReadThrough(c, nil)
	assert.Nil(t, rt)
	assert.ErrorIs(t, err, ErrNoLoader)
}

func TestReadThrough_LoadsOnceThenHits(t *testing.T) {
	t.Parallel()

	for _, kind := range []policy.Kind{policy.LRU, policy.LFU} {
		t.Run(kind.String(), func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int64
			c := newTestCache[string, int](t, kind, 4)
			rt, err := NewReadThrough(c, func(_ context.Context, k string) (int, error) {
				calls.Add(1)
				return len(k), nil
			})
			require.NoError(t, err)
			assert.Same(t, c, rt.Cache())

			v, err := rt.Get(context.Background(), "abc")
			require.NoError(t, err)
			assert.Equal(t, 3, v)

			v, err = rt.Get(context.Background(), "abc")
			require.NoError(t, err)
			assert.Equal(t, 3, v)
			assert.Equal(t, int64(1), calls.Load())
			assert.Equal(t, 1, c.Len())
		})
	}
}

// A failed load is reported and not cached; the next call retries.
func TestReadThrough_ErrorNotCached(t *testing.T) {
	t.Parallel()

	boom := errors.New("backend down")
	var fail atomic.Bool
	fail.Store(true)

	c := newTestCache[string, string](t, policy.LRU, 2)
	rt, err := NewReadThrough(c, func(_ context.Context, k string) (string, error) {
		if fail.Load() {
			return "", boom
		}
		return "v:" + k, nil
	})
	require.NoError(t, err)

	_, err = rt.Get(context.Background(), "k")
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, c.Len())

	fail.Store(false)
	v, err := rt.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "v:k", v)
}

func TestReadThrough_NilKeyOrValue(t *testing.T) {
	t.Parallel()

	c := newTestCache[*int, []byte](t, policy.LFU, 2)
	rt, err := NewReadThrough(c, func(context.Context, *int) ([]byte, error) {
		return nil, nil
	})
	require.NoError(t, err)

	_, err = rt.Get(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	// a loader producing nil cannot be stored
	k := new(int)
	_, err = rt.Get(context.Background(), k)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Zero(t, c.Len())
}

// A follower that gives up returns its own ctx error; the leader still
// completes and fills the cache.
func TestReadThrough_FollowerCancel(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{})
	c := newTestCache[string, string](t, policy.LRU, 2)
	rt, err := NewReadThrough(c, func(_ context.Context, k string) (string, error) {
		close(started)
		<-release
		return "v:" + k, nil
	})
	require.NoError(t, err)

	leader := make(chan error, 1)
	go func() {
		_, err := rt.Get(context.Background(), "k")
		leader <- err
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = rt.Get(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	require.NoError(t, <-leader)
	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v:k", v)
}
