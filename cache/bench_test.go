package cache

import (
	"math/rand"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/IvanBrykalov/stripecache/policy"
)

// benchmarkMix exercises a read/write mix against a warm cache.
// RunParallel spawns GOMAXPROCS goroutines. String keys include
// strconv/concat costs, which is fine for an end-to-end number.
func benchmarkMix(b *testing.B, kind policy.Kind, readsPct int) {
	c, err := New[string, string](Options[string, string]{
		Capacity: 100_000,
		Policy:   kind,
	})
	if err != nil {
		b.Fatal(err)
	}

	// Preload half the capacity to get a realistic hit-rate.
	for i := 0; i < 50_000; i++ {
		_ = c.Put("k:"+strconv.Itoa(i), "v")
	}

	b.ReportAllocs()
	b.ResetTimer()

	var seed int64 = 1
	keyMask := (1 << 16) - 1

	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(atomic.AddInt64(&seed, 1)))
		i := 0
		for pb.Next() {
			k := "k:" + strconv.Itoa(i&keyMask)
			if r.Intn(100) < readsPct {
				c.Get(k)
			} else {
				_ = c.Put(k, "v")
			}
			i++
		}
	})
}

func BenchmarkLRU_90r10w(b *testing.B) { benchmarkMix(b, policy.LRU, 90) }
func BenchmarkLRU_50r50w(b *testing.B) { benchmarkMix(b, policy.LRU, 50) }
func BenchmarkLFU_90r10w(b *testing.B) { benchmarkMix(b, policy.LFU, 90) }
func BenchmarkLFU_50r50w(b *testing.B) { benchmarkMix(b, policy.LFU, 50) }

// Same workload with int keys: no strconv noise, exposes the lock path.
func benchmarkMixInt(b *testing.B, kind policy.Kind, readsPct int) {
	c, err := New[int, int](Options[int, int]{
		Capacity: 100_000,
		Policy:   kind,
	})
	if err != nil {
		b.Fatal(err)
	}
	for i := 0; i < 50_000; i++ {
		_ = c.Put(i, 1)
	}

	b.ReportAllocs()
	b.ResetTimer()

	var seed int64 = 1
	keyMask := (1 << 16) - 1

	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(atomic.AddInt64(&seed, 1)))
		i := 0
		for pb.Next() {
			k := i & keyMask
			if r.Intn(100) < readsPct {
				c.Get(k)
			} else {
				_ = c.Put(k, 1)
			}
			i++
		}
	})
}

func BenchmarkLRU_IntKeys_90r10w(b *testing.B) { benchmarkMixInt(b, policy.LRU, 90) }
func BenchmarkLRU_IntKeys_50r50w(b *testing.B) { benchmarkMixInt(b, policy.LRU, 50) }
func BenchmarkLFU_IntKeys_90r10w(b *testing.B) { benchmarkMixInt(b, policy.LFU, 90) }
func BenchmarkLFU_IntKeys_50r50w(b *testing.B) { benchmarkMixInt(b, policy.LFU, 50) }

// Miss-only reads never leave the LRU read lock.
func BenchmarkLRU_Miss(b *testing.B) {
	c, err := NewLRU[int, int](Options[int, int]{Capacity: 1024})
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		i := 1 << 20
		for pb.Next() {
			c.Get(i)
			i++
		}
	})
}
