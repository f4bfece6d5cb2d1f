package cache

import (
	"testing"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// lfuModel is a brute-force LFU: the victim is the entry with the lowest
// frequency, oldest arrival at that frequency first.
type lfuModel struct {
	cap   int
	clock uint64
	vals  map[byte]int
	freq  map[byte]int
	stamp map[byte]uint64
}

func newLFUModel(capacity int) *lfuModel {
	return &lfuModel{
		cap:   capacity,
		vals:  map[byte]int{},
		freq:  map[byte]int{},
		stamp: map[byte]uint64{},
	}
}

func (m *lfuModel) bump(k byte) {
	m.clock++
	m.freq[k]++
	m.stamp[k] = m.clock
}

func (m *lfuModel) get(k byte) (int, bool) {
	v, ok := m.vals[k]
	if ok {
		m.bump(k)
	}
	return v, ok
}

func (m *lfuModel) put(k byte, v int) {
	if m.cap <= 0 {
		return
	}
	if _, ok := m.vals[k]; ok {
		m.vals[k] = v
		m.bump(k)
		return
	}
	if len(m.vals) >= m.cap {
		var victim byte
		first := true
		for key := range m.vals {
			if first || m.freq[key] < m.freq[victim] ||
				(m.freq[key] == m.freq[victim] && m.stamp[key] < m.stamp[victim]) {
				victim, first = key, false
			}
		}
		delete(m.vals, victim)
		delete(m.freq, victim)
		delete(m.stamp, victim)
	}
	m.vals[k] = v
	m.freq[k] = 0
	m.bump(k)
}

// Each input byte pair is one operation: the low bit of the first byte picks
// Get or Put, the second byte is the key (folded into a small keyspace so
// evictions are frequent).
func FuzzCache_OpSequence(f *testing.F) {
	f.Add(uint8(2), []byte{1, 'a', 1, 'b', 0, 'a', 1, 'c', 0, 'b', 0, 'a'})
	f.Add(uint8(1), []byte{1, 'x', 1, 'x', 0, 'x'})
	f.Add(uint8(3), []byte{1, 1, 1, 2, 1, 3, 0, 1, 0, 1, 1, 4, 1, 5, 0, 2})
	f.Add(uint8(0), []byte{1, 9, 0, 9})

	f.Fuzz(func(t *testing.T, capByte uint8, ops []byte) {
		const limit = 1 << 12
		if len(ops) > limit {
			ops = ops[:limit]
		}
		capacity := int(capByte % 9)

		lfu := NewLFU[byte, int](Options[byte, int]{Capacity: capacity})
		lfuRef := newLFUModel(capacity)

		var lru *LRU[byte, int]
		var lruRef *simplelru.LRU[byte, int]
		if capacity > 0 {
			var err error
			if lru, err = NewLRU[byte, int](Options[byte, int]{Capacity: capacity, Segments: 2}); err != nil {
				t.Fatal(err)
			}
			if lruRef, err = simplelru.NewLRU[byte, int](capacity, nil); err != nil {
				t.Fatal(err)
			}
		}

		for i := 0; i+1 < len(ops); i += 2 {
			k := ops[i+1] % 16
			if ops[i]&1 == 1 {
				if err := lfu.Put(k, i); err != nil {
					t.Fatalf("op %d lfu Put: %v", i, err)
				}
				lfuRef.put(k, i)
				if lru != nil {
					if err := lru.Put(k, i); err != nil {
						t.Fatalf("op %d lru Put: %v", i, err)
					}
					lruRef.Add(k, i)
				}
				continue
			}

			got, ok := lfu.Get(k)
			want, wantOK := lfuRef.get(k)
			if ok != wantOK || got != want {
				t.Fatalf("op %d lfu Get(%d) = %d,%v want %d,%v", i, k, got, ok, want, wantOK)
			}
			if lru != nil {
				got, ok = lru.Get(k)
				want, wantOK = lruRef.Get(k)
				if ok != wantOK || got != want {
					t.Fatalf("op %d lru Get(%d) = %d,%v want %d,%v", i, k, got, ok, want, wantOK)
				}
			}
		}

		if err := lfu.checkInvariants(); err != nil {
			t.Fatal(err)
		}
		if lfu.Len() != len(lfuRef.vals) {
			t.Fatalf("lfu Len %d, model %d", lfu.Len(), len(lfuRef.vals))
		}
		if lru != nil {
			if err := lru.checkInvariants(); err != nil {
				t.Fatal(err)
			}
			if lru.Len() != lruRef.Len() {
				t.Fatalf("lru Len %d, reference %d", lru.Len(), lruRef.Len())
			}
		}
	})
}
