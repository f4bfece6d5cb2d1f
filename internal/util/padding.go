package util

import (
	"sync"
	"sync/atomic"
	"unsafe"
)

// CacheLineSize is a reasonable default for most modern CPUs.
// std has runtime/internal/sys.CacheLineSize but it's unexported.
const CacheLineSize = 64

// PaddedMutex is a sync.Mutex padded to one cache line so that adjacent
// stripe locks in an array do not share a line.
type PaddedMutex struct {
	sync.Mutex
	_ [CacheLineSize - unsafe.Sizeof(sync.Mutex{})]byte
}

// PaddedAtomicUint64 is an atomic uint64 padded to exactly one cache line.
// Use when many goroutines update different counters to avoid false sharing.
type PaddedAtomicUint64 struct {
	atomic.Uint64
	_ [CacheLineSize - 8]byte
}

// ---- Compile-time size checks (must be exactly one cache line) ----

var (
	_ [CacheLineSize - int(unsafe.Sizeof(PaddedMutex{}))]byte
	_ [int(unsafe.Sizeof(PaddedMutex{})) - CacheLineSize]byte
	_ [CacheLineSize - int(unsafe.Sizeof(PaddedAtomicUint64{}))]byte
)
