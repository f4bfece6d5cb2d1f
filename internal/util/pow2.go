package util

// MaxStripes bounds the stripe array so a misconfigured count cannot
// allocate an unbounded number of locks.
const MaxStripes = 1 << 12

// IsPowerOfTwo reports whether x is a power of two (> 0).
func IsPowerOfTwo(x uint64) bool {
	return x != 0 && (x&(x-1)) == 0
}

// NextPow2 returns the smallest power of two >= x (x == 0 -> 1).
// If the next power would overflow 64 bits, the result is clamped to 1<<63.
func NextPow2(x uint64) uint64 {
	if x <= 1 {
		return 1
	}
	x--
	x |= x >> 1
	x |= x >> 2
	x |= x >> 4
	x |= x >> 8
	x |= x >> 16
	x |= x >> 32
	x++
	if x == 0 {
		return 1 << 63
	}
	return x
}

// StripeCount normalizes a configured stripe count: n <= 0 selects
// DefaultStripes, anything else is rounded up to a power of two and
// clamped to MaxStripes.
func StripeCount(n int) int {
	if n <= 0 {
		return DefaultStripes
	}
	if n > MaxStripes {
		return MaxStripes
	}
	return int(NextPow2(uint64(n)))
}
