package util

// DefaultStripes is the number of key stripe locks used when none is configured.
const DefaultStripes = 16

// StripeIndex maps a 64-bit hash to a stripe index.
// stripes must be a power of two (see StripeCount).
func StripeIndex(hash uint64, stripes int) int {
	if stripes <= 1 {
		return 0
	}
	return int(hash & uint64(stripes-1))
}
