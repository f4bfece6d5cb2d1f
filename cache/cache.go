package cache

import (
	"fmt"

	"github.com/IvanBrykalov/stripecache/policy"
)

// New constructs a cache with the policy named by opt.Policy.
// Construction rules are those of the chosen policy: LRU rejects a
// non-positive capacity with ErrInvalidArgument, LFU accepts it and stays
// empty.
func New[K comparable, V any](opt Options[K, V]) (Cache[K, V], error) {
	switch opt.Policy {
	case policy.LRU:
		c, err := NewLRU[K, V](opt)
		if err != nil {
			return nil, err
		}
		return c, nil
	case policy.LFU:
		return NewLFU[K, V](opt), nil
	default:
		return nil, fmt.Errorf("%w: unknown policy %s", ErrInvalidArgument, opt.Policy)
	}
}
