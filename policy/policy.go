// Package policy names the replacement policies a cache can be built with.
package policy

import (
	"fmt"
	"strings"
)

// Kind selects the ordering discipline that decides eviction victims.
type Kind uint8

const (
	// LRU evicts the least recently used entry (position list).
	LRU Kind = iota
	// LFU evicts the least frequently used entry (frequency buckets),
	// oldest first among equal frequencies.
	LFU
)

// String returns the lower-case policy name.
func (k Kind) String() string {
	switch k {
	case LRU:
		return "lru"
	case LFU:
		return "lfu"
	default:
		return fmt.Sprintf("policy(%d)", uint8(k))
	}
}

// Valid reports whether k is a known policy.
func (k Kind) Valid() bool { return k == LRU || k == LFU }

// Parse converts a policy name (case-insensitive) to a Kind.
func Parse(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lru", "":
		return LRU, nil
	case "lfu":
		return LFU, nil
	default:
		return 0, fmt.Errorf("policy: unknown policy %q (use lru or lfu)", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("policy: cannot marshal %s", k)
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, so a Kind can be
// decoded straight from config files.
func (k *Kind) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}
