package cache

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrInvalidArgument is returned for unusable construction parameters and
	// for nil keys or values.
	ErrInvalidArgument = errors.New("cache: invalid argument")

	// ErrNoLoader is returned by NewReadThrough when the load function is nil.
	ErrNoLoader = errors.New("cache: no loader provided")
)

// errNilKey and errNilValue are preallocated so rejecting bad input on the
// hot path does not allocate.
var (
	errNilKey   = fmt.Errorf("%w: nil key", ErrInvalidArgument)
	errNilValue = fmt.Errorf("%w: nil value", ErrInvalidArgument)
)

// isNil reports whether x is nil or a nil pointer, map, slice, channel,
// function or interface. Non-nilable kinds never are.
func isNil[T any](x T) bool {
	v := any(x)
	switch v.(type) {
	case nil:
		return true
	case string, int, int32, int64, uint, uint32, uint64, bool, float64:
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	default:
		return false
	}
}

// checkEntry validates a key/value pair before a Put touches shared state.
func checkEntry[K comparable, V any](k K, v V) error {
	if isNil(k) {
		return errNilKey
	}
	if isNil(v) {
		return errNilValue
	}
	return nil
}
