//go:build !cachedebug

package assert

const enabled = false
