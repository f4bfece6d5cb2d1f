//go:build cachedebug

package assert

const enabled = true
