// Package assert provides invariant checks that are compiled in only for
// builds tagged cachedebug. Violations are programmer errors and panic; in
// regular builds every check is a no-op the compiler can drop.
package assert

// Enabled reports whether assertions are compiled in.
const Enabled = enabled

// That panics with msg when cond is false and assertions are enabled.
func That(cond bool, msg string) {
	if enabled && !cond {
		panic("stripecache: invariant violated: " + msg)
	}
}
