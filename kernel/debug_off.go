//go:build !bleport_debug

package kernel

// DebugChecks reports whether contract violations panic instead of being
// clamped and logged.
const DebugChecks = false

// check logs a warning when cond does not hold. The caller then clamps
// state and carries on; release builds never panic on a contract violation.
func check(cond bool, format string, args ...interface{}) {
	if !cond {
		log().Warnf(format, args...)
	}
}
