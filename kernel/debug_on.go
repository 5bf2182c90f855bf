//go:build bleport_debug

package kernel

import "fmt"

// DebugChecks reports whether contract violations panic instead of being
// clamped and logged.
const DebugChecks = true

// check panics when cond does not hold, surfacing API misuse at the
// offending call site during development builds.
func check(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(fmt.Sprintf("bleport: "+format, args...))
	}
}
