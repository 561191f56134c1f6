//go:build loom_debug

package loom

import "fmt"

// debugBuild is true when the loom_debug build tag is set. Several checks
// described as "checked-build only" in the design (stale-handle detection,
// free-list sentinel assertions, main-thread misuse) only pay for
// themselves when this is enabled.
const debugBuild = true

// debugAssert panics with an annotated error if cond is false. Compiled
// out entirely (to a no-op) unless built with -tags loom_debug.
func debugAssert(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Errorf("loom: assertion failed: "+format, args...))
	}
}
