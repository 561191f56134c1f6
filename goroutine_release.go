//go:build !loom_debug

package loom

// currentGoroutineID is a no-op outside checked builds: MisuseOnMainThread
// is an assertion per spec, not a release-mode safety net.
func currentGoroutineID() uint64 { return 0 }
