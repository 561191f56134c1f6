//go:build linux

package platform

import "golang.org/x/sys/unix"

// setAffinity binds the calling OS thread to the logical cores set in
// mask. Must be called after runtime.LockOSThread from the goroutine that
// should be pinned.
func setAffinity(mask uint64) {
	var set unix.CPUSet
	set.Zero()
	for i := 0; i < 64; i++ {
		if mask&(1<<uint(i)) != 0 {
			set.Set(i)
		}
	}
	// Best-effort: sandboxed or containerized environments may deny
	// sched_setaffinity outright. Losing pinning degrades scheduling
	// quality, not correctness, so the error is intentionally discarded.
	_ = unix.SchedSetaffinity(0, &set)
}
