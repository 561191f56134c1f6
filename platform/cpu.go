package platform

import "runtime"

// NumCPU reports the number of logical cores visible to this process.
// There's no feature-detection need in this scheduler (no SIMD kernels to
// gate), so there's nothing for golang.org/x/sys/cpu to add over the
// standard library here — see DESIGN.md.
func NumCPU() int {
	return runtime.NumCPU()
}
