// Package benchmarks compares VictimSelector implementations and worker
// counts: same workload, swap one axis, measure.
package benchmarks

import (
	"fmt"
	"testing"
	"unsafe"

	"github.com/origamicomet/loom"
)

func benchmarkSelector(b *testing.B, sel loom.VictimSelector, workers int32) {
	const n = 4096

	opts := loom.DefaultOptions()
	opts.Workers = workers
	opts.VictimSelector = sel
	opts.Queue = n // every task is kicked onto queue 0 at once

	for i := 0; i < b.N; i++ {
		s, err := loom.Initialize(opts)
		if err != nil {
			b.Fatal(err)
		}

		hs := make([]loom.Handle, n)
		for j := 0; j < n; j++ {
			h, err := s.Describe(func(unsafe.Pointer) {}, nil, 0)
			if err != nil {
				b.Fatal(err)
			}
			hs[j] = h
		}

		if err := s.KickAndWaitN(hs); err != nil {
			b.Fatal(err)
		}
		s.Shutdown()
	}
}

func BenchmarkRotatingSelector(b *testing.B) {
	benchmarkSelector(b, loom.RotatingSelector{}, 4)
}

func BenchmarkSequentialSelector(b *testing.B) {
	benchmarkSelector(b, loom.SequentialSelector{}, 4)
}

func BenchmarkLeastRecentlyVictimizedSelector(b *testing.B) {
	benchmarkSelector(b, &loom.LeastRecentlyVictimizedSelector{}, 4)
}

func BenchmarkWorkerCountScaling(b *testing.B) {
	for _, workers := range []int32{1, 2, 4, 8} {
		workers := workers
		b.Run(fmt.Sprintf("workers=%d", workers), func(b *testing.B) {
			benchmarkSelector(b, loom.RotatingSelector{}, workers)
		})
	}
}
