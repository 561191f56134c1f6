package loom

import (
	"math/bits"
	"sync/atomic"

	"github.com/origamicomet/loom/platform"
)

// VictimSelector orders candidate worker slots for a stealing worker to
// try, given the current work bitmap (bit i set iff deque i may hold
// stealable work), the stealer's own slot, and the bitmap width. The
// interface exists so the default rotation algorithm can be benchmarked
// against alternatives without touching the stealing loop itself.
type VictimSelector interface {
	// Victims returns, low-to-high in the chosen order, every set bit of
	// work other than self. An empty result means "nothing to steal
	// right now."
	Victims(work uint64, self uint32, width uint32, prng *platform.PRNG) []uint32
}

func candidateMask(work uint64, self uint32) uint64 {
	return work &^ (uint64(1) << self)
}

// RotatingSelector is the default: rotate the candidate bitmap left by a
// random amount before scanning low-to-high, so repeated steals don't
// settle into a fixed bias toward low-numbered deques.
type RotatingSelector struct{}

func (RotatingSelector) Victims(work uint64, self, width uint32, prng *platform.PRNG) []uint32 {
	victims := candidateMask(work, self)
	if victims == 0 {
		return nil
	}

	r := prng.Uint32() % width
	rotated := rotateLeft(victims, r, width)

	out := make([]uint32, 0, bits.OnesCount64(victims))
	for rotated != 0 {
		p := uint32(bits.TrailingZeros64(rotated))
		v := (p + width - r) % width
		out = append(out, v)
		rotated &= rotated - 1
	}
	return out
}

func rotateLeft(v uint64, r, width uint32) uint64 {
	if r == 0 {
		return v
	}
	mask := uint64(1)<<width - 1
	v &= mask
	return ((v << r) | (v >> (width - r))) & mask
}

// SequentialSelector scans candidates low-to-high with no rotation. It
// exists to demonstrate, in benchmarks, exactly the starvation a rotating
// scan avoids: low-numbered deques get victimized far more often under
// contention.
type SequentialSelector struct{}

func (SequentialSelector) Victims(work uint64, self, width uint32, _ *platform.PRNG) []uint32 {
	victims := candidateMask(work, self)
	if victims == 0 {
		return nil
	}
	out := make([]uint32, 0, bits.OnesCount64(victims))
	for victims != 0 {
		v := uint32(bits.TrailingZeros64(victims))
		out = append(out, v)
		victims &= victims - 1
	}
	return out
}

// LeastRecentlyVictimizedSelector orders candidates by how long ago each
// was last returned in a candidate list, oldest first, trading a little
// bookkeeping for fairness under skewed workloads. Every candidate a call
// returns is stamped with the same new tick whether or not a steal from it
// then succeeds; actual steals are not tracked.
type LeastRecentlyVictimizedSelector struct {
	tick  atomic.Uint64
	ticks [64]atomic.Uint64
}

func (s *LeastRecentlyVictimizedSelector) Victims(work uint64, self, width uint32, _ *platform.PRNG) []uint32 {
	victims := candidateMask(work, self)
	if victims == 0 {
		return nil
	}

	out := make([]uint32, 0, bits.OnesCount64(victims))
	for v := victims; v != 0; v &= v - 1 {
		out = append(out, uint32(bits.TrailingZeros64(v)))
	}

	// Sort by ascending last-victimized tick (stable insertion sort; out
	// is at most `width` elements, so this is cheap relative to the
	// actual steal attempts it precedes).
	for i := 1; i < len(out); i++ {
		j := i
		for j > 0 && s.ticks[out[j-1]].Load() > s.ticks[out[j]].Load() {
			out[j-1], out[j] = out[j], out[j-1]
			j--
		}
	}

	next := s.tick.Add(1)
	for _, v := range out {
		s.ticks[v].Store(next)
	}

	return out
}
