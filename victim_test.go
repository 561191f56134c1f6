package loom

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/origamicomet/loom/platform"
)

func TestRotatingSelectorExcludesSelfAndCoversAllCandidates(t *testing.T) {
	var sel RotatingSelector
	prng := platform.New()

	work := uint64(0b1011) // bits 0, 1, 3 set
	victims := sel.Victims(work, 1, 8, prng)

	require.NotContains(t, victims, uint32(1), "self must never be its own victim")
	require.ElementsMatch(t, []uint32{0, 3}, victims)
}

func TestRotatingSelectorEmptyWorkReturnsNil(t *testing.T) {
	var sel RotatingSelector
	require.Empty(t, sel.Victims(0, 0, 8, platform.New()))
}

func TestSequentialSelectorIsLowToHigh(t *testing.T) {
	var sel SequentialSelector
	// self=4 isn't set in the work mask, so nothing is excluded and the
	// result is a plain low-to-high scan of bits 0, 2, 3.
	victims := sel.Victims(0b1101, 4, 8, nil)
	require.Equal(t, []uint32{0, 2, 3}, victims)
}

func TestLeastRecentlyVictimizedSelectorPrefersUntouchedWorkers(t *testing.T) {
	sel := &LeastRecentlyVictimizedSelector{}

	first := sel.Victims(0b111, 0, 8, nil)
	require.ElementsMatch(t, []uint32{1, 2}, first)

	// Touching candidate 1 again should push it to the back of the next
	// ordering, since it now has the most recent tick.
	_ = sel.Victims(0b010, 0, 8, nil)
	second := sel.Victims(0b110, 0, 8, nil)
	require.Equal(t, []uint32{2, 1}, second)
}

func TestRotateLeftIsReversible(t *testing.T) {
	v := uint64(0b1001_0110)
	for r := uint32(0); r < 8; r++ {
		rotated := rotateLeft(v, r, 8)
		back := rotateLeft(rotated, (8-r)%8, 8)
		require.Equal(t, v, back, "rotation by %d then back must be identity", r)
	}
}
