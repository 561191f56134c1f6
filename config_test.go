package loom

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"
)

func TestDefaultOptionsPopulatesEverything(t *testing.T) {
	o := DefaultOptions()
	require.Equal(t, int32(-1), o.Workers)
	require.False(t, o.MainThreadDrainsOwnQueue)
	require.Equal(t, uint32(defaultTasks), o.Tasks)
	require.Equal(t, uint32(defaultPermits), o.Permits)
	require.Equal(t, uint32(defaultQueue), o.Queue)
	require.NotNil(t, o.VictimSelector)
	require.NotNil(t, o.Clock)
}

func TestNormalizeFillsZeroValuesFromDefaults(t *testing.T) {
	o, err := Options{Workers: 2}.normalize(8)
	require.NoError(t, err)
	require.Equal(t, int32(2), o.Workers)
	require.Equal(t, uint32(defaultTasks), o.Tasks)
	require.Equal(t, uint32(defaultPermits), o.Permits)
	require.Equal(t, uint32(defaultQueue), o.Queue)
	require.IsType(t, RotatingSelector{}, o.VictimSelector)
	require.Equal(t, clockz.RealClock, o.Clock)
}

func TestNormalizeResolvesNegativeWorkersAgainstCoreCount(t *testing.T) {
	o, err := Options{Workers: -1}.normalize(8)
	require.NoError(t, err)
	require.Equal(t, int32(7), o.Workers)
}

func TestNormalizeClampsNegativeWorkersAtZero(t *testing.T) {
	o, err := Options{Workers: -16}.normalize(4)
	require.NoError(t, err)
	require.Equal(t, int32(0), o.Workers)
}

func TestNormalizeClampsWorkerCountAtBitmapWidth(t *testing.T) {
	o, err := Options{Workers: bitmapWidth - 1}.normalize(1)
	require.NoError(t, err)
	require.Equal(t, int32(bitmapWidth-1), o.Workers)

	o, err = Options{Workers: bitmapWidth}.normalize(1)
	require.NoError(t, err)
	require.Equal(t, int32(bitmapWidth-1), o.Workers)

	o, err = Options{Workers: bitmapWidth * 4}.normalize(1)
	require.NoError(t, err)
	require.Equal(t, int32(bitmapWidth-1), o.Workers)
}

func TestNormalizePreservesExplicitNonZeroFields(t *testing.T) {
	selector := SequentialSelector{}
	clock := clockz.NewFakeClock()
	o, err := Options{
		Workers:        1,
		Tasks:          16,
		Permits:        4,
		Queue:          32,
		VictimSelector: selector,
		Clock:          clock,
	}.normalize(8)
	require.NoError(t, err)
	require.Equal(t, uint32(16), o.Tasks)
	require.Equal(t, uint32(4), o.Permits)
	require.Equal(t, uint32(32), o.Queue)
	require.Equal(t, selector, o.VictimSelector)
	require.Equal(t, clock, o.Clock)
}
