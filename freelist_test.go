package loom

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFreeListPopExhaustion(t *testing.T) {
	fl := newFreeList(3)

	a, err := fl.pop()
	require.NoError(t, err)
	b, err := fl.pop()
	require.NoError(t, err)
	c, err := fl.pop()
	require.NoError(t, err)

	require.ElementsMatch(t, []uint32{0, 1, 2}, []uint32{a, b, c})

	_, err = fl.pop()
	require.ErrorIs(t, err, ErrResourceExhausted)
}

func TestFreeListPushMakesIndexAvailableAgain(t *testing.T) {
	fl := newFreeList(1)

	idx, err := fl.pop()
	require.NoError(t, err)
	require.Equal(t, uint32(0), idx)

	_, err = fl.pop()
	require.ErrorIs(t, err, ErrResourceExhausted)

	fl.push(idx)

	again, err := fl.pop()
	require.NoError(t, err)
	require.Equal(t, idx, again)
}

func TestFreeListZeroSizeIsImmediatelyExhausted(t *testing.T) {
	fl := newFreeList(0)
	_, err := fl.pop()
	require.ErrorIs(t, err, ErrResourceExhausted)
}

// TestFreeListConcurrentPopNeverDoubleIssues pops from many goroutines at
// once and checks every index in range is handed out exactly once, which
// is the free-list's only real correctness property under contention.
func TestFreeListConcurrentPopNeverDoubleIssues(t *testing.T) {
	const size = 2048
	fl := newFreeList(size)

	seen := make([]int32, size)
	var mu sync.Mutex
	duplicates := 0

	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				idx, err := fl.pop()
				if err != nil {
					return
				}
				mu.Lock()
				seen[idx]++
				if seen[idx] > 1 {
					duplicates++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 0, duplicates)
	for _, count := range seen {
		require.Equal(t, int32(1), count)
	}
}
