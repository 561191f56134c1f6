package loom

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTaskPoolAcquireStampsMonotonicID(t *testing.T) {
	p := newTaskPool(4)

	a, err := p.acquire()
	require.NoError(t, err)
	b, err := p.acquire()
	require.NoError(t, err)

	require.NotEqual(t, a.id, b.id)
	require.NotEqual(t, a.index, b.index)
}

func TestTaskPoolExhaustionAndRelease(t *testing.T) {
	p := newTaskPool(2)

	a, err := p.acquire()
	require.NoError(t, err)
	_, err = p.acquire()
	require.NoError(t, err)

	_, err = p.acquire()
	require.ErrorIs(t, err, ErrResourceExhausted)

	oldID := a.id
	p.release(a)

	again, err := p.acquire()
	require.NoError(t, err)
	require.Equal(t, a.index, again.index)
	require.NotEqual(t, oldID, again.id, "recycled slot must get a fresh id")
}

func TestPermitPoolReleaseOnlyReturnsPooledNodes(t *testing.T) {
	p := newPermitPool(1)

	node, err := p.acquire()
	require.NoError(t, err)
	require.True(t, node.pooled)

	_, err = p.acquire()
	require.ErrorIs(t, err, ErrResourceExhausted)

	embedded := &permit{pooled: false}
	p.release(embedded) // must be a no-op; nothing to return to this pool

	_, err = p.acquire()
	require.ErrorIs(t, err, ErrResourceExhausted)

	p.release(node)
	again, err := p.acquire()
	require.NoError(t, err)
	require.Equal(t, node.index, again.index)
}
