package loom

import "sync/atomic"

// taskPool is a fixed array of task slots backed by a lock-free
// free-list. acquire stamps a fresh monotonic id into the slot, and
// release restamps it before the slot goes back on the free-list, so a
// handle to a completed or recycled task is detectable as stale.
type taskPool struct {
	tasks  []Task
	free   *freeList
	nextID atomic.Uint32
}

func newTaskPool(size uint32) *taskPool {
	p := &taskPool{
		tasks: make([]Task, size),
		free:  newFreeList(size),
	}
	for i := range p.tasks {
		p.tasks[i].index = uint32(i)
	}
	return p
}

func (p *taskPool) acquire() (*Task, error) {
	idx, err := p.free.pop()
	if err != nil {
		return nil, err
	}
	t := &p.tasks[idx]
	t.id = p.nextID.Add(1)
	return t, nil
}

func (p *taskPool) release(t *Task) {
	t.id = p.nextID.Add(1)
	p.free.push(t.index)
}

// permitPool is a fixed array of overflow permit nodes, used once a
// task's embedded permits (EmbeddedPermits of them) are exhausted.
type permitPool struct {
	permits []permit
	free    *freeList
}

func newPermitPool(size uint32) *permitPool {
	p := &permitPool{
		permits: make([]permit, size),
		free:    newFreeList(size),
	}
	for i := range p.permits {
		p.permits[i].pooled = true
		p.permits[i].index = uint32(i)
	}
	return p
}

func (p *permitPool) acquire() (*permit, error) {
	idx, err := p.free.pop()
	if err != nil {
		return nil, err
	}
	return &p.permits[idx], nil
}

// release is a no-op for embedded permits (pooled == false); only
// overflow nodes drawn from this pool are returned to it.
func (p *permitPool) release(pm *permit) {
	if !pm.pooled {
		return
	}
	pm.next = nil
	pm.target = nil
	p.free.push(pm.index)
}
