package loom

import (
	"sync/atomic"
	"unsafe"
)

// EmbeddedPermits is K from the design: the number of successor edges a
// task can hold inline before the chain overflows into the permit pool.
// Tuned low on purpose — most tasks in a fine-grained scheduler permit
// only one or two successors, and the overflow path is just as fast at
// the call site.
const EmbeddedPermits = 2

type kindOfWork uint32

const (
	workNone kindOfWork = iota
	workCPU
)

// KernelFn is the callable body of a CPU task. data is whatever pointer
// was passed to Describe; the scheduler never dereferences it.
type KernelFn func(data unsafe.Pointer)

// PrologueFn is invoked on the worker that is about to run a task's
// kernel, immediately before it runs.
type PrologueFn func(t *Task, ctx unsafe.Pointer)

// EpilogueFn is invoked immediately after a task's kernel returns, before
// its barrier is decremented and its successors are unblocked.
type EpilogueFn func(t *Task, ctx unsafe.Pointer)

type work struct {
	kind   kindOfWork
	kernel KernelFn
	data   unsafe.Pointer
}

// permit is a reverse-dependency edge: "when the owning task completes,
// decrement target.blockers; if it reaches zero, submit target." Embedded
// permits live inline in a task's permits array; overflow permits are
// drawn from the scheduler's permit pool.
type permit struct {
	next   *permit
	target *Task

	// pooled is true for a permit drawn from the overflow permit pool, so
	// release() knows whether to return it. Embedded permits are never
	// pooled and are simply zeroed on reuse. A tag bit is simpler and
	// cheaper here than an address-range check against a base array.
	pooled bool
	index  uint32
}

// Task is a schedulable unit of work with identity, dependencies, and an
// optional kernel. Tasks are recycled from a fixed pool; application code
// never allocates or frees one directly.
type Task struct {
	id    uint32
	index uint32 // slot in the owning task pool, stamped once at pool creation
	flags uint32

	work work

	permits [EmbeddedPermits]permit
	blocks  atomic.Uint32 // number of successor edges recorded so far

	blockers atomic.Uint32 // outstanding predecessors; submittable at zero
	barrier  *atomic.Uint32

	// span holds the in-flight trace span between the default prologue
	// and epilogue. Safe without synchronization: prologue and epilogue
	// for a given run of a task execute back-to-back on the same worker
	// goroutine, and the slot isn't reused until after epilogue clears it.
	span spanHandle
}

// spanHandle is the minimal surface the default epilogue needs from a
// tracez span, named locally so task.go doesn't have to import tracez
// just to hold a field.
type spanHandle interface {
	Finish()
}

// Handle is an opaque, validity-checked reference to a Task. It is only
// valid from the moment it's returned by Empty/Describe until the task
// completes and is recycled; using it afterward returns ErrInvalidHandle
// wherever it's resolved.
type Handle struct {
	index uint32
	id    uint32
}

// InvalidHandle is the sentinel handle returned alongside errors. It never
// resolves to a task. It is not the zero value: Handle{} names slot 0.
var InvalidHandle = Handle{index: freeListSentinel, id: freeListSentinel}

func taskToHandle(t *Task) Handle {
	return Handle{index: t.index, id: t.id}
}

func (s *Scheduler) handleToTask(h Handle) (*Task, error) {
	if h.index == freeListSentinel || int(h.index) >= len(s.tasks.tasks) {
		return nil, ErrInvalidHandle
	}
	t := &s.tasks.tasks[h.index]
	if t.id != h.id {
		return nil, ErrInvalidHandle
	}
	return t, nil
}
