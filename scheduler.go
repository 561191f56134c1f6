package loom

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/zoobzio/clockz"
	"github.com/zoobzio/hookz"

	"github.com/origamicomet/loom/platform"
)

// spinInterval bounds how long a waiter sleeps between re-checking a
// barrier or the shutdown drain condition. It's routed through the
// Scheduler's clockz.Clock rather than time.Sleep so tests can inject a
// fake clock and observe these waits without spending real wall time.
const spinInterval = 50 * time.Microsecond

// Scheduler is the process-wide coordinator of pools, deques, and workers.
// Construct one with Initialize; there is no zero-value-usable Scheduler.
type Scheduler struct {
	mu platform.Mutex

	tasks   *taskPool
	permits *permitPool

	queues []*deque // index 0 is the main thread's queue

	online atomic.Uint64
	work   atomic.Uint64

	workToSteal *platform.Event // auto-reset: wakes one stealer
	message     *platform.Event // manual-reset: broadcasts shutdown

	shutdownRequested []atomic.Bool // per-slot, set by BringDownWorkers
	threads           []*platform.Thread

	prologue PrologueFn
	epilogue EpilogueFn

	alwaysSignalOnMain bool
	queueCapacity      uint32

	victimSelector VictimSelector
	clock          clockz.Clock

	instrument *instrumentation

	live          atomic.Uint32 // workers currently online, excluding the main thread
	mainGoroutine uint64
	mainPRNG      *platform.PRNG // lazily created; used only if the main thread steals directly

	closed atomic.Bool
}

// Initialize constructs a Scheduler: pools, the main thread's queue,
// events, and the configured (or defaulted) worker count, then brings
// those workers up before returning. The calling goroutine is recorded so
// DoSomeWork can detect being called from anywhere else in checked builds.
func Initialize(opts Options) (*Scheduler, error) {
	opts, err := opts.normalize(platform.NumCPU())
	if err != nil {
		return nil, err
	}

	s := &Scheduler{
		tasks:              newTaskPool(opts.Tasks),
		permits:            newPermitPool(opts.Permits),
		queues:             make([]*deque, bitmapWidth),
		workToSteal:        platform.NewAutoResetEvent(),
		message:            platform.NewManualResetEvent(),
		shutdownRequested:  make([]atomic.Bool, bitmapWidth),
		threads:            make([]*platform.Thread, bitmapWidth),
		prologue:           opts.Prologue,
		epilogue:           opts.Epilogue,
		alwaysSignalOnMain: !opts.MainThreadDrainsOwnQueue,
		queueCapacity:      opts.Queue,
		victimSelector:     opts.VictimSelector,
		clock:              opts.Clock,
		mainGoroutine:      currentGoroutineID(),
	}

	if s.prologue == nil || s.epilogue == nil {
		s.instrument = newInstrumentation()
		if s.prologue == nil {
			s.prologue = s.instrument.prologue
		}
		if s.epilogue == nil {
			s.epilogue = s.instrument.epilogue
		}
	}

	s.queues[0] = newDeque(opts.Queue)
	atomicOr(&s.online, 1) // slot 0, the main thread, is always "online"

	if err := s.BringUpWorkers(uint32(opts.Workers)); err != nil {
		return nil, err
	}

	return s, nil
}

// Hooks returns the scheduler's lifecycle event hub, or nil if
// instrumentation defaults were never installed (both Prologue and
// Epilogue were supplied explicitly). Subscribers receive EventWorkerOnline,
// EventWorkerOffline, and EventPoolExhausted.
func (s *Scheduler) Hooks() *hookz.Hooks[Event] {
	if s.instrument == nil {
		return nil
	}
	return s.instrument.hooks
}

// Shutdown drains all outstanding work, then brings down every worker and
// releases scheduler-owned resources: call do-some-work/yield until work
// reaches zero, then bring down every worker. The draining loop here also
// pops from queue 0 directly so a shutdown called from a non-main goroutine
// still makes progress.
func (s *Scheduler) Shutdown() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}

	for s.work.Load() != 0 || !s.queues[0].isEmpty() {
		if ran, _ := s.doSomeWorkUnchecked(); !ran {
			<-s.clock.After(spinInterval)
		}
	}

	s.BringDownWorkers(s.live.Load())

	if s.instrument != nil {
		s.instrument.hooks.Close()
	}
}

// BringUpWorkers spawns n additional worker goroutines, each bound to the
// next unused slot, each pinned (where supported) to the logical core
// matching its slot via an affinity mask of 1<<slot.
func (s *Scheduler) BringUpWorkers(n uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	live := s.live.Load()
	if uint64(live)+uint64(n) > bitmapWidth-1 {
		return ErrWorkerLimitExceeded
	}

	for i := uint32(0); i < n; i++ {
		slot := s.nextFreeSlotLocked()
		if slot == 0 {
			return ErrWorkerLimitExceeded
		}

		if s.queues[slot] == nil {
			s.queues[slot] = newDeque(s.queueCapacity)
		}
		s.shutdownRequested[slot].Store(false)

		w := &worker{scheduler: s, slot: slot, prng: platform.New()}
		atomicOr(&s.online, 1<<slot)

		opts := platform.ThreadOptions{
			Name:     fmt.Sprintf("loom-worker-%d", slot),
			Affinity: 1 << slot,
		}
		s.threads[slot] = platform.Spawn(w.run, opts)
		s.live.Add(1)

		if s.instrument != nil {
			_ = s.instrument.hooks.Emit(context.Background(), EventWorkerOnline, Event{Slot: slot})
		}
	}

	return nil
}

func (s *Scheduler) nextFreeSlotLocked() uint32 {
	online := s.online.Load()
	for slot := uint32(1); slot < bitmapWidth; slot++ {
		if online&(1<<slot) == 0 {
			return slot
		}
	}
	return 0
}

// BringDownWorkers requests shutdown of the n most recently brought-up
// workers, wakes every waiter via the manual-reset message event, joins
// each in reverse order, then lowers the event so it's ready for a future
// BringUpWorkers/BringDownWorkers cycle.
func (s *Scheduler) BringDownWorkers(n uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slots := make([]uint32, 0, n)
	online := s.online.Load()
	for slot := uint32(bitmapWidth - 1); slot >= 1; slot-- {
		if uint32(len(slots)) >= n {
			break
		}
		if online&(1<<slot) != 0 {
			slots = append(slots, slot)
		}
	}

	for _, slot := range slots {
		s.shutdownRequested[slot].Store(true)
	}
	s.message.Signal()

	for _, slot := range slots {
		if s.threads[slot] != nil {
			s.threads[slot].Join()
			s.threads[slot] = nil
		}
		s.shutdownRequested[slot].Store(false)
		s.live.Add(^uint32(0))

		if s.instrument != nil {
			_ = s.instrument.hooks.Emit(context.Background(), EventWorkerOffline, Event{Slot: slot})
		}
	}

	s.message.Unsignal()

	return nil
}

// Empty allocates a task with no kernel: a pure synchronization point,
// used for barrier-only fan-in nodes.
func (s *Scheduler) Empty(flags uint32) (Handle, error) {
	t, err := s.tasks.acquire()
	if err != nil {
		s.noteExhaustion()
		return InvalidHandle, err
	}
	t.flags = flags
	t.work = work{kind: workNone}
	t.blocks.Store(0)
	t.blockers.Store(0)
	t.barrier = nil
	for i := range t.permits {
		t.permits[i] = permit{}
	}
	return taskToHandle(t), nil
}

// Describe allocates a task that runs kernel(data) when kicked and its
// blockers reach zero.
func (s *Scheduler) Describe(kernel KernelFn, data unsafe.Pointer, flags uint32) (Handle, error) {
	if kernel == nil {
		return InvalidHandle, ErrNoKernel
	}
	h, err := s.Empty(flags)
	if err != nil {
		return InvalidHandle, err
	}
	t, _ := s.handleToTask(h)
	t.work = work{kind: workCPU, kernel: kernel, data: data}
	return h, nil
}

// DescribeFunc is a typed convenience over Describe for callers who just
// want to schedule a Go closure, boxing it into the unsafe.Pointer data
// contract Describe exposes.
func (s *Scheduler) DescribeFunc(fn func(), flags uint32) (Handle, error) {
	boxed := fn
	return s.Describe(func(unsafe.Pointer) {
		boxed()
	}, nil, flags)
}

// Permits declares that a must complete before b may run. Wiring is only
// valid between a's description and its first Kick;
// wiring after a has been submitted is undefined and not detected.
func (s *Scheduler) Permits(a, b Handle) error {
	ta, err := s.handleToTask(a)
	if err != nil {
		return err
	}
	tb, err := s.handleToTask(b)
	if err != nil {
		return err
	}

	if tb.blockers.Add(1) == 1 && s.instrument != nil {
		s.instrument.metrics.Counter(TasksBlockedTotal).Inc()
	}

	old := ta.blocks.Add(1) - 1
	if old < EmbeddedPermits {
		cell := &ta.permits[old]
		cell.target = tb
		cell.pooled = false
		if old > 0 {
			ta.permits[old-1].next = cell
		}
		return nil
	}

	node, err := s.permits.acquire()
	if err != nil {
		s.noteExhaustion()
		return err
	}
	node.target = tb
	node.next = nil

	tail := &ta.permits[EmbeddedPermits-1]
	for tail.next != nil {
		tail = tail.next
	}
	tail.next = node

	return nil
}

// Kick submits t for execution once its blockers reach zero.
func (s *Scheduler) Kick(t Handle) error {
	task, err := s.handleToTask(t)
	if err != nil {
		return err
	}
	return s.submit(task, 0)
}

// KickN submits every task in ts. Like Kick, it pushes onto queue 0, the
// main thread's queue, whichever goroutine calls it; a calling worker's
// own slot is not detected.
func (s *Scheduler) KickN(ts []Handle) error {
	for _, h := range ts {
		if err := s.Kick(h); err != nil {
			return err
		}
	}
	return nil
}

// KickAndWait installs a barrier of 1 on t, submits it, then spins
// (yielding between checks) until the barrier reaches zero.
func (s *Scheduler) KickAndWait(t Handle) error {
	return s.KickAndWaitN([]Handle{t})
}

// KickAndWaitN installs a shared barrier across every task in ts, submits
// them all, then spins until the barrier reaches zero.
func (s *Scheduler) KickAndWaitN(ts []Handle) error {
	barrier, err := s.armBarrier(ts)
	if err != nil {
		return err
	}
	for barrier.Load() != 0 {
		<-s.clock.After(spinInterval)
	}
	return nil
}

// KickAndDoWorkWhileWaiting is KickAndWait, except the calling thread
// drains its own work while waiting rather than spinning idle. Must be
// called from the main thread; see DoSomeWork.
func (s *Scheduler) KickAndDoWorkWhileWaiting(t Handle) error {
	return s.KickAndDoWorkWhileWaitingN([]Handle{t})
}

// KickAndDoWorkWhileWaitingN is KickAndWaitN with the same do-work-while-
// waiting behavior as KickAndDoWorkWhileWaiting.
func (s *Scheduler) KickAndDoWorkWhileWaitingN(ts []Handle) error {
	barrier, err := s.armBarrier(ts)
	if err != nil {
		return err
	}
	for barrier.Load() != 0 {
		if ran, err := s.DoSomeWork(); err != nil {
			return err
		} else if !ran {
			<-s.clock.After(spinInterval)
		}
	}
	return nil
}

func (s *Scheduler) armBarrier(ts []Handle) (*atomic.Uint32, error) {
	barrier := new(atomic.Uint32)
	barrier.Store(uint32(len(ts)))

	tasks := make([]*Task, len(ts))
	for i, h := range ts {
		t, err := s.handleToTask(h)
		if err != nil {
			return nil, err
		}
		t.barrier = barrier
		tasks[i] = t
	}
	for _, t := range tasks {
		if err := s.submit(t, 0); err != nil {
			return nil, err
		}
	}
	return barrier, nil
}

// DoSomeWork pops and executes a single task from the main thread's own
// queue, stealing one if that queue is empty. It reports whether a task
// ran. Callable only from the goroutine that called Initialize; calling it
// from a worker, or re-entrantly from inside a kernel, is undefined outside
// checked builds and returns ErrMisuseOnMainThread when a debug build
// detects the former.
func (s *Scheduler) DoSomeWork() (bool, error) {
	if debugBuild && s.mainGoroutine != 0 && currentGoroutineID() != s.mainGoroutine {
		return false, ErrMisuseOnMainThread
	}
	return s.doSomeWorkUnchecked()
}

func (s *Scheduler) doSomeWorkUnchecked() (bool, error) {
	q := s.queues[0]
	t := q.pop()
	if t == nil {
		// Queue 0 is empty, so bit 0 has nothing left to advertise; with
		// no workers online nobody else would ever clear it.
		atomicAnd(&s.work, ^uint64(1))
		t = s.steal(0, s.mainThreadPRNG())
	}
	if t == nil {
		return false, nil
	}
	s.execute(t, 0)
	return true, nil
}

// mainThreadPRNG lazily creates the scratch PRNG the main thread uses if it
// ever needs to steal directly via DoSomeWork. Worker goroutines carry
// their own PRNG instead and never call this.
func (s *Scheduler) mainThreadPRNG() *platform.PRNG {
	if s.mainPRNG == nil {
		s.mainPRNG = platform.New()
	}
	return s.mainPRNG
}

// submit leaves dormant tasks (blockers != 0) alone; otherwise the task is
// pushed onto queue[slot] and, if the push left more than one item or the
// main thread has promised not to drain its own queue, work is advertised
// so an idle worker can steal it.
func (s *Scheduler) submit(t *Task, slot uint32) error {
	if t.blockers.Load() != 0 {
		return nil
	}

	depth, err := s.queues[slot].push(t)
	if err != nil {
		return err
	}

	if depth > 1 || (slot == 0 && s.alwaysSignalOnMain) {
		atomicOr(&s.work, 1<<slot)
		s.workToSteal.Signal()
	}

	return nil
}

// execute runs one task to completion on the calling worker's slot:
// prologue, kernel, epilogue, then permit resolution and barrier/pool
// release.
func (s *Scheduler) execute(t *Task, slot uint32) {
	debugAssert(t.blockers.Load() == 0, "task %d executed with outstanding blockers", t.id)

	if s.prologue != nil {
		s.prologue(t, t.work.data)
	}
	if t.work.kind == workCPU && t.work.kernel != nil {
		t.work.kernel(t.work.data)
	}
	if s.epilogue != nil {
		s.epilogue(t, t.work.data)
	}

	s.unblockPermitted(t, slot)

	if t.barrier != nil {
		t.barrier.Add(^uint32(0)) // atomic decrement
		t.barrier = nil
	}

	s.tasks.release(t)
}

// unblockPermitted walks t's permit chain starting at its embedded head and
// following next pointers uniformly through any overflow nodes, rather
// than treating embedded and pooled permits as two separate passes. Each
// target's blockers is decremented; reaching zero submits it on the
// current worker's queue. Overflow nodes are returned to the permit pool
// as they're consumed; embedded cells are simply zeroed.
func (s *Scheduler) unblockPermitted(t *Task, slot uint32) {
	node := &t.permits[0]
	for node != nil && node.target != nil {
		next := node.next
		s.resolveOne(node, slot)
		if node.pooled {
			s.permits.release(node)
		}
		node = next
	}

	for i := range t.permits {
		t.permits[i] = permit{}
	}
	t.blocks.Store(0)
}

func (s *Scheduler) resolveOne(p *permit, slot uint32) {
	if p.target == nil {
		return
	}
	if p.target.blockers.Add(^uint32(0)) == 0 {
		_ = s.submit(p.target, slot)
	}
}

// steal performs one pass: a PRNG-rotated low-to-high scan of every other
// slot's work bit, attempting up to three steal operations per
// candidate before moving on, clearing a candidate's work bit if it's
// found both offline (or the main thread) and empty. A single pass finding
// nothing returns nil rather than retrying with a fresh snapshot itself —
// callers (the worker's Stealing state, DoSomeWork) are what loop, so a
// shutdown request is never starved by an endlessly-retrying steal.
func (s *Scheduler) steal(self uint32, prng *platform.PRNG) *Task {
	snapshot := s.work.Load()
	victims := s.victimSelector.Victims(snapshot, self, bitmapWidth, prng)

	for _, v := range victims {
		q := s.queues[v]
		if q == nil {
			continue
		}
		for attempt := 0; attempt < 3; attempt++ {
			if t := q.steal(); t != nil {
				return t
			}
		}
		online := s.online.Load()
		if (online&(1<<v) == 0 || v == 0) && q.isEmpty() {
			atomicAnd(&s.work, ^(uint64(1) << v))
		}
	}

	return nil
}

func (s *Scheduler) noteExhaustion() {
	if s.instrument != nil {
		s.instrument.metrics.Counter(PoolExhaustedTotal).Inc()
		_ = s.instrument.hooks.Emit(context.Background(), EventPoolExhausted, Event{})
	}
}
