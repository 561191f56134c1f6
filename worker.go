package loom

import "github.com/origamicomet/loom/platform"

// workerState names the four states of a worker's run loop, spelled out as
// a small state machine with a switch over named states.
type workerState int

const (
	stateWaiting workerState = iota
	stateWorkInQueue
	stateStealing
	stateShutdown
)

// worker holds one worker goroutine's thread-local state: its own deque
// (reached through scheduler.queues[slot]), its slot index, and its PRNG.
// BringUpWorkers constructs one per slot and hands run to platform.Spawn.
type worker struct {
	scheduler *Scheduler
	slot      uint32
	prng      *platform.PRNG
}

// run is the worker's entry point. online is set and the PRNG seeded by
// BringUpWorkers before this goroutine starts, avoiding the race of doing
// so from inside the goroutine after the caller has already returned from
// BringUpWorkers.
func (w *worker) run() {
	state := stateWaiting
	for {
		switch state {
		case stateWaiting:
			state = w.waiting()
		case stateWorkInQueue:
			state = w.workInQueue()
		case stateStealing:
			state = w.stealing()
		case stateShutdown:
			w.shutdown()
			return
		}
	}
}

func (w *worker) shutdownPending() bool {
	return w.scheduler.shutdownRequested[w.slot].Load()
}

// waiting blocks on work_to_steal OR message. A message wake whose
// shutdown bit isn't this worker's own (another slot is being brought
// down) yields once and re-enters the wait rather than busy-spinning
// against the still-signaled manual-reset event until BringDownWorkers
// calls Unsignal.
func (w *worker) waiting() workerState {
	s := w.scheduler
	for {
		if platform.WaitOnAny(s.workToSteal, s.message) == 0 {
			return stateStealing
		}
		if w.shutdownPending() {
			return stateShutdown
		}
		platform.Yield()
	}
}

// workInQueue drains the worker's own deque LIFO. An empty deque clears
// the worker's own work bit (nothing left to advertise) and moves to
// Stealing.
func (w *worker) workInQueue() workerState {
	s := w.scheduler
	q := s.queues[w.slot]
	for {
		if w.shutdownPending() {
			return stateShutdown
		}
		t := q.pop()
		if t == nil {
			atomicAnd(&s.work, ^(uint64(1) << w.slot))
			return stateStealing
		}
		s.execute(t, w.slot)
	}
}

// stealing attempts to steal and execute until its own queue gains work
// (a permit resolved during one of its steals submitted a successor back
// onto this worker's own deque), no victim is available, or shutdown is
// requested.
func (w *worker) stealing() workerState {
	s := w.scheduler
	q := s.queues[w.slot]
	for {
		if w.shutdownPending() {
			return stateShutdown
		}
		if !q.isEmpty() {
			return stateWorkInQueue
		}
		t := s.steal(w.slot, w.prng)
		if t == nil {
			return stateWaiting
		}
		s.execute(t, w.slot)
	}
}

// shutdown clears the worker's online bit and signals work_to_steal once
// more so any sibling still in Waiting gets a chance to pick up whatever
// this worker leaves behind, then returns, ending the goroutine.
func (w *worker) shutdown() {
	s := w.scheduler
	atomicAnd(&s.online, ^(uint64(1) << w.slot))
	s.workToSteal.Signal()
}
