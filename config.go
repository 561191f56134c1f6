package loom

import (
	"github.com/zoobzio/clockz"
)

// bitmapWidth is the native word size backing the online/work bitmaps. A
// 64-bit word caps the scheduler at 63 workers (bit 0 reserved for the
// main thread), matching the "implementers may choose a native word size
// >= 64" allowance.
const bitmapWidth = 64

// defaultTasks, defaultPermits, and defaultQueue are generous enough for
// examples and tests to run unmodified, small enough not to be a real
// capacity plan for anyone.
const (
	defaultTasks   = 4096
	defaultPermits = 1024
	defaultQueue   = 256
)

// Options configures a Scheduler at Initialize time. Initialize fills
// Tasks, Permits, Queue, VictimSelector, and Clock from DefaultOptions
// when they are left zero; Workers is taken as given, so a zero Workers
// brings up no workers beyond the main thread's slot 0. Calling
// DefaultOptions and overriding only what needs to differ also works.
type Options struct {
	// Workers is the number of worker goroutines to bring up during
	// Initialize, beyond the main thread's own slot 0. Negative means
	// "logical cores + Workers" (so -1 on an 8-core machine asks for 7
	// workers, leaving one core for the main thread); the result is
	// clamped to bitmapWidth-1.
	Workers int32

	// MainThreadDrainsOwnQueue tells submit() whether the embedder
	// promises to call DoSomeWork/KickAndDoWorkWhileWaiting from the main
	// thread. The zero value (false) is the default and assumes the main
	// thread is idle: every main-thread submission advertises regardless
	// of depth, so an idle worker always learns about it and steals it.
	// Set true when the caller does drain its own queue, so a single-item
	// push onto queue 0 only advertises once depth exceeds one, trusting
	// the main thread to notice and run it itself.
	MainThreadDrainsOwnQueue bool

	// Prologue and Epilogue bracket every kernel invocation. Leaving
	// either nil installs the metricz/tracez/hookz-backed default.
	Prologue PrologueFn
	Epilogue EpilogueFn

	// Tasks is the task pool's fixed capacity.
	Tasks uint32
	// Permits is the overflow permit pool's fixed capacity.
	Permits uint32
	// Queue is each worker's deque capacity, rounded up to a power of two.
	Queue uint32

	// VictimSelector orders stealing candidates. Nil installs
	// RotatingSelector{}, the bitmap-rotation algorithm.
	VictimSelector VictimSelector

	// Clock abstracts time for the spin loops in KickAndWait and
	// KickAndDoWorkWhileWaiting, and for Shutdown's drain loop. Nil
	// installs clockz.RealClock.
	Clock clockz.Clock
}

// DefaultOptions returns an Options with one worker per core beyond the
// caller's own thread, generous pool sizes, and the main thread assumed
// idle.
func DefaultOptions() Options {
	return Options{
		Workers:                  -1,
		MainThreadDrainsOwnQueue: false,
		Tasks:                    defaultTasks,
		Permits:                  defaultPermits,
		Queue:                    defaultQueue,
		VictimSelector:           RotatingSelector{},
		Clock:                    clockz.RealClock,
	}
}

// normalize fills Tasks, Permits, Queue, VictimSelector, and Clock with
// DefaultOptions' value where they are left zero and resolves Workers
// against the host's core count, the same defensive normalization
// NewWithConfig applies to a caller-supplied Config. Workers itself is not
// defaulted: zero stays zero.
// MainThreadDrainsOwnQueue needs no such fill-in: its zero value (false)
// already matches DefaultOptions, so an Options{} literal behaves the
// same as DefaultOptions() on that axis without this function's help.
func (o Options) normalize(cores int) (Options, error) {
	def := DefaultOptions()

	if o.Tasks == 0 {
		o.Tasks = def.Tasks
	}
	if o.Permits == 0 {
		o.Permits = def.Permits
	}
	if o.Queue == 0 {
		o.Queue = def.Queue
	}
	if o.VictimSelector == nil {
		o.VictimSelector = def.VictimSelector
	}
	if o.Clock == nil {
		o.Clock = def.Clock
	}

	workers := o.Workers
	if workers < 0 {
		workers = int32(cores) + workers
	}
	if workers < 0 {
		workers = 0
	}
	if workers > bitmapWidth-1 {
		workers = bitmapWidth - 1
	}
	o.Workers = workers

	return o, nil
}
