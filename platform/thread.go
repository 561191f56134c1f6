package platform

import "runtime"

// ThreadOptions carries a name for debugger/tooling purposes, an affinity
// mask, and a stack size hint. Go goroutines don't take a name or a stack
// size, so Name is unused beyond documentation
// value and Stack is accepted but ignored — both are kept on the struct
// so the external-collaborator contract described in the design stays
// literal.
type ThreadOptions struct {
	Name     string
	Affinity uint64
	Stack    uint64
}

// Thread is a handle to a spawned worker goroutine, locked to its own OS
// thread for the duration of entry so affinity pinning (where supported)
// actually sticks to something stable.
type Thread struct {
	done chan struct{}
}

// Spawn starts entry on a new goroutine locked to its own OS thread and
// returns immediately. entry must not return until it observes shutdown.
func Spawn(entry func(), opts ThreadOptions) *Thread {
	t := &Thread{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		if opts.Affinity != 0 {
			setAffinity(opts.Affinity)
		}
		entry()
	}()
	return t
}

// Join blocks until the thread's entry function returns.
func (t *Thread) Join() {
	<-t.done
}

// Yield gives up the remainder of the current goroutine's time slice.
func Yield() {
	runtime.Gosched()
}
