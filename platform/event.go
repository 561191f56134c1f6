// Package platform provides the host-OS collaborators the scheduler
// treats as external: thread spawn/join/affinity, manual- and
// auto-reset events, a mutex, a per-goroutine PRNG, and core-count
// discovery. None of this package's types know anything about tasks or
// deques — it is a narrow seam so the scheduler core can be tested
// without a real OS thread in play.
package platform

import "sync"

// Event is a manual- or auto-reset event, matching the two flavors the
// scheduler needs: work_to_steal (auto-reset, one signal wakes one
// waiter) and message (manual-reset, one signal wakes every waiter until
// explicitly unsignaled).
//
// Auto-reset events are backed by a capacity-1 channel: signaling is a
// non-blocking send, waiting is a receive, and "one signal, one waiter"
// falls out of normal channel semantics for free. Manual-reset events
// are backed by a channel that is closed to broadcast the signal and
// replaced with a fresh one on Unsignal.
type Event struct {
	manual bool

	mu       sync.Mutex
	signaled bool
	ch       chan struct{}
}

// NewAutoResetEvent returns an event that wakes exactly one waiter per
// Signal call.
func NewAutoResetEvent() *Event {
	return &Event{manual: false, ch: make(chan struct{}, 1)}
}

// NewManualResetEvent returns an event that wakes every current and
// future waiter until Unsignal is called.
func NewManualResetEvent() *Event {
	return &Event{manual: true, ch: make(chan struct{})}
}

// Signal raises the event.
func (e *Event) Signal() {
	if e.manual {
		e.mu.Lock()
		defer e.mu.Unlock()
		if !e.signaled {
			e.signaled = true
			close(e.ch)
		}
		return
	}

	select {
	case e.ch <- struct{}{}:
	default:
		// Already has a pending signal; auto-reset events coalesce.
	}
}

// Unsignal lowers a manual-reset event. It is a no-op on auto-reset
// events, which reset themselves the moment a waiter consumes the
// signal.
func (e *Event) Unsignal() {
	if !e.manual {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.signaled {
		e.signaled = false
		e.ch = make(chan struct{})
	}
}

// chan_ returns the channel to select on for the event's *current*
// signaled state. Callers of a manual-reset event must re-fetch this
// after each wake, since Unsignal swaps in a new channel.
func (e *Event) chan_() <-chan struct{} {
	if !e.manual {
		return e.ch
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ch
}

// Wait blocks until the event is signaled. For an auto-reset event this
// consumes the signal.
func (e *Event) Wait() {
	<-e.chan_()
}

// WaitOnAny blocks until any one of events is signaled and returns its
// index. There is no built-in timeout; callers that need a bounded wait
// should select against a time.After channel alongside this, since Go's
// select already composes that way.
func WaitOnAny(events ...*Event) int {
	switch len(events) {
	case 1:
		events[0].Wait()
		return 0
	case 2:
		select {
		case <-events[0].chan_():
			return 0
		case <-events[1].chan_():
			return 1
		}
	default:
		return waitOnAnyReflect(events)
	}
}
