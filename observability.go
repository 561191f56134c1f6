package loom

import (
	"context"
	"strconv"
	"unsafe"

	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Observability constants, following the zoobzio/pipz convention of
// package-level typed keys for metrics, spans, and hook events rather
// than bare strings scattered through the code.
const (
	TasksCompletedTotal = metricz.Key("loom.tasks.completed.total")
	TasksBlockedTotal   = metricz.Key("loom.tasks.blocked.total")
	PoolExhaustedTotal  = metricz.Key("loom.pool.exhausted.total")

	TaskRunSpan = tracez.Key("loom.task.run")

	TaskSpanTagFlags = tracez.Tag("loom.task.flags")

	EventWorkerOnline  = hookz.Key("loom.worker.online")
	EventWorkerOffline = hookz.Key("loom.worker.offline")
	EventPoolExhausted = hookz.Key("loom.pool.exhausted")
)

// Event is the payload delivered to hookz subscribers for scheduler
// lifecycle events. A single event type covers all three keys above;
// subscribers switch on which key they registered for.
type Event struct {
	Slot uint32
}

// instrumentation bundles the default prologue/epilogue wiring installed
// when Options.Prologue/Options.Epilogue are left nil, plus the
// metrics/tracer/hooks it reports through. The defaults here are not
// no-ops — they're the observability backbone — but every call site can
// still invoke prologue/epilogue unconditionally.
type instrumentation struct {
	metrics *metricz.Registry
	tracer  *tracez.Tracer
	hooks   *hookz.Hooks[Event]
}

func newInstrumentation() *instrumentation {
	metrics := metricz.New()
	metrics.Counter(TasksCompletedTotal)
	metrics.Counter(TasksBlockedTotal)
	metrics.Counter(PoolExhaustedTotal)

	return &instrumentation{
		metrics: metrics,
		tracer:  tracez.New(),
		hooks:   hookz.New[Event](),
	}
}

func (o *instrumentation) prologue(t *Task, _ unsafe.Pointer) {
	_, span := o.tracer.StartSpan(context.Background(), TaskRunSpan)
	span.SetTag(TaskSpanTagFlags, strconv.FormatUint(uint64(t.flags), 10))
	t.span = span
}

func (o *instrumentation) epilogue(t *Task, _ unsafe.Pointer) {
	o.metrics.Counter(TasksCompletedTotal).Inc()
	if t.span != nil {
		t.span.Finish()
		t.span = nil
	}
}
