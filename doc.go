// Package loom provides a fixed-size, lock-free, work-stealing task
// scheduler for fine-grained CPU parallelism.
//
// The scheduler supports:
// - Per-worker Chase-Lev deques with LIFO push/pop and FIFO stealing
// - Fixed task and permit pools backed by lock-free free-lists
// - Reverse-dependency ("permit") wiring instead of forward dependency lists
// - Biased, PRNG-rotated victim selection to avoid starving low-index workers
// - Worker lifecycle management with affinity pinning on Linux
// - Pluggable victim-selection strategies and metrics/tracing/hooks
//
// A Scheduler is constructed with Initialize and is not safe to use before
// that call returns or after Shutdown. Application code describes tasks,
// optionally wires permit edges between them, and kicks them; the
// scheduler takes it from there.
package loom
