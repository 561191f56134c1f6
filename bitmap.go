package loom

import "sync/atomic"

// atomicOr and atomicAnd are the bitwise equivalents of atomic.Uint64.Add
// the standard library doesn't provide directly: a CAS retry loop exactly
// like freeList's push/pop, just with a different combining function.
// Every online/work bitmap mutation in the scheduler goes through these so
// a reader never observes a torn bit pattern.
func atomicOr(v *atomic.Uint64, bits uint64) {
	for {
		old := v.Load()
		if v.CompareAndSwap(old, old|bits) {
			return
		}
	}
}

func atomicAnd(v *atomic.Uint64, bits uint64) {
	for {
		old := v.Load()
		if v.CompareAndSwap(old, old&bits) {
			return
		}
	}
}
