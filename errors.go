package loom

import "errors"

// Error kinds. These are, per design, almost all programming errors: they
// are returned so a caller can choose to panic, log, and abort in whatever
// way suits their application, but none of them represent a condition the
// scheduler itself can recover from.
var (
	// ErrInvalidHandle is returned when a Handle is stale (its task has
	// already been recycled) or was never issued by this scheduler.
	ErrInvalidHandle = errors.New("loom: invalid or stale handle")

	// ErrResourceExhausted is returned when the task pool or permit pool
	// has no free slots left to acquire.
	ErrResourceExhausted = errors.New("loom: pool exhausted")

	// ErrCapacityExceeded is returned when pushing to a worker's deque
	// would exceed its fixed capacity.
	ErrCapacityExceeded = errors.New("loom: deque capacity exceeded")

	// ErrMisuseOnMainThread is returned by DoSomeWork when called from
	// anything other than the goroutine that owns queue slot 0.
	ErrMisuseOnMainThread = errors.New("loom: do-some-work called from a worker")

	// ErrWorkerLimitExceeded is returned by BringUpWorkers when bringing up
	// the requested number of additional workers would push the online
	// count past the bitmap-width worker limit. Initialize never returns
	// this: its own worker count is clamped to the limit during
	// normalization instead of rejected.
	ErrWorkerLimitExceeded = errors.New("loom: worker count exceeds bitmap width limit")

	// ErrNoKernel is returned by Describe when given a nil kernel function.
	ErrNoKernel = errors.New("loom: describe requires a non-nil kernel")
)
