package loom

// DescribeWith is a typed convenience over Describe: callers get a typed
// payload at the call site while the core pool and deque machinery stays
// on the fixed *Task pointer type underneath. kernel receives data by
// value; closures that need to write a result back should close over a
// pointer themselves.
func DescribeWith[T any](s *Scheduler, kernel func(T), data T, flags uint32) (Handle, error) {
	return s.DescribeFunc(func() {
		kernel(data)
	}, flags)
}
