//go:build loom_debug

package loom

import (
	"bytes"
	"runtime"
	"strconv"
)

// currentGoroutineID extracts the calling goroutine's ID from its own stack
// trace header ("goroutine N [running]:"). It exists only to back
// ErrMisuseOnMainThread detection in checked builds; nothing else in the
// scheduler depends on goroutine identity, and this is deliberately not
// exposed outside the package.
func currentGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := bytes.TrimPrefix(buf[:n], []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		if id, err := strconv.ParseUint(string(b[:i]), 10, 64); err == nil {
			return id
		}
	}
	return 0
}
