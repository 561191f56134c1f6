package platform

import "sync"

// Mutex is a thin named wrapper over sync.Mutex. It exists so the
// scheduler's managerial lock reads as an explicit external collaborator
// (per the design's component table) rather than an inline sync.Mutex
// field indistinguishable from incidental locking elsewhere.
type Mutex struct {
	mu sync.Mutex
}

func (m *Mutex) Lock()   { m.mu.Lock() }
func (m *Mutex) Unlock() { m.mu.Unlock() }
