package compute

import "sync"

// Backend runs a data-parallel loop over [0, n). fn is called with disjoint
// half-open ranges that together cover [0, n) exactly once. fn must not
// touch indices outside its range.
type Backend interface {
	Name() string
	Available() bool
	ForEach(n int, fn func(start, end int))
	Cleanup()
}

var (
	activeMu      sync.RWMutex
	activeBackend Backend
)

func init() {
	activeBackend = AutoSelectBackend()
}

// SetBackend replaces the process default. It must not be called while a
// tracking run is using the previous backend.
func SetBackend(b Backend) {
	activeMu.Lock()
	defer activeMu.Unlock()
	if activeBackend != nil {
		activeBackend.Cleanup()
	}
	activeBackend = b
}

func GetBackend() Backend {
	activeMu.RLock()
	defer activeMu.RUnlock()
	return activeBackend
}

func AutoSelectBackend() Backend {
	cpu := NewCPUBackend()
	if cpu.Available() {
		return cpu
	}
	return NewSerialBackend()
}

// ByName returns a fresh backend for "serial", "cpu" or "auto".
func ByName(name string) (Backend, bool) {
	switch name {
	case "serial":
		return NewSerialBackend(), true
	case "cpu":
		return NewCPUBackend(), true
	case "", "auto":
		return AutoSelectBackend(), true
	default:
		return nil, false
	}
}
