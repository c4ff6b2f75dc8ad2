package compute

import (
	"runtime"
	"sync"
)

// DefaultMinChunk is the smallest range handed to a worker goroutine.
const DefaultMinChunk = 256

type CPUBackend struct {
	workers  int
	minChunk int
}

func NewCPUBackend() *CPUBackend {
	return &CPUBackend{
		workers:  runtime.NumCPU(),
		minChunk: DefaultMinChunk,
	}
}

// NewCPUBackendWith fixes the worker count and minimum chunk size.
func NewCPUBackendWith(workers, minChunk int) *CPUBackend {
	if workers < 1 {
		workers = 1
	}
	if minChunk < 1 {
		minChunk = 1
	}
	return &CPUBackend{workers: workers, minChunk: minChunk}
}

func (c *CPUBackend) Name() string    { return "cpu" }
func (c *CPUBackend) Available() bool { return c.workers > 1 }
func (c *CPUBackend) Cleanup()        {}
func (c *CPUBackend) Workers() int    { return c.workers }

func (c *CPUBackend) ForEach(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if n <= c.minChunk || c.workers <= 1 {
		fn(0, n)
		return
	}

	workers := c.workers
	if n/c.minChunk < workers {
		workers = n / c.minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}

// SerialBackend runs the whole range on the calling goroutine.
type SerialBackend struct{}

func NewSerialBackend() *SerialBackend { return &SerialBackend{} }

func (s *SerialBackend) Name() string    { return "serial" }
func (s *SerialBackend) Available() bool { return true }
func (s *SerialBackend) Cleanup()        {}

func (s *SerialBackend) ForEach(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	fn(0, n)
}
