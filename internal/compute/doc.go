// Package compute provides the data-parallel loop used to push a particle
// batch through a beam element.
//
// The package selects the best available backend at startup:
//
//   - CPU: chunked fan-out over one goroutine per core
//   - Serial: single goroutine, used when only one core is available
//
// # Usage
//
// Elements describe the per-particle work as a range function and let the
// backend decide how to split it:
//
//	backend := compute.GetBackend()
//	backend.ForEach(p.Len(), func(start, end int) {
//	    for i := start; i < end; i++ {
//	        // update particle i
//	    }
//	})
//
// Ranges handed to fn are disjoint, so per-particle writes need no locking.
package compute
