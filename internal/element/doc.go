// Package element implements the beam elements a particle batch is tracked
// through.
//
//   - [ElectronLens]: transverse kick from an interpolated field map of an
//     electron beam's space charge
//   - [LinearMap]: uncoupled linear one-turn transfer map
//
// Elements are immutable after construction and mutate only the particles
// passed to Track, so one element may be shared by concurrent tracking runs
// on different batches.
package element
