// Package tracking runs a batch of particles through a sequence of beam
// elements for a number of turns.
//
// A Tracker owns the element sequence together with optional metrics and
// observers. Run applies every element in order once per turn, checks the
// context before each element, and records the centroid of the surviving
// particles after every turn:
//
//	t, err := tracking.New(nil, lens, arc)
//	res, err := t.Run(ctx, beam, 1024)
//
// Particles whose coordinates become NaN or infinite are marked lost with
// particles.StateLostNonFinite so that one bad particle cannot poison the
// centroid or later metrics.
package tracking
