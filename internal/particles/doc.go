// Package particles provides the structure-of-arrays particle batch that beam
// elements mutate in place, together with the reference-particle kinematics
// (beta0, gamma0) shared by the whole batch.
package particles
