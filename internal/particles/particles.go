package particles

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// Particle states. Any value <= 0 means the particle is no longer tracked.
const (
	StateAlive          int64 = 1
	StateLostOnFieldMap int64 = -11
	StateLostNonFinite  int64 = -12
)

var (
	ErrInvalidReference = errors.New("particles: invalid reference particle")
	ErrLengthMismatch   = errors.New("particles: coordinate slices differ in length")
)

// Reference holds the quantities shared by every particle of a beam.
type Reference struct {
	Q0     float64 // charge in units of the elementary charge
	Mass0  float64 // rest-mass energy [eV]
	P0c    float64 // reference momentum times c [eV]
	Beta0  float64
	Gamma0 float64
}

// NewReference derives beta0 and gamma0 from the rest mass and momentum.
func NewReference(mass0, q0, p0c float64) (Reference, error) {
	if !(mass0 > 0) || !(p0c > 0) || math.IsInf(mass0, 0) || math.IsInf(p0c, 0) {
		return Reference{}, fmt.Errorf("%w: mass0=%g p0c=%g", ErrInvalidReference, mass0, p0c)
	}
	if q0 == 0 || math.IsNaN(q0) {
		return Reference{}, fmt.Errorf("%w: q0 must be non-zero", ErrInvalidReference)
	}
	energy := math.Hypot(p0c, mass0)
	return Reference{
		Q0:     q0,
		Mass0:  mass0,
		P0c:    p0c,
		Beta0:  p0c / energy,
		Gamma0: energy / mass0,
	}, nil
}

// Particles is a structure-of-arrays batch. Index i addresses the same
// particle in every slice.
type Particles struct {
	Ref Reference

	X, Y   []float64
	Px, Py []float64
	Zeta   []float64
	Delta  []float64
	Chi    []float64
	State  []int64
}

// New allocates n particles at the origin, all alive, with chi = 1.
func New(ref Reference, n int) *Particles {
	p := &Particles{
		Ref:   ref,
		X:     make([]float64, n),
		Y:     make([]float64, n),
		Px:    make([]float64, n),
		Py:    make([]float64, n),
		Zeta:  make([]float64, n),
		Delta: make([]float64, n),
		Chi:   make([]float64, n),
		State: make([]int64, n),
	}
	for i := 0; i < n; i++ {
		p.Chi[i] = 1
		p.State[i] = StateAlive
	}
	return p
}

// FromCoordinates builds a batch at the given transverse positions with
// zero momenta.
func FromCoordinates(ref Reference, xs, ys []float64) (*Particles, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("%w: len(x)=%d len(y)=%d", ErrLengthMismatch, len(xs), len(ys))
	}
	p := New(ref, len(xs))
	copy(p.X, xs)
	copy(p.Y, ys)
	return p, nil
}

// Gaussian describes rms sizes of a transverse Gaussian distribution.
type Gaussian struct {
	SigmaX, SigmaY   float64
	SigmaPx, SigmaPy float64
}

// NewGaussianBeam samples n particles from an uncorrelated Gaussian.
func NewGaussianBeam(ref Reference, n int, dist Gaussian, seed int64) *Particles {
	rng := rand.New(rand.NewSource(seed))
	p := New(ref, n)
	for i := 0; i < n; i++ {
		p.X[i] = rng.NormFloat64() * dist.SigmaX
		p.Y[i] = rng.NormFloat64() * dist.SigmaY
		p.Px[i] = rng.NormFloat64() * dist.SigmaPx
		p.Py[i] = rng.NormFloat64() * dist.SigmaPy
	}
	return p
}

func (p *Particles) Len() int { return len(p.X) }

func (p *Particles) Alive(i int) bool { return p.State[i] > 0 }

// AliveCount returns the number of particles still being tracked.
func (p *Particles) AliveCount() int {
	n := 0
	for _, s := range p.State {
		if s > 0 {
			n++
		}
	}
	return n
}

func (p *Particles) AddToPx(i int, v float64) { p.Px[i] += v }
func (p *Particles) AddToPy(i int, v float64) { p.Py[i] += v }

// MarkLost sets a non-positive state code on particle i.
func (p *Particles) MarkLost(i int, code int64) {
	if code > 0 {
		code = -code
	}
	p.State[i] = code
}

// Clone returns a deep copy.
func (p *Particles) Clone() *Particles {
	return &Particles{
		Ref:   p.Ref,
		X:     append([]float64(nil), p.X...),
		Y:     append([]float64(nil), p.Y...),
		Px:    append([]float64(nil), p.Px...),
		Py:    append([]float64(nil), p.Py...),
		Zeta:  append([]float64(nil), p.Zeta...),
		Delta: append([]float64(nil), p.Delta...),
		Chi:   append([]float64(nil), p.Chi...),
		State: append([]int64(nil), p.State...),
	}
}

// Permute returns a copy whose particle i is particle perm[i] of p.
func (p *Particles) Permute(perm []int) *Particles {
	q := New(p.Ref, len(perm))
	for i, j := range perm {
		q.X[i], q.Y[i] = p.X[j], p.Y[j]
		q.Px[i], q.Py[i] = p.Px[j], p.Py[j]
		q.Zeta[i], q.Delta[i] = p.Zeta[j], p.Delta[j]
		q.Chi[i], q.State[i] = p.Chi[j], p.State[j]
	}
	return q
}
