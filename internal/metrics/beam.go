package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/elens/internal/particles"
)

// Plane selects a transverse coordinate pair.
type Plane int

const (
	Horizontal Plane = iota
	Vertical
)

func (pl Plane) String() string {
	if pl == Vertical {
		return "y"
	}
	return "x"
}

// alive copies the position and momentum of the surviving particles.
func alive(p *particles.Particles, pl Plane) (pos, mom []float64) {
	src, srcP := p.X, p.Px
	if pl == Vertical {
		src, srcP = p.Y, p.Py
	}
	pos = make([]float64, 0, p.Len())
	mom = make([]float64, 0, p.Len())
	for i := 0; i < p.Len(); i++ {
		if p.Alive(i) {
			pos = append(pos, src[i])
			mom = append(mom, srcP[i])
		}
	}
	return pos, mom
}

// Centroid reports the mean position of the surviving particles at the
// last observed turn.
type Centroid struct {
	name  string
	plane Plane
	value float64
}

func NewCentroidX() *Centroid { return &Centroid{name: "centroid_x", plane: Horizontal} }
func NewCentroidY() *Centroid { return &Centroid{name: "centroid_y", plane: Vertical} }

func (c *Centroid) Name() string { return c.name }

func (c *Centroid) Observe(p *particles.Particles, turn int) {
	pos, _ := alive(p, c.plane)
	if len(pos) == 0 {
		c.value = 0
		return
	}
	c.value = stat.Mean(pos, nil)
}

func (c *Centroid) Value() float64 { return c.value }
func (c *Centroid) Reset()         { c.value = 0 }

// RMS reports the rms beam size at the last observed turn.
type RMS struct {
	name  string
	plane Plane
	value float64
}

func NewRMSX() *RMS { return &RMS{name: "rms_x", plane: Horizontal} }
func NewRMSY() *RMS { return &RMS{name: "rms_y", plane: Vertical} }

func (r *RMS) Name() string { return r.name }

func (r *RMS) Observe(p *particles.Particles, turn int) {
	pos, _ := alive(p, r.plane)
	if len(pos) < 2 {
		r.value = 0
		return
	}
	r.value = stat.StdDev(pos, nil)
}

func (r *RMS) Value() float64 { return r.value }
func (r *RMS) Reset()         { r.value = 0 }

// Emittance reports the rms geometric emittance
// sqrt(<x^2><px^2> - <x px>^2) at the last observed turn, together with
// its largest relative growth over the first observation.
type Emittance struct {
	name    string
	plane   Plane
	initial float64
	value   float64
	growth  float64
	samples int
}

func NewEmittanceX() *Emittance { return &Emittance{name: "emittance_x", plane: Horizontal} }
func NewEmittanceY() *Emittance { return &Emittance{name: "emittance_y", plane: Vertical} }

func (e *Emittance) Name() string { return e.name }

func (e *Emittance) Observe(p *particles.Particles, turn int) {
	pos, mom := alive(p, e.plane)
	e.value = rmsEmittance(pos, mom)
	if e.samples == 0 {
		e.initial = e.value
	} else if e.initial > 0 {
		e.growth = math.Max(e.growth, e.value/e.initial-1)
	}
	e.samples++
}

func (e *Emittance) Value() float64 { return e.value }

// Growth returns the largest relative emittance increase seen so far.
func (e *Emittance) Growth() float64 { return e.growth }

func (e *Emittance) Reset() {
	e.initial = 0
	e.value = 0
	e.growth = 0
	e.samples = 0
}

func rmsEmittance(pos, mom []float64) float64 {
	if len(pos) < 2 {
		return 0
	}
	vx := stat.Variance(pos, nil)
	vp := stat.Variance(mom, nil)
	cov := stat.Covariance(pos, mom, nil)
	// rounding can push a fully correlated beam slightly negative
	return math.Sqrt(math.Max(vx*vp-cov*cov, 0))
}

// LostFraction reports the share of the batch no longer alive.
type LostFraction struct {
	name  string
	value float64
}

func NewLostFraction() *LostFraction { return &LostFraction{name: "lost_fraction"} }

func (l *LostFraction) Name() string { return l.name }

func (l *LostFraction) Observe(p *particles.Particles, turn int) {
	if p.Len() == 0 {
		l.value = 0
		return
	}
	l.value = 1 - float64(p.AliveCount())/float64(p.Len())
}

func (l *LostFraction) Value() float64 { return l.value }
func (l *LostFraction) Reset()         { l.value = 0 }
