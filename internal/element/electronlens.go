package element

import (
	"math"

	"github.com/san-kum/elens/internal/compute"
	"github.com/san-kum/elens/internal/fieldmap"
	"github.com/san-kum/elens/internal/particles"
)

// ElectronLensConfig holds the parameters of an electron lens.
type ElectronLensConfig struct {
	Name     string
	Length   float64 // interaction length [m]
	Current  float64 // electron beam current [A]
	Voltage  float64 // electron beam accelerating voltage [V]
	FieldMap fieldmap.Interpolator
	Boundary fieldmap.BoundaryPolicy

	// Backend runs the per-particle loop. Nil selects compute.GetBackend()
	// at tracking time.
	Backend compute.Backend
}

// ElectronLens kicks particles with the space-charge field of an electron
// beam described by a potential-gradient map.
type ElectronLens struct {
	name     string
	length   float64
	current  float64
	voltage  float64
	betaE    float64
	fmap     fieldmap.Interpolator
	boundary fieldmap.BoundaryPolicy
	backend  compute.Backend
}

// NewElectronLens validates cfg and precomputes the electron kinematics.
func NewElectronLens(cfg ElectronLensConfig) (*ElectronLens, error) {
	if cfg.FieldMap == nil {
		return nil, ErrNoFieldMap
	}
	if math.IsNaN(cfg.Length) || math.IsInf(cfg.Length, 0) || cfg.Length < 0 {
		return nil, invalid("length", cfg.Length, "must be finite and non-negative")
	}
	if math.IsNaN(cfg.Current) || math.IsInf(cfg.Current, 0) {
		return nil, invalid("current", cfg.Current, "must be finite")
	}
	switch cfg.Boundary {
	case fieldmap.BoundaryClamp, fieldmap.BoundaryLost:
	default:
		return nil, invalid("boundary", float64(cfg.Boundary), "unknown boundary policy")
	}

	betaE, err := ElectronBeta(cfg.Voltage)
	if err != nil {
		return nil, err
	}

	name := cfg.Name
	if name == "" {
		name = "electron_lens"
	}

	return &ElectronLens{
		name:     name,
		length:   cfg.Length,
		current:  cfg.Current,
		voltage:  cfg.Voltage,
		betaE:    betaE,
		fmap:     cfg.FieldMap,
		boundary: cfg.Boundary,
		backend:  cfg.Backend,
	}, nil
}

func (el *ElectronLens) Name() string     { return el.name }
func (el *ElectronLens) Length() float64  { return el.length }
func (el *ElectronLens) Current() float64 { return el.current }
func (el *ElectronLens) Voltage() float64 { return el.voltage }

// ElectronBeta returns the signed electron beta used by the kick.
func (el *ElectronLens) ElectronBeta() float64 { return el.betaE }

// Factor returns the kick factor for particles with reference ref.
func (el *ElectronLens) Factor(ref particles.Reference) float64 {
	return KickFactor(el.current, el.length, ref.Q0, ref.Mass0, ref.Beta0, ref.Gamma0, el.betaE)
}

// Track applies one pass through the lens. Each particle is looked up once
// in the field map at (x, y, 0) and receives px += factor*dphi/dx and
// py += factor*dphi/dy. Calling Track twice applies the kick twice.
func (el *ElectronLens) Track(p *particles.Particles) {
	factor := el.Factor(p.Ref)
	lost := el.boundary == fieldmap.BoundaryLost

	backend := el.backend
	if backend == nil {
		backend = compute.GetBackend()
	}

	backend.ForEach(p.Len(), func(start, end int) {
		for i := start; i < end; i++ {
			if !p.Alive(i) {
				continue
			}

			dphiDx, dphiDy, inside := el.fmap.Gradient(p.X[i], p.Y[i], 0)
			if !inside && lost {
				p.MarkLost(i, particles.StateLostOnFieldMap)
				continue
			}

			p.AddToPx(i, factor*dphiDx)
			p.AddToPy(i, factor*dphiDy)
		}
	})
}
