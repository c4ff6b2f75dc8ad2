package config

import (
	"fmt"
	"os"

	"github.com/san-kum/elens/internal/compute"
	"github.com/san-kum/elens/internal/constants"
	"github.com/san-kum/elens/internal/element"
	"github.com/san-kum/elens/internal/fieldmap"
	"github.com/san-kum/elens/internal/particles"
)

// Species maps a beam species name to rest mass [eV] and charge.
var Species = map[string]struct {
	Mass0 float64
	Q0    float64
}{
	"proton":     {constants.ProtonMassEV, 1},
	"antiproton": {constants.ProtonMassEV, -1},
}

// BuildFieldMap generates or loads the gradient map described by c.
func (c *Config) BuildFieldMap() (*fieldmap.FieldMap, error) {
	fm := c.FieldMap
	switch fm.Source {
	case SourceFile:
		f, err := os.Open(fm.Path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return fieldmap.LoadCSV(f)
	case SourceUniform:
		return fieldmap.Uniform(c.Geometry(), fm.DphiDx, fm.DphiDy)
	case SourceAnnular:
		return fieldmap.Annular(c.Geometry(), fieldmap.AnnularProfile{
			InnerRadius: fm.InnerRadius,
			OuterRadius: fm.OuterRadius,
			XCenter:     fm.XCenter,
			YCenter:     fm.YCenter,
		})
	default:
		return nil, invalid("field_map.source", fmt.Sprintf("unknown source %q", fm.Source))
	}
}

// Geometry returns the grid used by the generated field map sources.
func (c *Config) Geometry() fieldmap.Geometry {
	fm := c.FieldMap
	return fieldmap.GridFromRange([2]float64{fm.XMin, fm.XMax}, [2]float64{fm.YMin, fm.YMax}, fm.Nx, fm.Ny)
}

// Reference resolves the beam species, with explicit Mass0 and Q0 taking
// precedence.
func (c *Config) Reference() (particles.Reference, error) {
	mass0, q0 := c.Beam.Mass0, c.Beam.Q0
	if sp, ok := Species[c.Beam.Species]; ok {
		if mass0 == 0 {
			mass0 = sp.Mass0
		}
		if q0 == 0 {
			q0 = sp.Q0
		}
	} else if mass0 == 0 || q0 == 0 {
		return particles.Reference{}, invalid("beam.species", fmt.Sprintf("unknown species %q without mass0 and q0", c.Beam.Species))
	}
	return particles.NewReference(mass0, q0, c.Beam.P0c)
}

// BuildBeam samples the configured Gaussian beam.
func (c *Config) BuildBeam(ref particles.Reference) *particles.Particles {
	b := c.Beam
	return particles.NewGaussianBeam(ref, b.Particles, particles.Gaussian{
		SigmaX:  b.SigmaX,
		SigmaY:  b.SigmaY,
		SigmaPx: b.SigmaPx,
		SigmaPy: b.SigmaPy,
	}, b.Seed)
}

// BuildBackend resolves the configured compute backend.
func (c *Config) BuildBackend() (compute.Backend, error) {
	b, ok := compute.ByName(c.Tracking.Backend)
	if !ok {
		return nil, invalid("tracking.backend", fmt.Sprintf("unknown backend %q", c.Tracking.Backend))
	}
	return b, nil
}

// BuildLens constructs the electron lens on fm.
func (c *Config) BuildLens(fm fieldmap.Interpolator, backend compute.Backend) (*element.ElectronLens, error) {
	boundary, err := fieldmap.ParseBoundaryPolicy(c.Lens.Boundary)
	if err != nil {
		return nil, err
	}
	return element.NewElectronLens(element.ElectronLensConfig{
		Name:     c.Lens.Name,
		Length:   c.Lens.Length,
		Current:  c.Lens.Current,
		Voltage:  c.Lens.Voltage,
		FieldMap: fm,
		Boundary: boundary,
		Backend:  backend,
	})
}

// BuildArc constructs the one-turn linear map closing the ring.
func (c *Config) BuildArc(backend compute.Backend) (*element.LinearMap, error) {
	t := c.Tracking
	return element.NewLinearMap(element.LinearMapConfig{
		Name:    "arc",
		Qx:      t.Qx,
		Qy:      t.Qy,
		BetaX:   t.BetaX,
		BetaY:   t.BetaY,
		Backend: backend,
	})
}
