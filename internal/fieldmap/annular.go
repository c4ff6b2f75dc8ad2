package fieldmap

import (
	"fmt"
	"math"

	"github.com/san-kum/elens/internal/constants"
)

// AnnularProfile describes a uniform hollow electron beam. An InnerRadius of
// zero gives a solid round beam.
type AnnularProfile struct {
	InnerRadius float64
	OuterRadius float64
	XCenter     float64
	YCenter     float64
}

func (p AnnularProfile) validate() error {
	if p.InnerRadius < 0 || !(p.OuterRadius > p.InnerRadius) || math.IsInf(p.OuterRadius, 0) {
		return fmt.Errorf("fieldmap: annular profile needs 0 <= inner < outer, got inner=%g outer=%g",
			p.InnerRadius, p.OuterRadius)
	}
	return nil
}

// EnclosedFraction returns the fraction of the beam charge inside radius r.
func (p AnnularProfile) EnclosedFraction(r float64) float64 {
	r1, r2 := p.InnerRadius, p.OuterRadius
	switch {
	case r <= r1:
		return 0
	case r >= r2:
		return 1
	default:
		return (r*r - r1*r1) / (r2*r2 - r1*r1)
	}
}

// Gradient returns dphi/dx and dphi/dy of the potential of the profile
// carrying a unit line charge (1 C/m). The field is radial:
// E_r = f(r) / (2 pi eps0 r) with f the enclosed charge fraction.
func (p AnnularProfile) Gradient(x, y float64) (float64, float64) {
	dx, dy := x-p.XCenter, y-p.YCenter
	r2 := dx*dx + dy*dy
	if r2 == 0 {
		return 0, 0
	}
	f := p.EnclosedFraction(math.Sqrt(r2))
	if f == 0 {
		return 0, 0
	}
	// -E_r * d/r with E_r/r = f / (2 pi eps0 r^2)
	k := -f / (2 * constants.Pi * constants.Epsilon0 * r2)
	return k * dx, k * dy
}

// Annular tabulates the gradient of an annular electron beam on geom.
func Annular(geom Geometry, profile AnnularProfile) (*FieldMap, error) {
	if err := profile.validate(); err != nil {
		return nil, err
	}
	return Sample(geom, func(x, y, _ float64) (float64, float64) {
		return profile.Gradient(x, y)
	})
}
