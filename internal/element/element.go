package element

import "github.com/san-kum/elens/internal/particles"

// Element applies one pass through a beam element to a batch, in place.
// Particles that are not alive are left untouched.
type Element interface {
	Name() string
	Track(p *particles.Particles)
}

var (
	_ Element = (*ElectronLens)(nil)
	_ Element = (*LinearMap)(nil)
)
