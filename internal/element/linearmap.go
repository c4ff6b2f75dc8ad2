package element

import (
	"math"

	"github.com/san-kum/elens/internal/compute"
	"github.com/san-kum/elens/internal/particles"
)

// LinearMapConfig describes an uncoupled one-turn map observed at a point
// where alpha = 0 in both planes.
type LinearMapConfig struct {
	Name         string
	Qx, Qy       float64 // tunes, only the fractional part matters
	BetaX, BetaY float64 // beta functions [m]
	Backend      compute.Backend
}

// LinearMap rotates each plane in normalized phase space by 2*pi*Q.
type LinearMap struct {
	name    string
	qx, qy  float64
	mx, my  [2][2]float64
	backend compute.Backend
}

func NewLinearMap(cfg LinearMapConfig) (*LinearMap, error) {
	for _, v := range []struct {
		field string
		value float64
	}{{"qx", cfg.Qx}, {"qy", cfg.Qy}} {
		if math.IsNaN(v.value) || math.IsInf(v.value, 0) {
			return nil, invalid(v.field, v.value, "must be finite")
		}
	}
	if !(cfg.BetaX > 0) || math.IsInf(cfg.BetaX, 0) {
		return nil, invalid("beta_x", cfg.BetaX, "must be positive")
	}
	if !(cfg.BetaY > 0) || math.IsInf(cfg.BetaY, 0) {
		return nil, invalid("beta_y", cfg.BetaY, "must be positive")
	}

	name := cfg.Name
	if name == "" {
		name = "linear_map"
	}
	return &LinearMap{
		name:    name,
		qx:      cfg.Qx,
		qy:      cfg.Qy,
		mx:      rotation(cfg.Qx, cfg.BetaX),
		my:      rotation(cfg.Qy, cfg.BetaY),
		backend: cfg.Backend,
	}, nil
}

func rotation(q, beta float64) [2][2]float64 {
	s, c := math.Sincos(2 * math.Pi * q)
	return [2][2]float64{
		{c, beta * s},
		{-s / beta, c},
	}
}

func (m *LinearMap) Name() string { return m.name }

// Tunes returns the configured horizontal and vertical tunes.
func (m *LinearMap) Tunes() (float64, float64) { return m.qx, m.qy }

func (m *LinearMap) Track(p *particles.Particles) {
	backend := m.backend
	if backend == nil {
		backend = compute.GetBackend()
	}

	backend.ForEach(p.Len(), func(start, end int) {
		for i := start; i < end; i++ {
			if !p.Alive(i) {
				continue
			}
			x, px := p.X[i], p.Px[i]
			p.X[i] = m.mx[0][0]*x + m.mx[0][1]*px
			p.Px[i] = m.mx[1][0]*x + m.mx[1][1]*px

			y, py := p.Y[i], p.Py[i]
			p.Y[i] = m.my[0][0]*y + m.my[0][1]*py
			p.Py[i] = m.my[1][0]*y + m.my[1][1]*py
		}
	})
}
