package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/elens/internal/particles"
)

// Halo is the fraction of surviving particles lying farther than nsigma
// standard deviations from the centroid recorded on the first observed
// turn. The reference width is frozen at that turn so halo depletion by
// the lens shows up as a falling value.
type Halo struct {
	name   string
	plane  Plane
	nsigma float64

	mean0, sigma0 float64
	seeded        bool
	value         float64
}

func NewHaloX() *Halo { return NewHalo(Horizontal, 3) }
func NewHaloY() *Halo { return NewHalo(Vertical, 3) }

func NewHalo(pl Plane, nsigma float64) *Halo {
	return &Halo{name: "halo_" + pl.String(), plane: pl, nsigma: nsigma}
}

func (h *Halo) Name() string { return h.name }

func (h *Halo) Observe(p *particles.Particles, turn int) {
	pos, _ := alive(p, h.plane)
	if len(pos) == 0 {
		h.value = 0
		return
	}
	if !h.seeded {
		h.mean0, h.sigma0 = stat.PopMeanStdDev(pos, nil)
		h.seeded = true
	}
	cut := h.nsigma * h.sigma0
	outside := 0
	for _, x := range pos {
		if math.Abs(x-h.mean0) > cut {
			outside++
		}
	}
	h.value = float64(outside) / float64(len(pos))
}

func (h *Halo) Value() float64 { return h.value }

func (h *Halo) Reset() {
	h.seeded = false
	h.mean0, h.sigma0, h.value = 0, 0, 0
}
