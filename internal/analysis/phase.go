package analysis

import (
	"math"
	"strings"

	"github.com/san-kum/elens/internal/particles"
)

// Point is one sample in a transverse phase-space plane.
type Point struct {
	X, Y float64
}

// PhasePortrait2D holds turn-by-turn phase-space samples of one particle.
type PhasePortrait2D struct {
	Plane  string
	Points []Point
}

// PhaseRecorder is a tracking observer that records (x, px) or (y, py) of
// a single particle after every turn while it is alive.
type PhaseRecorder struct {
	Index    int
	Vertical bool
	Portrait PhasePortrait2D
}

func NewPhaseRecorder(index int, vertical bool) *PhaseRecorder {
	plane := "x"
	if vertical {
		plane = "y"
	}
	return &PhaseRecorder{
		Index:    index,
		Vertical: vertical,
		Portrait: PhasePortrait2D{Plane: plane},
	}
}

func (r *PhaseRecorder) OnTurn(turn int, p *particles.Particles) {
	i := r.Index
	if i < 0 || i >= p.Len() || !p.Alive(i) {
		return
	}
	pt := Point{X: p.X[i], Y: p.Px[i]}
	if r.Vertical {
		pt = Point{X: p.Y[i], Y: p.Py[i]}
	}
	r.Portrait.Points = append(r.Portrait.Points, pt)
}

// Positions returns the recorded coordinate, one value per turn.
func (r *PhaseRecorder) Positions() []float64 {
	out := make([]float64, len(r.Portrait.Points))
	for i, pt := range r.Portrait.Points {
		out[i] = pt.X
	}
	return out
}

// PhasePortraitToASCII plots the portrait on a width x height character
// grid centred on the origin, with both axes drawn through it. The first
// finite sample is marked 'o', the others '•'. Non-finite samples are
// skipped.
func PhasePortraitToASCII(portrait *PhasePortrait2D, width, height int) string {
	if portrait == nil || width < 2 || height < 2 {
		return ""
	}

	var ax, ay float64
	n := 0
	for _, pt := range portrait.Points {
		if !finitePoint(pt) {
			continue
		}
		ax = math.Max(ax, math.Abs(pt.X))
		ay = math.Max(ay, math.Abs(pt.Y))
		n++
	}
	if n == 0 {
		return ""
	}
	if ax == 0 {
		ax = 1
	}
	if ay == 0 {
		ay = 1
	}
	ax *= 1.1
	ay *= 1.1

	grid := make([][]rune, height)
	for row := range grid {
		grid[row] = []rune(strings.Repeat(" ", width))
	}
	cell := func(x, y float64) (int, int) {
		col := int(math.Round((x + ax) / (2 * ax) * float64(width-1)))
		row := int(math.Round((ay - y) / (2 * ay) * float64(height-1)))
		return col, row
	}

	col0, row0 := cell(0, 0)
	for row := range grid {
		grid[row][col0] = '│'
	}
	for col := range grid[row0] {
		grid[row0][col] = '─'
	}
	grid[row0][col0] = '┼'

	first := true
	for _, pt := range portrait.Points {
		if !finitePoint(pt) {
			continue
		}
		col, row := cell(pt.X, pt.Y)
		switch {
		case first:
			grid[row][col] = 'o'
			first = false
		case grid[row][col] != 'o':
			grid[row][col] = '•'
		}
	}

	lines := make([]string, height)
	for row, r := range grid {
		lines[row] = string(r)
	}
	return strings.Join(lines, "\n") + "\n"
}

func finitePoint(pt Point) bool {
	return !math.IsNaN(pt.X) && !math.IsInf(pt.X, 0) && !math.IsNaN(pt.Y) && !math.IsInf(pt.Y, 0)
}
