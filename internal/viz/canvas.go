package viz

import (
	"math"
	"strings"
)

// dotBit is the braille bit of dot (dx, dy) inside a 2x4 cell. Dots 1-3
// and 4-6 run down the two columns; 7 and 8 were added below them later.
func dotBit(dx, dy int) rune {
	if dy < 3 {
		return 1 << (dy + 3*dx)
	}
	return 0x40 << dx
}

const brailleBlank = 0x2800

// Canvas is a Braille pixel grid of Width x Height cells, which gives
// (2*Width) x (4*Height) addressable dots.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set lights the dot at (x, y) in dot coordinates. Out-of-range dots are
// ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= dotBit(x%2, y%4)
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

// DrawLine lights the dots between two dot positions, stepping along the
// longer axis.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	steps := max(absInt(x1-x0), absInt(y1-y0))
	if steps == 0 {
		c.Set(x0, y0)
		return
	}
	fx := float64(x1-x0) / float64(steps)
	fy := float64(y1-y0) / float64(steps)
	for k := 0; k <= steps; k++ {
		c.Set(x0+int(math.Round(fx*float64(k))), y0+int(math.Round(fy*float64(k))))
	}
}

// Dots calls fn with the dot coordinates of every lit dot, row by row.
func (c *Canvas) Dots(fn func(x, y int)) {
	for row, cells := range c.Grid {
		for col, r := range cells {
			bits := r - brailleBlank
			if bits <= 0 {
				continue
			}
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if bits&dotBit(dx, dy) != 0 {
						fn(2*col+dx, 4*row+dy)
					}
				}
			}
		}
	}
}

// Viewport maps physical transverse coordinates onto canvas dots, y up.
type Viewport struct {
	XMin, XMax float64
	YMin, YMax float64
}

// Dot returns the dot coordinates of (x, y); ok is false outside the view.
func (v Viewport) Dot(c *Canvas, x, y float64) (int, int, bool) {
	if !(x >= v.XMin && x <= v.XMax && y >= v.YMin && y <= v.YMax) {
		return 0, 0, false
	}
	w, h := float64(c.Width*2-1), float64(c.Height*4-1)
	col := int(math.Round((x - v.XMin) / (v.XMax - v.XMin) * w))
	row := int(math.Round((v.YMax - y) / (v.YMax - v.YMin) * h))
	return col, row, true
}

// Scatter plots every (xs[i], ys[i]) inside the viewport and returns how
// many points fell outside it.
func (c *Canvas) Scatter(v Viewport, xs, ys []float64) int {
	outside := 0
	for i := range xs {
		col, row, ok := v.Dot(c, xs[i], ys[i])
		if !ok {
			outside++
			continue
		}
		c.Set(col, row)
	}
	return outside
}

// Circle outlines a circle of radius r centred at (x0, y0).
func (c *Canvas) Circle(v Viewport, x0, y0, r float64) {
	const segments = 96
	prevCol, prevRow, prevOK := v.Dot(c, x0+r, y0)
	for k := 1; k <= segments; k++ {
		s, co := math.Sincos(2 * math.Pi * float64(k) / segments)
		col, row, ok := v.Dot(c, x0+r*co, y0+r*s)
		if ok && prevOK {
			c.DrawLine(prevCol, prevRow, col, row)
		}
		prevCol, prevRow, prevOK = col, row, ok
	}
}

func (c *Canvas) String() string {
	rows := make([]string, len(c.Grid))
	for i, row := range c.Grid {
		rows[i] = string(row)
	}
	return strings.Join(rows, "\n") + "\n"
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
