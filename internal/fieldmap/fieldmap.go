package fieldmap

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Geometry describes a regular grid: origin, spacing and number of nodes
// per axis. A single z node (Nz == 1) is the degenerate 2D case.
type Geometry struct {
	X0, Y0, Z0 float64
	Dx, Dy, Dz float64
	Nx, Ny, Nz int
}

// GridFromRange builds a 2D geometry whose first and last nodes sit on the
// range limits.
func GridFromRange(xRange, yRange [2]float64, nx, ny int) Geometry {
	g := Geometry{
		X0: xRange[0], Y0: yRange[0],
		Nx: nx, Ny: ny, Nz: 1,
		Dz: 1,
	}
	if nx > 1 {
		g.Dx = (xRange[1] - xRange[0]) / float64(nx-1)
	}
	if ny > 1 {
		g.Dy = (yRange[1] - yRange[0]) / float64(ny-1)
	}
	return g
}

// Validate checks that interpolation on g can always find a bracketing cell.
func (g Geometry) Validate() error {
	if g.Nx < 2 || g.Ny < 2 {
		return fmt.Errorf("%w: need at least 2 nodes in x and y, got nx=%d ny=%d", ErrInvalidGeometry, g.Nx, g.Ny)
	}
	if g.Nz < 1 {
		return fmt.Errorf("%w: nz must be at least 1, got %d", ErrInvalidGeometry, g.Nz)
	}
	if !(g.Dx > 0) || !(g.Dy > 0) || math.IsInf(g.Dx, 0) || math.IsInf(g.Dy, 0) {
		return fmt.Errorf("%w: spacing must be positive, got dx=%g dy=%g", ErrInvalidGeometry, g.Dx, g.Dy)
	}
	if g.Nz > 1 && (!(g.Dz > 0) || math.IsInf(g.Dz, 0)) {
		return fmt.Errorf("%w: spacing must be positive, got dz=%g", ErrInvalidGeometry, g.Dz)
	}
	for _, v := range []float64{g.X0, g.Y0, g.Z0} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: origin must be finite", ErrInvalidGeometry)
		}
	}
	return nil
}

// Size returns the number of nodes.
func (g Geometry) Size() int { return g.Nx * g.Ny * g.Nz }

// Index returns the flat offset of a node; x varies fastest.
func (g Geometry) Index(ix, iy, iz int) int {
	return ix + iy*g.Nx + iz*g.Nx*g.Ny
}

// Node returns the coordinates of a node.
func (g Geometry) Node(ix, iy, iz int) (x, y, z float64) {
	return g.X0 + float64(ix)*g.Dx, g.Y0 + float64(iy)*g.Dy, g.Z0 + float64(iz)*g.Dz
}

// Extent returns the transverse bounding box covered by the nodes.
func (g Geometry) Extent() (xMin, xMax, yMin, yMax float64) {
	return g.X0, g.X0 + float64(g.Nx-1)*g.Dx, g.Y0, g.Y0 + float64(g.Ny-1)*g.Dy
}

// FieldMap stores dphi/dx and dphi/dy sampled on a Geometry.
type FieldMap struct {
	geom   Geometry
	dphiDx []float64
	dphiDy []float64
}

// New validates the geometry and array sizes and returns a map that takes
// ownership of the given slices. Callers must not modify them afterwards.
func New(geom Geometry, dphiDx, dphiDy []float64) (*FieldMap, error) {
	if err := geom.Validate(); err != nil {
		return nil, err
	}
	n := geom.Size()
	if len(dphiDx) != n || len(dphiDy) != n {
		return nil, fmt.Errorf("%w: len(dphi_dx)=%d len(dphi_dy)=%d, but nx*ny*nz=%d",
			ErrSizeMismatch, len(dphiDx), len(dphiDy), n)
	}
	return &FieldMap{geom: geom, dphiDx: dphiDx, dphiDy: dphiDy}, nil
}

// Uniform returns a map with the same gradient at every node.
func Uniform(geom Geometry, gx, gy float64) (*FieldMap, error) {
	return Sample(geom, func(x, y, z float64) (float64, float64) { return gx, gy })
}

// Sample tabulates fn on every node of geom.
func Sample(geom Geometry, fn func(x, y, z float64) (dphiDx, dphiDy float64)) (*FieldMap, error) {
	if err := geom.Validate(); err != nil {
		return nil, err
	}
	gx := make([]float64, geom.Size())
	gy := make([]float64, geom.Size())
	for iz := 0; iz < geom.Nz; iz++ {
		for iy := 0; iy < geom.Ny; iy++ {
			for ix := 0; ix < geom.Nx; ix++ {
				x, y, z := geom.Node(ix, iy, iz)
				idx := geom.Index(ix, iy, iz)
				gx[idx], gy[idx] = fn(x, y, z)
			}
		}
	}
	return New(geom, gx, gy)
}

func (fm *FieldMap) Geometry() Geometry { return fm.geom }

// DphiDx returns the backing x-gradient array. It must be treated as read-only.
func (fm *FieldMap) DphiDx() []float64 { return fm.dphiDx }

// DphiDy returns the backing y-gradient array. It must be treated as read-only.
func (fm *FieldMap) DphiDy() []float64 { return fm.dphiDy }

// Stats summarizes the range of both gradient maps.
type Stats struct {
	MinDphiDx, MaxDphiDx float64
	MinDphiDy, MaxDphiDy float64
}

func (fm *FieldMap) Stats() Stats {
	return Stats{
		MinDphiDx: floats.Min(fm.dphiDx),
		MaxDphiDx: floats.Max(fm.dphiDx),
		MinDphiDy: floats.Min(fm.dphiDy),
		MaxDphiDy: floats.Max(fm.dphiDy),
	}
}
