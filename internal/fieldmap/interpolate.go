package fieldmap

import (
	"fmt"
	"math"
)

// Interpolator evaluates both transverse potential gradients at a point.
// inside is false when the point lies outside the region where the
// interpolator has data and the returned values are an extrapolation.
type Interpolator interface {
	Gradient(x, y, z float64) (dphiDx, dphiDy float64, inside bool)
}

var _ Interpolator = (*FieldMap)(nil)

// IndicesAndWeights locates a query point inside a grid cell. Ix, Iy and Iz
// are lower-corner node indices, always valid together with index+1 on
// every axis that has more than one node. Weights lie in [0, 1].
type IndicesAndWeights struct {
	Ix, Iy, Iz int
	Wx, Wy, Wz float64

	// OutOfBounds is set when at least one axis was clamped to the grid edge.
	OutOfBounds bool

	nx, nxny int
}

// ComputeIndicesAndWeights maps (x, y, z) to the bracketing cell. Points
// beyond the grid are clamped to the nearest boundary cell with weight 0 or
// 1, so the downstream lookup never leaves the value arrays.
func (fm *FieldMap) ComputeIndicesAndWeights(x, y, z float64) IndicesAndWeights {
	g := &fm.geom
	var iw IndicesAndWeights
	var cx, cy, cz bool

	iw.Ix, iw.Wx, cx = axisIndexAndWeight(x, g.X0, g.Dx, g.Nx)
	iw.Iy, iw.Wy, cy = axisIndexAndWeight(y, g.Y0, g.Dy, g.Ny)
	if g.Nz > 1 {
		iw.Iz, iw.Wz, cz = axisIndexAndWeight(z, g.Z0, g.Dz, g.Nz)
	}

	iw.OutOfBounds = cx || cy || cz
	iw.nx = g.Nx
	iw.nxny = g.Nx * g.Ny
	return iw
}

// axisIndexAndWeight returns the lower node index in [0, n-2], the
// fractional position inside the cell, and whether the point lay outside
// [origin, origin+(n-1)*spacing]. NaN positions clamp to the lower edge.
func axisIndexAndWeight(pos, origin, spacing float64, n int) (int, float64, bool) {
	c := (pos - origin) / spacing
	f := math.Floor(c)
	if !(f >= 0) {
		return 0, 0, true
	}
	last := float64(n - 2)
	if f > last {
		return n - 2, 1, c > float64(n-1)
	}
	return int(f), c - f, false
}

// InterpolateScalar blends the corner nodes of the cell described by iw.
// values must have the layout of the map iw was computed on. Cells on the
// z = 0 slice of a 2D map only read the four nodes of that slice.
func InterpolateScalar(values []float64, iw IndicesAndWeights) float64 {
	base := iw.Ix + iw.Iy*iw.nx + iw.Iz*iw.nxny
	v := bilinear(values, base, iw.nx, iw.Wx, iw.Wy)
	if iw.Wz == 0 {
		return v
	}
	return lerp(v, bilinear(values, base+iw.nxny, iw.nx, iw.Wx, iw.Wy), iw.Wz)
}

func bilinear(values []float64, base, nx int, wx, wy float64) float64 {
	lo := lerp(values[base], values[base+1], wx)
	if wy == 0 {
		return lo
	}
	hi := lerp(values[base+nx], values[base+nx+1], wx)
	return lerp(lo, hi, wy)
}

// lerp is exact at w = 0 and w = 1, returns a for a == b, and never leaves
// the closed interval between a and b.
func lerp(a, b, w float64) float64 {
	if w == 0 || a == b {
		return a
	}
	if w == 1 {
		return b
	}
	v := a + w*(b-a)
	if a < b {
		return math.Max(a, math.Min(b, v))
	}
	return math.Max(b, math.Min(a, v))
}

// Gradient interpolates both maps with a single index/weight computation.
func (fm *FieldMap) Gradient(x, y, z float64) (float64, float64, bool) {
	iw := fm.ComputeIndicesAndWeights(x, y, z)
	return InterpolateScalar(fm.dphiDx, iw), InterpolateScalar(fm.dphiDy, iw), !iw.OutOfBounds
}

// InterpolateAt evaluates each of maps at every point (xs[i], ys[i], zs[i]),
// computing the indices and weights once per point. zs may be nil for the
// z = 0 slice. out[k][i] holds maps[k] at point i.
func (fm *FieldMap) InterpolateAt(xs, ys, zs []float64, maps ...[]float64) ([][]float64, error) {
	if len(xs) != len(ys) || (zs != nil && len(zs) != len(xs)) {
		return nil, fmt.Errorf("fieldmap: coordinate slices differ in length: %d, %d, %d", len(xs), len(ys), len(zs))
	}
	for k, m := range maps {
		if len(m) != fm.geom.Size() {
			return nil, fmt.Errorf("%w: map %d has %d values", ErrSizeMismatch, k, len(m))
		}
	}

	out := make([][]float64, len(maps))
	for k := range out {
		out[k] = make([]float64, len(xs))
	}
	for i := range xs {
		z := 0.0
		if zs != nil {
			z = zs[i]
		}
		iw := fm.ComputeIndicesAndWeights(xs[i], ys[i], z)
		for k, m := range maps {
			out[k][i] = InterpolateScalar(m, iw)
		}
	}
	return out, nil
}
