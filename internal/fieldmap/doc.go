// Package fieldmap provides regular-grid tabulations of the transverse
// potential gradient (dphi/dx, dphi/dy) and trilinear interpolation on them.
//
// A [FieldMap] is built once, validated, and then shared read-only:
//
//	geom := fieldmap.GridFromRange([2]float64{-5e-3, 5e-3}, [2]float64{-5e-3, 5e-3}, 101, 101)
//	fm, err := fieldmap.Annular(geom, fieldmap.AnnularProfile{InnerRadius: 1e-3, OuterRadius: 2e-3})
//	iw := fm.ComputeIndicesAndWeights(x, y, 0)
//	gx := fieldmap.InterpolateScalar(fm.DphiDx(), iw)
//
// # Boundary handling
//
// Queries outside the grid are clamped to the boundary cell, which gives a
// flat extrapolation equal to the nearest edge value. The clamp is reported
// through [IndicesAndWeights.OutOfBounds] so callers can apply a stricter
// [BoundaryPolicy].
//
// # Thread Safety
//
// FieldMap values are never mutated after construction. Any number of
// goroutines may query the same map concurrently.
package fieldmap
