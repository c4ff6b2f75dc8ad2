package fieldmap

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

var csvHeader = []string{"x", "y", "z", "dphi_dx", "dphi_dy"}

// relative tolerance used when matching node coordinates to a regular grid
const gridTolerance = 1e-9

// SaveCSV writes one row per node in storage order (x fastest).
func SaveCSV(w io.Writer, fm *FieldMap) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	g := fm.geom
	format := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for iz := 0; iz < g.Nz; iz++ {
		for iy := 0; iy < g.Ny; iy++ {
			for ix := 0; ix < g.Nx; ix++ {
				x, y, z := g.Node(ix, iy, iz)
				idx := g.Index(ix, iy, iz)
				row := []string{format(x), format(y), format(z), format(fm.dphiDx[idx]), format(fm.dphiDy[idx])}
				if err := cw.Write(row); err != nil {
					return err
				}
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

type csvNode struct {
	x, y, z, gx, gy float64
}

// LoadCSV reads a map written by SaveCSV or produced by an external field
// solver. Rows may come in any order; the geometry is inferred from the
// distinct node coordinates, which must be equispaced on every axis.
func LoadCSV(r io.Reader) (*FieldMap, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &LoadError{Line: 1, Err: errors.New("empty input")}
		}
		return nil, &LoadError{Line: 1, Err: err}
	}
	for i, name := range csvHeader {
		if strings.ToLower(strings.TrimSpace(header[i])) != name {
			return nil, &LoadError{Line: 1, Err: fmt.Errorf("expected column %q, got %q", name, header[i])}
		}
	}

	var nodes []csvNode
	line := 1
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, &LoadError{Line: line, Err: err}
		}

		var vals [5]float64
		for i, field := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, &LoadError{Line: line, Err: err}
			}
			vals[i] = v
		}
		nodes = append(nodes, csvNode{vals[0], vals[1], vals[2], vals[3], vals[4]})
	}

	xs := make([]float64, len(nodes))
	ys := make([]float64, len(nodes))
	zs := make([]float64, len(nodes))
	for i, n := range nodes {
		xs[i], ys[i], zs[i] = n.x, n.y, n.z
	}

	x0, dx, nx, err := inferAxis("x", xs)
	if err != nil {
		return nil, err
	}
	y0, dy, ny, err := inferAxis("y", ys)
	if err != nil {
		return nil, err
	}
	z0, dz, nz, err := inferAxis("z", zs)
	if err != nil {
		return nil, err
	}
	geom := Geometry{X0: x0, Y0: y0, Z0: z0, Dx: dx, Dy: dy, Dz: dz, Nx: nx, Ny: ny, Nz: nz}
	if err := geom.Validate(); err != nil {
		return nil, err
	}
	if len(nodes) != geom.Size() {
		return nil, fmt.Errorf("%w: %d rows for a %dx%dx%d grid", ErrMissingNode, len(nodes), nx, ny, nz)
	}

	gx := make([]float64, geom.Size())
	gy := make([]float64, geom.Size())
	seen := make([]bool, geom.Size())
	for i, n := range nodes {
		idx := geom.Index(nodeIndex(n.x, x0, dx), nodeIndex(n.y, y0, dy), nodeIndex(n.z, z0, dz))
		if seen[idx] {
			return nil, &LoadError{Line: i + 2, Err: ErrMissingNode}
		}
		seen[idx] = true
		gx[idx], gy[idx] = n.gx, n.gy
	}

	return New(geom, gx, gy)
}

// inferAxis returns origin, spacing and node count for one coordinate column.
// A column with a single distinct value yields one node with unit spacing.
func inferAxis(name string, coords []float64) (float64, float64, int, error) {
	if len(coords) == 0 {
		return 0, 0, 0, fmt.Errorf("%w: no nodes", ErrInvalidGeometry)
	}
	sorted := append([]float64(nil), coords...)
	sort.Float64s(sorted)

	lo, hi := sorted[0], sorted[len(sorted)-1]
	tol := gridTolerance * math.Max(hi-lo, 1)

	distinct := []float64{lo}
	for _, v := range sorted[1:] {
		if v-distinct[len(distinct)-1] > tol {
			distinct = append(distinct, v)
		}
	}
	if len(distinct) == 1 {
		return lo, 1, 1, nil
	}

	spacing := (hi - lo) / float64(len(distinct)-1)
	for k, v := range distinct {
		if math.Abs(v-(lo+float64(k)*spacing)) > tol {
			return 0, 0, 0, fmt.Errorf("%w: %s node %d at %g, expected %g", ErrIrregularGrid, name, k, v, lo+float64(k)*spacing)
		}
	}
	return lo, spacing, len(distinct), nil
}

func nodeIndex(v, origin, spacing float64) int {
	return int(math.Round((v - origin) / spacing))
}
