package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/elens/internal/config"
	"github.com/san-kum/elens/internal/experiment"
	"github.com/san-kum/elens/internal/metrics"
	"gonum.org/v1/gonum/floats"
)

var (
	ErrEmptyGrid    = errors.New("optim: empty parameter grid")
	ErrNoCandidates = errors.New("optim: no grid point produced a finite metric")
)

// Candidate is one evaluated grid point.
type Candidate struct {
	Params map[string]float64
	Value  float64
	Err    error
}

// GridSearch tries every combination of the given parameter values on a
// base configuration and keeps the one with the smallest metric.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64

	// Progress, when set, is called after every evaluation.
	Progress func(done, total int, c Candidate)
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Size is the number of grid points.
func (g *GridSearch) Size() int {
	if len(g.paramNames) == 0 {
		return 0
	}
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search evaluates every grid point and returns the best one together with
// all candidates in evaluation order. A grid point that fails to set up or
// run is recorded with its error and skipped. Cancellation stops the search
// and returns the best found so far along with ctx.Err().
func (g *GridSearch) Search(ctx context.Context, base *config.Config, metricName string) (Candidate, []Candidate, error) {
	if len(g.paramNames) != len(g.ranges) || g.Size() == 0 {
		return Candidate{}, nil, ErrEmptyGrid
	}
	if _, err := metrics.ByName(metricName); err != nil {
		return Candidate{}, nil, err
	}
	for _, name := range g.paramNames {
		if err := base.Clone().SetParam(name, 0); err != nil {
			return Candidate{}, nil, err
		}
	}

	best := Candidate{Value: math.Inf(1)}
	all := make([]Candidate, 0, g.Size())
	total := g.Size()

	err := g.searchRecursive(ctx, 0, make(map[string]float64), func(params map[string]float64) {
		c := g.evaluate(ctx, base, params, metricName)
		all = append(all, c)
		if c.Err == nil && c.Value < best.Value {
			best = c
		}
		if g.Progress != nil {
			g.Progress(len(all), total, c)
		}
	})

	if best.Params == nil {
		if err != nil {
			return best, all, err
		}
		return best, all, ErrNoCandidates
	}
	return best, all, err
}

func (g *GridSearch) evaluate(ctx context.Context, base *config.Config, params map[string]float64, metricName string) Candidate {
	c := Candidate{Params: params, Value: math.NaN()}

	cfg := base.Clone()
	cfg.Tracking.Metrics = []string{metricName}
	for name, v := range params {
		if c.Err = cfg.SetParam(name, v); c.Err != nil {
			return c
		}
	}

	exp := experiment.New(cfg)
	if c.Err = exp.Setup(); c.Err != nil {
		return c
	}
	result, err := exp.Run(ctx)
	if err != nil {
		c.Err = err
		return c
	}

	val, ok := result.Metrics[metricName]
	if !ok || math.IsNaN(val) || math.IsInf(val, 0) {
		c.Err = fmt.Errorf("optim: metric %s not finite at %v", metricName, params)
		return c
	}
	c.Value = val
	return c
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	visit func(map[string]float64),
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		visit(current)
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, visit); err != nil {
			return err
		}
	}
	return nil
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{lo}
	}
	return floats.Span(make([]float64, n), lo, hi)
}
