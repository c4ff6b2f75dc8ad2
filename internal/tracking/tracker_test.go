package tracking

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/elens/internal/compute"
	"github.com/san-kum/elens/internal/constants"
	"github.com/san-kum/elens/internal/element"
	"github.com/san-kum/elens/internal/fieldmap"
	"github.com/san-kum/elens/internal/particles"
)

type shift struct {
	dx    float64
	calls int
}

func (s *shift) Name() string { return "shift" }

func (s *shift) Track(p *particles.Particles) {
	s.calls++
	for i := range p.X {
		if p.Alive(i) {
			p.X[i] += s.dx
		}
	}
}

type countMetric struct {
	turns int
	reset bool
}

func (c *countMetric) Name() string                             { return "count" }
func (c *countMetric) Observe(p *particles.Particles, turn int) { c.turns++ }
func (c *countMetric) Value() float64                           { return float64(c.turns) }

func (c *countMetric) Reset() {
	c.turns = 0
	c.reset = true
}

func testRef(t *testing.T) particles.Reference {
	t.Helper()
	ref, err := particles.NewReference(constants.ProtonMassEV, 1, 450e9)
	if err != nil {
		t.Fatalf("reference: %v", err)
	}
	return ref
}

func TestTrackerRun(t *testing.T) {
	el := &shift{dx: 0.5}
	tr := New(compute.NewSerialBackend(), el)
	m := &countMetric{turns: 99}
	tr.AddMetric(m)

	var seen []int
	tr.AddObserver(ObserverFunc(func(turn int, p *particles.Particles) { seen = append(seen, turn) }))

	p, _ := particles.FromCoordinates(testRef(t), []float64{0, 1}, []float64{2, 4})
	result, err := tr.Run(context.Background(), p, 4)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.Turns) != 5 {
		t.Errorf("expected 5 turn records, got %d", len(result.Turns))
	}
	if result.TurnsTaken != 4 {
		t.Errorf("expected 4 turns taken, got %d", result.TurnsTaken)
	}
	if el.calls != 4 {
		t.Errorf("expected element tracked 4 times, got %d", el.calls)
	}
	if !m.reset || result.Metrics["count"] != 4 {
		t.Errorf("expected metric reset and 4 observations, got %v", result.Metrics)
	}
	if len(seen) != 4 || seen[0] != 1 || seen[3] != 4 {
		t.Errorf("expected observer turns 1..4, got %v", seen)
	}

	first, final := result.Turns[0], result.Final()
	if first.MeanX != 0.5 || first.MeanY != 3 {
		t.Errorf("expected initial centroid (0.5, 3), got (%g, %g)", first.MeanX, first.MeanY)
	}
	if final.MeanX != 2.5 || final.Alive != 2 {
		t.Errorf("expected final mean x 2.5 with 2 alive, got %g with %d", final.MeanX, final.Alive)
	}
	if cx := result.CentroidX(); len(cx) != 5 || cx[2] != 1.5 {
		t.Errorf("unexpected centroid series %v", cx)
	}
}

func TestTrackerValidation(t *testing.T) {
	p, _ := particles.FromCoordinates(testRef(t), []float64{0}, []float64{0})

	if _, err := New(nil).Run(context.Background(), p, 1); !errors.Is(err, ErrNoElements) {
		t.Errorf("expected ErrNoElements, got %v", err)
	}
	if _, err := New(nil, &shift{}).Run(context.Background(), p, 0); !errors.Is(err, ErrInvalidTurns) {
		t.Errorf("expected ErrInvalidTurns, got %v", err)
	}
	if _, err := New(nil, &shift{}).Run(context.Background(), nil, 1); !errors.Is(err, ErrNoParticles) {
		t.Errorf("expected ErrNoParticles, got %v", err)
	}
}

func TestTrackerCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p, _ := particles.FromCoordinates(testRef(t), []float64{0}, []float64{0})
	result, err := New(nil, &shift{dx: 1}).Run(ctx, p, 10)

	var te *TrackingError
	if !errors.As(err, &te) {
		t.Fatalf("expected TrackingError, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if te.Turn != 1 {
		t.Errorf("expected stop before turn 1, got turn %d", te.Turn)
	}
	if result == nil || result.TurnsTaken != 0 || len(result.Turns) != 1 {
		t.Errorf("expected partial result with the initial record, got %+v", result)
	}
}

// cancelAfter cancels its context the first time it tracks.
type cancelAfter struct {
	cancel context.CancelFunc
}

func (c *cancelAfter) Name() string                 { return "cancel" }
func (c *cancelAfter) Track(p *particles.Particles) { c.cancel() }

func TestTrackerCancelMidTurnFinishesTurn(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p, _ := particles.FromCoordinates(testRef(t), []float64{0, 2}, []float64{0, 0})
	after := &shift{dx: 1}
	result, err := New(nil, &shift{dx: 1}, &cancelAfter{cancel: cancel}, after).Run(ctx, p, 10)

	var te *TrackingError
	if !errors.As(err, &te) {
		t.Fatalf("expected TrackingError, got %v", err)
	}
	if te.Turn != 2 {
		t.Errorf("expected stop before turn 2, got turn %d", te.Turn)
	}
	if after.calls != 1 {
		t.Errorf("expected the element after the cancellation to finish turn 1, got %d calls", after.calls)
	}
	if result.TurnsTaken != 1 || len(result.Turns) != 2 {
		t.Fatalf("expected one recorded turn, got %+v", result)
	}
	if final := result.Final(); final.Turn != 1 || final.MeanX != 3 {
		t.Errorf("expected final record to match the beam at <x>=3, got %+v", final)
	}
	if p.X[0] != 2 || p.X[1] != 4 {
		t.Errorf("expected beam after one full turn, got %v", p.X)
	}
}

func TestTrackerMarksNonFiniteLost(t *testing.T) {
	p, _ := particles.FromCoordinates(testRef(t), []float64{math.Inf(1), 1}, []float64{0, 1})
	result, err := New(compute.NewSerialBackend(), &shift{}).Run(context.Background(), p, 1)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if p.State[0] != particles.StateLostNonFinite {
		t.Errorf("expected state %d, got %d", particles.StateLostNonFinite, p.State[0])
	}
	if final := result.Final(); final.Alive != 1 || final.MeanX != 1 {
		t.Errorf("expected one survivor at x=1, got %+v", final)
	}
}

func TestTrackerWithElectronLens(t *testing.T) {
	ref := testRef(t)
	geom := fieldmap.GridFromRange([2]float64{-5e-3, 5e-3}, [2]float64{-5e-3, 5e-3}, 51, 51)
	fm, err := fieldmap.Annular(geom, fieldmap.AnnularProfile{InnerRadius: 1e-3, OuterRadius: 2e-3})
	if err != nil {
		t.Fatal(err)
	}
	lens, err := element.NewElectronLens(element.ElectronLensConfig{
		Length: 3, Current: 5, Voltage: 10e3, FieldMap: fm, Boundary: fieldmap.BoundaryLost,
	})
	if err != nil {
		t.Fatal(err)
	}
	arc, err := element.NewLinearMap(element.LinearMapConfig{Qx: 0.31, Qy: 0.32, BetaX: 100, BetaY: 100})
	if err != nil {
		t.Fatal(err)
	}

	p, _ := particles.FromCoordinates(ref, []float64{0, 4e-3, 6e-3}, []float64{0, 0, 0})
	result, err := New(nil, lens, arc).Run(context.Background(), p, 50)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if p.State[2] != particles.StateLostOnFieldMap {
		t.Errorf("expected particle outside the map lost, got state %d", p.State[2])
	}
	if p.X[0] != 0 || p.Px[0] != 0 {
		t.Errorf("expected the on-axis particle untouched, got x=%g px=%g", p.X[0], p.Px[0])
	}
	if result.Final().Alive < 1 {
		t.Errorf("expected survivors, got %d", result.Final().Alive)
	}
}
