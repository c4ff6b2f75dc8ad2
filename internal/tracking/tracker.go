package tracking

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/elens/internal/compute"
	"github.com/san-kum/elens/internal/element"
	"github.com/san-kum/elens/internal/particles"
)

type Tracker struct {
	backend   compute.Backend
	elements  []element.Element
	metrics   []Metric
	observers []Observer
}

// New returns a tracker for the given element sequence. A nil backend
// selects compute.GetBackend() when a run starts.
func New(backend compute.Backend, elements ...element.Element) *Tracker {
	return &Tracker{
		backend:   backend,
		elements:  elements,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (t *Tracker) AddMetric(m Metric)     { t.metrics = append(t.metrics, m) }
func (t *Tracker) AddObserver(o Observer) { t.observers = append(t.observers, o) }

// Elements returns the names of the tracked elements in order.
func (t *Tracker) Elements() []string {
	names := make([]string, len(t.elements))
	for i, el := range t.elements {
		names[i] = el.Name()
	}
	return names
}

// Run tracks p in place for the given number of turns. Cancellation is
// checked between turns; the result of the completed turns is returned
// together with a *TrackingError wrapping the context error.
func (t *Tracker) Run(ctx context.Context, p *particles.Particles, turns int) (*Result, error) {
	if err := t.validate(p, turns); err != nil {
		return nil, err
	}

	backend := t.backend
	if backend == nil {
		backend = compute.GetBackend()
	}

	result := &Result{
		Turns:   make([]TurnRecord, 0, turns+1),
		Metrics: make(map[string]float64),
	}

	for _, m := range t.metrics {
		m.Reset()
	}

	result.Turns = append(result.Turns, record(0, p))

	for turn := 1; turn <= turns; turn++ {
		// a turn is never split, so p always matches the last record
		select {
		case <-ctx.Done():
			t.collect(result)
			return result, &TrackingError{Turn: turn, Err: ctx.Err()}
		default:
		}
		for _, el := range t.elements {
			el.Track(p)
		}

		markNonFinite(backend, p)

		for _, m := range t.metrics {
			m.Observe(p, turn)
		}
		for _, obs := range t.observers {
			obs.OnTurn(turn, p)
		}

		result.Turns = append(result.Turns, record(turn, p))
		result.TurnsTaken++
	}

	t.collect(result)
	return result, nil
}

func (t *Tracker) validate(p *particles.Particles, turns int) error {
	if len(t.elements) == 0 {
		return ErrNoElements
	}
	if turns <= 0 {
		return fmt.Errorf("%w, got %d", ErrInvalidTurns, turns)
	}
	if p == nil {
		return ErrNoParticles
	}
	return nil
}

func (t *Tracker) collect(result *Result) {
	for _, m := range t.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func markNonFinite(backend compute.Backend, p *particles.Particles) {
	backend.ForEach(p.Len(), func(start, end int) {
		for i := start; i < end; i++ {
			if !p.Alive(i) {
				continue
			}
			if !finite(p.X[i]) || !finite(p.Y[i]) || !finite(p.Px[i]) || !finite(p.Py[i]) {
				p.MarkLost(i, particles.StateLostNonFinite)
			}
		}
	})
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// record averages over the surviving particles. A fully lost beam records
// a zero centroid.
func record(turn int, p *particles.Particles) TurnRecord {
	xs := make([]float64, 0, p.Len())
	ys := make([]float64, 0, p.Len())
	for i := 0; i < p.Len(); i++ {
		if p.Alive(i) {
			xs = append(xs, p.X[i])
			ys = append(ys, p.Y[i])
		}
	}
	rec := TurnRecord{Turn: turn, Alive: len(xs)}
	if len(xs) > 0 {
		rec.MeanX = stat.Mean(xs, nil)
		rec.MeanY = stat.Mean(ys, nil)
	}
	return rec
}
