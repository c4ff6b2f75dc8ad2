package tracking

import "github.com/san-kum/elens/internal/particles"

// Metric accumulates a scalar over the turns of a run.
type Metric interface {
	Name() string
	Observe(p *particles.Particles, turn int)
	Value() float64
	Reset()
}

// Observer is notified after every completed turn.
type Observer interface {
	OnTurn(turn int, p *particles.Particles)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(turn int, p *particles.Particles)

func (f ObserverFunc) OnTurn(turn int, p *particles.Particles) { f(turn, p) }

// TurnRecord summarizes the beam after a turn. Turn 0 is the initial state.
type TurnRecord struct {
	Turn  int     `json:"turn"`
	MeanX float64 `json:"mean_x"`
	MeanY float64 `json:"mean_y"`
	Alive int     `json:"alive"`
}

type Result struct {
	Turns      []TurnRecord
	Metrics    map[string]float64
	TurnsTaken int
}

// Final returns the record of the last completed turn.
func (r *Result) Final() TurnRecord {
	if len(r.Turns) == 0 {
		return TurnRecord{}
	}
	return r.Turns[len(r.Turns)-1]
}

// CentroidX returns the per-turn mean x, including turn 0.
func (r *Result) CentroidX() []float64 {
	out := make([]float64, len(r.Turns))
	for i, rec := range r.Turns {
		out[i] = rec.MeanX
	}
	return out
}

// CentroidY returns the per-turn mean y, including turn 0.
func (r *Result) CentroidY() []float64 {
	out := make([]float64, len(r.Turns))
	for i, rec := range r.Turns {
		out[i] = rec.MeanY
	}
	return out
}
