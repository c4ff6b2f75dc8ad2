package analysis

import (
	"context"
	"fmt"

	"github.com/san-kum/elens/internal/particles"
	"github.com/san-kum/elens/internal/tracking"
)

// ScanPoint is the probe tune measured at one parameter value.
type ScanPoint struct {
	Param  float64
	Qx, Qy float64
}

// ScanSetup builds the tracker and a single-particle probe for one value
// of the swept parameter.
type ScanSetup func(param float64) (*tracking.Tracker, *particles.Particles, error)

// ScanTunes tracks a fresh probe for every value in params and measures
// its horizontal and vertical tunes from the turn-by-turn positions of
// particle 0.
func ScanTunes(ctx context.Context, setup ScanSetup, params []float64, turns int) ([]ScanPoint, error) {
	results := make([]ScanPoint, 0, len(params))
	for _, param := range params {
		tr, probe, err := setup(param)
		if err != nil {
			return results, fmt.Errorf("analysis: setup at %g: %w", param, err)
		}

		hx := NewPhaseRecorder(0, false)
		hy := NewPhaseRecorder(0, true)
		tr.AddObserver(hx)
		tr.AddObserver(hy)

		if _, err := tr.Run(ctx, probe, turns); err != nil {
			return results, err
		}

		qx, err := Tune(hx.Positions())
		if err != nil {
			return results, fmt.Errorf("analysis: horizontal tune at %g: %w", param, err)
		}
		qy, err := Tune(hy.Positions())
		if err != nil {
			return results, fmt.Errorf("analysis: vertical tune at %g: %w", param, err)
		}
		results = append(results, ScanPoint{Param: param, Qx: qx, Qy: qy})
	}
	return results, nil
}
