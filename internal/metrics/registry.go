package metrics

import (
	"fmt"
	"sort"

	"github.com/san-kum/elens/internal/tracking"
)

var registry = map[string]func() tracking.Metric{
	"centroid_x":    func() tracking.Metric { return NewCentroidX() },
	"centroid_y":    func() tracking.Metric { return NewCentroidY() },
	"rms_x":         func() tracking.Metric { return NewRMSX() },
	"rms_y":         func() tracking.Metric { return NewRMSY() },
	"emittance_x":   func() tracking.Metric { return NewEmittanceX() },
	"emittance_y":   func() tracking.Metric { return NewEmittanceY() },
	"lost_fraction": func() tracking.Metric { return NewLostFraction() },
	"halo_x":        func() tracking.Metric { return NewHaloX() },
	"halo_y":        func() tracking.Metric { return NewHaloY() },
}

// ByName returns a fresh metric registered under name.
func ByName(name string) (tracking.Metric, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("metrics: unknown metric %q", name)
	}
	return fn(), nil
}

// Names lists the registered metrics in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
