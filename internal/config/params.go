package config

import (
	"fmt"
	"math"
	"sort"
)

// params maps the tunable scalar settings to their fields. Integer fields
// are rounded.
var params = map[string]func(c *Config, v float64){
	"current":      func(c *Config, v float64) { c.Lens.Current = v },
	"voltage":      func(c *Config, v float64) { c.Lens.Voltage = v },
	"length":       func(c *Config, v float64) { c.Lens.Length = v },
	"inner_radius": func(c *Config, v float64) { c.FieldMap.InnerRadius = v },
	"outer_radius": func(c *Config, v float64) { c.FieldMap.OuterRadius = v },
	"x_center":     func(c *Config, v float64) { c.FieldMap.XCenter = v },
	"y_center":     func(c *Config, v float64) { c.FieldMap.YCenter = v },
	"p0c":          func(c *Config, v float64) { c.Beam.P0c = v },
	"sigma_x":      func(c *Config, v float64) { c.Beam.SigmaX = v },
	"sigma_y":      func(c *Config, v float64) { c.Beam.SigmaY = v },
	"particles":    func(c *Config, v float64) { c.Beam.Particles = int(math.Round(v)) },
	"seed":         func(c *Config, v float64) { c.Beam.Seed = int64(math.Round(v)) },
	"turns":        func(c *Config, v float64) { c.Tracking.Turns = int(math.Round(v)) },
	"qx":           func(c *Config, v float64) { c.Tracking.Qx = v },
	"qy":           func(c *Config, v float64) { c.Tracking.Qy = v },
	"beta_x":       func(c *Config, v float64) { c.Tracking.BetaX = v },
	"beta_y":       func(c *Config, v float64) { c.Tracking.BetaY = v },
}

// SetParam assigns a scalar setting by name. The result is not validated.
func (c *Config) SetParam(name string, v float64) error {
	set, ok := params[name]
	if !ok {
		return fmt.Errorf("%w: unknown parameter %q", ErrInvalid, name)
	}
	set(c, v)
	return nil
}

// ParamNames lists the names accepted by SetParam.
func ParamNames() []string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Tracking.Metrics = append([]string(nil), c.Tracking.Metrics...)
	return &out
}
