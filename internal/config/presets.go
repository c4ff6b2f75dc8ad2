package config

import "sort"

// Presets are complete configurations keyed by name. GetPreset returns a
// copy, so callers may modify the result.
var Presets = map[string]func() *Config{
	// hollow electron lens for halo collimation at 7 TeV
	"hollow": DefaultConfig,

	// solid round electron beam centred on the protons: a nonlinear lens
	"solid": func() *Config {
		cfg := DefaultConfig()
		cfg.Lens.Current = 1.0
		cfg.FieldMap.InnerRadius = 0
		cfg.FieldMap.OuterRadius = 1.5e-3
		cfg.Tracking.Metrics = []string{"centroid_x", "rms_x", "emittance_x", "lost_fraction"}
		return cfg
	},

	// 980 GeV protons as in beam-beam compensation tests
	"tevatron": func() *Config {
		cfg := DefaultConfig()
		cfg.Lens.Length = 2.0
		cfg.Lens.Current = 0.6
		cfg.Lens.Voltage = 6e3
		cfg.FieldMap.InnerRadius = 0
		cfg.FieldMap.OuterRadius = 1.0e-3
		cfg.Beam.P0c = 980e9
		cfg.Beam.SigmaX = 0.6e-3
		cfg.Beam.SigmaY = 0.6e-3
		cfg.Tracking.Qx = 0.58
		cfg.Tracking.Qy = 0.575
		cfg.Tracking.BetaX = 100
		cfg.Tracking.BetaY = 100
		return cfg
	},

	// constant gradient, a pure dipole kick
	"uniform": func() *Config {
		cfg := DefaultConfig()
		cfg.FieldMap.Source = SourceUniform
		cfg.FieldMap.Nx = 3
		cfg.FieldMap.Ny = 3
		cfg.FieldMap.DphiDx = 2.0
		cfg.Lens.Length = 1.0
		cfg.Lens.Current = 1.0
		cfg.Lens.Voltage = 1e6
		return cfg
	},

	// particles leaving the map are removed instead of clamped
	"aperture": func() *Config {
		cfg := DefaultConfig()
		cfg.Lens.Boundary = "lost"
		cfg.FieldMap.XMin, cfg.FieldMap.XMax = -3e-3, 3e-3
		cfg.FieldMap.YMin, cfg.FieldMap.YMax = -3e-3, 3e-3
		cfg.FieldMap.Nx, cfg.FieldMap.Ny = 121, 121
		cfg.Beam.SigmaX, cfg.Beam.SigmaY = 1.5e-3, 1.5e-3
		return cfg
	},
}

func GetPreset(name string) *Config {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	return fn()
}

// ListPresets returns the preset names in sorted order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
