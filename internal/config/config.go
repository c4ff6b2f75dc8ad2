package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	DefaultLength    = 3.0
	DefaultCurrent   = 5.0
	DefaultVoltage   = 10e3
	DefaultGridSize  = 201
	DefaultHalfWidth = 5e-3
	DefaultInner     = 1.2e-3
	DefaultOuter     = 2.4e-3
	DefaultP0c       = 7e12
	DefaultParticles = 10000
	DefaultSigma     = 1e-3
	DefaultTurns     = 1024
	DefaultQx        = 0.31
	DefaultQy        = 0.32
	DefaultBeta      = 200.0
)

// Field map sources.
const (
	SourceAnnular = "annular"
	SourceUniform = "uniform"
	SourceFile    = "file"
)

var ErrInvalid = errors.New("config: invalid value")

type Config struct {
	Lens     LensConfig     `yaml:"lens" toml:"lens"`
	FieldMap FieldMapConfig `yaml:"field_map" toml:"field_map"`
	Beam     BeamConfig     `yaml:"beam" toml:"beam"`
	Tracking TrackingConfig `yaml:"tracking" toml:"tracking"`
}

type LensConfig struct {
	Name     string  `yaml:"name" toml:"name"`
	Length   float64 `yaml:"length" toml:"length"`
	Current  float64 `yaml:"current" toml:"current"`
	Voltage  float64 `yaml:"voltage" toml:"voltage"`
	Boundary string  `yaml:"boundary" toml:"boundary"`
}

// FieldMapConfig selects where the gradient map comes from. Path is read
// for SourceFile; the grid fields apply to the generated sources.
type FieldMapConfig struct {
	Source      string  `yaml:"source" toml:"source"`
	Path        string  `yaml:"path,omitempty" toml:"path,omitempty"`
	XMin        float64 `yaml:"x_min" toml:"x_min"`
	XMax        float64 `yaml:"x_max" toml:"x_max"`
	YMin        float64 `yaml:"y_min" toml:"y_min"`
	YMax        float64 `yaml:"y_max" toml:"y_max"`
	Nx          int     `yaml:"nx" toml:"nx"`
	Ny          int     `yaml:"ny" toml:"ny"`
	InnerRadius float64 `yaml:"inner_radius" toml:"inner_radius"`
	OuterRadius float64 `yaml:"outer_radius" toml:"outer_radius"`
	XCenter     float64 `yaml:"x_center" toml:"x_center"`
	YCenter     float64 `yaml:"y_center" toml:"y_center"`
	DphiDx      float64 `yaml:"dphi_dx" toml:"dphi_dx"`
	DphiDy      float64 `yaml:"dphi_dy" toml:"dphi_dy"`
}

type BeamConfig struct {
	Species   string  `yaml:"species" toml:"species"`
	Mass0     float64 `yaml:"mass0,omitempty" toml:"mass0,omitempty"`
	Q0        float64 `yaml:"q0,omitempty" toml:"q0,omitempty"`
	P0c       float64 `yaml:"p0c" toml:"p0c"`
	Particles int     `yaml:"particles" toml:"particles"`
	SigmaX    float64 `yaml:"sigma_x" toml:"sigma_x"`
	SigmaY    float64 `yaml:"sigma_y" toml:"sigma_y"`
	SigmaPx   float64 `yaml:"sigma_px" toml:"sigma_px"`
	SigmaPy   float64 `yaml:"sigma_py" toml:"sigma_py"`
	Seed      int64   `yaml:"seed" toml:"seed"`
}

type TrackingConfig struct {
	Turns   int      `yaml:"turns" toml:"turns"`
	Backend string   `yaml:"backend" toml:"backend"`
	Qx      float64  `yaml:"qx" toml:"qx"`
	Qy      float64  `yaml:"qy" toml:"qy"`
	BetaX   float64  `yaml:"beta_x" toml:"beta_x"`
	BetaY   float64  `yaml:"beta_y" toml:"beta_y"`
	Metrics []string `yaml:"metrics" toml:"metrics"`
}

func DefaultConfig() *Config {
	return &Config{
		Lens: LensConfig{
			Name:     "electron_lens",
			Length:   DefaultLength,
			Current:  DefaultCurrent,
			Voltage:  DefaultVoltage,
			Boundary: "clamp",
		},
		FieldMap: FieldMapConfig{
			Source:      SourceAnnular,
			XMin:        -DefaultHalfWidth,
			XMax:        DefaultHalfWidth,
			YMin:        -DefaultHalfWidth,
			YMax:        DefaultHalfWidth,
			Nx:          DefaultGridSize,
			Ny:          DefaultGridSize,
			InnerRadius: DefaultInner,
			OuterRadius: DefaultOuter,
		},
		Beam: BeamConfig{
			Species:   "proton",
			P0c:       DefaultP0c,
			Particles: DefaultParticles,
			SigmaX:    DefaultSigma,
			SigmaY:    DefaultSigma,
			Seed:      1,
		},
		Tracking: TrackingConfig{
			Turns:   DefaultTurns,
			Backend: "auto",
			Qx:      DefaultQx,
			Qy:      DefaultQy,
			BetaX:   DefaultBeta,
			BetaY:   DefaultBeta,
			Metrics: []string{"centroid_x", "emittance_x", "lost_fraction"},
		},
	}
}

// Load reads a YAML (.yaml, .yml) or TOML (.toml) file on top of the
// defaults. Unknown TOML keys are rejected.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		meta, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, err
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("config: unknown keys in %s: %v", path, undecoded)
		}
	case ".yaml", ".yml", "":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("config: unsupported file type %q", filepath.Ext(path))
	}

	return cfg, nil
}

// Save writes cfg as TOML when path ends in .toml and as YAML otherwise.
func Save(path string, cfg *Config) error {
	var data []byte
	if strings.ToLower(filepath.Ext(path)) == ".toml" {
		var sb strings.Builder
		if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
			return err
		}
		data = []byte(sb.String())
	} else {
		var err error
		data, err = yaml.Marshal(cfg)
		if err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the values that the builders cannot recover from.
// Physics parameters of the lens itself are validated again by the
// element constructors.
func (c *Config) Validate() error {
	if c.Lens.Voltage <= 0 {
		return invalid("lens.voltage", "must be positive")
	}
	if c.Lens.Length < 0 {
		return invalid("lens.length", "must be non-negative")
	}
	switch c.Lens.Boundary {
	case "", "clamp", "lost":
	default:
		return invalid("lens.boundary", "must be clamp or lost")
	}

	fm := c.FieldMap
	switch fm.Source {
	case SourceFile:
		if fm.Path == "" {
			return invalid("field_map.path", "required for source file")
		}
	case SourceAnnular, SourceUniform:
		if fm.Nx < 2 || fm.Ny < 2 {
			return invalid("field_map.nx/ny", "need at least 2 nodes per axis")
		}
		if !(fm.XMax > fm.XMin) || !(fm.YMax > fm.YMin) {
			return invalid("field_map range", "max must exceed min")
		}
		if fm.Source == SourceAnnular && !(fm.OuterRadius > fm.InnerRadius && fm.InnerRadius >= 0) {
			return invalid("field_map.outer_radius", "need 0 <= inner_radius < outer_radius")
		}
	default:
		return invalid("field_map.source", fmt.Sprintf("unknown source %q", fm.Source))
	}

	if c.Beam.Particles <= 0 {
		return invalid("beam.particles", "must be positive")
	}
	if !(c.Beam.P0c > 0) || math.IsInf(c.Beam.P0c, 0) {
		return invalid("beam.p0c", "must be positive")
	}
	if c.Tracking.Turns <= 0 {
		return invalid("tracking.turns", "must be positive")
	}
	if c.Tracking.BetaX <= 0 || c.Tracking.BetaY <= 0 {
		return invalid("tracking.beta", "must be positive")
	}
	return nil
}

func invalid(field, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalid, field, reason)
}
