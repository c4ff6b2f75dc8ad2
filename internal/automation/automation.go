package automation

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/elens/internal/config"
	"github.com/san-kum/elens/internal/experiment"
	"github.com/san-kum/elens/internal/storage"
	"github.com/san-kum/elens/internal/tracking"
)

var ErrEmptyScenario = errors.New("automation: scenario has no steps")

// Scenario defines a scripted sequence of tracking runs
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is a single run. Preset and Config are resolved in that
// order, then Params override individual settings.
type ScenarioStep struct {
	Preset   string             `yaml:"preset"`
	Config   string             `yaml:"config"`
	Boundary string             `yaml:"boundary"`
	Params   map[string]float64 `yaml:"params"`
	SaveAs   string             `yaml:"save_as"`
}

// StepResult is the outcome of one scenario step.
type StepResult struct {
	Label  string
	RunID  string
	Result *tracking.Result
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("automation: parse %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, ErrEmptyScenario
	}

	return &scenario, nil
}

// Resolve builds the validated configuration of one step.
func (s ScenarioStep) Resolve() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		cfg = config.GetPreset(s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("automation: unknown preset %q", s.Preset)
		}
	}
	if s.Config != "" {
		loaded, err := config.Load(s.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if s.Boundary != "" {
		cfg.Lens.Boundary = s.Boundary
	}
	for name, v := range s.Params {
		if err := cfg.SetParam(name, v); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RunScenario executes all steps in order. When store is non-nil every
// step is saved under its SaveAs label.
func RunScenario(ctx context.Context, scenario *Scenario, store *storage.Store, progress func(step, total int, label string)) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		label := step.SaveAs
		if label == "" {
			name := scenario.Name
			if name == "" {
				name = "scenario"
			}
			label = fmt.Sprintf("%s_step%d", name, i+1)
		}
		if progress != nil {
			progress(i+1, len(scenario.Steps), label)
		}

		cfg, err := step.Resolve()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		result, err := runConfig(ctx, cfg)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		sr := StepResult{Label: label, Result: result}
		if store != nil {
			if sr.RunID, err = store.Save(label, cfg, result); err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
		}
		results = append(results, sr)
	}

	return results, nil
}

func runConfig(ctx context.Context, cfg *config.Config) (*tracking.Result, error) {
	exp := experiment.New(cfg)
	if err := exp.Setup(); err != nil {
		return nil, err
	}
	return exp.Run(ctx)
}

// ParameterSweep tracks the same beam across a range of one setting
type ParameterSweep struct {
	Base      *config.Config
	ParamName string
	Values    []float64
}

// SweepResult holds results from a parameter sweep
type SweepResult struct {
	ParamValue float64
	Survivors  int
	Metrics    map[string]float64
}

// RunSweep executes a parameter sweep
func RunSweep(ctx context.Context, sweep *ParameterSweep) ([]SweepResult, error) {
	results := make([]SweepResult, 0, len(sweep.Values))

	for _, v := range sweep.Values {
		cfg := sweep.Base.Clone()
		if err := cfg.SetParam(sweep.ParamName, v); err != nil {
			return nil, err
		}

		result, err := runConfig(ctx, cfg)
		if err != nil {
			return results, fmt.Errorf("%s=%g: %w", sweep.ParamName, v, err)
		}

		results = append(results, SweepResult{
			ParamValue: v,
			Survivors:  result.Final().Alive,
			Metrics:    result.Metrics,
		})
	}

	return results, nil
}

// SeedStats summarizes one metric over independent beam samplings.
type SeedStats struct {
	Metric string
	Values []float64
	Mean   float64
	StdDev float64
}

// RunSeeds repeats the base run with n consecutive seeds starting at the
// configured one and reports the spread of every configured metric.
func RunSeeds(ctx context.Context, base *config.Config, n int) ([]SeedStats, error) {
	if n < 1 {
		return nil, fmt.Errorf("automation: need at least one seed, got %d", n)
	}

	values := make(map[string][]float64, len(base.Tracking.Metrics))
	for trial := 0; trial < n; trial++ {
		cfg := base.Clone()
		cfg.Beam.Seed = base.Beam.Seed + int64(trial)

		result, err := runConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("seed %d: %w", cfg.Beam.Seed, err)
		}
		for _, name := range base.Tracking.Metrics {
			values[name] = append(values[name], result.Metrics[name])
		}
	}

	stats := make([]SeedStats, 0, len(base.Tracking.Metrics))
	for _, name := range base.Tracking.Metrics {
		vs := values[name]
		s := SeedStats{Metric: name, Values: vs, Mean: stat.Mean(vs, nil)}
		if len(vs) > 1 {
			s.StdDev = stat.StdDev(vs, nil)
		}
		stats = append(stats, s)
	}
	return stats, nil
}
