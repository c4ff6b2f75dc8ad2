package experiment

import (
	"context"
	"errors"
	"fmt"

	"github.com/san-kum/elens/internal/compute"
	"github.com/san-kum/elens/internal/config"
	"github.com/san-kum/elens/internal/element"
	"github.com/san-kum/elens/internal/fieldmap"
	"github.com/san-kum/elens/internal/metrics"
	"github.com/san-kum/elens/internal/particles"
	"github.com/san-kum/elens/internal/tracking"
)

var ErrNotSetup = errors.New("experiment: not set up")

// Experiment assembles field map, lens, ring and beam from a configuration
// and tracks them.
type Experiment struct {
	cfg      *config.Config
	fieldMap *fieldmap.FieldMap
	backend  compute.Backend
	lens     *element.ElectronLens
	arc      *element.LinearMap
	beam     *particles.Particles
	tracker  *tracking.Tracker
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{cfg: cfg}
}

// Setup validates the configuration and builds every component. Metrics
// named in the configuration are attached to the tracker.
func (e *Experiment) Setup() error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}

	backend, err := e.cfg.BuildBackend()
	if err != nil {
		return err
	}
	fm, err := e.cfg.BuildFieldMap()
	if err != nil {
		return fmt.Errorf("experiment: field map: %w", err)
	}
	lens, err := e.cfg.BuildLens(fm, backend)
	if err != nil {
		return err
	}
	arc, err := e.cfg.BuildArc(backend)
	if err != nil {
		return err
	}
	ref, err := e.cfg.Reference()
	if err != nil {
		return err
	}

	tracker := tracking.New(backend, lens, arc)
	for _, name := range e.cfg.Tracking.Metrics {
		m, err := metrics.ByName(name)
		if err != nil {
			return err
		}
		tracker.AddMetric(m)
	}

	e.backend = backend
	e.fieldMap = fm
	e.lens = lens
	e.arc = arc
	e.beam = e.cfg.BuildBeam(ref)
	e.tracker = tracker
	return nil
}

// Run tracks the beam in place for the configured number of turns.
func (e *Experiment) Run(ctx context.Context) (*tracking.Result, error) {
	if e.tracker == nil {
		return nil, ErrNotSetup
	}
	return e.tracker.Run(ctx, e.beam, e.cfg.Tracking.Turns)
}

func (e *Experiment) Config() *config.Config       { return e.cfg }
func (e *Experiment) Backend() compute.Backend     { return e.backend }
func (e *Experiment) FieldMap() *fieldmap.FieldMap { return e.fieldMap }
func (e *Experiment) Lens() *element.ElectronLens  { return e.lens }
func (e *Experiment) Arc() *element.LinearMap      { return e.arc }
func (e *Experiment) Beam() *particles.Particles   { return e.beam }
func (e *Experiment) Tracker() *tracking.Tracker   { return e.tracker }
