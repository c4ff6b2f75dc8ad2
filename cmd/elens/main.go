package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/elens/internal/analysis"
	"github.com/san-kum/elens/internal/automation"
	"github.com/san-kum/elens/internal/compute"
	"github.com/san-kum/elens/internal/config"
	"github.com/san-kum/elens/internal/experiment"
	"github.com/san-kum/elens/internal/export"
	"github.com/san-kum/elens/internal/fieldmap"
	"github.com/san-kum/elens/internal/optim"
	"github.com/san-kum/elens/internal/particles"
	"github.com/san-kum/elens/internal/storage"
	"github.com/san-kum/elens/internal/tracking"
	"github.com/san-kum/elens/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	label      string
	// lens
	current  float64
	voltage  float64
	length   float64
	boundary string
	// beam and ring
	numParticles int
	seed         int64
	turns        int
	backendName  string
	// live view
	live      bool
	liveEvery int
	// probe, profile and phase
	axis       string
	points     int
	amplitude  float64
	phaseTurns int
	phaseSVG   string
	// scan
	scanTurns int
	scanMin   float64
	scanMax   float64
	scanSteps int
	// optimize, seeds and export-svg
	gridParams []string
	metricName string
	numSeeds   int
	series     string
	// fieldmap
	outFile string
)

const (
	quickParticles = 2000
	quickTurns     = 256
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "elens",
		Short:         "electron lens kick and tracking lab",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".elens", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml or toml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.PersistentFlags().Float64Var(&current, "current", config.DefaultCurrent, "electron beam current [A]")
	rootCmd.PersistentFlags().Float64Var(&voltage, "voltage", config.DefaultVoltage, "electron accelerating voltage [V]")
	rootCmd.PersistentFlags().Float64Var(&length, "length", config.DefaultLength, "lens length [m]")
	rootCmd.PersistentFlags().StringVar(&boundary, "boundary", "clamp", "field map boundary policy: clamp or lost")
	rootCmd.PersistentFlags().StringVar(&backendName, "backend", "auto", "compute backend: serial, cpu or auto")

	trackCmd := &cobra.Command{
		Use:   "track",
		Short: "track a beam through the lens and ring",
		Args:  cobra.NoArgs,
		RunE:  runTrack,
	}
	trackCmd.Flags().IntVar(&numParticles, "particles", config.DefaultParticles, "number of particles")
	trackCmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	trackCmd.Flags().IntVar(&turns, "turns", config.DefaultTurns, "number of turns")
	trackCmd.Flags().StringVar(&label, "label", "", "run label (defaults to the preset name)")
	trackCmd.Flags().BoolVar(&live, "live", false, "show a live view while tracking")
	trackCmd.Flags().IntVar(&liveEvery, "every", 4, "live view refresh interval in turns")

	probeCmd := &cobra.Command{
		Use:   "probe [x] [y]",
		Short: "print gradient and kick at a transverse position",
		Args:  cobra.ExactArgs(2),
		RunE:  runProbe,
	}

	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "plot the kick across the lens",
		Args:  cobra.NoArgs,
		RunE:  runProfile,
	}
	profileCmd.Flags().StringVar(&axis, "axis", "x", "scan axis: x or y")
	profileCmd.Flags().IntVar(&points, "points", 200, "number of sample points")

	phaseCmd := &cobra.Command{
		Use:   "phase",
		Short: "horizontal phase portrait of a single probe particle",
		Args:  cobra.NoArgs,
		RunE:  runPhase,
	}
	phaseCmd.Flags().Float64Var(&amplitude, "amplitude", 2e-3, "initial x of the probe [m]")
	phaseCmd.Flags().IntVar(&phaseTurns, "turns", 500, "number of turns")
	phaseCmd.Flags().StringVar(&phaseSVG, "svg", "", "also write the portrait to an SVG file")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "measure the probe tune while sweeping the lens current",
		Args:  cobra.NoArgs,
		RunE:  runScan,
	}
	scanCmd.Flags().Float64Var(&scanMin, "min", 0, "first current [A]")
	scanCmd.Flags().Float64Var(&scanMax, "max", 5, "last current [A]")
	scanCmd.Flags().IntVar(&scanSteps, "steps", 6, "number of currents")
	scanCmd.Flags().Float64Var(&amplitude, "amplitude", 2e-3, "initial x and y of the probe [m]")
	scanCmd.Flags().IntVar(&scanTurns, "turns", 1024, "turns per point")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark the lens kick on every backend",
		Args:  cobra.NoArgs,
		RunE:  runBench,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show run metadata and centroid history",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	tuneCmd := &cobra.Command{
		Use:   "tune [run_id]",
		Short: "centroid tune and spectrum of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  tuneRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export per-turn data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportCSV(os.Stdout, args[0])
		},
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportJSON(os.Stdout, args[0])
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCURRENT\tVOLTAGE\tLENGTH\tMAP\tBOUNDARY")
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%g A\t%g V\t%g m\t%s\t%s\n",
					name, cfg.Lens.Current, cfg.Lens.Voltage, cfg.Lens.Length, cfg.FieldMap.Source, cfg.Lens.Boundary)
			}
			return w.Flush()
		},
	}

	fieldmapCmd := &cobra.Command{
		Use:   "fieldmap",
		Short: "generate the configured field map as CSV",
		Args:  cobra.NoArgs,
		RunE:  writeFieldMap,
	}
	fieldmapCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	optimizeCmd := &cobra.Command{
		Use:   "optimize",
		Short: "grid search lens settings for the smallest metric",
		Args:  cobra.NoArgs,
		RunE:  runOptimize,
	}
	optimizeCmd.Flags().StringArrayVar(&gridParams, "param", nil, "grid axis as name=min:max:steps (repeatable)")
	optimizeCmd.Flags().StringVar(&metricName, "metric", "emittance_x", "metric to minimize")
	optimizeCmd.Flags().IntVar(&numParticles, "particles", quickParticles, "number of particles per run")
	optimizeCmd.Flags().IntVar(&turns, "turns", quickTurns, "turns per run")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run and save every step of a yaml scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	seedsCmd := &cobra.Command{
		Use:   "seeds",
		Short: "spread of the configured metrics over beam samplings",
		Args:  cobra.NoArgs,
		RunE:  runSeeds,
	}
	seedsCmd.Flags().IntVar(&numSeeds, "n", 8, "number of seeds")
	seedsCmd.Flags().IntVar(&numParticles, "particles", quickParticles, "number of particles per run")
	seedsCmd.Flags().IntVar(&turns, "turns", quickTurns, "turns per run")
	seedsCmd.Flags().Int64Var(&seed, "seed", 1, "first seed")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export a per-turn series as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVar(&series, "series", "x", "series: x, y or alive")
	exportSVGCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	rootCmd.AddCommand(trackCmd, probeCmd, profileCmd, phaseCmd, scanCmd, benchCmd, listCmd, showCmd, tuneCmd,
		exportCSVCmd, exportJSONCmd, exportSVGCmd, presetsCmd, fieldmapCmd, optimizeCmd, scenarioCmd, seedsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig resolves defaults, then the preset, then the config file, and
// finally any flag set on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("current") {
		cfg.Lens.Current = current
	}
	if flags.Changed("voltage") {
		cfg.Lens.Voltage = voltage
	}
	if flags.Changed("length") {
		cfg.Lens.Length = length
	}
	if flags.Changed("boundary") {
		cfg.Lens.Boundary = boundary
	}
	if flags.Changed("backend") {
		cfg.Tracking.Backend = backendName
	}
	if flags.Lookup("particles") != nil && flags.Changed("particles") {
		cfg.Beam.Particles = numParticles
	}
	if flags.Lookup("seed") != nil && flags.Changed("seed") {
		cfg.Beam.Seed = seed
	}
	if flags.Lookup("turns") != nil && flags.Changed("turns") {
		cfg.Tracking.Turns = turns
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// quickRun shrinks the beam and run length of repeated runs unless the
// user asked for specific values.
func quickRun(cmd *cobra.Command, cfg *config.Config) {
	if !cmd.Flags().Changed("particles") {
		cfg.Beam.Particles = quickParticles
	}
	if !cmd.Flags().Changed("turns") {
		cfg.Tracking.Turns = quickTurns
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runTrack(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp := experiment.New(cfg)
	if err := exp.Setup(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("tracking %d particles for %d turns on %s backend...\n",
		cfg.Beam.Particles, cfg.Tracking.Turns, exp.Backend().Name())
	start := time.Now()

	var result *tracking.Result
	if live {
		result, err = trackLive(ctx, cancel, exp)
	} else {
		result, err = exp.Run(ctx)
	}
	if err != nil && result == nil {
		return err
	}
	elapsed := time.Since(start)

	if label == "" {
		label = preset
	}
	runID, saveErr := st.Save(label, cfg, result)
	if saveErr != nil {
		return saveErr
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("turns: %d\n", result.TurnsTaken)
	fmt.Printf("survivors: %d / %d\n", result.Final().Alive, exp.Beam().Len())
	fmt.Println("\nmetrics:")
	for _, name := range cfg.Tracking.Metrics {
		fmt.Printf("  %s: %.6g\n", name, result.Metrics[name])
	}

	// a cancelled run is still saved
	return err
}

func trackLive(ctx context.Context, cancel context.CancelFunc, exp *experiment.Experiment) (*tracking.Result, error) {
	cfg := exp.Config()
	session := viz.NewSession()
	exp.Tracker().AddObserver(viz.NewObserver(session.Frames, cfg.Tracking.Turns, liveEvery))

	var result *tracking.Result
	session.Start(func() error {
		var err error
		result, err = exp.Run(ctx)
		return err
	})

	xMin, xMax, yMin, yMax := exp.FieldMap().Geometry().Extent()
	overlay := viz.Overlay{XCenter: cfg.FieldMap.XCenter, YCenter: cfg.FieldMap.YCenter}
	if cfg.FieldMap.Source == config.SourceAnnular {
		overlay.Radii = []float64{cfg.FieldMap.InnerRadius, cfg.FieldMap.OuterRadius}
	}

	m := session.Model(cfg.Lens.Name, cancel,
		viz.Viewport{XMin: xMin, XMax: xMax, YMin: yMin, YMax: yMax}, overlay)
	uiErr := viz.Run(m)

	// a no-op when the run already finished
	cancel()
	err := session.Wait()
	if err == nil {
		err = uiErr
	}
	return result, err
}

func runProbe(cmd *cobra.Command, args []string) error {
	x, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid x: %w", err)
	}
	y, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid y: %w", err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	fm, err := cfg.BuildFieldMap()
	if err != nil {
		return err
	}
	lens, err := cfg.BuildLens(fm, compute.NewSerialBackend())
	if err != nil {
		return err
	}
	ref, err := cfg.Reference()
	if err != nil {
		return err
	}

	gx, gy, inside := fm.Gradient(x, y, 0)
	p, err := particles.FromCoordinates(ref, []float64{x}, []float64{y})
	if err != nil {
		return err
	}
	lens.Track(p)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "position\t(%g, %g) m\n", x, y)
	fmt.Fprintf(w, "inside map\t%t\n", inside)
	fmt.Fprintf(w, "dphi/dx\t%.6e\n", gx)
	fmt.Fprintf(w, "dphi/dy\t%.6e\n", gy)
	fmt.Fprintf(w, "beta_e\t%.9f\n", lens.ElectronBeta())
	fmt.Fprintf(w, "factor\t%.6e\n", lens.Factor(ref))
	fmt.Fprintf(w, "delta px\t%.6e\n", p.Px[0])
	fmt.Fprintf(w, "delta py\t%.6e\n", p.Py[0])
	fmt.Fprintf(w, "state\t%d\n", p.State[0])
	return w.Flush()
}

func runProfile(cmd *cobra.Command, args []string) error {
	if points < 2 {
		return fmt.Errorf("need at least 2 points, got %d", points)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	fm, err := cfg.BuildFieldMap()
	if err != nil {
		return err
	}
	backend, err := cfg.BuildBackend()
	if err != nil {
		return err
	}
	lens, err := cfg.BuildLens(fm, backend)
	if err != nil {
		return err
	}
	ref, err := cfg.Reference()
	if err != nil {
		return err
	}

	lo, hi, _, _ := fm.Geometry().Extent()
	if axis == "y" {
		_, _, lo, hi = fm.Geometry().Extent()
	}
	xs := make([]float64, points)
	ys := make([]float64, points)
	for i := range xs {
		v := lo + (hi-lo)*float64(i)/float64(points-1)
		if axis == "y" {
			ys[i] = v
		} else {
			xs[i] = v
		}
	}

	p, err := particles.FromCoordinates(ref, xs, ys)
	if err != nil {
		return err
	}
	lens.Track(p)

	kick := p.Px
	if axis == "y" {
		kick = p.Py
	}
	graph := asciigraph.Plot(kick,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("delta p%s vs %s in [%g, %g] m", axis, axis, lo, hi)),
	)
	fmt.Println(graph)
	return nil
}

func runPhase(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Beam.Particles = 1
	cfg.Tracking.Turns = phaseTurns
	exp := experiment.New(cfg)
	if err := exp.Setup(); err != nil {
		return err
	}

	beam := exp.Beam()
	beam.X[0], beam.Y[0], beam.Px[0], beam.Py[0] = amplitude, 0, 0, 0

	rec := analysis.NewPhaseRecorder(0, false)
	exp.Tracker().AddObserver(rec)

	ctx, cancel := signalContext()
	defer cancel()
	if _, err := exp.Run(ctx); err != nil {
		return err
	}

	fmt.Printf("probe at x = %g m, %d turns\n\n", amplitude, len(rec.Portrait.Points))
	fmt.Print(analysis.PhasePortraitToASCII(&rec.Portrait, 70, 20))
	if q, err := analysis.Tune(rec.Positions()); err == nil {
		fmt.Printf("\nhorizontal tune: %.5f (bare %.5f)\n", q, cfg.Tracking.Qx)
	}

	if phaseSVG != "" {
		return os.WriteFile(phaseSVG, []byte(portraitSVG(rec.Portrait.Points)), 0644)
	}
	return nil
}

// portraitSVG scatters the points on a braille canvas scaled to their
// largest excursion and renders it as SVG.
func portraitSVG(points []analysis.Point) string {
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, pt := range points {
		xs[i], ys[i] = pt.X, pt.Y
	}
	ax, ay := 1.0, 1.0
	if len(points) > 0 {
		ax = 1.1 * math.Max(math.Abs(floats.Min(xs)), math.Abs(floats.Max(xs)))
		ay = 1.1 * math.Max(math.Abs(floats.Min(ys)), math.Abs(floats.Max(ys)))
	}
	if ax == 0 {
		ax = 1
	}
	if ay == 0 {
		ay = 1
	}

	c := viz.NewCanvas(100, 50)
	c.Scatter(viz.Viewport{XMin: -ax, XMax: ax, YMin: -ay, YMax: ay}, xs, ys)
	return export.CanvasToSVG(c, 4)
}

func runScan(cmd *cobra.Command, args []string) error {
	if scanSteps < 2 {
		return fmt.Errorf("need at least 2 steps, got %d", scanSteps)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	fm, err := cfg.BuildFieldMap()
	if err != nil {
		return err
	}
	ref, err := cfg.Reference()
	if err != nil {
		return err
	}

	setup := func(i float64) (*tracking.Tracker, *particles.Particles, error) {
		c := *cfg
		c.Lens.Current = i
		lens, err := c.BuildLens(fm, compute.NewSerialBackend())
		if err != nil {
			return nil, nil, err
		}
		arc, err := c.BuildArc(compute.NewSerialBackend())
		if err != nil {
			return nil, nil, err
		}
		p, err := particles.FromCoordinates(ref, []float64{amplitude}, []float64{amplitude})
		return tracking.New(nil, lens, arc), p, err
	}

	currents := make([]float64, scanSteps)
	for i := range currents {
		currents[i] = scanMin + (scanMax-scanMin)*float64(i)/float64(scanSteps-1)
	}

	ctx, cancel := signalContext()
	defer cancel()
	results, err := analysis.ScanTunes(ctx, setup, currents, scanTurns)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CURRENT\tQX\tQY\tDQX\tDQY")
	for _, r := range results {
		fmt.Fprintf(w, "%.3f A\t%.5f\t%.5f\t%+.2e\t%+.2e\n",
			r.Param, r.Qx, r.Qy, r.Qx-results[0].Qx, r.Qy-results[0].Qy)
	}
	return w.Flush()
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	fm, err := cfg.BuildFieldMap()
	if err != nil {
		return err
	}
	ref, err := cfg.Reference()
	if err != nil {
		return err
	}

	sizes := []int{1000, 10000, 100000, 1000000}
	backends := []compute.Backend{compute.NewSerialBackend(), compute.NewCPUBackend()}

	fmt.Printf("benchmarking %s lens kick\n\n", cfg.FieldMap.Source)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BACKEND\tPARTICLES\tTIME\tPARTICLES/SEC")

	for _, backend := range backends {
		lens, err := cfg.BuildLens(fm, backend)
		if err != nil {
			return err
		}
		for _, n := range sizes {
			c := *cfg
			c.Beam.Particles = n
			p := c.BuildBeam(ref)

			start := time.Now()
			lens.Track(p)
			elapsed := time.Since(start)

			fmt.Fprintf(w, "%s\t%d\t%v\t%.3g\n", backend.Name(), n, elapsed, float64(n)/elapsed.Seconds())
		}
		backend.Cleanup()
	}

	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tCURRENT\tVOLTAGE\tPARTICLES\tTURNS\tSURVIVORS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%g A\t%g V\t%d\t%d\t%d\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Current,
			run.Voltage,
			run.Particles,
			run.Turns,
			run.Survivors,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	turns, err := st.LoadTurns(runID)
	if err != nil {
		return err
	}
	if len(turns) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("lens: %g A, %g V, %g m, boundary %s, map %s\n", meta.Current, meta.Voltage, meta.Length, meta.Boundary, meta.Source)
	fmt.Printf("beam: %d particles, seed %d, %d turns\n\n", meta.Particles, meta.Seed, meta.Turns)

	plots := []struct {
		caption string
		value   func(tracking.TurnRecord) float64
	}{
		{"<x> [m]", func(r tracking.TurnRecord) float64 { return r.MeanX }},
		{"<y> [m]", func(r tracking.TurnRecord) float64 { return r.MeanY }},
		{"alive", func(r tracking.TurnRecord) float64 { return float64(r.Alive) }},
	}
	for _, s := range plots {
		data := make([]float64, len(turns))
		for i, r := range turns {
			data[i] = s.value(r)
		}
		fmt.Println(asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(s.caption),
		))
		fmt.Println()
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for name, v := range meta.Metrics {
		fmt.Fprintf(w, "%s\t%.6g\n", name, v)
	}
	return w.Flush()
}

func tuneRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	turns, err := st.LoadTurns(runID)
	if err != nil {
		return err
	}

	if len(turns) < 2 {
		return fmt.Errorf("run %s has no tracked turns", runID)
	}
	// turn 0 is the injected beam
	res := &tracking.Result{Turns: turns}
	cx, cy := res.CentroidX()[1:], res.CentroidY()[1:]

	qx, err := analysis.Tune(cx)
	if err != nil {
		return err
	}
	qy, err := analysis.Tune(cy)
	if err != nil {
		return err
	}

	ps := analysis.PowerSpectrum(cx)
	fmt.Println(asciigraph.Plot(ps,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("centroid x spectrum (0 to 0.5 of revolution frequency)"),
	))
	fmt.Println()

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("qx: %.5f (bare %.5f, shift %+.2e)\n", qx, meta.Qx, qx-fractional(meta.Qx))
	fmt.Printf("qy: %.5f (bare %.5f, shift %+.2e)\n", qy, meta.Qy, qy-fractional(meta.Qy))
	return nil
}

// fractional folds a tune into [0, 0.5], the range Tune can resolve.
func fractional(q float64) float64 {
	f := q - math.Floor(q)
	if f > 0.5 {
		f = 1 - f
	}
	return f
}

func writeFieldMap(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	fm, err := cfg.BuildFieldMap()
	if err != nil {
		return err
	}

	out := os.Stdout
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	if err := fieldmap.SaveCSV(out, fm); err != nil {
		return err
	}

	if outFile != "" {
		g, s := fm.Geometry(), fm.Stats()
		fmt.Printf("wrote %dx%d map to %s\n", g.Nx, g.Ny, outFile)
		fmt.Printf("dphi/dx in [%.4e, %.4e]\n", s.MinDphiDx, s.MaxDphiDx)
		fmt.Printf("dphi/dy in [%.4e, %.4e]\n", s.MinDphiDy, s.MaxDphiDy)
	}
	return nil
}

// parseGridAxis reads name=min:max:steps.
func parseGridAxis(arg string) (string, []float64, error) {
	name, rng, ok := strings.Cut(arg, "=")
	if !ok {
		return "", nil, fmt.Errorf("invalid grid axis %q, want name=min:max:steps", arg)
	}
	parts := strings.Split(rng, ":")
	if len(parts) != 3 {
		return "", nil, fmt.Errorf("invalid range %q, want min:max:steps", rng)
	}
	lo, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return "", nil, fmt.Errorf("invalid min in %q: %w", arg, err)
	}
	hi, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return "", nil, fmt.Errorf("invalid max in %q: %w", arg, err)
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil || n < 1 {
		return "", nil, fmt.Errorf("invalid steps in %q", arg)
	}
	return name, optim.Linspace(lo, hi, n), nil
}

func runOptimize(cmd *cobra.Command, args []string) error {
	if len(gridParams) == 0 {
		return fmt.Errorf("at least one --param is required")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(gridParams))
	ranges := make([][]float64, 0, len(gridParams))
	for _, arg := range gridParams {
		name, values, err := parseGridAxis(arg)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}

	quickRun(cmd, cfg)
	g := optim.NewGridSearch(names, ranges)
	g.Progress = func(done, total int, c optim.Candidate) {
		fmt.Fprintf(os.Stderr, "\r%s", viz.ProgressBar(float64(done)/float64(total), 40))
	}

	ctx, cancel := signalContext()
	defer cancel()
	best, all, err := g.Search(ctx, cfg, metricName)
	fmt.Fprintln(os.Stderr)
	if err != nil && best.Params == nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(metricName))
	for _, c := range all {
		row := make([]string, len(names))
		for i, name := range names {
			row[i] = strconv.FormatFloat(c.Params[name], 'g', 6, 64)
		}
		val := strconv.FormatFloat(c.Value, 'g', 6, 64)
		if c.Err != nil {
			val = "error: " + c.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\n", strings.Join(row, "\t"), val)
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}

	fmt.Printf("\nbest %s = %.6g at", metricName, best.Value)
	for _, name := range names {
		fmt.Printf(" %s=%g", name, best.Params[name])
	}
	fmt.Println()
	return err
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	if sc.Description != "" {
		fmt.Println(sc.Description)
	}

	ctx, cancel := signalContext()
	defer cancel()
	results, err := automation.RunScenario(ctx, sc, storage.New(dataDir), func(step, total int, label string) {
		fmt.Printf("running step %d/%d: %s\n", step, total, label)
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nLABEL\tRUN\tTURNS\tSURVIVORS")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", r.Label, r.RunID, r.Result.TurnsTaken, r.Result.Final().Alive)
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	return err
}

func runSeeds(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	quickRun(cmd, cfg)
	ctx, cancel := signalContext()
	defer cancel()
	stats, err := automation.RunSeeds(ctx, cfg, numSeeds)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tMEAN\tSTDDEV\tTREND")
	for _, s := range stats {
		fmt.Fprintf(w, "%s\t%.6g\t%.3g\t%s\n", s.Metric, s.Mean, s.StdDev, viz.Sparkline(s.Values, len(s.Values)))
	}
	return w.Flush()
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	turns, err := st.LoadTurns(args[0])
	if err != nil {
		return err
	}

	data := make([]float64, len(turns))
	for i, r := range turns {
		switch series {
		case "x":
			data[i] = r.MeanX
		case "y":
			data[i] = r.MeanY
		case "alive":
			data[i] = float64(r.Alive)
		default:
			return fmt.Errorf("unknown series %q (want x, y or alive)", series)
		}
	}

	svg := export.SeriesToSVG(data, 800, 300, "#7d56f4", fmt.Sprintf("%s: %s per turn", args[0], series))
	if svg == "" {
		return fmt.Errorf("not enough data to plot")
	}

	if outFile == "" {
		_, err = fmt.Print(svg)
		return err
	}
	return os.WriteFile(outFile, []byte(svg), 0644)
}
