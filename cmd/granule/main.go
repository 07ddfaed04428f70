package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/granule/internal/automation"
	"github.com/san-kum/granule/internal/config"
	"github.com/san-kum/granule/internal/dynamo"
	"github.com/san-kum/granule/internal/engine"
	"github.com/san-kum/granule/internal/integrators"
	"github.com/san-kum/granule/internal/metrics"
	"github.com/san-kum/granule/internal/optim"
	"github.com/san-kum/granule/internal/scene"
	"github.com/san-kum/granule/internal/storage"
	"github.com/san-kum/granule/internal/viz"
)

var (
	dataDir  string
	logLevel string

	configFile string
	preset     string
	runName    string
	seed       int64
	frames     int
	workers    int
	integrator string
	sceneKind  string
	count      int
	size       float32
	dt         float32
	gravity    float32
	script     string

	// bench
	benchCounts []int
	benchRuns   int

	snapshotSize int

	// sweep
	sweepParams   []string
	sweepMetric   string
	sweepMaximize bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "granule",
		Short: "parallel 2D particle engine",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".granule", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless simulation and save it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().StringVar(&runName, "name", "run", "run name")
	runCmd.Flags().StringVar(&script, "script", "", "pointer script (none, orbit, drag)")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run the simulation in the terminal with mouse input",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addSimFlags(liveCmd)

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "measure steps per second over particle counts",
		Args:  cobra.NoArgs,
		RunE:  benchEngine,
	}
	addSimFlags(benchCmd)
	benchCmd.Flags().IntSliceVar(&benchCounts, "counts", []int{1000, 5000, 20000}, "particle counts")
	benchCmd.Flags().IntVar(&benchRuns, "runs", 1, "independent seeds per count, run concurrently")

	compareCmd := &cobra.Command{
		Use:   "compare [integrator...]",
		Short: "compare integrators on the same scene",
		RunE:  compareIntegrators,
	}
	addSimFlags(compareCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "grid search engine settings against a metric",
		Args:  cobra.NoArgs,
		RunE:  sweepSettings,
	}
	addSimFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&sweepParams, "param", nil, "name=v1,v2,... (repeatable; tunable: "+strings.Join(optim.Tunable(), ", ")+")")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "overlap", "metric to optimize")
	sweepCmd.Flags().BoolVar(&sweepMaximize, "maximize", false, "maximize instead of minimize")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a YAML batch of simulations",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata and frames as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportJSON(os.Stdout, args[0])
		},
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export frame records to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "print run metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, err := storage.New(dataDir).Load(args[0])
			if err != nil {
				return err
			}
			return printJSON(meta)
		},
	}

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [run_id]",
		Short: "render the final particle buffer of a run as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  snapshotRun,
	}
	snapshotCmd.Flags().IntVar(&snapshotSize, "size", 800, "image size in pixels")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				cfg, err := config.GetPreset(name)
				if err != nil {
					return err
				}
				fmt.Printf("  %-10s %s, %d particles, gravity %g\n", name, cfg.Scene.Kind, cfg.Scene.Count, cfg.Physics.Gravity)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, benchCmd, compareCmd, sweepCmd, scenarioCmd, listCmd, showCmd, plotCmd, exportCmd, exportCSVCmd, snapshotCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	cmd.Flags().IntVar(&frames, "frames", config.DefaultFrames, "frames to simulate")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker goroutines (0 = GOMAXPROCS)")
	cmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator ("+strings.Join(integrators.Names(), ", ")+")")
	cmd.Flags().StringVar(&sceneKind, "scene", "random", "initial scene ("+strings.Join(scene.Kinds(), ", ")+")")
	cmd.Flags().IntVar(&count, "count", config.DefaultCount, "particle count")
	cmd.Flags().Float32Var(&size, "size", config.DefaultSize, "particle size")
	cmd.Flags().Float32Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().Float32Var(&gravity, "gravity", 0, "gravitational constant")
}

func setupLogging(level string) error {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "trace":
		lvl = engine.LevelTrace
	case "debug":
		lvl = slog.LevelDebug
	case "info", "":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return fmt.Errorf("unknown log level %q", level)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
	return nil
}

// loadConfig layers preset, config file and explicitly set flags, in that
// order, then validates the result.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		p, err := config.GetPreset(preset)
		if err != nil {
			return nil, fmt.Errorf("%w (available: %v)", err, config.ListPresets())
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("frames") {
		cfg.Frames = frames
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("scene") {
		cfg.Scene.Kind = sceneKind
	}
	if flags.Changed("count") {
		cfg.Scene.Count = count
	}
	if flags.Changed("size") {
		cfg.Scene.Size = size
	}
	if flags.Changed("dt") {
		cfg.Physics.Dt = dt
	}
	if flags.Changed("gravity") {
		cfg.Physics.Gravity = gravity
	}
	if f := flags.Lookup("script"); f != nil && f.Changed {
		cfg.Pointer.Script = script
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newEngine(cfg *config.Config, w int) (*engine.Engine, error) {
	integ, err := cfg.NewIntegrator()
	if err != nil {
		return nil, err
	}
	return engine.New(
		engine.WithWorkers(w),
		engine.WithIntegrator(integ),
		engine.WithLogger(slog.Default()),
	), nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	particles, err := scene.New(cfg.Scene, cfg.Seed)
	if err != nil {
		return err
	}

	eng, err := newEngine(cfg, cfg.Workers)
	if err != nil {
		return err
	}
	defer eng.Close()

	sim := engine.NewSimulator(eng)
	for _, m := range metrics.Default() {
		sim.AddMetric(m)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %s scene, %d particles...\n", cfg.Scene.Kind, len(particles))
	result, err := sim.Run(ctx, particles, cfg.RunConfig())
	if err != nil && result == nil {
		return err
	}
	if err != nil {
		slog.Warn("run interrupted, saving partial result", "steps", result.StepsTaken, "err", err)
	}

	runID, err := st.Save(storage.RunMetadata{
		Name:       runName,
		Seed:       cfg.Seed,
		Frames:     cfg.Frames,
		Particles:  len(particles),
		Integrator: cfg.Integrator,
		Workers:    eng.Workers(),
		Config:     cfg,
	}, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", result.Elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Println("\nmetrics:")
	for _, m := range sim.Metrics() {
		fmt.Printf("  %s: %.6f\n", m.Name(), result.Metrics[m.Name()])
	}

	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	particles, err := scene.New(cfg.Scene, cfg.Seed)
	if err != nil {
		return err
	}

	eng, err := newEngine(cfg, cfg.Workers)
	if err != nil {
		return err
	}
	defer eng.Close()

	return viz.Run(cfg, particles, eng)
}

func benchEngine(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if benchRuns < 1 {
		return fmt.Errorf("runs must be positive, got %d", benchRuns)
	}
	integ, err := cfg.NewIntegrator()
	if err != nil {
		return err
	}

	fmt.Printf("benchmarking %s scene, %d frames, %d run(s) per count\n\n", cfg.Scene.Kind, cfg.Frames, benchRuns)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PARTICLES\tRUNS\tSTEPS\tTIME\tSTEPS/SEC\tDROPPED")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	for _, n := range benchCounts {
		c := cfg.Clone()
		c.Scene.Count = n
		if c.Workers <= 0 {
			c.Workers = runtime.GOMAXPROCS(0)
		}

		ens := engine.Ensemble{
			Runs:      benchRuns,
			SeedStart: c.Seed,
			Workers:   c.Workers,
			Options:   []engine.Option{engine.WithIntegrator(integ)},
			Init: func(s int64) ([]dynamo.Particle, error) {
				return scene.New(c.Scene, s)
			},
		}

		start := time.Now()
		results, err := ens.Run(ctx, c.RunConfig())
		if err != nil {
			return err
		}
		elapsed := time.Since(start)

		steps, dropped := 0, 0
		for _, r := range results {
			steps += r.StepsTaken
			for _, f := range r.Frames {
				dropped += f.Dropped
			}
		}
		fmt.Fprintf(w, "%d\t%d\t%d\t%v\t%.1f\t%d\n",
			n, benchRuns, steps, elapsed.Round(time.Millisecond), float64(steps)/elapsed.Seconds(), dropped)
	}

	return w.Flush()
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	names := args
	if len(names) == 0 {
		names = integrators.Names()
	}

	fmt.Printf("comparing integrators on %s (%d particles, dt=%.4f, %d frames)\n\n", cfg.Scene.Kind, cfg.Scene.Count, cfg.Physics.Dt, cfg.Frames)
	fmt.Printf("%-10s  %-14s  %-14s  %-12s\n", "integrator", "kinetic", "energy_growth", "time_ms")
	fmt.Println(strings.Repeat("-", 56))

	for _, name := range names {
		integ, err := integrators.New(name)
		if err != nil {
			fmt.Printf("%-10s  error: %v\n", name, err)
			continue
		}

		particles, err := scene.New(cfg.Scene, cfg.Seed)
		if err != nil {
			return err
		}

		eng := engine.New(engine.WithWorkers(cfg.Workers), engine.WithIntegrator(integ))
		sim := engine.NewSimulator(eng)
		sim.AddMetric(metrics.NewEnergyGrowth())
		result, err := sim.Run(cmd.Context(), particles, cfg.RunConfig())
		eng.Close()
		if err != nil {
			fmt.Printf("%-10s  error: %v\n", name, err)
			continue
		}

		fmt.Printf("%-10s  %14.6f  %14.4f  %12.2f\n", name,
			metrics.Kinetic(result.Final), result.Metrics["energy_growth"], float64(result.Elapsed.Microseconds())/1000)
	}

	return nil
}

func sweepSettings(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	params := make([]optim.Param, 0, len(sweepParams))
	for _, s := range sweepParams {
		p, err := optim.ParseParam(s)
		if err != nil {
			return err
		}
		params = append(params, p)
	}
	gs, err := optim.NewGridSearch(sweepMetric, sweepMaximize, params...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	best, trials, err := gs.Search(ctx, cfg, optim.Simulate)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := make([]string, 0, len(params)+1)
	for _, p := range params {
		header = append(header, strings.ToUpper(p.Name))
	}
	fmt.Fprintln(w, strings.Join(append(header, strings.ToUpper(sweepMetric)), "\t"))
	for _, t := range trials {
		row := make([]string, 0, len(params)+1)
		for _, p := range params {
			row = append(row, fmt.Sprintf("%g", t.Values[p.Name]))
		}
		if t.Err != nil {
			row = append(row, "error: "+t.Err.Error())
		} else {
			row = append(row, fmt.Sprintf("%.6g", t.Score))
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	if err != nil {
		return err
	}

	fmt.Printf("\nbest %s = %.6g with %v\n", sweepMetric, best.Score, best.Values)
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := automation.RunScenario(ctx, sc, storage.New(dataDir), slog.Default())
	for _, r := range results {
		fmt.Printf("%-16s %s  steps=%d  overlap=%.6f  kinetic=%.6f\n",
			r.Name, r.RunID, r.Steps, r.Metrics["overlap"], r.Metrics["kinetic_energy"])
	}
	return err
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
	fmt.Fprintln(w, "ID\tTIME\tPARTICLES\tSTEPS\tELAPSED\tINTEG\tWORKERS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%dms\t%s\t%d\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Particles,
			run.Steps,
			run.ElapsedMS,
			run.Integrator,
			run.Workers,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	records, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("particles: %d\n", meta.Particles)
	fmt.Printf("samples: %d\n\n", len(records))

	series := []struct {
		caption string
		value   func(engine.FrameRecord) float64
	}{
		{"kinetic energy", func(r engine.FrameRecord) float64 { return r.Kinetic }},
		{"max speed", func(r engine.FrameRecord) float64 { return r.MaxSpeed }},
		{"max cell load", func(r engine.FrameRecord) float64 { return float64(r.MaxLoad) }},
		{"step time (us)", func(r engine.FrameRecord) float64 { return float64(r.StepMicro) }},
	}

	data := make([]float64, len(records))
	for _, s := range series {
		for i, r := range records {
			data[i] = s.value(r)
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(s.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	records, err := st.LoadFrames(args[0])
	if err != nil {
		return err
	}

	if len(records) == 0 {
		return fmt.Errorf("no data to export")
	}

	return gocsv.Marshal(records, os.Stdout)
}

func snapshotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	rows, err := st.LoadParticles(args[0])
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(os.Stdout, storage.SnapshotSVG(storage.Particles(rows), snapshotSize))
	return err
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
