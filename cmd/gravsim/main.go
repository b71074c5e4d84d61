package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/gravsim/internal/analysis"
	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/export"
	"github.com/san-kum/gravsim/internal/metrics"
	"github.com/san-kum/gravsim/internal/sim"
	"github.com/san-kum/gravsim/internal/storage"
	"github.com/san-kum/gravsim/internal/viz"
)

var (
	dataDir  string
	logLevel string
	logJSON  bool
	logFile  string

	configFile  string
	preset      string
	dt          float64
	speed       float64
	kappa       float64
	maxRadius   float64
	mainBody    int
	steps       int
	sampleEvery int
	viewRadius  float64
	bodySpecs   []string

	plot     bool
	svgFile  string
	jsonOut  bool
	noSave   bool
	start    bool
	duration float64
	dts      []float64

	perturbation float64
	renorm       int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gravsim",
		Short: "2D gravitational n-body simulator",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// the live view owns the terminal, so its logs go to a file or nowhere
			if cmd.Name() == "live" {
				return setupLogging(io.Discard)
			}
			return setupLogging(os.Stderr)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".gravsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log as JSON")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless simulation and save it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addEngineFlags(runCmd)
	runCmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
	runCmd.Flags().IntVar(&sampleEvery, "sample-every", 10, "record diagnostics every n steps")
	runCmd.Flags().BoolVar(&plot, "plot", false, "plot energy and body count after the run")
	runCmd.Flags().StringVar(&svgFile, "svg", "", "write the final state as SVG to this file")
	runCmd.Flags().BoolVar(&jsonOut, "json", false, "print the run as JSON")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "interactive terminal control surface",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addEngineFlags(liveCmd)
	liveCmd.Flags().BoolVar(&start, "start", false, "start the simulation immediately")
	liveCmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	compareCmd := &cobra.Command{
		Use:   "compare",
		Short: "run the same system at several timesteps in parallel",
		Args:  cobra.NoArgs,
		RunE:  compareTimesteps,
	}
	addEngineFlags(compareCmd)
	compareCmd.Flags().Float64Var(&duration, "time", 10, "simulated time per run")
	compareCmd.Flags().Float64SliceVar(&dts, "dts", []float64{0.02, 0.01, 0.005}, "timesteps to compare")

	chaosCmd := &cobra.Command{
		Use:   "chaos",
		Short: "estimate the largest Lyapunov exponent",
		Args:  cobra.NoArgs,
		RunE:  estimateChaos,
	}
	addEngineFlags(chaosCmd)
	chaosCmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
	chaosCmd.Flags().IntVar(&renorm, "renorm", 10, "steps between renormalizations")
	chaosCmd.Flags().Float64Var(&perturbation, "perturbation", 1e-6, "initial displacement of the first body")

	rootCmd.AddCommand(runCmd, liveCmd, presetsCmd, listCmd, plotCmd, exportCmd, compareCmd, chaosCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addEngineFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "start from a preset")
	f.Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	f.Float64Var(&speed, "speed", config.DefaultSpeed, "speed multiplier")
	f.Float64Var(&kappa, "kappa", config.DefaultKappa, "gravitational constant")
	f.Float64Var(&maxRadius, "max-radius", config.DefaultMaxRadius, "merged radius cap")
	f.IntVar(&mainBody, "main-body", -1, "main body index (-1 for center of mass)")
	f.Float64Var(&viewRadius, "view-radius", config.DefaultViewRadius, "containment and view radius")
	f.StringArrayVar(&bodySpecs, "body", nil, "add a body as mass,radius,x,y,vx,vy (repeatable)")
}

func setupLogging(w io.Writer) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return err
		}
		w = f
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if logJSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(h))
	return nil
}

// resolveConfig layers the preset, the config file and explicitly set flags,
// in that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
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

	for _, arg := range bodySpecs {
		bc, err := config.ParseBody(arg)
		if err != nil {
			return nil, err
		}
		cfg.Bodies = append(cfg.Bodies, bc)
	}

	f := cmd.Flags()
	if f.Changed("dt") {
		cfg.Engine.Dt = dt
	}
	if f.Changed("speed") {
		cfg.Engine.Speed = speed
	}
	if f.Changed("kappa") {
		cfg.Engine.Kappa = kappa
	}
	if f.Changed("max-radius") {
		cfg.Engine.MaxRadius = maxRadius
	}
	if f.Changed("main-body") {
		cfg.Engine.MainBody = mainBody
	}
	if f.Changed("view-radius") {
		cfg.Run.ViewRadius = viewRadius
	}
	if f.Lookup("steps") != nil && f.Changed("steps") {
		cfg.Run.Steps = steps
	}
	if f.Lookup("sample-every") != nil && f.Changed("sample-every") {
		cfg.Run.SampleEvery = sampleEvery
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func configName(cfg *config.Config) string {
	if cfg.Name != "" {
		return cfg.Name
	}
	return "custom"
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	e, err := cfg.NewEngine(sim.WithLogger(slog.Default()))
	if err != nil {
		return err
	}
	for _, m := range metrics.Default(cfg.Run.ViewRadius) {
		e.AddMetric(m)
	}
	e.AddObserver(sim.ObserverFunc(func(s sim.Snapshot) {
		if s.Diag.Step%uint64(max(cfg.Run.Steps/10, 1)) == 0 {
			slog.Debug("progress", "step", s.Diag.Step, "time", s.Diag.Time, "bodies", len(s.Bodies))
		}
	}))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	name := configName(cfg)
	slog.Info("running simulation", "name", name, "bodies", e.BodyCount(), "steps", cfg.Run.Steps)
	begin := time.Now()

	result, err := e.Run(ctx, cfg.Run.Steps, cfg.Run.SampleEvery)
	if err != nil && result == nil {
		return err
	}
	if err != nil {
		slog.Warn("run interrupted", "steps", result.StepsTaken, "err", err)
	}
	elapsed := time.Since(begin)

	meta := storage.NewMetadata(name, cfg.EngineConfig(), result)
	if jsonOut {
		return storage.ExportJSON(os.Stdout, meta, storage.Samples(result))
	}

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(meta, result)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("steps: %d  time: %.3f  bodies: %d -> %d  merges: %d\n",
		result.StepsTaken, e.Time(), meta.Bodies, e.BodyCount(), result.Merges)
	if result.Skipped > 0 {
		fmt.Printf("skipped coincident pairs: %d\n", result.Skipped)
	}
	printMetrics(result.Metrics)

	if plot {
		plotSamples(storage.Samples(result))
	}
	if svgFile != "" {
		if err := writeSVG(svgFile, e.Snapshot(), cfg.Run.ViewRadius); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgFile)
	}
	return nil
}

func writeSVG(path string, snap sim.Snapshot, viewRadius float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return export.SnapshotSVG(f, snap, viewRadius, 800)
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	e, err := cfg.NewEngine(sim.WithLogger(slog.Default()))
	if err != nil {
		return err
	}
	if start {
		e.StartSim()
	}
	return viz.Run(e, cfg.Run.ViewRadius, slog.Default())
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tBODIES\tDT\tKAPPA\tMAX_RADIUS\tSTEPS")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%g\t%g\t%g\t%d\n",
			name, len(p.Bodies), p.Engine.Dt, p.Engine.Kappa, p.Engine.MaxRadius, p.Run.Steps)
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
	fmt.Fprintln(w, "ID\tNAME\tTIME\tSTEPS\tDT\tBODIES\tMERGES")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.4f\t%d\t%d\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Steps,
			run.Dt,
			run.Bodies,
			run.Merges,
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
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	sum := storage.Summarize(samples)
	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("name: %s\n", meta.Name)
	fmt.Printf("samples: %d  time: %.3f .. %.3f\n", sum.Samples, sum.FirstTime, sum.LastTime)
	fmt.Printf("bodies: %d -> %d  max spread: %.2f\n", sum.BodiesFirst, sum.BodiesLast, sum.SpreadMax)
	fmt.Printf("energy: %.6g .. %.6g  drift: %.3e\n\n", sum.EnergyMin, sum.EnergyMax, sum.EnergyDrift)

	plotSamples(samples)
	return nil
}

func plotSamples(samples []*storage.Sample) {
	if len(samples) < 2 {
		return
	}
	series := []struct {
		caption string
		field   func(*storage.Sample) float64
	}{
		{"total energy", func(s *storage.Sample) float64 { return s.Energy }},
		{"angular momentum", func(s *storage.Sample) float64 { return s.AngularMomentum }},
		{"spread", func(s *storage.Sample) float64 { return s.Spread }},
		{"bodies", func(s *storage.Sample) float64 { return float64(s.Bodies) }},
	}
	for _, sr := range series {
		graph := asciigraph.Plot(storage.Column(samples, sr.field),
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(sr.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, *meta, samples)
}

func compareTimesteps(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if len(dts) == 0 {
		return fmt.Errorf("no timesteps given")
	}

	engines := make([]*sim.Engine, len(dts))
	counts := make([]int, len(dts))
	for i, d := range dts {
		c := cfg.Clone()
		c.Engine.Dt = d
		e, err := c.NewEngine(sim.WithLogger(slog.Default().With("dt", d)))
		if err != nil {
			return err
		}
		for _, m := range metrics.Default(cfg.Run.ViewRadius) {
			e.AddMetric(m)
		}
		engines[i] = e
		counts[i] = max(1, int(math.Ceil(duration/(d*math.Max(c.Engine.Speed, 1e-9)))))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	fmt.Printf("comparing timesteps for %s (time=%.1f)\n\n", configName(cfg), duration)
	fmt.Printf("%-10s  %8s  %8s  %12s  %12s\n", "dt", "steps", "bodies", "energy_drift", "mom_drift")
	fmt.Println(strings.Repeat("-", 58))

	begin := time.Now()
	results, err := sim.NewEnsemble(engines...).RunEach(ctx, counts, cfg.Run.SampleEvery)
	elapsed := time.Since(begin)
	if err != nil {
		return err
	}

	for i, r := range results {
		fmt.Printf("%-10g  %8d  %8d  %12.3e  %12.3e\n",
			dts[i], r.StepsTaken, engines[i].BodyCount(),
			r.Metrics["energy_drift"], r.Metrics["momentum_drift"])
	}
	fmt.Printf("\ncompleted in %v\n", elapsed)
	return nil
}

func estimateChaos(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	ref, err := cfg.NewEngine(sim.WithLogger(slog.Default().With("engine", "reference")))
	if err != nil {
		return err
	}
	pert, err := cfg.NewEngine(sim.WithLogger(slog.Default().With("engine", "perturbed")))
	if err != nil {
		return err
	}

	d, err := analysis.LyapunovExponent(ref, pert, cfg.Run.Steps, renorm, perturbation)
	if err != nil {
		return err
	}

	fmt.Printf("system: %s\n", configName(cfg))
	fmt.Printf("steps compared: %d (time %.3f)\n", d.Steps, ref.Time())
	fmt.Printf("lyapunov exponent: %.6g\n", d.Exponent)
	if d.Diverged {
		fmt.Println("stopped early: the perturbed system merged differently")
	}
	return nil
}
