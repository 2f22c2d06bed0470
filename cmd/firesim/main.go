package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/firesim/internal/analysis"
	"github.com/san-kum/firesim/internal/automation"
	"github.com/san-kum/firesim/internal/config"
	"github.com/san-kum/firesim/internal/export"
	"github.com/san-kum/firesim/internal/fluid"
	"github.com/san-kum/firesim/internal/gui"
	"github.com/san-kum/firesim/internal/metrics"
	"github.com/san-kum/firesim/internal/sim"
	"github.com/san-kum/firesim/internal/storage"
	"github.com/san-kum/firesim/internal/viz"
)

var (
	dataDir   string
	logLevel  string
	logFormat string
	logFile   string

	// run configuration
	configFile  string
	preset      string
	grid        int
	orientation string
	seed        int64
	ticks       int

	// run
	scenarioFile string
	runName      string
	gifPath      string
	recordEvery  int
	noSave       bool

	// plot, export and analyze
	plotColumn    string
	analyzeColumn string
	svgPath       string
	format        string
	outPath       string

	// bench
	benchGrids []int
	benchPlot  bool

	// sweep
	sweepParam string
	sweepMin   float32
	sweepMax   float32
	sweepSteps int
	minimize   string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// newRootCmd registers the commands. The live terminal view runs when no
// subcommand is given.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "firesim",
		Short:         "real-time smoke and fire simulation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(cmd)
		},
		RunE: runLive,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".firesim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to a file instead of stderr")
	addConfigFlags(rootCmd)

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run with the terminal view",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)

	guiCmd := &cobra.Command{
		Use:   "gui",
		Short: "run in a window with a control panel",
		Args:  cobra.NoArgs,
		RunE:  runGUI,
	}
	addConfigFlags(guiCmd)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run headless and save the results",
		Args:  cobra.NoArgs,
		RunE:  runHeadless,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().StringVar(&scenarioFile, "scenario", "", "scripted disturbances (yaml)")
	runCmd.Flags().StringVar(&runName, "name", "", "run name (defaults to the preset or scenario name)")
	runCmd.Flags().StringVar(&gifPath, "gif", "", "record an animated gif to this path")
	runCmd.Flags().IntVar(&recordEvery, "record-every", config.DefaultRecordEvery, "ticks between stats rows and gif frames")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stats column of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotColumn, "column", "", "stats column to plot (default: all)")
	plotCmd.Flags().StringVar(&svgPath, "svg", "", "also write the column as svg")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as json or its final frame as png",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&format, "format", "json", "json or png")
	exportCmd.Flags().StringVarP(&outPath, "output", "o", "", "output path (json defaults to stdout)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "find the flicker period of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&analyzeColumn, "column", "mass", "stats column to analyze")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "measure tick time per grid size",
		Args:  cobra.NoArgs,
		RunE:  benchGridSizes,
	}
	addConfigFlags(benchCmd)
	benchCmd.Flags().IntSliceVar(&benchGrids, "grids", []int{50, 100, 200}, "grid sizes")
	benchCmd.Flags().BoolVar(&benchPlot, "plot", false, "plot tick times of the last size")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run once per value of a parameter",
		Args:  cobra.NoArgs,
		RunE:  sweepParameter,
	}
	addConfigFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "buoyancy", "parameter: "+strings.Join(fluid.ParamNames(), ", "))
	sweepCmd.Flags().Float32Var(&sweepMin, "min", 0, "first value")
	sweepCmd.Flags().Float32Var(&sweepMax, "max", 1, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of values")
	sweepCmd.Flags().StringVar(&minimize, "minimize", "", "report the value with the lowest of this metric")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	initCmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "write a config file with the current settings",
		Args:  cobra.ExactArgs(1),
		RunE:  writeConfig,
	}
	addConfigFlags(initCmd)

	rootCmd.AddCommand(liveCmd, guiCmd, runCmd, listCmd, plotCmd, exportCmd, analyzeCmd, benchCmd, sweepCmd, presetsCmd, initCmd)
	return rootCmd
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "preset: "+strings.Join(config.ListPresets(), ", "))
	cmd.Flags().IntVar(&grid, "grid", config.DefaultGrid, "interior grid size")
	cmd.Flags().StringVar(&orientation, "orientation", config.OrientationRising, "rising or falling")
	cmd.Flags().Int64Var(&seed, "seed", 1, "wandering source seed")
	cmd.Flags().IntVar(&ticks, "ticks", config.DefaultTicks, "ticks for headless runs")
}

// loadConfig builds the run configuration: defaults, then the preset, then
// the config file, then any flag set on the command line.
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
	if flags.Changed("orientation") {
		if preset == "" && configFile == "" {
			keep := cfg.Grid
			cfg.ApplyPreset(config.ForOrientation(orientation))
			cfg.Grid = keep
		}
		cfg.Orientation = orientation
	}
	if flags.Changed("grid") {
		cfg.Grid = grid
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("ticks") {
		cfg.Ticks = ticks
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(cmd *cobra.Command) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("log level: %w", err)
	}

	var w io.Writer = os.Stderr
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return err
		}
		w = f
	} else if isInteractive(cmd) {
		// the terminal belongs to the view
		w = io.Discard
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	switch logFormat {
	case "json":
		h = slog.NewJSONHandler(w, opts)
	case "text":
		h = slog.NewTextHandler(w, opts)
	default:
		return fmt.Errorf("unknown log format: %s", logFormat)
	}
	slog.SetDefault(slog.New(h))
	return nil
}

func isInteractive(cmd *cobra.Command) bool {
	return cmd.Name() == "live" || cmd.Name() == "firesim"
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func newRunner(cfg *config.Config) (*sim.Runner, error) {
	r, err := sim.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	for _, m := range metrics.Standard() {
		r.AddMetric(m)
	}
	return r, nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	r, err := newRunner(cfg)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()
	return viz.Run(ctx, r, cfg)
}

func runGUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	r, err := newRunner(cfg)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()
	return gui.Run(ctx, r, cfg)
}

func runHeadless(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("record-every") {
		cfg.RecordEvery = max(recordEvery, 1)
	}

	stats := storage.NewStatsRecorder(cfg.RecordEvery)
	observers := []sim.Observer{stats}
	var rec *export.GIFRecorder
	if gifPath != "" {
		rec = export.NewGIFRecorder(cfg.Palette(), cfg.RecordEvery, 4, 4)
		observers = append(observers, rec)
	}

	ctx, stop := signalContext()
	defer stop()

	name := runName
	var (
		result *sim.Result
		r      *sim.Runner
	)
	if scenarioFile != "" {
		sc, err := automation.LoadScenario(scenarioFile)
		if err != nil {
			return err
		}
		if name == "" {
			name = sc.Name
		}
		fmt.Printf("running scenario %s...\n", sc.Name)
		result, r, err = automation.RunScenario(ctx, sc, cfg, metrics.Standard(), observers...)
		if err != nil && !sim.IsCancelled(err) {
			return err
		}
		cfg = sc.Config(cfg)
	} else {
		r, err = newRunner(cfg)
		if err != nil {
			return err
		}
		for _, o := range observers {
			r.AddObserver(o)
		}
		fmt.Printf("running %d ticks on a %dx%d grid...\n", cfg.Ticks, cfg.Grid, cfg.Grid)
		result, err = r.RunTicks(ctx, cfg.Ticks)
		if err != nil && !sim.IsCancelled(err) {
			return err
		}
	}
	if name == "" {
		name = preset
	}
	if name == "" {
		name = cfg.Orientation
	}

	fmt.Printf("completed %d ticks in %v\n", result.Ticks, result.Elapsed.Round(time.Millisecond))
	if result.Faults > 0 {
		fmt.Printf("faults: %d non-finite cells zeroed\n", result.Faults)
	}
	printMetrics(result.Metrics)

	if rec != nil {
		if err := rec.Save(gifPath); err != nil {
			return err
		}
		fmt.Printf("gif: %s (%d frames)\n", gifPath, rec.Frames())
	}

	if noSave {
		return nil
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	var snap fluid.Snapshot
	r.Snapshot(&snap)
	runID, err := st.Save(storage.Run{
		Name:   name,
		Config: cfg,
		Result: result,
		Stats:  stats.Rows(),
		Final:  cfg.Palette().Render(&snap, nil),
	})
	if err != nil {
		return err
	}
	fmt.Printf("run id: %s\n", runID)
	return nil
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
	fmt.Fprintln(w, "ID\tNAME\tTIME\tGRID\tMODE\tTICKS\tTPS\tFAULTS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%d\t%.1f\t%d\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Grid,
			run.Orientation,
			run.Ticks,
			run.TicksPerSecond,
			run.Faults,
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
	rows, err := st.LoadStats(runID)
	if err != nil {
		return err
	}
	if len(rows) < 2 {
		return fmt.Errorf("not enough samples to plot")
	}

	cols := storage.Columns()
	if plotColumn != "" {
		if storage.Column(rows, plotColumn) == nil {
			return fmt.Errorf("unknown column: %s (available: %v)", plotColumn, cols)
		}
		cols = []string{plotColumn}
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("grid: %d  orientation: %s\n", meta.Grid, meta.Orientation)
	fmt.Printf("samples: %d\n\n", len(rows))

	for _, name := range cols {
		data := storage.Column(rows, name)
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name+" vs tick"),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	if svgPath != "" {
		name := cols[0]
		svg := export.SeriesToSVG(storage.Column(rows, name), 800, 300, "#ff8800")
		if err := os.WriteFile(svgPath, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("svg: %s (%s)\n", svgPath, name)
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	switch format {
	case "json":
		return st.ExportJSON(runID, outPath)
	case "png":
		src := st.FinalFramePath(runID)
		data, err := os.ReadFile(src)
		if err != nil {
			return fmt.Errorf("run %s has no final frame: %w", runID, err)
		}
		if outPath == "" {
			fmt.Println(src)
			return nil
		}
		return os.WriteFile(outPath, data, 0644)
	default:
		return fmt.Errorf("unknown format: %s (json, png)", format)
	}
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	rows, err := st.LoadStats(runID)
	if err != nil {
		return err
	}
	data := storage.Column(rows, analyzeColumn)
	if data == nil {
		return fmt.Errorf("unknown column: %s (available: %v)", analyzeColumn, storage.Columns())
	}
	if len(data) < 4 {
		return fmt.Errorf("no data")
	}

	every := 1
	if len(rows) > 1 {
		every = max(rows[1].Tick-rows[0].Tick, 1)
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("column: %s  samples: %d  every %d ticks\n\n", analyzeColumn, len(data), every)

	f := analysis.DominantPeriod(data, every)
	plotData := f.Spectrum[1:]
	graph := asciigraph.Plot(plotData,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum ("+analyzeColumn+")"),
	)
	fmt.Println(graph)
	fmt.Println()

	if f.Period == 0 {
		fmt.Println("no oscillation found")
		return nil
	}
	fmt.Printf("dominant period: %.1f ticks\n", f.Period)
	if meta.Dt > 0 {
		fmt.Printf("simulated time: %.3f\n", f.Period*float64(meta.Dt))
	}
	return nil
}

func benchGridSizes(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	fmt.Printf("benchmarking %d ticks per size\n\n", cfg.Ticks)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GRID\tTICKS\tMEAN\tSTDDEV\tP95\tTICKS/SEC")

	var last []float64
	for _, n := range benchGrids {
		run := cfg.Clone()
		run.Grid = n
		r, err := sim.NewFromConfig(run)
		if err != nil {
			return err
		}
		result, err := r.RunTicks(ctx, run.Ticks)
		if err != nil {
			return err
		}

		ms := make([]float64, len(result.TickTimes))
		for i, d := range result.TickTimes {
			ms[i] = float64(d) / float64(time.Millisecond)
		}
		mean, std := stat.MeanStdDev(ms, nil)
		sorted := append([]float64(nil), ms...)
		sort.Float64s(sorted)
		p95 := stat.Quantile(0.95, stat.Empirical, sorted, nil)

		fmt.Fprintf(w, "%d\t%d\t%.3fms\t%.3fms\t%.3fms\t%.0f\n",
			r.N(), result.Ticks, mean, std, p95, float64(result.Ticks)/result.Elapsed.Seconds())
		last = ms
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if benchPlot && len(last) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(last, asciigraph.Height(10), asciigraph.Width(80), asciigraph.Caption("tick time (ms)")))
	}
	return nil
}

func sweepParameter(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	sweep := &automation.ParameterSweep{
		Param: sweepParam,
		Min:   sweepMin,
		Max:   sweepMax,
		Steps: sweepSteps,
		Ticks: cfg.Ticks,
	}
	results, err := automation.RunSweep(ctx, sweep, cfg, metrics.Standard)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tMASS\tPEAK TEMP\tKINETIC\tDIVERGENCE\tSTABILITY\tFAULTS\tTPS\n", strings.ToUpper(sweepParam))
	for _, res := range results {
		fmt.Fprintf(w, "%.4g\t%.4g\t%.4g\t%.4g\t%.4g\t%.0f\t%d\t%.1f\n",
			res.ParamValue,
			res.Metrics["mass"],
			res.Metrics["peak_temperature"],
			res.Metrics["kinetic_energy"],
			res.Metrics["max_divergence"],
			res.Metrics["stability"],
			res.Faults,
			res.TicksPerSecond,
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if minimize != "" {
		best, ok := automation.Best(results, minimize)
		if !ok {
			return fmt.Errorf("no fault-free run reported %s", minimize)
		}
		fmt.Printf("\nbest %s: %.4g (%s %.6f)\n", sweepParam, best.ParamValue, minimize, best.Metrics[minimize])
	}
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tGRID\tMODE\tDT\tVISCOSITY\tBUOYANCY\tDECAY")
	for _, name := range config.ListPresets() {
		p := config.Presets[name]
		fmt.Fprintf(w, "%s\t%d\t%s\t%g\t%g\t%g\t%g\n",
			name, p.Grid, p.Orientation, p.Dt, p.Viscosity, p.Buoyancy, p.TemperatureDecay)
	}
	return w.Flush()
}

func writeConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := config.Save(args[0], cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", args[0])
	return nil
}
