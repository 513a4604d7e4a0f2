package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/san-kum/esail/internal/config"
	"github.com/san-kum/esail/internal/logging"
	"github.com/san-kum/esail/internal/viz"
)

var (
	dataDir   string
	logLevel  string
	logFormat string

	// Config file
	configFile string
	// Preset name
	preset string

	dt          float64
	duration    float64
	iterations  int
	rpm         float64
	potential   float64
	deploy      int
	reserve     int
	frameRate   float64
	sampleEvery int

	runName     string
	metricsAddr string
	theme       string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "esail",
		Short: "electric sail tether dynamics",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(logging.ContextWithLogger(cmd.Context(), newLogger()))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive(cmd.Context(), viz.WithLogger(logging.FromContext(cmd.Context())))
		},
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", ".esail", "data directory")
	pf.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides ESAIL_LOG_LEVEL")
	pf.StringVar(&logFormat, "log-format", "", "log format (text, json); overrides ESAIL_LOG_FORMAT")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless simulation and store it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().StringVar(&runName, "name", "", "run name (defaults to the preset or \"run\")")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run the sail with live terminal visualization",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)
	liveCmd.Flags().StringVar(&theme, "theme", "night", "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")
	liveCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot tip radius, drag and tip track of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of the tip motion",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().String("coord", "z", "tip coordinate to analyze (x, y, z)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export the tip track to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringP("out", "o", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and frames to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringP("out", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "draw a frame of the chain, or the tip track, as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringP("out", "o", "", "output file (default stdout)")
	exportSVGCmd.Flags().Int("frame", -1, "frame index to draw; negative counts from the end")
	exportSVGCmd.Flags().Bool("track", false, "draw the tip track instead of a frame")
	exportSVGCmd.Flags().Int("width", 600, "image width")
	exportSVGCmd.Flags().Int("height", 600, "image height")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [param] [values...]",
		Short: "run one simulation per parameter value in parallel",
		Long:  "Parameters: " + strings.Join(sweepParams(), ", "),
		Args:  cobra.MinimumNArgs(2),
		RunE:  runSweep,
	}
	addConfigFlags(sweepCmd)
	sweepCmd.Flags().IntP("jobs", "j", 0, "concurrent runs (default GOMAXPROCS)")

	searchCmd := &cobra.Command{
		Use:   "search [metric]",
		Short: "grid search the parameters for the best metric",
		Args:  cobra.ExactArgs(1),
		RunE:  runSearch,
	}
	addConfigFlags(searchCmd)
	searchCmd.Flags().StringArray("grid", nil, "parameter range as name=v1,v2,... (repeatable)")
	searchCmd.Flags().Bool("maximize", false, "maximize the metric instead of minimizing it")

	scriptCmd := &cobra.Command{
		Use:   "script [scenario.yaml]",
		Short: "run a scripted deployment scenario and store it",
		Args:  cobra.ExactArgs(1),
		RunE:  runScript,
	}
	addConfigFlags(scriptCmd)

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark the solver at several relaxation counts",
		Args:  cobra.NoArgs,
		RunE:  benchSolver,
	}
	addConfigFlags(benchCmd)
	benchCmd.Flags().Int("steps", 600, "steps per measurement")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, analyzeCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd, presetsCmd, sweepCmd, searchCmd, scriptCmd, benchCmd)
	return rootCmd
}

func newLogger() logging.Logger {
	if logLevel != "" {
		os.Setenv("ESAIL_LOG_LEVEL", logLevel)
	}
	if logFormat != "" {
		os.Setenv("ESAIL_LOG_FORMAT", logFormat)
	}
	return logging.NewFromEnv()
}

func addConfigFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.Float64Var(&dt, "dt", config.DefaultTimestep, "fixed timestep (s)")
	f.Float64Var(&duration, "time", config.DefaultDuration, "duration (s)")
	f.IntVar(&iterations, "iterations", config.DefaultIterations, "relaxation passes per step")
	f.Float64Var(&rpm, "rpm", 0, "spin rate (rev/min)")
	f.Float64Var(&potential, "potential", 0, "tether potential (V)")
	f.IntVar(&deploy, "deploy", 0, "elements to deploy at start")
	f.IntVar(&reserve, "reserve", 0, "elements kept stowed")
	f.Float64Var(&frameRate, "fps", config.DefaultFrameRate, "host frame rate driving the clock (Hz)")
	f.IntVar(&sampleEvery, "sample-every", 6, "record a frame every n steps")
}

// resolveConfig layers the sources: defaults, then preset, then config
// file, then any flag set on the command line.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Simulation.Timestep = dt
	}
	if flags.Changed("time") {
		cfg.Simulation.Duration = duration
	}
	if flags.Changed("iterations") {
		cfg.Simulation.Iterations = iterations
	}
	if flags.Changed("rpm") {
		cfg.Spacecraft.RPM = rpm
	}
	if flags.Changed("potential") {
		cfg.Tether.Potential = potential
	}
	if flags.Changed("deploy") {
		cfg.Simulation.Deploy = deploy
	}
	if flags.Changed("reserve") {
		cfg.Simulation.Reserve = reserve
	}
	if flags.Changed("fps") {
		cfg.Simulation.FrameRate = frameRate
	}
	if flags.Changed("sample-every") {
		cfg.Simulation.SampleEvery = sampleEvery
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
