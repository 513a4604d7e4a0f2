package main

import (
	"context"
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/san-kum/esail/internal/automation"
	"github.com/san-kum/esail/internal/config"
	"github.com/san-kum/esail/internal/experiment"
	"github.com/san-kum/esail/internal/logging"
	"github.com/san-kum/esail/internal/observability"
	"github.com/san-kum/esail/internal/optim"
	"github.com/san-kum/esail/internal/sim"
	"github.com/san-kum/esail/internal/storage"
	"github.com/san-kum/esail/internal/viz"
)

// serveMetrics starts a collector on metricsAddr when one was asked for. The
// server stops with ctx.
func serveMetrics(ctx context.Context) (*observability.SolverCollector, error) {
	if metricsAddr == "" {
		return nil, nil
	}
	collector, err := observability.NewSolverCollector(prometheus.NewRegistry())
	if err != nil {
		return nil, err
	}
	if _, err := collector.Serve(ctx, metricsAddr); err != nil {
		return nil, err
	}
	return collector, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := logging.FromContext(ctx)
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	opts := []sim.Option{sim.WithLogger(log)}
	collector, err := serveMetrics(ctx)
	if err != nil {
		return err
	}
	if collector != nil {
		opts = append(opts, sim.WithObservers(collector))
	}

	exp, err := experiment.New(cfg, opts...)
	if err != nil {
		return err
	}

	name := runName
	if name == "" {
		name = preset
	}
	if name == "" {
		name = "run"
	}

	fmt.Printf("running %s: %d elements, %d deployed, %.1f s...\n",
		name, exp.Simulator().Chain().Len(), exp.Simulator().Chain().DeployedCount(), cfg.Simulation.Duration)
	start := time.Now()

	result, runErr := exp.Run(ctx)
	if result == nil {
		return runErr
	}
	return saveRun(st, name, cfg, result, time.Since(start), runErr)
}

// saveRun stores a result, prints its summary and passes runErr on. A run
// that stopped early is still saved.
func saveRun(st *storage.Store, name string, cfg *config.Config, result *sim.Result, elapsed time.Duration, runErr error) error {
	runID, err := st.Save(name, cfg, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("frames: %d\n", len(result.Frames))
	fmt.Println("\nmetrics:")
	for _, name := range slices.Sorted(maps.Keys(result.Metrics)) {
		fmt.Printf("  %s: %.6g\n", name, result.Metrics[name])
	}

	if runErr != nil {
		return fmt.Errorf("run stopped early, partial run saved: %w", runErr)
	}
	return nil
}

func runScript(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := logging.FromContext(ctx)
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	name := scenario.Name
	if name == "" {
		name = "script"
	}
	fmt.Printf("running scenario %s: %d actions\n", name, len(scenario.Actions))
	if scenario.Description != "" {
		fmt.Printf("  %s\n", scenario.Description)
	}

	start := time.Now()
	result, _, runErr := automation.Run(ctx, cfg, scenario, sim.WithLogger(log))
	if result == nil {
		return runErr
	}
	if scenario.Duration > 0 {
		cfg.Simulation.Duration = scenario.Duration
	}
	return saveRun(st, name, cfg, result, time.Since(start), runErr)
}

func runLive(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	opts := []viz.Option{viz.WithLogger(logging.FromContext(ctx)), viz.WithTheme(theme)}
	collector, err := serveMetrics(ctx)
	if err != nil {
		return err
	}
	if collector != nil {
		opts = append(opts, viz.WithObservers(collector))
	}
	return viz.Run(ctx, cfg, opts...)
}

func sweepParams() []string { return experiment.Params() }

func parseValues(args []string) ([]float64, error) {
	var values []float64
	for _, arg := range args {
		for _, field := range strings.Split(arg, ",") {
			if field = strings.TrimSpace(field); field == "" {
				continue
			}
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("bad value %q: %w", field, err)
			}
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("no values given")
	}
	return values, nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	param := args[0]
	values, err := parseValues(args[1:])
	if err != nil {
		return err
	}
	jobs, _ := cmd.Flags().GetInt("jobs")

	start := time.Now()
	points, err := experiment.Sweep(cmd.Context(), cfg, param, values, jobs)
	if err != nil {
		return err
	}

	fmt.Printf("sweep %s over %d values in %v\n\n", param, len(values), time.Since(start).Round(time.Millisecond))
	var names []string
	for _, p := range points {
		if p.Metrics != nil {
			names = slices.Sorted(maps.Keys(p.Metrics))
			break
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tSTEPS\t%s\n", strings.ToUpper(param), strings.ToUpper(strings.Join(names, "\t")))
	for _, p := range points {
		fmt.Fprintf(w, "%g\t%d", p.Value, p.StepsTaken)
		for _, name := range names {
			fmt.Fprintf(w, "\t%.4g", p.Metrics[name])
		}
		if p.Err != nil {
			fmt.Fprintf(w, "\tfailed: %v", p.Err)
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	grid, _ := cmd.Flags().GetStringArray("grid")
	maximize, _ := cmd.Flags().GetBool("maximize")
	if len(grid) == 0 {
		return fmt.Errorf("at least one --grid name=v1,v2,... is required")
	}

	var names []string
	var ranges [][]float64
	for _, g := range grid {
		name, list, ok := strings.Cut(g, "=")
		if !ok {
			return fmt.Errorf("bad grid %q, want name=v1,v2,...", g)
		}
		values, err := parseValues([]string{list})
		if err != nil {
			return fmt.Errorf("grid %s: %w", name, err)
		}
		names = append(names, strings.TrimSpace(name))
		ranges = append(ranges, values)
	}

	goal := optim.Minimize
	if maximize {
		goal = optim.Maximize
	}
	search, err := optim.NewGridSearch(names, ranges, goal)
	if err != nil {
		return err
	}
	res, err := search.Search(cmd.Context(), cfg, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("best %s: %.6g (%d evaluated, %d failed)\n", args[0], res.Value, res.Evaluated, res.Failed)
	for _, name := range names {
		fmt.Printf("  %s = %g\n", name, res.Params[name])
	}
	return nil
}

func benchSolver(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	steps, _ := cmd.Flags().GetInt("steps")
	counts := []int{0, 10, 30, cfg.Simulation.Iterations, 100, 200}
	slices.Sort(counts)
	counts = slices.Compact(counts)

	fmt.Printf("benchmarking %d elements, %d deployed, %d steps each\n\n",
		cfg.SpacecraftParameters().NumberOfElements(), cfg.Simulation.Deploy, steps)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ITERATIONS\tSTEPS/S\tUS/STEP\tMAX STRETCH")

	for _, n := range counts {
		run := cfg.Clone()
		run.Simulation.Iterations = n
		exp, err := experiment.New(run)
		if err != nil {
			return err
		}
		s := exp.Simulator()

		start := time.Now()
		for i := range steps {
			if err := s.Step(); err != nil {
				return fmt.Errorf("iterations %d, step %d: %w", n, i, err)
			}
		}
		elapsed := time.Since(start)
		perStep := elapsed / time.Duration(max(steps, 1))
		fmt.Fprintf(w, "%d\t%.0f\t%.1f\t%.3e\n", n, float64(steps)/elapsed.Seconds(),
			float64(perStep.Nanoseconds())/1e3, s.Chain().MaxStretch())
	}
	return w.Flush()
}
