package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/esail/internal/analysis"
	"github.com/san-kum/esail/internal/config"
	"github.com/san-kum/esail/internal/export"
	"github.com/san-kum/esail/internal/sim"
	"github.com/san-kum/esail/internal/storage"
)

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
	fmt.Fprintln(w, "ID\tTIME\tDURATION\tDT\tRPM\tPOTENTIAL\tDEPLOYED\tSTEPS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%.2fs\t%.4fs\t%g\t%gV\t%d/%d\t%d\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Timestep,
			run.RPM,
			run.Potential,
			run.Deployed,
			run.Elements,
			run.StepsTaken,
		)
	}
	return w.Flush()
}

// loadRun reads a stored run with its config and frames.
func loadRun(runID string) (*storage.RunMetadata, *config.Config, []sim.Frame, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, nil, err
	}
	cfg, err := st.LoadConfig(runID)
	if err != nil {
		return nil, nil, nil, err
	}
	frames, err := st.LoadFrames(runID)
	if err != nil {
		return nil, nil, nil, err
	}
	return meta, cfg, frames, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, cfg, frames, err := loadRun(args[0])
	if err != nil {
		return err
	}
	axis := cfg.SpacecraftParameters().RotationAxis

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d\n\n", len(frames))

	radius := make([]float64, 0, len(frames))
	tips := make([]analysis.Point, 0, len(frames))
	for _, f := range frames {
		tip := f.Positions[len(f.Positions)-1]
		radius = append(radius, tip.Perpendicular(axis).Magnitude())
		tips = append(tips, analysis.PlaneTrack(f.Positions[len(f.Positions)-1:], axis)[0])
	}

	series := []struct {
		caption string
		data    []float64
	}{
		{"tip radius (m)", radius},
		{"tip x (m)", storage.TipSeries(frames, 0)},
		{"tip z (m)", storage.TipSeries(frames, 2)},
	}
	for _, s := range series {
		if len(s.data) < 2 {
			continue
		}
		graph := asciigraph.Plot(s.data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(s.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	fmt.Println("tip track (spin plane):")
	fmt.Println(analysis.TrackToASCII(tips, 60, 20))
	return nil
}

func coordIndex(name string) (int, error) {
	switch strings.ToLower(name) {
	case "x":
		return 0, nil
	case "y":
		return 1, nil
	case "z":
		return 2, nil
	}
	return 0, fmt.Errorf("unknown coordinate %q (want x, y or z)", name)
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, cfg, frames, err := loadRun(args[0])
	if err != nil {
		return err
	}
	coord, _ := cmd.Flags().GetString("coord")
	idx, err := coordIndex(coord)
	if err != nil {
		return err
	}
	if len(frames) < 2 {
		return fmt.Errorf("not enough frames to analyze")
	}
	sampleDt := frames[1].Time - frames[0].Time

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("tip %s, %d samples every %.4f s\n\n", coord, len(frames), sampleDt)

	series := storage.TipSeries(frames, idx)
	power := analysis.PowerSpectrum(series)
	if len(power) > 1 {
		graph := asciigraph.Plot(power[1:],
			asciigraph.Height(15),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("power spectrum (tip %s)", coord)),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	freq, err := analysis.DominantFrequency(series, sampleDt)
	if err != nil {
		return err
	}
	fmt.Printf("dominant frequency: %.3f hz\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1.0/freq)
	}

	craft := cfg.SpacecraftParameters()
	times := make([]float64, len(frames))
	tips := make([]analysis.Point, len(frames))
	for i, f := range frames {
		times[i] = f.Time
		tips[i] = analysis.PlaneTrack(f.Positions[len(f.Positions)-1:], craft.RotationAxis)[0]
	}
	crossings := analysis.Crossings(times, tips)
	if len(crossings) >= 2 {
		period := (crossings[len(crossings)-1] - crossings[0]) / float64(len(crossings)-1)
		fmt.Printf("tip revolution: %.3f s (%.2f rpm, body %.2f rpm)\n", period, 60/period, craft.RPM)
	}
	return nil
}

// output returns the writer named by --out, or stdout.
func output(cmd *cobra.Command) (io.Writer, func() error, error) {
	path, _ := cmd.Flags().GetString("out")
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, cfg, frames, err := loadRun(args[0])
	if err != nil {
		return err
	}
	w, closeFn, err := output(cmd)
	if err != nil {
		return err
	}
	if err := storage.ExportTipCSV(w, frames, cfg.SpacecraftParameters().RotationAxis); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, _, frames, err := loadRun(args[0])
	if err != nil {
		return err
	}
	w, closeFn, err := output(cmd)
	if err != nil {
		return err
	}
	if err := storage.ExportJSON(w, meta, frames); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func exportSVG(cmd *cobra.Command, args []string) error {
	_, cfg, frames, err := loadRun(args[0])
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	track, _ := flags.GetBool("track")
	index, _ := flags.GetInt("frame")
	width, _ := flags.GetInt("width")
	height, _ := flags.GetInt("height")
	axis := cfg.SpacecraftParameters().RotationAxis

	var svg string
	if track {
		tips := make([]analysis.Point, len(frames))
		for i, f := range frames {
			tips[i] = analysis.PlaneTrack(f.Positions[len(f.Positions)-1:], axis)[0]
		}
		svg = export.TrackToSVG(tips, width, height, "#f59e0b")
	} else {
		if index < 0 {
			index += len(frames)
		}
		if index < 0 || index >= len(frames) {
			return fmt.Errorf("frame %d out of range [0, %d)", index, len(frames))
		}
		svg = export.ChainToSVG(frames[index], axis, width, height)
	}

	w, closeFn, err := output(cmd)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, svg+"\n"); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tRPM\tPOTENTIAL\tELEMENTS\tDEPLOY\tDURATION")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%g\t%gV\t%d\t%d\t%gs\n",
			name,
			p.Spacecraft.RPM,
			p.Tether.Potential,
			p.SpacecraftParameters().NumberOfElements(),
			p.Simulation.Deploy,
			p.Simulation.Duration,
		)
	}
	return w.Flush()
}
