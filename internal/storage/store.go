package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/esail/internal/config"
	"github.com/san-kum/esail/internal/quantity"
	"github.com/san-kum/esail/internal/sim"
)

const (
	metadataFile  = "metadata.json"
	configFile    = "config.yaml"
	positionsFile = "positions.csv"
	forcesFile    = "forces.csv"
)

// ErrNoFrames is returned when a run has no recorded frames to read back.
var ErrNoFrames = errors.New("storage: run has no frames")

// Store keeps each run in its own directory under baseDir.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Timestamp  time.Time          `json:"timestamp"`
	Timestep   float64            `json:"timestep_s"`
	Duration   float64            `json:"duration_s"`
	Iterations int                `json:"iterations"`
	RPM        float64            `json:"rpm"`
	Potential  float64            `json:"potential_v"`
	Elements   int                `json:"elements"`
	Deployed   int                `json:"deployed"`
	StepsTaken int                `json:"steps_taken"`
	FrameCount int                `json:"frames"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Save writes metadata.json, config.yaml, positions.csv and forces.csv for
// one run and returns its ID.
func (s *Store) Save(name string, cfg *config.Config, result *sim.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", name, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	craft := cfg.SpacecraftParameters()
	meta := RunMetadata{
		ID:         runID,
		Name:       name,
		Timestamp:  now,
		Timestep:   cfg.Simulation.Timestep,
		Duration:   cfg.Simulation.Duration,
		Iterations: cfg.Simulation.Iterations,
		RPM:        craft.RPM,
		Potential:  craft.TetherPotential,
		Elements:   craft.NumberOfElements(),
		StepsTaken: result.StepsTaken,
		FrameCount: len(result.Frames),
		Metrics:    result.Metrics,
	}
	if n := len(result.Frames); n > 0 {
		meta.Deployed = result.Frames[n-1].Deployed
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(runDir, configFile), cfg); err != nil {
		return "", err
	}
	if err := writeFrames(filepath.Join(runDir, positionsFile), result.Frames, positionRow); err != nil {
		return "", err
	}
	if err := writeFrames(filepath.Join(runDir, forcesFile), result.Frames, forceRow); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func positionRow(f sim.Frame, i int) [3]float64 {
	p := f.Positions[i]
	return [3]float64{p.X, p.Y, p.Z}
}

func forceRow(f sim.Frame, i int) [3]float64 {
	p := f.Forces[i]
	return [3]float64{p.X, p.Y, p.Z}
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// writeFrames writes one row per frame: time, deployed count, then x,y,z of
// every element.
func writeFrames(path string, frames []sim.Frame, row func(sim.Frame, int) [3]float64) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if len(frames) > 0 {
		header := []string{"time", "deployed"}
		for i := range frames[0].Positions {
			header = append(header, fmt.Sprintf("x%d", i), fmt.Sprintf("y%d", i), fmt.Sprintf("z%d", i))
		}
		if err := w.Write(header); err != nil {
			return err
		}
	}

	for _, f := range frames {
		rec := []string{formatFloat(f.Time), strconv.Itoa(f.Deployed)}
		for i := range f.Positions {
			v := row(f, i)
			rec = append(rec, formatFloat(v[0]), formatFloat(v[1]), formatFloat(v[2]))
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadConfig reads back the configuration a run was made with.
func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, configFile))
}

// LoadFrames reads positions.csv and forces.csv back into frames.
func (s *Store) LoadFrames(runID string) ([]sim.Frame, error) {
	dir := filepath.Join(s.baseDir, runID)
	positions, err := readFrames(filepath.Join(dir, positionsFile))
	if err != nil {
		return nil, err
	}
	forces, err := readFrames(filepath.Join(dir, forcesFile))
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFrames, runID)
	}
	if len(forces) != len(positions) {
		return nil, fmt.Errorf("run %s: %d position rows but %d force rows", runID, len(positions), len(forces))
	}

	frames := make([]sim.Frame, len(positions))
	for i, p := range positions {
		frames[i] = sim.Frame{
			Time:      p.time,
			Deployed:  p.deployed,
			Positions: make([]quantity.LengthVector, len(p.vectors)),
			Forces:    make([]quantity.ForceVector, len(forces[i].vectors)),
		}
		for j, v := range p.vectors {
			frames[i].Positions[j] = quantity.NewLength(v[0], v[1], v[2])
		}
		for j, v := range forces[i].vectors {
			frames[i].Forces[j] = quantity.NewForce(v[0], v[1], v[2])
		}
	}
	return frames, nil
}

type rawFrame struct {
	time     float64
	deployed int
	vectors  [][3]float64
}

func readFrames(path string) ([]rawFrame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	out := make([]rawFrame, 0, len(records)-1)
	for line, rec := range records[1:] {
		if len(rec) < 2 || (len(rec)-2)%3 != 0 {
			return nil, fmt.Errorf("%s line %d: malformed row of %d fields", filepath.Base(path), line+2, len(rec))
		}
		vals := make([]float64, len(rec))
		for j, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: %w", filepath.Base(path), line+2, err)
			}
			vals[j] = v
		}
		f := rawFrame{time: vals[0], deployed: int(vals[1])}
		for j := 2; j < len(vals); j += 3 {
			f.vectors = append(f.vectors, [3]float64{vals[j], vals[j+1], vals[j+2]})
		}
		out = append(out, f)
	}
	return out, nil
}
