package experiment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/esail/internal/config"
	"github.com/san-kum/esail/internal/logging"
	"github.com/san-kum/esail/internal/physics"
	"github.com/san-kum/esail/internal/sim"
)

var params = map[string]func(*config.Config, float64) error{
	"rpm":         func(c *config.Config, v float64) error { c.Spacecraft.RPM = v; return nil },
	"potential":   func(c *config.Config, v float64) error { c.Tether.Potential = v; return nil },
	"speed":       func(c *config.Config, v float64) error { c.SolarWind.Speed = v; return nil },
	"density":     func(c *config.Config, v float64) error { c.SolarWind.ElectronDensity = v; return nil },
	"temperature": func(c *config.Config, v float64) error { c.SolarWind.ElectronTemperature = v; return nil },
	"end_mass":    func(c *config.Config, v float64) error { c.Spacecraft.EndMass = v; return nil },
	"timestep":    func(c *config.Config, v float64) error { c.Simulation.Timestep = v; return nil },
	"iterations": func(c *config.Config, v float64) error {
		if v != math.Trunc(v) {
			return fmt.Errorf("%w: iterations must be a whole number, got %g", physics.ErrParameterBounds, v)
		}
		c.Simulation.Iterations = int(v)
		return nil
	},
}

// Params lists the parameter names ApplyParam accepts.
func Params() []string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyParam sets one named parameter on cfg in place.
func ApplyParam(cfg *config.Config, name string, value float64) error {
	set, ok := params[name]
	if !ok {
		return fmt.Errorf("%w: unknown sweep parameter %q", physics.ErrParameterBounds, name)
	}
	return set(cfg, value)
}

// Point is the outcome of one sweep value. Err holds a simulation failure;
// the other points still run.
type Point struct {
	Value      float64
	Metrics    map[string]float64
	StepsTaken int
	Err        error
}

// Sweep runs base once per value of param, each on its own chain, with at
// most concurrency runs at a time (GOMAXPROCS when not positive). Results
// come back in value order. Invalid configs and cancellation abort the
// sweep; a run that fails mid-simulation is reported in its Point.
func Sweep(ctx context.Context, base *config.Config, param string, values []float64, concurrency int) ([]Point, error) {
	if base == nil {
		return nil, errors.New("experiment: nil config")
	}
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	log := logging.FromContext(ctx)

	points := make([]Point, len(values))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, v := range values {
		g.Go(func() error {
			cfg := base.Clone()
			if err := ApplyParam(cfg, param, v); err != nil {
				return err
			}
			exp, err := New(cfg, sim.WithLogger(log.With(logging.String("param", param), logging.Float("value", v))))
			if err != nil {
				return fmt.Errorf("%s=%g: %w", param, v, err)
			}

			result, err := exp.Run(gctx)
			if gctx.Err() != nil {
				return gctx.Err()
			}
			points[i] = Point{Value: v, Err: err}
			if result != nil {
				points[i].Metrics = result.Metrics
				points[i].StepsTaken = result.StepsTaken
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.Info(ctx, "sweep finished", logging.String("param", param), logging.Int("points", len(points)))
	return points, nil
}
