package experiment

import (
	"context"
	"errors"
	"fmt"

	"github.com/san-kum/esail/internal/config"
	"github.com/san-kum/esail/internal/metrics"
	"github.com/san-kum/esail/internal/sim"
	"github.com/san-kum/esail/internal/tether"
)

// Experiment is one headless run built from a config: a fresh chain, a
// simulator with the default metrics and the configured deployment.
type Experiment struct {
	cfg       *config.Config
	simulator *sim.Simulator
}

func New(cfg *config.Config, opts ...sim.Option) (*Experiment, error) {
	if cfg == nil {
		return nil, errors.New("experiment: nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sc := cfg.SimConfig()
	chain, err := tether.NewChain(sc.Spacecraft, cfg.Simulation.Reserve)
	if err != nil {
		return nil, err
	}
	opts = append([]sim.Option{sim.WithMetrics(metrics.Default()...)}, opts...)
	s, err := sim.New(chain, sc, opts...)
	if err != nil {
		return nil, err
	}
	s.Deploy(cfg.Simulation.Deploy)

	return &Experiment{cfg: cfg.Clone(), simulator: s}, nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx, e.cfg.RunConfig())
}

// Simulator returns the underlying simulator for adding observers.
func (e *Experiment) Simulator() *sim.Simulator { return e.simulator }

func (e *Experiment) Config() *config.Config { return e.cfg }
