// Package automation runs scripted deployments: a YAML list of timed actions
// that reel the tether in and out and retune the sail during a headless run.
package automation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/esail/internal/config"
	"github.com/san-kum/esail/internal/experiment"
	"github.com/san-kum/esail/internal/logging"
	"github.com/san-kum/esail/internal/physics"
	"github.com/san-kum/esail/internal/sim"
)

// Scenario is a timed sequence of actions applied to one run.
type Scenario struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Duration    float64  `yaml:"duration_s,omitempty"` // overrides the config when set
	Actions     []Action `yaml:"actions"`
}

// Action fires once, at the first host frame whose simulated time reaches
// At. Unset fields leave the sail alone.
type Action struct {
	At         float64  `yaml:"at_s"`
	Deploy     int      `yaml:"deploy,omitempty"`
	Retract    int      `yaml:"retract,omitempty"`
	RPM        *float64 `yaml:"rpm,omitempty"`
	Potential  *float64 `yaml:"potential_v,omitempty"`
	Iterations *int     `yaml:"iterations,omitempty"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	return &scenario, nil
}

func (s *Scenario) Validate() error {
	if s.Duration < 0 || math.IsNaN(s.Duration) {
		return fmt.Errorf("%w: scenario duration must not be negative, got %g", physics.ErrParameterBounds, s.Duration)
	}
	for i, a := range s.Actions {
		if a.At < 0 || math.IsNaN(a.At) {
			return fmt.Errorf("%w: action %d at %g s", physics.ErrParameterBounds, i, a.At)
		}
		if a.Deploy < 0 || a.Retract < 0 {
			return fmt.Errorf("%w: action %d deploys %d and retracts %d", physics.ErrParameterBounds, i, a.Deploy, a.Retract)
		}
	}
	return nil
}

func (a Action) apply(s *sim.Simulator) error {
	if a.Retract > 0 {
		s.Retract(a.Retract)
	}
	if a.Deploy > 0 {
		s.Deploy(a.Deploy)
	}
	if a.RPM != nil {
		if err := s.SetParam("rpm", *a.RPM); err != nil {
			return err
		}
	}
	if a.Potential != nil {
		if err := s.SetParam("potential", *a.Potential); err != nil {
			return err
		}
	}
	if a.Iterations != nil {
		if err := s.SetIterations(*a.Iterations); err != nil {
			return err
		}
	}
	return nil
}

// Run executes scenario on a fresh sail built from cfg. The simulator is
// returned alongside the result so callers can inspect its final state.
func Run(ctx context.Context, cfg *config.Config, scenario *Scenario, opts ...sim.Option) (*sim.Result, *sim.Simulator, error) {
	if scenario == nil {
		return nil, nil, errors.New("automation: nil scenario")
	}
	if err := scenario.Validate(); err != nil {
		return nil, nil, err
	}
	cfg = cfg.Clone()
	if scenario.Duration > 0 {
		cfg.Simulation.Duration = scenario.Duration
	}
	exp, err := experiment.New(cfg, opts...)
	if err != nil {
		return nil, nil, err
	}

	actions := append([]Action(nil), scenario.Actions...)
	sort.SliceStable(actions, func(i, j int) bool { return actions[i].At < actions[j].At })

	log := logging.FromContext(ctx)
	next := 0
	rc := cfg.RunConfig()
	rc.BeforeFrame = func(s *sim.Simulator) error {
		// Tolerate float drift in steps*dt against round action times.
		now := s.Time() + 1e-9
		for next < len(actions) && actions[next].At <= now {
			if err := actions[next].apply(s); err != nil {
				return fmt.Errorf("action %d at %g s: %w", next, actions[next].At, err)
			}
			log.Debug(ctx, "scenario action",
				logging.Int("index", next),
				logging.Float("at_s", actions[next].At),
				logging.Int("deployed", s.Chain().DeployedCount()),
			)
			next++
		}
		return nil
	}

	result, err := exp.Simulator().Run(ctx, rc)
	if next < len(actions) && err == nil {
		log.Warn(ctx, "scenario ended before every action fired",
			logging.Int("fired", next),
			logging.Int("actions", len(actions)),
		)
	}
	return result, exp.Simulator(), err
}
