package sim

import (
	"fmt"

	"github.com/san-kum/esail/internal/physics"
	"github.com/san-kum/esail/internal/quantity"
	"github.com/san-kum/esail/internal/tether"
)

// Config holds the parameters a Simulator is built with.
type Config struct {
	Spacecraft physics.SpacecraftParameters
	SolarWind  physics.SolarWindParameters
	Iterations int     // relaxation passes per step
	Timestep   float64 // fixed physics step, seconds
}

func DefaultConfig() Config {
	return Config{
		Spacecraft: physics.DefaultSpacecraft(),
		SolarWind:  physics.DefaultSolarWind(),
		Iterations: 60,
		Timestep:   1.0 / 60,
	}
}

func (c Config) Validate() error {
	if err := c.Spacecraft.Validate(); err != nil {
		return err
	}
	if err := c.SolarWind.Validate(); err != nil {
		return err
	}
	if c.Iterations < 0 {
		return fmt.Errorf("%w: iterations must not be negative, got %d", ErrParameterBounds, c.Iterations)
	}
	return nil
}

// Sample is what metrics and observers see after each fixed step.
type Sample struct {
	Step         int
	Time         float64
	Timestep     float64
	Deployed     int
	CoulombForce float64 // N, over the deployed length
	TotalForce   quantity.ForceVector
	Chain        *tether.Chain // read only
	Spacecraft   physics.SpacecraftParameters
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(s Sample)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Sample)

func (f ObserverFunc) OnStep(s Sample) { f(s) }

// Frame is a recorded chain state.
type Frame struct {
	Time      float64
	Deployed  int
	Positions []quantity.LengthVector
	Forces    []quantity.ForceVector
}

// RunConfig drives the headless host loop.
type RunConfig struct {
	Duration    float64 // seconds of simulated time
	FrameDt     float64 // host frame time fed to Advance
	SampleEvery int     // record a frame every n fixed steps

	// BeforeFrame, when set, runs before each host frame. It may deploy,
	// retract or change parameters; an error stops the run.
	BeforeFrame func(*Simulator) error
}

func (c RunConfig) Validate() error {
	if !(c.Duration > 0) {
		return fmt.Errorf("%w: duration must be positive, got %g", ErrParameterBounds, c.Duration)
	}
	if !(c.FrameDt > 0) {
		return fmt.Errorf("%w: frame dt must be positive, got %g", ErrParameterBounds, c.FrameDt)
	}
	if c.SampleEvery < 1 {
		return fmt.Errorf("%w: sample interval must be at least 1, got %d", ErrParameterBounds, c.SampleEvery)
	}
	return nil
}

type Result struct {
	Times      []float64
	Frames     []Frame
	Metrics    map[string]float64
	StepsTaken int
}
