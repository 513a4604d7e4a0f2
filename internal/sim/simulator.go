package sim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/esail/internal/integrators"
	"github.com/san-kum/esail/internal/logging"
	"github.com/san-kum/esail/internal/physics"
	"github.com/san-kum/esail/internal/quantity"
	"github.com/san-kum/esail/internal/tether"
)

// Simulator advances one tether chain. It is not safe for concurrent use;
// run independent sails on independent simulators.
type Simulator struct {
	chain   *tether.Chain
	clock   *Clock
	verlet  *integrators.Verlet
	relaxer *tether.Relaxer
	craft   physics.SpacecraftParameters
	wind    physics.SolarWindParameters
	steps   int

	metrics   []Metric
	observers []Observer
	log       logging.Logger
}

type Option func(*Simulator)

func WithLogger(l logging.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.log = l
		}
	}
}

func WithMetrics(ms ...Metric) Option {
	return func(s *Simulator) { s.metrics = append(s.metrics, ms...) }
}

func WithObservers(obs ...Observer) Option {
	return func(s *Simulator) { s.observers = append(s.observers, obs...) }
}

// New builds a simulator around chain, which must have been built from
// cfg.Spacecraft.
func New(chain *tether.Chain, cfg Config, opts ...Option) (*Simulator, error) {
	if chain == nil {
		return nil, errors.New("sim: nil chain")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if n := cfg.Spacecraft.NumberOfElements(); n != chain.Len() {
		return nil, fmt.Errorf("%w: chain has %d elements, spacecraft describes %d", ErrParameterBounds, chain.Len(), n)
	}
	clock, err := NewClock(cfg.Timestep)
	if err != nil {
		return nil, err
	}

	s := &Simulator{
		chain:   chain,
		clock:   clock,
		verlet:  integrators.NewVerlet(),
		relaxer: tether.NewRelaxer(cfg.Iterations),
		craft:   cfg.Spacecraft,
		wind:    cfg.SolarWind,
		log:     logging.Noop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Chain exposes the simulated chain for reading. Mutate it only through the
// simulator.
func (s *Simulator) Chain() *tether.Chain { return s.chain }
func (s *Simulator) Clock() *Clock        { return s.clock }
func (s *Simulator) Steps() int           { return s.steps }
func (s *Simulator) Timestep() float64    { return s.clock.FixedTimestep }
func (s *Simulator) Iterations() int      { return s.relaxer.Iterations }

// Time is the simulated time of the steps completed so far.
func (s *Simulator) Time() float64 { return float64(s.steps) * s.clock.FixedTimestep }

func (s *Simulator) Parameters() (physics.SpacecraftParameters, physics.SolarWindParameters) {
	return s.craft, s.wind
}

// CoulombForce is the total drag magnitude on the deployed tether, in N.
func (s *Simulator) CoulombForce() float64 {
	return physics.CoulombForceOnTether(s.wind, s.craft, s.chain.DeployedLength())
}

// Advance feeds elapsed host time to the clock and runs every step that
// falls due. It stops at the first failed step and reports how many
// completed.
func (s *Simulator) Advance(elapsed float64) (int, error) {
	due := s.clock.Advance(elapsed)
	if due == MaxStepsPerAdvance {
		s.log.Warn(context.Background(), "elapsed time clamped",
			logging.Float("elapsed_s", elapsed),
			logging.Int("steps", due),
		)
	}
	for i := range due {
		if err := s.Step(); err != nil {
			s.clock.unschedule(due - i)
			return i, err
		}
	}
	return due, nil
}

// Step runs one fixed physics step: turn the body, integrate the deployed
// elements, relax the constraints and check the result. A failed step
// leaves the chain as it was.
func (s *Simulator) Step() error {
	dt := s.clock.FixedTimestep
	snap := s.chain.Snapshot()

	s.chain.RotateStowed(s.craft.RotationAxis, s.craft.AngularVelocity()*dt)

	err := s.chain.Update(func(seg *tether.Segment, mass float64) error {
		f := physics.TotalForce(seg.Current, mass, s.craft, s.wind)
		_, err := s.verlet.Step(seg, f, mass, dt)
		return err
	})
	if err == nil {
		s.relaxer.Relax(s.chain)
		err = s.check()
	}
	if err != nil {
		s.chain.Restore(snap)
		simErr := &SimulationError{
			Step:    s.steps,
			Time:    s.Time(),
			Wrapped: fmt.Errorf("%w: %w", ErrInvalidState, err),
		}
		s.log.Error(context.Background(), "step rejected",
			logging.Int("step", s.steps),
			logging.Float("time_s", s.Time()),
			logging.Err(err),
		)
		return simErr
	}

	s.steps++
	s.notify()
	return nil
}

func (s *Simulator) check() error {
	if !s.chain.IsFinite() {
		return errors.New("non-finite position")
	}
	return s.chain.Validate()
}

func (s *Simulator) notify() {
	if len(s.metrics) == 0 && len(s.observers) == 0 {
		return
	}
	sample := s.Sample()
	for _, m := range s.metrics {
		m.Observe(sample)
	}
	for _, o := range s.observers {
		o.OnStep(sample)
	}
}

// Sample describes the current state.
func (s *Simulator) Sample() Sample {
	return Sample{
		Step:         s.steps,
		Time:         s.Time(),
		Timestep:     s.clock.FixedTimestep,
		Deployed:     s.chain.DeployedCount(),
		CoulombForce: s.CoulombForce(),
		TotalForce:   s.chain.TotalForce(),
		Chain:        s.chain,
		Spacecraft:   s.craft,
	}
}

// Deploy releases up to n elements and returns how many moved.
func (s *Simulator) Deploy(n int) int {
	moved := s.chain.Deploy(n)
	ctx := context.Background()
	if moved < n {
		s.log.Warn(ctx, "deploy clamped",
			logging.Int("requested", n),
			logging.Int("deployed", moved),
			logging.Int("reserve", s.chain.Reserve()),
		)
	}
	s.log.Debug(ctx, "deploy", logging.Int("moved", moved), logging.Int("deployed_total", s.chain.DeployedCount()))
	return moved
}

// Retract stows up to n elements and returns how many moved.
func (s *Simulator) Retract(n int) int {
	moved := s.chain.Retract(n)
	ctx := context.Background()
	if moved < n {
		s.log.Warn(ctx, "retract clamped", logging.Int("requested", n), logging.Int("retracted", moved))
	}
	s.log.Debug(ctx, "retract", logging.Int("moved", moved), logging.Int("deployed_total", s.chain.DeployedCount()))
	return moved
}

// SetParameters replaces the spacecraft and solar wind parameters between
// ticks. Fields that fix the chain geometry or element masses cannot change
// on a live chain.
func (s *Simulator) SetParameters(craft physics.SpacecraftParameters, wind physics.SolarWindParameters) error {
	if err := craft.Validate(); err != nil {
		return err
	}
	if err := wind.Validate(); err != nil {
		return err
	}
	if structure(craft) != structure(s.craft) {
		return fmt.Errorf("%w: tether geometry and mass are fixed once the chain is built", ErrParameterBounds)
	}
	s.craft, s.wind = craft, wind
	s.log.Debug(context.Background(), "parameters updated",
		logging.Float("rpm", craft.RPM),
		logging.Float("potential_v", craft.TetherPotential),
		logging.Float("wind_speed_mps", wind.Speed),
	)
	return nil
}

// SetParam changes one tunable spacecraft parameter by name.
func (s *Simulator) SetParam(name string, value float64) error {
	craft, err := s.craft.SetParam(name, value)
	if err != nil {
		return err
	}
	return s.SetParameters(craft, s.wind)
}

func structure(p physics.SpacecraftParameters) [7]float64 {
	return [7]float64{p.TetherLength, p.Resolution, p.BodySize, p.TetherRadius, p.TetherDensity, p.EndMass, p.EndMassRadius}
}

// SetIterations sets the number of relaxation passes per step.
func (s *Simulator) SetIterations(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: iterations must not be negative, got %d", ErrParameterBounds, n)
	}
	s.relaxer.Iterations = n
	return nil
}

// Run drives the simulator like a host running at a constant frame rate for
// cfg.Duration seconds, recording a frame every cfg.SampleEvery steps.
func (s *Simulator) Run(ctx context.Context, cfg RunConfig) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	frames := int(math.Floor(cfg.Duration/cfg.FrameDt + 1e-9))
	estimate := int(cfg.Duration/s.clock.FixedTimestep)/cfg.SampleEvery + 1
	result := &Result{
		Times:   make([]float64, 0, estimate),
		Frames:  make([]Frame, 0, estimate),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	record := func() {
		result.Times = append(result.Times, s.Time())
		result.Frames = append(result.Frames, s.Frame())
	}
	record()

	start := s.steps
	recorder := ObserverFunc(func(sample Sample) {
		if (sample.Step-start)%cfg.SampleEvery == 0 {
			record()
		}
	})
	s.observers = append(s.observers, recorder)
	defer func() { s.observers = s.observers[:len(s.observers)-1] }()

	var runErr error
	for range frames {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if cfg.BeforeFrame != nil {
			if err := cfg.BeforeFrame(s); err != nil {
				runErr = err
				break
			}
		}

		n, err := s.Advance(cfg.FrameDt)
		result.StepsTaken += n
		if err != nil {
			runErr = err
			break
		}
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	s.log.Info(ctx, "run finished",
		logging.Int("steps", result.StepsTaken),
		logging.Int("frames", len(result.Frames)),
		logging.Float("time_s", s.Time()),
	)
	return result, runErr
}

// Frame copies the current chain state.
func (s *Simulator) Frame() Frame {
	n := s.chain.Len()
	f := Frame{
		Time:      s.Time(),
		Deployed:  s.chain.DeployedCount(),
		Positions: s.chain.Positions(),
		Forces:    make([]quantity.ForceVector, n),
	}
	for i := range n {
		f.Forces[i] = s.chain.LastForce(i)
	}
	return f
}
