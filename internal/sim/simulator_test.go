package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/esail/internal/physics"
	"github.com/san-kum/esail/internal/quantity"
	"github.com/san-kum/esail/internal/tether"
)

func newSimulator(t *testing.T, cfg Config, reserve int, opts ...Option) *Simulator {
	t.Helper()
	chain, err := tether.NewChain(cfg.Spacecraft, reserve)
	if err != nil {
		t.Fatalf("chain: %v", err)
	}
	s, err := New(chain, cfg, opts...)
	if err != nil {
		t.Fatalf("simulator: %v", err)
	}
	return s
}

func spinningConfig() Config {
	cfg := DefaultConfig()
	cfg.Spacecraft.RPM = 5
	cfg.Spacecraft.TetherPotential = 20e3
	return cfg
}

type countMetric struct{ n int }

func (c *countMetric) Name() string   { return "count" }
func (c *countMetric) Observe(Sample) { c.n++ }
func (c *countMetric) Value() float64 { return float64(c.n) }
func (c *countMetric) Reset()         { c.n = 0 }

func TestNewValidates(t *testing.T) {
	cfg := DefaultConfig()
	chain, _ := tether.NewChain(cfg.Spacecraft, 0)

	bad := cfg
	bad.Iterations = -1
	if _, err := New(chain, bad); !errors.Is(err, ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds for negative iterations, got %v", err)
	}

	bad = cfg
	bad.Timestep = 0
	if _, err := New(chain, bad); !errors.Is(err, ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds for zero timestep, got %v", err)
	}

	bad = cfg
	bad.Spacecraft.TetherLength = 2
	if _, err := New(chain, bad); !errors.Is(err, ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds for mismatched chain, got %v", err)
	}

	if _, err := New(nil, cfg); err == nil {
		t.Error("expected error for nil chain")
	}
}

func TestShortChainAtRestStaysPut(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Spacecraft.TetherLength = 0.25
	s := newSimulator(t, cfg, 0)
	if s.Chain().Len() != 5 {
		t.Fatalf("expected 5 elements, got %d", s.Chain().Len())
	}
	s.Deploy(5)
	before := s.Chain().Positions()

	for range 10 {
		if _, err := s.Advance(0.1); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}

	for i, p := range s.Chain().Positions() {
		if d := quantity.Between(before[i], p).Magnitude(); d > 1e-12 {
			t.Errorf("element %d moved %g m", i, d)
		}
	}
	if s.CoulombForce() != 0 {
		t.Errorf("unpowered tether should feel no drag, got %g", s.CoulombForce())
	}
}

func TestRestingChainKeepsRestLength(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Spacecraft.TetherLength = 0.25
	cfg.Spacecraft.BodySize = 0
	s := newSimulator(t, cfg, 0)
	if err := s.SetIterations(50); err != nil {
		t.Fatal(err)
	}
	s.Deploy(5)
	if s.Chain().Origin() != quantity.NewLength(0, 0, 0) {
		t.Fatalf("anchor should sit at the origin, got %v", s.Chain().Origin())
	}

	for range 1000 {
		if err := s.Step(); err != nil {
			t.Fatalf("step %d: %v", s.Steps(), err)
		}
	}

	rest := 0.05
	prev := s.Chain().Origin()
	for i, p := range s.Chain().Positions() {
		if d := quantity.Between(prev, p).Magnitude(); math.Abs(d-rest) > 0.01*rest {
			t.Errorf("pair %d: distance %g m, want %g within 1%%", i, d, rest)
		}
		if math.Abs(p.Y) > 1e-12 || math.Abs(p.Z) > 1e-12 {
			t.Errorf("element %d drifted off the x axis: %v", i, p)
		}
		prev = p
	}
	if s.Time() != 1000*s.Timestep() {
		t.Errorf("expected %g s simulated, got %g", 1000*s.Timestep(), s.Time())
	}
}

func TestAdvanceIsCallFrequencyIndependent(t *testing.T) {
	a := newSimulator(t, spinningConfig(), 0)
	b := newSimulator(t, spinningConfig(), 0)
	a.Deploy(10)
	b.Deploy(10)

	if _, err := a.Advance(0.99); err != nil {
		t.Fatal(err)
	}
	for range 3 {
		if _, err := b.Advance(0.33); err != nil {
			t.Fatal(err)
		}
	}

	if a.Steps() != b.Steps() || a.Steps() != 59 {
		t.Fatalf("expected 59 steps each, got %d and %d", a.Steps(), b.Steps())
	}
	pa, pb := a.Chain().Positions(), b.Chain().Positions()
	for i := range pa {
		if pa[i] != pb[i] {
			t.Errorf("element %d differs: %v vs %v", i, pa[i], pb[i])
		}
	}
}

func TestAnchorTurnsWithBody(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Spacecraft.RPM = 30 // pi rad/s
	s := newSimulator(t, cfg, 0)
	s.Deploy(2)
	free := s.Chain().Position(19)

	// Half a second is a quarter turn.
	if n, err := s.Advance(0.5 + s.Timestep()/2); err != nil || n != 30 {
		t.Fatalf("expected 30 steps, got %d (%v)", n, err)
	}

	origin := s.Chain().Origin()
	if math.Abs(origin.X) > 1e-12 || math.Abs(origin.Y-0.075) > 1e-12 {
		t.Errorf("anchor should be at (0, 0.075, 0), got %v", origin)
	}
	p := s.Chain().Position(5)
	if math.Abs(p.X) > 1e-12 || math.Abs(p.Y-(0.075+6*0.05)) > 1e-12 {
		t.Errorf("stowed element should turn with the body, got %v", p)
	}
	if s.Chain().Position(19) == free {
		t.Error("deployed element should have moved")
	}
}

func TestFailedStepRollsBack(t *testing.T) {
	cfg := DefaultConfig()
	s := newSimulator(t, cfg, 0)
	s.Deploy(3)
	if _, err := s.Advance(0.1); err != nil {
		t.Fatal(err)
	}

	craft, wind := s.Parameters()
	craft.RPM = 1e200
	if err := s.SetParameters(craft, wind); err != nil {
		t.Fatalf("set parameters: %v", err)
	}

	before := s.Chain().Positions()
	origin := s.Chain().Origin()
	steps := s.Steps()

	err := s.Step()
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	var simErr *SimulationError
	if !errors.As(err, &simErr) || simErr.Step != steps {
		t.Errorf("expected SimulationError at step %d, got %v", steps, err)
	}
	if s.Steps() != steps {
		t.Error("failed step should not count")
	}
	if s.Chain().Origin() != origin {
		t.Error("anchor rotation should be rolled back")
	}
	for i, p := range s.Chain().Positions() {
		if p != before[i] {
			t.Errorf("element %d changed: %v -> %v", i, before[i], p)
		}
	}
}

func TestFailedAdvanceKeepsClockInStep(t *testing.T) {
	s := newSimulator(t, DefaultConfig(), 0)
	s.Deploy(3)
	if _, err := s.Advance(0.1); err != nil {
		t.Fatal(err)
	}
	if err := s.SetParam("rpm", 1e200); err != nil {
		t.Fatal(err)
	}

	n, err := s.Advance(0.5)
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if n != 0 {
		t.Errorf("expected no completed steps, got %d", n)
	}
	if math.Abs(s.Clock().Elapsed()-s.Time()) > 1e-12 {
		t.Errorf("clock covers %g s but the simulator reached %g s", s.Clock().Elapsed(), s.Time())
	}
}

func TestDeployRetractThroughSimulator(t *testing.T) {
	s := newSimulator(t, DefaultConfig(), 1)
	if n := s.Deploy(50); n != 19 {
		t.Errorf("expected 19 deployed with one in reserve, got %d", n)
	}
	if n := s.Retract(4); n != 4 {
		t.Errorf("expected 4 retracted, got %d", n)
	}
	if got := s.Chain().DeployedCount(); got != 15 {
		t.Errorf("expected 15 deployed, got %d", got)
	}

	craft, wind := s.Parameters()
	want := physics.CoulombForceOnTether(wind, craft, 15*craft.SegmentLength())
	if s.CoulombForce() != want {
		t.Errorf("coulomb force %g, want %g", s.CoulombForce(), want)
	}
}

func TestSetParameters(t *testing.T) {
	s := newSimulator(t, DefaultConfig(), 0)
	craft, wind := s.Parameters()

	tuned := craft
	tuned.RPM = 3
	tuned.TetherPotential = 25e3
	if err := s.SetParameters(tuned, physics.Calm()); err != nil {
		t.Fatalf("tuning should succeed: %v", err)
	}
	if c, w := s.Parameters(); c.RPM != 3 || w.ElectronDensity != 0 {
		t.Errorf("parameters not applied: %+v %+v", c, w)
	}

	tests := []struct {
		name   string
		modify func(*physics.SpacecraftParameters)
	}{
		{"length", func(p *physics.SpacecraftParameters) { p.TetherLength = 2 }},
		{"resolution", func(p *physics.SpacecraftParameters) { p.Resolution = 40 }},
		{"radius", func(p *physics.SpacecraftParameters) { p.TetherRadius = 20e-6 }},
		{"end mass", func(p *physics.SpacecraftParameters) { p.EndMass = 1 }},
		{"invalid", func(p *physics.SpacecraftParameters) { p.TetherDensity = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := craft
			tt.modify(&p)
			if err := s.SetParameters(p, wind); !errors.Is(err, ErrParameterBounds) {
				t.Errorf("expected ErrParameterBounds, got %v", err)
			}
		})
	}

	if err := s.SetParam("rpm", 4); err != nil {
		t.Errorf("SetParam: %v", err)
	}
	if c, _ := s.Parameters(); c.RPM != 4 {
		t.Errorf("rpm = %g", c.RPM)
	}
	if err := s.SetIterations(-1); !errors.Is(err, ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds, got %v", err)
	}
	if err := s.SetIterations(10); err != nil || s.Iterations() != 10 {
		t.Errorf("SetIterations(10): %v, got %d", err, s.Iterations())
	}
}

func TestRun(t *testing.T) {
	metric := &countMetric{}
	var observed int
	s := newSimulator(t, spinningConfig(), 0,
		WithMetrics(metric),
		WithObservers(ObserverFunc(func(Sample) { observed++ })),
	)
	s.Deploy(20)

	result, err := s.Run(context.Background(), RunConfig{Duration: 1, FrameDt: 1.0 / 30, SampleEvery: 10})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.StepsTaken != 60 {
		t.Errorf("expected 60 steps, got %d", result.StepsTaken)
	}
	if len(result.Frames) != 7 || len(result.Times) != 7 {
		t.Errorf("expected 7 frames, got %d frames and %d times", len(result.Frames), len(result.Times))
	}
	if result.Times[0] != 0 || math.Abs(result.Times[6]-1) > 1e-12 {
		t.Errorf("unexpected sample times %v", result.Times)
	}
	if result.Metrics["count"] != 60 || observed != 60 {
		t.Errorf("metric saw %g steps, observer %d", result.Metrics["count"], observed)
	}
	if len(result.Frames[3].Positions) != 20 || result.Frames[3].Deployed != 20 {
		t.Errorf("frame should hold the whole chain: %+v", result.Frames[3])
	}
}

func TestRunBeforeFrame(t *testing.T) {
	s := newSimulator(t, spinningConfig(), 0)
	var frames int
	stop := errors.New("stop")
	result, err := s.Run(context.Background(), RunConfig{
		Duration:    1,
		FrameDt:     0.1,
		SampleEvery: 6,
		BeforeFrame: func(host *Simulator) error {
			frames++
			if frames == 5 {
				return stop
			}
			host.Deploy(2)
			return nil
		},
	})
	if !errors.Is(err, stop) {
		t.Fatalf("expected hook error, got %v", err)
	}
	if result.StepsTaken != 24 || s.Chain().DeployedCount() != 8 {
		t.Errorf("expected 24 steps with 8 deployed, got %d steps, %d deployed", result.StepsTaken, s.Chain().DeployedCount())
	}
}

func TestRunHonorsContext(t *testing.T) {
	s := newSimulator(t, DefaultConfig(), 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := s.Run(ctx, RunConfig{Duration: 1, FrameDt: 0.01, SampleEvery: 1})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result.StepsTaken != 0 {
		t.Errorf("expected no steps, got %d", result.StepsTaken)
	}

	if _, err := s.Run(context.Background(), RunConfig{}); !errors.Is(err, ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds for empty run config, got %v", err)
	}
}

func BenchmarkStep(b *testing.B) {
	cfg := spinningConfig()
	cfg.Spacecraft.TetherLength = 10
	chain, _ := tether.NewChain(cfg.Spacecraft, 0)
	s, _ := New(chain, cfg)
	s.Deploy(chain.Len())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := s.Step(); err != nil {
			b.Fatal(err)
		}
	}
}
