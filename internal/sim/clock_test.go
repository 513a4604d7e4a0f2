package sim

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestNewClockRejectsTimestep(t *testing.T) {
	for _, dt := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if _, err := NewClock(dt); !errors.Is(err, ErrParameterBounds) {
			t.Errorf("dt=%g: expected ErrParameterBounds, got %v", dt, err)
		}
	}
}

func TestClockIsCallFrequencyIndependent(t *testing.T) {
	dt := 1.0 / 60
	tests := []struct {
		name  string
		split []float64
	}{
		{"thirds", []float64{0.33, 0.33, 0.33}},
		{"uneven", []float64{0.5, 0.0001, 0.4899}},
		{"many", func() []float64 {
			s := make([]float64, 198)
			for i := range s {
				s[i] = 0.005
			}
			return s
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total := 0.0
			for _, e := range tt.split {
				total += e
			}

			whole, _ := NewClock(dt)
			want := whole.Advance(total)

			parts, _ := NewClock(dt)
			got := 0
			for _, e := range tt.split {
				got += parts.Advance(e)
			}

			if got != want {
				t.Errorf("expected %d steps, got %d", want, got)
			}
			if math.Abs(parts.Leftover-whole.Leftover) > 1e-9 {
				t.Errorf("leftover mismatch: %g vs %g", parts.Leftover, whole.Leftover)
			}
		})
	}
}

func TestClockCountsSteps(t *testing.T) {
	c, _ := NewClock(0.1)
	if n := c.Advance(0.35); n != 3 {
		t.Errorf("expected 3 steps, got %d", n)
	}
	if math.Abs(c.Leftover-0.05) > 1e-12 {
		t.Errorf("expected leftover 0.05, got %g", c.Leftover)
	}
	if n := c.Advance(0.06); n != 1 {
		t.Errorf("leftover should carry into the next call, got %d steps", n)
	}
	if math.Abs(c.Elapsed()-0.4) > 1e-12 {
		t.Errorf("expected elapsed 0.4, got %g", c.Elapsed())
	}

	c.Reset()
	if c.Leftover != 0 || c.Elapsed() != 0 {
		t.Error("reset should clear the clock")
	}
}

func TestClockIgnoresBadElapsed(t *testing.T) {
	c, _ := NewClock(0.1)
	c.Advance(0.05)
	for _, e := range []float64{-1, math.NaN(), math.Inf(1), math.Inf(-1), 0} {
		if n := c.Advance(e); n != 0 {
			t.Errorf("elapsed %g: expected 0 steps, got %d", e, n)
		}
	}
	if math.Abs(c.Leftover-0.05) > 1e-15 {
		t.Errorf("leftover should be untouched, got %g", c.Leftover)
	}
}

func TestClockCapsHugeElapsed(t *testing.T) {
	for _, e := range []float64{1e18, 1e300, math.MaxFloat64} {
		c, _ := NewClock(1.0 / 60)
		c.Advance(0.01)
		if n := c.Advance(e); n != MaxStepsPerAdvance {
			t.Errorf("elapsed %g: expected %d steps, got %d", e, MaxStepsPerAdvance, n)
		}
		if c.Leftover != 0 {
			t.Errorf("elapsed %g: expected leftover dropped, got %g", e, c.Leftover)
		}
		if got := c.Elapsed(); got != MaxStepsPerAdvance*c.FixedTimestep {
			t.Errorf("elapsed %g: clock covers %g s", e, got)
		}
		if n := c.Advance(0.02); n != 1 {
			t.Errorf("elapsed %g: clock should keep working after a cap, got %d steps", e, n)
		}
	}
}

func TestClockLeftoverBound(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, dt := range []float64{1.0 / 60, 1.0 / 240, 0.1, 0.001} {
		c, _ := NewClock(dt)
		for range 10000 {
			c.Advance(rng.Float64() * 3 * dt)
			if c.Leftover < 0 || c.Leftover >= dt {
				t.Fatalf("dt=%g: leftover %g out of [0, dt)", dt, c.Leftover)
			}
		}
	}
}
