package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/esail/internal/quantity"
	"github.com/san-kum/esail/internal/tether"
)

func TestVerletUniformMotion(t *testing.T) {
	seg := tether.Segment{
		Previous: quantity.NewLength(0, 0, 0),
		Current:  quantity.NewLength(1, 0, 0),
		Deployed: true,
	}
	v := NewVerlet()

	next, err := v.Step(&seg, quantity.ForceVector{}, 1, 0.1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != quantity.NewLength(2, 0, 0) {
		t.Errorf("expected (2,0,0), got %v", next)
	}
	if seg.Previous != quantity.NewLength(1, 0, 0) || seg.Current != next {
		t.Errorf("segment not advanced: %+v", seg)
	}
}

func TestVerletConstantAcceleration(t *testing.T) {
	// Starting at rest, x(n) = a·dt²·n(n+1)/2 for position Verlet.
	seg := tether.NewSegment(quantity.LengthVector{})
	seg.Deployed = true
	v := NewVerlet()
	force := quantity.NewForce(0, 0, -2)
	mass, dt := 0.5, 0.01

	steps := 50
	for range steps {
		if _, err := v.Step(&seg, force, mass, dt); err != nil {
			t.Fatalf("step failed: %v", err)
		}
	}

	want := -4 * dt * dt * float64(steps*(steps+1)) / 2
	if math.Abs(seg.Current.Z-want) > 1e-12 {
		t.Errorf("expected z=%g, got %g", want, seg.Current.Z)
	}
	if seg.LastForce != force {
		t.Errorf("expected last force %v, got %v", force, seg.LastForce)
	}
}

func TestVerletSkipsStowed(t *testing.T) {
	seg := tether.NewSegment(quantity.NewLength(1, 2, 3))
	v := NewVerlet()

	got, err := v.Step(&seg, quantity.NewForce(5, 0, 0), 1, 0.1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != seg.Current || seg.Previous != seg.Current || !seg.LastForce.IsZero() {
		t.Errorf("stowed segment should not change: %+v", seg)
	}
}

func TestVerletRejectsMass(t *testing.T) {
	seg := tether.NewSegment(quantity.LengthVector{})
	seg.Deployed = true
	v := NewVerlet()

	for _, m := range []float64{0, -1, math.NaN()} {
		before := seg
		if _, err := v.Step(&seg, quantity.NewForce(1, 0, 0), m, 0.1); !errors.Is(err, quantity.ErrNonPositiveMass) {
			t.Errorf("mass %g: expected ErrNonPositiveMass, got %v", m, err)
		}
		if seg != before {
			t.Errorf("mass %g: segment changed on error", m)
		}
	}
}

func TestPositionIsPure(t *testing.T) {
	prev := quantity.NewLength(0, 1, 0)
	cur := quantity.NewLength(0, 2, 0)
	a := quantity.NewAcceleration(0, 0, 100)

	got := Position(prev, cur, a, 0.1)
	want := quantity.NewLength(0, 3, 1)
	if math.Abs(got.Y-want.Y) > 1e-12 || math.Abs(got.Z-want.Z) > 1e-12 || got.X != 0 {
		t.Errorf("expected %v, got %v", want, got)
	}
}
