package integrators

import (
	"fmt"

	"github.com/san-kum/esail/internal/quantity"
	"github.com/san-kum/esail/internal/tether"
)

// Verlet advances tether points with position Verlet. Velocity is never
// stored; it lives in the difference between a segment's two positions.
type Verlet struct{}

func NewVerlet() *Verlet {
	return &Verlet{}
}

// Position returns 2·current − previous + a·dt².
func Position(previous, current quantity.LengthVector, a quantity.AccelerationVector, dt float64) quantity.LengthVector {
	return current.Scale(2).Sub(previous).Add(quantity.Displacement(a, dt))
}

// Step moves seg one timestep under force and records the force. A stowed
// segment is left untouched and its current position returned.
func (v *Verlet) Step(seg *tether.Segment, force quantity.ForceVector, mass, dt float64) (quantity.LengthVector, error) {
	if !seg.Deployed {
		return seg.Current, nil
	}
	a, err := quantity.Accelerate(force, mass)
	if err != nil {
		return seg.Current, fmt.Errorf("verlet: %w", err)
	}
	next := Position(seg.Previous, seg.Current, a, dt)
	seg.Advance(next)
	seg.LastForce = force
	return next, nil
}
