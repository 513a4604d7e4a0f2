package tether

import "github.com/san-kum/esail/internal/quantity"

// Segment is one point mass of the tether. Velocity is implicit in the
// difference between Current and Previous.
type Segment struct {
	Previous  quantity.LengthVector
	Current   quantity.LengthVector
	Deployed  bool
	LastForce quantity.ForceVector
}

// NewSegment returns a segment at rest at position.
func NewSegment(position quantity.LengthVector) Segment {
	return Segment{Previous: position, Current: position}
}

// Correct moves the current position by delta, leaving Previous alone.
func (s *Segment) Correct(delta quantity.LengthVector) {
	s.Current = s.Current.Add(delta)
}

// Advance forgets Previous and makes next the current position.
func (s *Segment) Advance(next quantity.LengthVector) {
	s.Previous = s.Current
	s.Current = next
}

// Pin zeroes the implicit velocity.
func (s *Segment) Pin() {
	s.Previous = s.Current
}

// Speed estimates the segment speed over a step of dt seconds, in m/s.
func (s Segment) Speed(dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	return s.Current.Sub(s.Previous).Magnitude() / dt
}

func (s Segment) isFinite() bool {
	return s.Current.IsFinite() && s.Previous.IsFinite()
}
