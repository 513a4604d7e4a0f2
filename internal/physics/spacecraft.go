package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/esail/internal/quantity"
)

// SpacecraftParameters describes the spinning body and its tether.
type SpacecraftParameters struct {
	RPM             float64            // spin rate, revolutions per minute
	RotationAxis    quantity.Direction // spin axis through the body center
	BodySize        float64            // m, edge of the body cube
	TetherLength    float64            // m
	TetherRadius    float64            // m
	TetherDensity   float64            // kg/m³
	TetherPotential float64            // V
	Resolution      float64            // tether points per meter
	EndMass         float64            // kg, remote unit at the tether tip; 0 uses the segment mass
	EndMassRadius   float64            // m, structural radius of the remote unit
}

// DefaultSpacecraft returns a small lab tether: 1 m of 10 µm aluminium wire,
// 20 points per meter, not spinning and not powered.
func DefaultSpacecraft() SpacecraftParameters {
	return SpacecraftParameters{
		RPM:             0,
		RotationAxis:    quantity.UnitZ,
		BodySize:        0.15,
		TetherLength:    1.0,
		TetherRadius:    10e-6,
		TetherDensity:   2700,
		TetherPotential: 0,
		Resolution:      20,
	}
}

func (p SpacecraftParameters) Validate() error {
	switch {
	case !(p.TetherLength > 0):
		return fmt.Errorf("%w: tether length must be positive, got %g m", ErrParameterBounds, p.TetherLength)
	case !(p.TetherRadius > 0):
		return fmt.Errorf("%w: tether radius must be positive, got %g m", ErrParameterBounds, p.TetherRadius)
	case !(p.TetherDensity > 0):
		return fmt.Errorf("%w: tether density must be positive, got %g kg/m3", ErrParameterBounds, p.TetherDensity)
	case !(p.Resolution > 0):
		return fmt.Errorf("%w: resolution must be positive, got %g /m", ErrParameterBounds, p.Resolution)
	case p.BodySize < 0:
		return fmt.Errorf("%w: body size must not be negative, got %g m", ErrParameterBounds, p.BodySize)
	case p.EndMass < 0 || p.EndMassRadius < 0:
		return fmt.Errorf("%w: end mass and radius must not be negative", ErrParameterBounds)
	case p.RotationAxis.IsZero() || !p.RotationAxis.IsFinite():
		return fmt.Errorf("%w: rotation axis must be a non-zero vector", ErrParameterBounds)
	case math.IsNaN(p.RPM) || math.IsInf(p.RPM, 0) || math.IsNaN(p.TetherPotential):
		return fmt.Errorf("%w: rpm and potential must be finite", ErrParameterBounds)
	}
	if p.NumberOfElements() < 1 {
		return fmt.Errorf("%w: tether of %g m at %g /m has no elements", ErrParameterBounds, p.TetherLength, p.Resolution)
	}
	return nil
}

// NumberOfElements is the chain size, floor(length · resolution). A small
// epsilon keeps 1 m at 20 /m from rounding down to 19.
func (p SpacecraftParameters) NumberOfElements() int {
	return int(math.Floor(p.TetherLength*p.Resolution + 1e-9))
}

// SegmentLength is the rest length between adjacent points, in meters.
func (p SpacecraftParameters) SegmentLength() float64 {
	return 1 / p.Resolution
}

// SegmentMass is the mass of one segment of wire, π r² L ρ.
func (p SpacecraftParameters) SegmentMass() float64 {
	return math.Pi * p.TetherRadius * p.TetherRadius * p.SegmentLength() * p.TetherDensity
}

// AngularVelocity converts RPM to rad/s.
func (p SpacecraftParameters) AngularVelocity() float64 {
	return p.RPM * math.Pi / 30
}

// TetherOrigin is the attachment point on the body face, in body coordinates
// with the spin axis through the origin.
func (p SpacecraftParameters) TetherOrigin() quantity.LengthVector {
	return quantity.NewLength(p.BodySize/2, 0, 0)
}

// ElementMass returns the mass of element i in a chain of n elements. The
// last element carries the end mass when one is configured.
func (p SpacecraftParameters) ElementMass(i, n int) float64 {
	if i == n-1 && p.EndMass > 0 {
		return p.EndMass
	}
	return p.SegmentMass()
}

// GetParams exposes the tunable parameters to interactive hosts.
func (p SpacecraftParameters) GetParams() map[string]float64 {
	return map[string]float64{
		"rpm":       p.RPM,
		"potential": p.TetherPotential,
	}
}

// SetParam returns a copy with one tunable parameter changed.
func (p SpacecraftParameters) SetParam(name string, value float64) (SpacecraftParameters, error) {
	switch name {
	case "rpm":
		p.RPM = value
	case "potential":
		p.TetherPotential = value
	default:
		return p, fmt.Errorf("%w: unknown spacecraft parameter %q", ErrParameterBounds, name)
	}
	return p, nil
}
