package physics

import (
	"math"

	"github.com/san-kum/esail/internal/quantity"
)

// CentrifugalForce returns m·ω²·r⊥ for a point mass at position, where r⊥ is
// the offset from the rotation axis in the rotation plane. A point on the
// axis feels no force.
func CentrifugalForce(position quantity.LengthVector, mass float64, craft SpacecraftParameters) quantity.ForceVector {
	omega := craft.AngularVelocity()
	if omega == 0 || mass == 0 {
		return quantity.ForceVector{}
	}
	radial := position.Perpendicular(craft.RotationAxis)
	r := radial.Magnitude()
	if r == 0 {
		return quantity.ForceVector{}
	}
	return quantity.Along[quantity.Force](mass*r*omega*omega, radial.Unit())
}

// protonStoppingRadius is r_s = r0 / sqrt(exp(m_p v² ln(r0/r_w) / (e V0)) − 1).
// Callers guarantee V0 > 0 and r0 > r_w.
func protonStoppingRadius(r0, wireRadius, speed, potential float64) float64 {
	exponent := ProtonMass * speed * speed * math.Log(r0/wireRadius) / (ElementaryCharge * potential)
	den := math.Expm1(exponent)
	if math.IsInf(den, 1) || !(den > 0) {
		return 0
	}
	return r0 / math.Sqrt(den)
}

// CoulombDragPerLength returns the solar-wind drag per meter of tether, in
// N/m, following Janhunen (2007) eq. 8:
//
//	F/L = r_s · K · m_p · n0 · v²
//
// The result is zero, never NaN, for an unpowered tether or an empty plasma.
func CoulombDragPerLength(wind SolarWindParameters, craft SpacecraftParameters) float64 {
	if !(craft.TetherPotential > 0) || !(craft.TetherRadius > 0) || !(wind.Speed > 0) {
		return 0
	}
	r0 := wind.DebyeRadius()
	if r0 <= craft.TetherRadius {
		return 0
	}
	rs := protonStoppingRadius(r0, craft.TetherRadius, wind.Speed, craft.TetherPotential)
	f := rs * DragConstant * ProtonMass * wind.ElectronDensity * wind.Speed * wind.Speed
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// DragForce is the Coulomb drag on one segment, along the wind direction.
func DragForce(wind SolarWindParameters, craft SpacecraftParameters) quantity.ForceVector {
	perLength := CoulombDragPerLength(wind, craft)
	if perLength == 0 {
		return quantity.ForceVector{}
	}
	return quantity.Along[quantity.Force](perLength*craft.SegmentLength(), wind.Direction)
}

// TotalForce sums centrifugal and drag forces on one deployed segment.
func TotalForce(position quantity.LengthVector, mass float64, craft SpacecraftParameters, wind SolarWindParameters) quantity.ForceVector {
	return CentrifugalForce(position, mass, craft).Add(DragForce(wind, craft))
}

// CoulombForceOnTether is the total drag magnitude on a deployed length of
// tether, in newtons.
func CoulombForceOnTether(wind SolarWindParameters, craft SpacecraftParameters, deployedLength float64) float64 {
	return CoulombDragPerLength(wind, craft) * deployedLength
}
