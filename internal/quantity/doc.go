// Package quantity provides typed three-component vectors for the physical
// quantities used by the tether solver.
//
// A [Vector] carries its kind as a type parameter, so the compiler rejects
// mixing kinds:
//
//   - [LengthVector]: positions and displacements, meters
//   - [ForceVector]: forces, newtons
//   - [AccelerationVector]: accelerations, meters per second squared
//   - [Direction]: dimensionless axes and unit vectors
//
// Converting between kinds goes through named functions that apply the
// physics ([Accelerate] divides by a mass, [Displacement] multiplies by dt²),
// which keeps a single SI unit system from force evaluation to integration.
//
// # Example
//
//	f := quantity.Along[quantity.Force](2.0, quantity.UnitX)
//	a, _ := quantity.Accelerate(f, 0.5)
//	dx := quantity.Displacement(a, 1.0/60)
//	p := quantity.NewLength(1, 0, 0).Add(dx)
package quantity
