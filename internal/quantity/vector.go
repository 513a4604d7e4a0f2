package quantity

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrZeroVector is returned when an operation needs a direction but one of
	// its operands has zero magnitude.
	ErrZeroVector = errors.New("quantity: zero-magnitude vector has no direction")

	// ErrNonPositiveMass is returned when converting a force with a mass <= 0.
	ErrNonPositiveMass = errors.New("quantity: mass must be positive")
)

// Length, Force, Acceleration and Unitless tag the kind of a Vector.
type (
	Length       struct{}
	Force        struct{}
	Acceleration struct{}
	Unitless     struct{}
)

// Kind is the set of quantity kinds a Vector can carry.
type Kind interface {
	Length | Force | Acceleration | Unitless
}

// Vector is an immutable 3-vector whose components all share the unit of K.
type Vector[K Kind] struct {
	X, Y, Z float64
}

type (
	LengthVector       = Vector[Length]
	ForceVector        = Vector[Force]
	AccelerationVector = Vector[Acceleration]
	Direction          = Vector[Unitless]
)

var (
	UnitX = Direction{X: 1}
	UnitY = Direction{Y: 1}
	UnitZ = Direction{Z: 1}
)

func NewLength(x, y, z float64) LengthVector             { return LengthVector{X: x, Y: y, Z: z} }
func NewForce(x, y, z float64) ForceVector               { return ForceVector{X: x, Y: y, Z: z} }
func NewAcceleration(x, y, z float64) AccelerationVector { return AccelerationVector{X: x, Y: y, Z: z} }
func NewDirection(x, y, z float64) Direction             { return Direction{X: x, Y: y, Z: z} }

func (v Vector[K]) vec() r3.Vec { return r3.Vec{X: v.X, Y: v.Y, Z: v.Z} }

func fromVec[K Kind](p r3.Vec) Vector[K] { return Vector[K]{X: p.X, Y: p.Y, Z: p.Z} }

func (v Vector[K]) Add(w Vector[K]) Vector[K] { return fromVec[K](r3.Add(v.vec(), w.vec())) }

func (v Vector[K]) Sub(w Vector[K]) Vector[K] { return fromVec[K](r3.Sub(v.vec(), w.vec())) }

func (v Vector[K]) Scale(s float64) Vector[K] { return fromVec[K](r3.Scale(s, v.vec())) }

func (v Vector[K]) Neg() Vector[K] { return v.Scale(-1) }

func (v Vector[K]) Dot(w Vector[K]) float64 { return r3.Dot(v.vec(), w.vec()) }

// Magnitude returns |v| in the unit of K.
func (v Vector[K]) Magnitude() float64 { return r3.Norm(v.vec()) }

func (v Vector[K]) IsZero() bool { return v.X == 0 && v.Y == 0 && v.Z == 0 }

// IsFinite reports whether no component is NaN or infinite.
func (v Vector[K]) IsFinite() bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Unit returns the direction of v. The zero vector maps to the zero direction.
func (v Vector[K]) Unit() Direction {
	if v.IsZero() {
		return Direction{}
	}
	return fromVec[Unitless](r3.Unit(v.vec()))
}

// RotateAboutZ rotates v counter-clockwise by angle radians about +z.
func (v Vector[K]) RotateAboutZ(angle float64) Vector[K] {
	sin, cos := math.Sincos(angle)
	return Vector[K]{
		X: v.X*cos - v.Y*sin,
		Y: v.X*sin + v.Y*cos,
		Z: v.Z,
	}
}

// RotateAbout rotates v by angle radians about axis using the right-hand
// rule. A zero axis leaves v unchanged.
func (v Vector[K]) RotateAbout(axis Direction, angle float64) Vector[K] {
	if axis.IsZero() || angle == 0 {
		return v
	}
	return fromVec[K](r3.Rotate(v.vec(), angle, r3.Unit(axis.vec())))
}

// Perpendicular returns the component of v orthogonal to axis, i.e. v
// projected onto the plane through the origin normal to axis.
func (v Vector[K]) Perpendicular(axis Direction) Vector[K] {
	if axis.IsZero() {
		return v
	}
	n := r3.Unit(axis.vec())
	p := v.vec()
	return fromVec[K](r3.Sub(p, r3.Scale(r3.Dot(p, n), n)))
}

func (v Vector[K]) String() string {
	return fmt.Sprintf("(%.6g, %.6g, %.6g)", v.X, v.Y, v.Z)
}

// Between returns the vector pointing from a to b (b minus a).
func Between[K Kind](a, b Vector[K]) Vector[K] { return b.Sub(a) }

// Along returns a vector of the given magnitude pointing along dir.
func Along[K Kind](magnitude float64, dir Direction) Vector[K] {
	return fromVec[K](r3.Scale(magnitude, dir.Unit().vec()))
}

// Retag reinterprets a unitless vector as kind K without scaling.
func Retag[K Kind](d Direction) Vector[K] { return Vector[K]{X: d.X, Y: d.Y, Z: d.Z} }

// AngleBetween returns the angle in radians between u and v, in [0, π].
// It returns ErrZeroVector instead of NaN when either vector is zero.
func AngleBetween[K Kind](u, v Vector[K]) (float64, error) {
	nu, nv := u.Magnitude(), v.Magnitude()
	if nu == 0 || nv == 0 {
		return 0, ErrZeroVector
	}
	c := u.Dot(v) / (nu * nv)
	c = math.Max(-1, math.Min(1, c))
	return math.Acos(c), nil
}

// Accelerate converts a force acting on mass kilograms into an acceleration.
func Accelerate(f ForceVector, mass float64) (AccelerationVector, error) {
	if !(mass > 0) {
		return AccelerationVector{}, fmt.Errorf("%w: got %g kg", ErrNonPositiveMass, mass)
	}
	return fromVec[Acceleration](r3.Scale(1/mass, f.vec())), nil
}

// Displacement returns the position change a·dt² produced by an acceleration
// over one Verlet step.
func Displacement(a AccelerationVector, dt float64) LengthVector {
	return fromVec[Length](r3.Scale(dt*dt, a.vec()))
}
