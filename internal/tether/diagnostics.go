package tether

import (
	"math"

	"github.com/san-kum/esail/internal/quantity"
)

// CenterOfMass is the mass-weighted mean of every element position.
func (c *Chain) CenterOfMass() quantity.LengthVector {
	var sum quantity.LengthVector
	total := 0.0
	for i := range c.elements {
		sum = sum.Add(c.elements[i].Current.Scale(c.masses[i]))
		total += c.masses[i]
	}
	if total == 0 {
		return quantity.LengthVector{}
	}
	return sum.Scale(1 / total)
}

// TipRadius is the distance of the last element from the spin axis.
func (c *Chain) TipRadius(axis quantity.Direction) float64 {
	if len(c.elements) == 0 {
		return 0
	}
	return c.elements[len(c.elements)-1].Current.Perpendicular(axis).Magnitude()
}

// DeflectionAngle is the bend at element i-1 between the segment into it and
// the segment out of it to element i, in radians. The first two elements
// and degenerate segments report zero.
func (c *Chain) DeflectionAngle(i int) float64 {
	if i < 2 || i >= len(c.elements) {
		return 0
	}
	a := c.elements[i-2].Current
	b := c.elements[i-1].Current
	p := c.elements[i].Current
	angle, err := quantity.AngleBetween(quantity.Between(a, b), quantity.Between(b, p))
	if err != nil {
		return 0
	}
	return angle
}

// MaxDeflection is the largest DeflectionAngle along the chain.
func (c *Chain) MaxDeflection() float64 {
	worst := 0.0
	for i := 2; i < len(c.elements); i++ {
		worst = math.Max(worst, c.DeflectionAngle(i))
	}
	return worst
}

// TotalForce sums the force most recently applied to each deployed element.
func (c *Chain) TotalForce() quantity.ForceVector {
	var sum quantity.ForceVector
	for i := c.boundary; i < len(c.elements); i++ {
		sum = sum.Add(c.elements[i].LastForce)
	}
	return sum
}
