package tether

import (
	"errors"
	"fmt"

	"github.com/san-kum/esail/internal/physics"
	"github.com/san-kum/esail/internal/quantity"
)

// ErrInvariant reports a broken chain invariant. It is a programming error.
var ErrInvariant = errors.New("tether: chain invariant violated")

// Chain is an ordered tether of point masses hanging off an anchor on the
// spacecraft body. elements[0] is adjacent to the anchor. The first boundary
// elements are stowed (undeployed) and move rigidly with the body; the rest
// are deployed and free.
type Chain struct {
	origin     quantity.LengthVector
	elements   []Segment
	masses     []float64
	boundary   int
	reserve    int
	size       int
	restLength float64
}

// NewChain builds a fully stowed chain for craft. Element i starts at rest
// at (i+1) segment lengths from the anchor along +x. reserve is the number
// of elements Deploy never releases, keeping them pinned to the body.
func NewChain(craft physics.SpacecraftParameters, reserve int) (*Chain, error) {
	if err := craft.Validate(); err != nil {
		return nil, err
	}
	n := craft.NumberOfElements()
	if reserve < 0 || reserve > n {
		return nil, fmt.Errorf("%w: reserve %d outside [0, %d]", physics.ErrParameterBounds, reserve, n)
	}

	origin := craft.TetherOrigin()
	spacing := craft.SegmentLength()
	c := &Chain{
		origin:     origin,
		elements:   make([]Segment, n),
		masses:     make([]float64, n),
		boundary:   n,
		reserve:    reserve,
		size:       n,
		restLength: spacing,
	}
	for i := range c.elements {
		offset := quantity.NewLength(float64(i+1)*spacing, 0, 0)
		c.elements[i] = NewSegment(origin.Add(offset))
		c.masses[i] = craft.ElementMass(i, n)
	}
	c.assertInvariants()
	return c, nil
}

func (c *Chain) Len() int             { return len(c.elements) }
func (c *Chain) DeployedCount() int   { return len(c.elements) - c.boundary }
func (c *Chain) UndeployedCount() int { return c.boundary }
func (c *Chain) Reserve() int         { return c.reserve }

// RestLength is the constraint distance between adjacent points, in meters.
func (c *Chain) RestLength() float64 { return c.restLength }

// Origin is the anchor point on the spacecraft body.
func (c *Chain) Origin() quantity.LengthVector { return c.origin }

func (c *Chain) Position(i int) quantity.LengthVector { return c.elements[i].Current }
func (c *Chain) LastForce(i int) quantity.ForceVector { return c.elements[i].LastForce }
func (c *Chain) IsDeployed(i int) bool                { return c.elements[i].Deployed }
func (c *Chain) Mass(i int) float64                   { return c.masses[i] }

// IsEndMass reports whether element i is the tip mass.
func (c *Chain) IsEndMass(i int) bool { return i == len(c.elements)-1 }

// Segment returns a copy of element i.
func (c *Chain) Segment(i int) Segment { return c.elements[i] }

// Positions returns a copy of every current position, in chain order.
func (c *Chain) Positions() []quantity.LengthVector {
	out := make([]quantity.LengthVector, len(c.elements))
	for i := range c.elements {
		out[i] = c.elements[i].Current
	}
	return out
}

// Deployed returns the indices of deployed elements, anchor side first.
func (c *Chain) Deployed() []int { return indexRange(c.boundary, len(c.elements)) }

// Undeployed returns the indices of stowed elements, anchor side first.
func (c *Chain) Undeployed() []int { return indexRange(0, c.boundary) }

func indexRange(from, to int) []int {
	out := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}

// DeployedLength is the rest length of the free tether, in meters.
func (c *Chain) DeployedLength() float64 {
	return float64(c.DeployedCount()) * c.restLength
}

// Deploy releases up to n elements from the tail of the stowed set to the
// head of the deployed set and returns how many moved. Requests beyond what
// is available (stowed minus reserve) are clamped.
func (c *Chain) Deploy(n int) int {
	available := max(c.boundary-c.reserve, 0)
	n = min(max(n, 0), available)
	for range n {
		c.boundary--
		s := &c.elements[c.boundary]
		s.Deployed = true
		s.Pin()
	}
	c.assertInvariants()
	return n
}

// Retract stows up to n elements from the head of the deployed set and
// returns how many moved. Retracted elements stop where they are and from
// then on turn with the body.
func (c *Chain) Retract(n int) int {
	n = min(max(n, 0), c.DeployedCount())
	for range n {
		s := &c.elements[c.boundary]
		s.Deployed = false
		s.LastForce = quantity.ForceVector{}
		s.Pin()
		c.boundary++
	}
	c.assertInvariants()
	return n
}

// RotateStowed turns the anchor and every stowed element rigidly by angle
// radians about axis through the world origin.
func (c *Chain) RotateStowed(axis quantity.Direction, angle float64) {
	if angle == 0 {
		return
	}
	c.origin = c.origin.RotateAbout(axis, angle)
	for i := 0; i < c.boundary; i++ {
		s := &c.elements[i]
		s.Previous = s.Previous.RotateAbout(axis, angle)
		s.Current = s.Current.RotateAbout(axis, angle)
	}
}

// Update calls fn for every deployed element with its mass.
func (c *Chain) Update(fn func(s *Segment, mass float64) error) error {
	for i := c.boundary; i < len(c.elements); i++ {
		if err := fn(&c.elements[i], c.masses[i]); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// IsFinite reports whether every position is free of NaN and Inf.
func (c *Chain) IsFinite() bool {
	if !c.origin.IsFinite() {
		return false
	}
	for i := range c.elements {
		if !c.elements[i].isFinite() {
			return false
		}
	}
	return true
}

// Snapshot is a saved chain state for Restore.
type Snapshot struct {
	origin   quantity.LengthVector
	elements []Segment
	boundary int
}

func (c *Chain) Snapshot() Snapshot {
	return Snapshot{
		origin:   c.origin,
		elements: append([]Segment(nil), c.elements...),
		boundary: c.boundary,
	}
}

// Restore rolls the chain back to s. s must come from the same chain.
func (c *Chain) Restore(s Snapshot) {
	if len(s.elements) != len(c.elements) {
		panic(fmt.Sprintf("%v: snapshot of %d elements restored into %d", ErrInvariant, len(s.elements), len(c.elements)))
	}
	c.origin = s.origin
	copy(c.elements, s.elements)
	c.boundary = s.boundary
	c.assertInvariants()
}

// Validate checks the partition invariants: the element count never
// changes, the deployed flags agree with the views and the two views are
// disjoint and together cover the chain in order.
func (c *Chain) Validate() error {
	if len(c.elements) != c.size || len(c.masses) != c.size {
		return fmt.Errorf("%w: element count changed from %d to %d", ErrInvariant, c.size, len(c.elements))
	}
	if c.boundary < 0 || c.boundary > c.size {
		return fmt.Errorf("%w: boundary %d outside [0, %d]", ErrInvariant, c.boundary, c.size)
	}
	deployed, undeployed := c.Deployed(), c.Undeployed()
	if len(deployed)+len(undeployed) != c.size {
		return fmt.Errorf("%w: %d deployed + %d undeployed != %d", ErrInvariant, len(deployed), len(undeployed), c.size)
	}
	seen := make([]bool, c.size)
	for _, idx := range append(undeployed, deployed...) {
		if seen[idx] {
			return fmt.Errorf("%w: element %d in both views", ErrInvariant, idx)
		}
		seen[idx] = true
	}
	for i := range c.elements {
		if c.elements[i].Deployed != (i >= c.boundary) {
			return fmt.Errorf("%w: element %d deployed flag disagrees with views", ErrInvariant, i)
		}
	}
	return nil
}

func (c *Chain) assertInvariants() {
	if !debugAssertions {
		return
	}
	if err := c.Validate(); err != nil {
		panic(err)
	}
}
