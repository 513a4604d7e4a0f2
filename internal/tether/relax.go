package tether

import (
	"math"

	"github.com/san-kum/esail/internal/quantity"
)

// DefaultIterations is the relaxation pass count used when none is set.
const DefaultIterations = 100

// Relaxer enforces the rest length between adjacent chain points by
// Gauss-Seidel projection. Each pass walks the chain from the anchor out and
// corrects one pair at a time using positions already moved this pass.
type Relaxer struct {
	Iterations int
}

func NewRelaxer(iterations int) *Relaxer {
	return &Relaxer{Iterations: iterations}
}

// Relax runs r.Iterations passes over c. Zero iterations is a no-op.
func (r *Relaxer) Relax(c *Chain) {
	for range max(r.Iterations, 0) {
		c.relaxPass(c.restLength)
	}
}

// relaxPass corrects each pair (previous, element), where previous is the
// anchor for element 0. A pair with both ends movable splits the correction
// evenly; a pair with one immovable end moves the other end the whole way.
// Stowed elements and the anchor never move. Coincident points are skipped.
func (c *Chain) relaxPass(rest float64) {
	for i := range c.elements {
		elem := &c.elements[i]
		prevPos := c.origin
		var prev *Segment
		if i > 0 {
			prev = &c.elements[i-1]
			prevPos = prev.Current
		}
		elemFree := elem.Deployed
		prevFree := prev != nil && prev.Deployed
		if !elemFree && !prevFree {
			continue
		}

		delta := elem.Current.Sub(prevPos)
		actual := delta.Magnitude()
		if actual == 0 {
			continue
		}
		correction := delta.Scale((rest - actual) / actual)

		switch {
		case elemFree && prevFree:
			half := correction.Scale(0.5)
			elem.Correct(half)
			prev.Correct(half.Neg())
		case elemFree:
			elem.Correct(correction)
		default:
			prev.Correct(correction.Neg())
		}
	}
}

// MaxStretch is the largest relative deviation |actual-rest|/rest over the
// pairs that have at least one deployed end. Zero when nothing is deployed.
func (c *Chain) MaxStretch() float64 {
	worst := 0.0
	for i := range c.elements {
		elem := c.elements[i]
		prevPos := c.origin
		prevFree := false
		if i > 0 {
			prevPos = c.elements[i-1].Current
			prevFree = c.elements[i-1].Deployed
		}
		if !elem.Deployed && !prevFree {
			continue
		}
		actual := quantity.Between(prevPos, elem.Current).Magnitude()
		worst = math.Max(worst, math.Abs(actual-c.restLength)/c.restLength)
	}
	return worst
}
