package tether

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/esail/internal/physics"
	"github.com/san-kum/esail/internal/quantity"
)

// stretchedChain returns a fully deployed 10-element chain anchored at the
// world origin with every segment at twice its rest length.
func stretchedChain() *Chain {
	craft := physics.DefaultSpacecraft()
	craft.TetherLength = 0.5
	c := mustChain(craft, 0)
	c.Deploy(c.Len())
	c.origin = quantity.LengthVector{}
	for i := range c.elements {
		p := quantity.NewLength(float64(i+1)*2*c.RestLength(), 0, 0)
		c.elements[i] = Segment{Previous: p, Current: p, Deployed: true}
	}
	return c
}

var _ = Describe("Relaxer", func() {
	It("never lets the error grow between passes", func() {
		c := stretchedChain()
		Expect(c.MaxStretch()).To(BeNumerically("~", 1, 1e-12))

		one := NewRelaxer(1)
		prev := c.MaxStretch()
		for range 300 {
			one.Relax(c)
			cur := c.MaxStretch()
			Expect(cur).To(BeNumerically("<=", prev+1e-12))
			prev = cur
		}
		Expect(prev).To(BeNumerically("<", 0.01))
	})

	It("matches a single multi-pass relax", func() {
		a, b := stretchedChain(), stretchedChain()
		NewRelaxer(50).Relax(a)
		one := NewRelaxer(1)
		for range 50 {
			one.Relax(b)
		}
		Expect(a.Positions()).To(Equal(b.Positions()))
	})

	It("does nothing with zero iterations", func() {
		c := stretchedChain()
		before := c.Positions()
		NewRelaxer(0).Relax(c)
		Expect(c.Positions()).To(Equal(before))
	})

	It("moves a free end fully against an immovable neighbour", func() {
		c := mustChain(physics.DefaultSpacecraft(), 0)
		c.Deploy(1)
		last := c.Len() - 1
		anchor := c.elements[last-1].Current
		c.elements[last].Current = anchor.Add(quantity.NewLength(0, 3*c.RestLength(), 0))

		NewRelaxer(1).Relax(c)
		Expect(c.elements[last-1].Current).To(Equal(anchor))
		d := quantity.Between(anchor, c.Position(last)).Magnitude()
		Expect(d).To(BeNumerically("~", c.RestLength(), 1e-12))
	})

	It("leaves the anchor and stowed elements in place", func() {
		c := stretchedChain()
		c.Retract(3)
		stowed := []quantity.LengthVector{c.Position(0), c.Position(1), c.Position(2)}
		NewRelaxer(20).Relax(c)
		Expect(c.Origin()).To(Equal(quantity.LengthVector{}))
		Expect([]quantity.LengthVector{c.Position(0), c.Position(1), c.Position(2)}).To(Equal(stowed))
	})

	It("skips coincident points without producing NaN", func() {
		c := stretchedChain()
		c.elements[4].Current = c.elements[3].Current
		NewRelaxer(10).Relax(c)
		Expect(c.IsFinite()).To(BeTrue())
		for _, p := range c.Positions() {
			Expect(math.IsNaN(p.X)).To(BeFalse())
		}
	})

	It("reports zero stretch with nothing deployed", func() {
		c := mustChain(physics.DefaultSpacecraft(), 0)
		Expect(c.MaxStretch()).To(BeZero())
	})
})
