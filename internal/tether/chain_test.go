package tether

import (
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/esail/internal/physics"
	"github.com/san-kum/esail/internal/quantity"
)

func mustChain(craft physics.SpacecraftParameters, reserve int) *Chain {
	c, err := NewChain(craft, reserve)
	Expect(err).NotTo(HaveOccurred())
	return c
}

var _ = Describe("Chain", func() {
	var (
		craft physics.SpacecraftParameters
		chain *Chain
	)

	BeforeEach(func() {
		craft = physics.DefaultSpacecraft()
		chain = mustChain(craft, 0)
	})

	Describe("NewChain", func() {
		It("starts fully stowed along +x", func() {
			Expect(chain.Len()).To(Equal(20))
			Expect(chain.DeployedCount()).To(BeZero())
			Expect(chain.Undeployed()).To(HaveLen(20))
			for i := range chain.Len() {
				want := 0.075 + float64(i+1)*0.05
				Expect(chain.Position(i).X).To(BeNumerically("~", want, 1e-12))
				Expect(chain.Segment(i).Previous).To(Equal(chain.Position(i)))
			}
			Expect(chain.Validate()).To(Succeed())
		})

		It("puts the end mass on the last element", func() {
			craft.EndMass = 0.02
			c := mustChain(craft, 0)
			Expect(c.IsEndMass(19)).To(BeTrue())
			Expect(c.Mass(19)).To(Equal(0.02))
			Expect(c.Mass(0)).To(Equal(craft.SegmentMass()))
		})

		It("rejects a reserve larger than the chain", func() {
			_, err := NewChain(craft, 21)
			Expect(err).To(MatchError(physics.ErrParameterBounds))
		})

		It("rejects invalid parameters", func() {
			craft.TetherLength = 0
			_, err := NewChain(craft, 0)
			Expect(err).To(MatchError(physics.ErrParameterBounds))
		})
	})

	Describe("Deploy and Retract", func() {
		It("moves the boundary element across", func() {
			Expect(chain.Deploy(3)).To(Equal(3))
			Expect(chain.Deployed()).To(Equal([]int{17, 18, 19}))
			Expect(chain.UndeployedCount()).To(Equal(17))
			Expect(chain.IsDeployed(16)).To(BeFalse())
			Expect(chain.IsDeployed(17)).To(BeTrue())

			Expect(chain.Retract(1)).To(Equal(1))
			Expect(chain.Deployed()).To(Equal([]int{18, 19}))
			Expect(chain.Validate()).To(Succeed())
		})

		It("clamps requests to what is available", func() {
			Expect(chain.Deploy(100)).To(Equal(20))
			Expect(chain.Deploy(1)).To(BeZero())
			Expect(chain.Retract(25)).To(Equal(20))
			Expect(chain.Retract(1)).To(BeZero())
			Expect(chain.Deploy(-4)).To(BeZero())
		})

		It("keeps the reserve stowed", func() {
			c := mustChain(craft, 1)
			Expect(c.Deploy(100)).To(Equal(19))
			Expect(c.Undeployed()).To(Equal([]int{0}))
		})

		It("zeroes the velocity of a moved element", func() {
			chain.Deploy(1)
			chain.elements[18].Previous = chain.elements[18].Current.Add(quantity.NewLength(0.01, 0, 0))
			chain.Deploy(1)
			Expect(chain.Segment(18).Previous).To(Equal(chain.Segment(18).Current))

			chain.elements[18].Previous = quantity.LengthVector{}
			chain.elements[18].LastForce = quantity.NewForce(1, 0, 0)
			chain.Retract(1)
			Expect(chain.Segment(18).Previous).To(Equal(chain.Segment(18).Current))
			Expect(chain.LastForce(18).IsZero()).To(BeTrue())
		})

		It("always partitions the chain", func() {
			rng := rand.New(rand.NewSource(7))
			for range 500 {
				n := rng.Intn(6)
				if rng.Intn(2) == 0 {
					chain.Deploy(n)
				} else {
					chain.Retract(n)
				}
				Expect(chain.Validate()).To(Succeed())
				Expect(chain.DeployedCount() + chain.UndeployedCount()).To(Equal(20))
			}
		})
	})

	It("reports a corrupted partition", func() {
		chain.elements[0].Deployed = true
		Expect(chain.Validate()).To(MatchError(ErrInvariant))
	})

	It("rotates the anchor and stowed elements only", func() {
		chain.Deploy(2)
		before := chain.Positions()
		chain.RotateStowed(quantity.UnitZ, math.Pi/2)

		Expect(chain.Origin().Y).To(BeNumerically("~", 0.075, 1e-12))
		Expect(chain.Origin().X).To(BeNumerically("~", 0, 1e-12))
		for i := range 18 {
			Expect(chain.Position(i).X).To(BeNumerically("~", 0, 1e-12))
			Expect(chain.Position(i).Y).To(BeNumerically("~", before[i].X, 1e-12))
			Expect(chain.Segment(i).Previous).To(Equal(chain.Position(i)))
		}
		Expect(chain.Position(18)).To(Equal(before[18]))
		Expect(chain.Position(19)).To(Equal(before[19]))
	})

	It("restores a snapshot", func() {
		snap := chain.Snapshot()
		chain.Deploy(5)
		chain.RotateStowed(quantity.UnitZ, 1)
		chain.Restore(snap)
		Expect(chain.DeployedCount()).To(BeZero())
		Expect(chain.Origin()).To(Equal(craft.TetherOrigin()))
		Expect(chain.Validate()).To(Succeed())
	})

	It("updates only deployed elements", func() {
		chain.Deploy(4)
		visited := 0
		err := chain.Update(func(s *Segment, mass float64) error {
			Expect(s.Deployed).To(BeTrue())
			Expect(mass).To(Equal(craft.SegmentMass()))
			s.LastForce = quantity.NewForce(0, 0, 1)
			visited++
			return nil
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(visited).To(Equal(4))
		Expect(chain.TotalForce()).To(Equal(quantity.NewForce(0, 0, 4)))
	})

	Describe("diagnostics", func() {
		It("measures a straight chain", func() {
			Expect(chain.MaxDeflection()).To(BeNumerically("~", 0, 1e-9))
			Expect(chain.TipRadius(quantity.UnitZ)).To(BeNumerically("~", 0.075+1.0, 1e-12))
			Expect(chain.CenterOfMass().X).To(BeNumerically("~", 0.075+0.525, 1e-12))
		})

		It("measures a right-angle bend", func() {
			chain.elements[5].Current = chain.elements[4].Current.Add(quantity.NewLength(0, 0.05, 0))
			Expect(chain.DeflectionAngle(5)).To(BeNumerically("~", math.Pi/2, 1e-12))
			Expect(chain.DeflectionAngle(1)).To(BeZero())
			Expect(chain.MaxDeflection()).To(BeNumerically(">=", math.Pi/2-1e-12))
		})

		It("treats coincident points as straight", func() {
			chain.elements[5].Current = chain.elements[4].Current
			Expect(chain.DeflectionAngle(5)).To(BeZero())
		})
	})
})
