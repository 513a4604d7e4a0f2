package metrics

import (
	"github.com/san-kum/esail/internal/sim"
)

// KineticEnergy tracks the peak kinetic energy of the deployed tether, with
// velocities estimated from the Verlet position history.
type KineticEnergy struct {
	name string
	peak float64
	last float64
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (k *KineticEnergy) Name() string { return k.name }

func (k *KineticEnergy) Observe(s sim.Sample) {
	k.last = TetherKineticEnergy(s)
	k.peak = max(k.peak, k.last)
}

func (k *KineticEnergy) Value() float64 { return k.peak }

// Last is the energy at the most recent sample.
func (k *KineticEnergy) Last() float64 { return k.last }

func (k *KineticEnergy) Reset() {
	k.peak = 0
	k.last = 0
}

// TetherKineticEnergy is Σ ½·m·v² over the deployed elements in s, in J.
func TetherKineticEnergy(s sim.Sample) float64 {
	if s.Chain == nil {
		return 0
	}
	e := 0.0
	for _, i := range s.Chain.Deployed() {
		v := s.Chain.Segment(i).Speed(s.Timestep)
		e += 0.5 * s.Chain.Mass(i) * v * v
	}
	return e
}
