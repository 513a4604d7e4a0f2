package metrics

import (
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/esail/internal/sim"
)

// CoulombForce averages the total drag on the deployed tether, in N.
type CoulombForce struct {
	name    string
	samples []float64
}

func NewCoulombForce() *CoulombForce {
	return &CoulombForce{name: "coulomb_force"}
}

func (c *CoulombForce) Name() string { return c.name }

func (c *CoulombForce) Observe(s sim.Sample) {
	c.samples = append(c.samples, s.CoulombForce)
}

func (c *CoulombForce) Value() float64 {
	if len(c.samples) == 0 {
		return 0
	}
	return stat.Mean(c.samples, nil)
}

// StdDev is the spread of the drag over the run. Deploying or retracting
// mid-run shows up here.
func (c *CoulombForce) StdDev() float64 {
	if len(c.samples) < 2 {
		return 0
	}
	return stat.StdDev(c.samples, nil)
}

func (c *CoulombForce) Reset() { c.samples = c.samples[:0] }
