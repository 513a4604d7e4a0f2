package metrics

import "github.com/san-kum/esail/internal/sim"

// TipRadius reports the tip distance from the spin axis at the last sample.
type TipRadius struct {
	name   string
	radius float64
}

func NewTipRadius() *TipRadius {
	return &TipRadius{name: "tip_radius"}
}

func (t *TipRadius) Name() string { return t.name }

func (t *TipRadius) Observe(s sim.Sample) {
	if s.Chain == nil {
		return
	}
	t.radius = s.Chain.TipRadius(s.Spacecraft.RotationAxis)
}

func (t *TipRadius) Value() float64 { return t.radius }
func (t *TipRadius) Reset()         { t.radius = 0 }

// Default returns the metric set attached to every experiment run.
func Default() []sim.Metric {
	return []sim.Metric{
		NewCoulombForce(),
		NewMaxStretch(),
		NewTipRadius(),
		NewMaxDeflection(),
		NewKineticEnergy(),
		NewStability(0.05),
	}
}
