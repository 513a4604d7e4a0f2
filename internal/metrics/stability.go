package metrics

import (
	"math"

	"github.com/san-kum/esail/internal/sim"
)

// MaxStretch records the worst relative constraint error seen after
// relaxation. Values near zero mean the iteration count is sufficient.
type MaxStretch struct {
	name  string
	worst float64
}

func NewMaxStretch() *MaxStretch {
	return &MaxStretch{name: "max_stretch"}
}

func (m *MaxStretch) Name() string { return m.name }

func (m *MaxStretch) Observe(s sim.Sample) {
	if s.Chain == nil {
		return
	}
	m.worst = math.Max(m.worst, s.Chain.MaxStretch())
}

func (m *MaxStretch) Value() float64 { return m.worst }
func (m *MaxStretch) Reset()         { m.worst = 0 }

// MaxDeflection records the sharpest bend along the chain, in radians.
type MaxDeflection struct {
	name  string
	worst float64
}

func NewMaxDeflection() *MaxDeflection {
	return &MaxDeflection{name: "max_deflection"}
}

func (m *MaxDeflection) Name() string { return m.name }

func (m *MaxDeflection) Observe(s sim.Sample) {
	if s.Chain == nil {
		return
	}
	m.worst = math.Max(m.worst, s.Chain.MaxDeflection())
}

func (m *MaxDeflection) Value() float64 { return m.worst }
func (m *MaxDeflection) Reset()         { m.worst = 0 }

// Stability counts steps whose constraint error exceeds a threshold and
// reports the fraction of clean steps.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string { return s.name }

func (s *Stability) Observe(sample sim.Sample) {
	s.samples++
	if sample.Chain == nil {
		return
	}
	if st := sample.Chain.MaxStretch(); st > s.threshold || math.IsNaN(st) {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
