package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/esail/internal/quantity"
)

// SolarWindParameters describes the undisturbed plasma stream.
type SolarWindParameters struct {
	ElectronDensity     float64            // m⁻³
	ElectronTemperature float64            // eV
	Speed               float64            // m/s, bulk flow
	Direction           quantity.Direction // flow direction
}

// DefaultSolarWind returns typical values at 1 AU: 7.3 cm⁻³, 12 eV, 400 km/s
// flowing along -z.
func DefaultSolarWind() SolarWindParameters {
	return SolarWindParameters{
		ElectronDensity:     7.3e6,
		ElectronTemperature: 12,
		Speed:               4.0e5,
		Direction:           quantity.NewDirection(0, 0, -1),
	}
}

// Calm returns a solar wind with no plasma, which produces no drag.
func Calm() SolarWindParameters {
	return SolarWindParameters{Direction: quantity.NewDirection(0, 0, -1)}
}

func (w SolarWindParameters) Validate() error {
	for name, v := range map[string]float64{
		"electron density":     w.ElectronDensity,
		"electron temperature": w.ElectronTemperature,
		"speed":                w.Speed,
	} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be finite and non-negative, got %g", ErrParameterBounds, name, v)
		}
	}
	if w.Speed > 0 && (w.Direction.IsZero() || !w.Direction.IsFinite()) {
		return fmt.Errorf("%w: solar wind direction must be a non-zero vector", ErrParameterBounds)
	}
	return nil
}

// TemperatureJoules is the electron temperature as an energy in joules.
func (w SolarWindParameters) TemperatureJoules() float64 {
	return w.ElectronTemperature * ElementaryCharge
}

// DebyeRadius is r0 = 2·sqrt(ε0·Te / (n0·e²)), the distance at which the
// tether potential vanishes. Zero without plasma.
func (w SolarWindParameters) DebyeRadius() float64 {
	if !(w.ElectronDensity > 0) || !(w.ElectronTemperature > 0) {
		return 0
	}
	num := VacuumPermittivity * w.TemperatureJoules()
	den := w.ElectronDensity * ElementaryCharge * ElementaryCharge
	return 2 * math.Sqrt(num/den)
}
