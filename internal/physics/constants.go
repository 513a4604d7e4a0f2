package physics

import "errors"

// Physical constants, SI (CODATA 2018).
const (
	ProtonMass         = 1.67262192369e-27 // kg
	VacuumPermittivity = 8.8541878128e-12  // F/m
	ElementaryCharge   = 1.602176634e-19   // C

	// DragConstant is the empirical K of Janhunen (2007), eq. 8, fitted from
	// Monte Carlo runs.
	DragConstant = 3.09
)

// ErrParameterBounds indicates a spacecraft or solar-wind parameter outside
// its valid range.
var ErrParameterBounds = errors.New("physics: parameter out of valid bounds")
