package sim

import (
	"errors"
	"fmt"

	"github.com/san-kum/esail/internal/physics"
)

var (
	// ErrInvalidState indicates a step produced non-finite positions or broke
	// a chain invariant. The step is rolled back.
	ErrInvalidState = errors.New("sim: invalid state (NaN, Inf or broken invariant)")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = physics.ErrParameterBounds
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4fs): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
