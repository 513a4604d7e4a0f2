package sim

import (
	"fmt"
	"math"
)

// MaxStepsPerAdvance bounds the steps one Advance call may schedule. Time
// beyond it is dropped along with the leftover.
const MaxStepsPerAdvance = 1 << 20

// Clock turns variable host frame times into a whole number of fixed
// physics steps, carrying the remainder to the next call.
type Clock struct {
	FixedTimestep float64
	Leftover      float64
	scheduled     int64
}

func NewClock(dt float64) (*Clock, error) {
	if !(dt > 0) || math.IsInf(dt, 1) {
		return nil, fmt.Errorf("%w: timestep must be positive and finite, got %g", ErrParameterBounds, dt)
	}
	return &Clock{FixedTimestep: dt}, nil
}

// Advance adds elapsed seconds and returns how many fixed steps are due.
// Negative, NaN and infinite elapsed times count as zero, and at most
// MaxStepsPerAdvance steps are returned. After every call
// 0 <= Leftover < FixedTimestep.
func (c *Clock) Advance(elapsed float64) int {
	if !(elapsed > 0) || math.IsInf(elapsed, 1) {
		elapsed = 0
	}
	dt := c.FixedTimestep
	total := elapsed + c.Leftover
	if total/dt >= MaxStepsPerAdvance {
		c.Leftover = 0
		c.scheduled += MaxStepsPerAdvance
		return MaxStepsPerAdvance
	}
	steps := math.Floor(total / dt)
	left := total - steps*dt

	// Division and subtraction round independently; renormalize.
	for left < 0 && steps > 0 {
		steps--
		left += dt
	}
	for left >= dt {
		steps++
		left -= dt
	}
	c.Leftover = max(left, 0)

	n := int(steps)
	c.scheduled += int64(n)
	return n
}

// Elapsed is the simulated time covered by every step scheduled so far.
func (c *Clock) Elapsed() float64 {
	return float64(c.scheduled) * c.FixedTimestep
}

// unschedule takes back n scheduled steps that never ran.
func (c *Clock) unschedule(n int) {
	c.scheduled -= int64(n)
}

// Reset discards the leftover and the scheduled step count.
func (c *Clock) Reset() {
	c.Leftover = 0
	c.scheduled = 0
}
