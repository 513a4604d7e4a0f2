// Package viz renders a running sail in the terminal with Bubble Tea.
//
// [Model] owns one simulator and feeds it measured wall-clock time on every
// tick, so the solver takes the same fixed steps whatever the refresh rate.
// The chain is drawn on a braille [Canvas], either looking down the spin
// axis or through an orbiting [Camera].
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Reset to the starting config
//	] [   - Deploy/Retract one element
//	} {   - Deploy/Retract everything available
//	Tab   - Select rpm, potential or iterations
//	↑ ↓   - Tune the selected parameter
//	V     - Toggle top and 3D views
//	T     - Cycle color themes
//	?     - Show help overlay
package viz
