// Package physics holds the force model of an electric solar-wind sail
// tether.
//
// Two contributions act on every deployed tether point mass:
//
//   - [CentrifugalForce]: m·ω²·r⊥ with r⊥ the point's offset from the spin
//     axis, projected onto the rotation plane
//   - [CoulombDragPerLength]: the Janhunen (2007) potential-drag estimate of
//     the solar-wind momentum flux deflected by a positively charged wire
//
// [TotalForce] sums both for one segment. Parameters come from
// [SpacecraftParameters] and [SolarWindParameters]; all values are SI, with
// the electron temperature given in electron-volts and converted on use.
//
// # Degenerate inputs
//
// An unpowered tether (potential <= 0), an empty plasma (density, temperature
// or speed <= 0) and a Debye sheath thinner than the wire all yield zero
// drag instead of NaN or Inf.
package physics
