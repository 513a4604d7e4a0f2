// Package analysis extracts oscillation and rotation figures from recorded
// tether runs.
//
//   - [PowerSpectrum] and [DominantFrequency]: spectral content of a sampled
//     series such as a tip coordinate
//   - [PlaneTrack]: the tip path projected onto the spin plane
//   - [Crossings]: times at which the tip passes a reference half-plane,
//     giving the realized spin period
//   - [TrackToASCII]: quick terminal plot of a track
package analysis
