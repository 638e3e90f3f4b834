// Package pitch provides delay-line pitch shifters.
//
// Both shifters read their input through a delay whose time is swept by a
// sawtooth. A steadily growing delay lowers the pitch and a shrinking one
// raises it; each sawtooth wrap is a jump back through the window.
//
// Included units:
//   - SimplePitchShifter: one voice, audible clicks at every wrap.
//   - PitchShifter: two voices half a period apart, crossfaded so that
//     each voice is silent while it wraps.
package pitch
