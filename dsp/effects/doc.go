// Package effects holds the effect units that need no modulation source.
//
// Subpackages:
//   - github.com/cwbudde/effectrack/dsp/effects/modulation
//   - github.com/cwbudde/effectrack/dsp/effects/pitch
//   - github.com/cwbudde/effectrack/dsp/effects/reverb
//
// Units in this package:
//   - TapeDelay: feedback echo with a dry pass-through.
package effects
