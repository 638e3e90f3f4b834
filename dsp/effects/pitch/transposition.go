package pitch

import (
	"github.com/cwbudde/effectrack/dsp/core"
	"github.com/cwbudde/effectrack/dsp/effects/modulation"
)

// WindowSize is the length of the swept delay window in seconds.
const WindowSize = 1.0 / 30

// IdentityTransposition is the knob value that leaves the pitch unchanged.
const IdentityTransposition = 0.5

// FrequencyFromTransposition maps a transposition knob in [0, 1] to the
// sawtooth frequency in Hz. Knob 0.5 gives 0 Hz. The playback ratio of the
// shifted signal is 1.5 - k.
func FrequencyFromTransposition(k float64) float64 {
	f := core.NormalizeToRange(-0.5, 0.5, k) / WindowSize
	return modulation.SnapFrequency(f)
}

// Ratio returns the pitch ratio produced by knob k.
func Ratio(k float64) float64 {
	return 1 - FrequencyFromTransposition(k)*WindowSize
}
