package modulation

import (
	"math"

	"github.com/cwbudde/effectrack/dsp/core"
)

// MinFrequency is the smallest non-zero modulation frequency in Hz. Slower
// frequencies are treated as 0, which freezes the modulation.
const MinFrequency = 0.25

// SnapFrequency maps frequencies with |f| < MinFrequency to 0.
func SnapFrequency(f float64) float64 {
	if !core.IsFinite(f) || math.Abs(f) < MinFrequency {
		return 0
	}

	return f
}
