package pitch_test

import (
	"fmt"

	"github.com/cwbudde/effectrack/dsp/effects/pitch"
)

func ExampleFrequencyFromTransposition() {
	for _, k := range []float64{0, 0.5, 0.85, 1} {
		fmt.Printf("k=%.2f f=%.1f Hz ratio=%.2f\n", k, pitch.FrequencyFromTransposition(k), pitch.Ratio(k))
	}
	// Output:
	// k=0.00 f=-15.0 Hz ratio=1.50
	// k=0.50 f=0.0 Hz ratio=1.00
	// k=0.85 f=10.5 Hz ratio=0.65
	// k=1.00 f=15.0 Hz ratio=0.50
}
