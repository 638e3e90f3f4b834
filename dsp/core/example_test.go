package core_test

import (
	"fmt"

	"github.com/cwbudde/effectrack/dsp/core"
)

func ExampleApplyProcessorOptions() {
	cfg := core.ApplyProcessorOptions(
		core.WithSampleRate(44100),
		core.WithBlockSize(256),
	)

	fmt.Printf("sampleRate=%.0f blockSize=%d\n", cfg.SampleRate, cfg.BlockSize)

	// Output:
	// sampleRate=44100 blockSize=256
}

func ExampleNormalizeToRange() {
	fmt.Printf("%.3f\n", core.NormalizeToRange(0.001, 0.02, 0.5))
	fmt.Printf("%.3f\n", core.NormalizeToRange(0.5, 5, 2))
	fmt.Printf("%.2f\n", core.NormalizeFromRange(0.5, 5, 2.75))

	// Output:
	// 0.011
	// 5.000
	// 0.50
}

func ExampleMixToDryWet() {
	dry, wet := core.MixToDryWet(0.25)
	fmt.Println(dry, wet)

	// Output:
	// 0.75 0.25
}
