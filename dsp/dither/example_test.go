package dither_test

import (
	"fmt"

	"github.com/cwbudde/effectrack/dsp/dither"
)

func ExampleQuantizer_AppendInts() {
	q, err := dither.NewQuantizer(
		dither.WithType(dither.None),
		dither.WithPreset(dither.PresetNone),
	)
	if err != nil {
		panic(err)
	}

	fmt.Println(q.AppendInts(nil, []float64{0, 0.25, 0.5, -1, 1.5}))
	// Output: [0 8192 16384 -32768 32767]
}

func ExampleParsePreset() {
	p, err := dither.ParsePreset("9fc")
	if err != nil {
		panic(err)
	}

	fmt.Println(p, len(p.Coefficients()))
	// Output: 9fc 9
}
