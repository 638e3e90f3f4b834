package graph_test

import (
	"fmt"

	"github.com/cwbudde/effectrack/dsp/core"
	"github.com/cwbudde/effectrack/dsp/graph"
)

func ExampleContext() {
	ctx := graph.NewContext(core.WithSampleRate(8), core.WithBlockSize(4))

	osc := graph.NewOscillator(ctx, graph.Square, 2)
	gain := graph.NewGain(ctx, 0.5)
	osc.Connect(gain)
	gain.Connect(ctx.Destination())

	if err := osc.Start(0); err != nil {
		panic(err)
	}

	out := make([]float64, 8)
	ctx.RenderFloat64(out)
	fmt.Println(out)

	// Output:
	// [0.5 0.5 -0.5 -0.5 0.5 0.5 -0.5 -0.5]
}
