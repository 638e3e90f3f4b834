package effectchain

import (
	"github.com/cwbudde/effectrack/dsp/audioio"
	"github.com/cwbudde/effectrack/dsp/graph"
)

// gainRuntime multiplies its input by the "gain" knob.
type gainRuntime struct {
	audioio.IO

	node           *graph.Gain
	configureErr   error
	configureCalls int
	lastParams     Params
	closed         bool
}

func (g *gainRuntime) Configure(params Params) error {
	g.configureCalls++
	g.lastParams = params.Clone()
	if g.configureErr != nil {
		return g.configureErr
	}

	if v, ok := params.LookupNum("gain"); ok {
		g.node.Gain().SetValue(v)
	}

	return nil
}

func (g *gainRuntime) Close() {
	g.closed = true
	g.node.Disconnect()
}

func gainFactory(ctx Context) (Runtime, error) {
	n := graph.NewGain(ctx.Graph, 1)
	return &gainRuntime{IO: audioio.NewIO(n, n), node: n}, nil
}

// testRegistry creates a registry with simple gain stages named a, b and c.
func testRegistry() *Registry {
	r := NewRegistry()

	for _, name := range []string{"a", "b", "c"} {
		r.MustRegister(name, Descriptor{
			Factory:  gainFactory,
			Defaults: Params{Num: map[string]float64{"gain": 2}},
			Knobs:    []Knob{{Name: "gain", Min: 0, Max: 4}},
		})
	}

	return r
}
