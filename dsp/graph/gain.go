package graph

import vecmath "github.com/cwbudde/algo-vecmath"

// Gain multiplies its input by the gain param.
type Gain struct {
	node
	gain *Param
}

// NewGain returns a gain node with the given initial gain.
func NewGain(ctx *Context, gain float64) *Gain {
	g := &Gain{}
	g.init(ctx, g)
	g.gain = newParam(&g.node, "gain", gain, -maxParamValue, maxParamValue)

	return g
}

// Gain returns the gain param.
func (g *Gain) Gain() *Param { return g.gain }

func (g *Gain) process(_ int64, in, out []float64) {
	vecmath.MulBlock(out, in, g.gain.buf)
}
