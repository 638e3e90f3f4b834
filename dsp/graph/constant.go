package graph

import "github.com/cwbudde/effectrack/dsp/core"

// ConstantSource outputs its offset param while playing.
type ConstantSource struct {
	node
	playback

	offset *Param
}

// NewConstantSource returns a stopped constant source.
func NewConstantSource(ctx *Context, offset float64) *ConstantSource {
	c := &ConstantSource{}
	c.init(ctx, c)
	c.offset = newParam(&c.node, "offset", offset, -maxParamValue, maxParamValue)

	return c
}

// Offset returns the offset param.
func (c *ConstantSource) Offset() *Param { return c.offset }

// Start begins output at context time when.
func (c *ConstantSource) Start(when float64) error {
	return c.start(&c.node, c, when)
}

// Stop ends output at context time when.
func (c *ConstantSource) Stop(when float64) error {
	return c.stop(&c.node, when)
}

func (c *ConstantSource) process(frame int64, _, out []float64) {
	from, to := c.window(frame, len(out))

	core.Zero(out[:from])
	copy(out[from:to], c.offset.buf[from:to])
	core.Zero(out[to:])
}
