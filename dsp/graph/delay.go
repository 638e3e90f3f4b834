package graph

import (
	"fmt"
	"math"

	"github.com/cwbudde/effectrack/dsp/core"
	"github.com/cwbudde/effectrack/dsp/delay"
)

// DefaultMaxDelayTime is the longest delay a Delay node supports unless
// configured otherwise.
const DefaultMaxDelayTime = 1.0

// Delay delays its input by the delayTime param, in seconds, with cubic
// interpolation for fractional delays.
type Delay struct {
	node
	delayTime *Param
	line      *delay.Line

	// split is set by the scheduler when the node sits in a feedback loop.
	split bool
}

// NewDelay returns a delay node that supports delays up to maxDelayTime
// seconds. maxDelayTime <= 0 selects DefaultMaxDelayTime.
func NewDelay(ctx *Context, maxDelayTime float64) (*Delay, error) {
	if maxDelayTime <= 0 {
		maxDelayTime = DefaultMaxDelayTime
	}

	if !core.IsFinite(maxDelayTime) || maxDelayTime > 180 {
		return nil, fmt.Errorf("graph: max delay time must be finite and <= 180 s: %f", maxDelayTime)
	}

	maxSamples := int(math.Ceil(maxDelayTime * ctx.cfg.SampleRate))

	line, err := delay.New(maxSamples + ctx.cfg.BlockSize)
	if err != nil {
		return nil, fmt.Errorf("graph: delay line: %w", err)
	}

	d := &Delay{line: line}
	d.init(ctx, d)
	d.delayTime = newParam(&d.node, "delayTime", 0, 0, maxDelayTime)

	return d, nil
}

// DelayTime returns the delayTime param.
func (d *Delay) DelayTime() *Param { return d.delayTime }

func (d *Delay) process(_ int64, in, out []float64) {
	sr := d.ctx.cfg.SampleRate
	times := d.delayTime.buf

	if d.split {
		quantum := float64(len(out))
		for i := range out {
			samples := math.Max(times[i]*sr, quantum)
			out[i] = d.line.ReadFractional(samples - float64(i) - 1)
		}
		return
	}

	for i, x := range in {
		d.line.Write(x)
		out[i] = d.line.ReadFractional(times[i] * sr)
	}
}

// writeBlock feeds the input of a split delay into its line.
func (d *Delay) writeBlock() {
	d.mixInputs()

	for _, x := range d.in {
		d.line.Write(core.FlushDenormals(x))
	}
}
