package effects

import (
	"fmt"

	"github.com/cwbudde/effectrack/dsp/audioio"
	"github.com/cwbudde/effectrack/dsp/core"
	"github.com/cwbudde/effectrack/dsp/graph"
)

const (
	minTapeDelaySeconds = 0.1
	maxTapeDelaySeconds = 1.0
	maxTapeFeedback     = 0.9
)

// TapeDelayOptions holds knob values in [0, 1].
type TapeDelayOptions struct {
	// Time sets the echo spacing, 0.1..1 s.
	Time core.Optional[float64]
	// Depth sets the feedback gain, 0..0.9.
	Depth core.Optional[float64]
}

// TapeDelay is a feedback echo. The dry signal passes straight through and
// every echo is the previous one scaled by the feedback gain.
//
//	input -> output
//	input -> delay -> feedback -> delay
//	feedback -> output
type TapeDelay struct {
	audioio.IO

	input, output *graph.Gain
	delay         *graph.Delay
	feedback      *graph.Gain
	closed        bool
}

// NewTapeDelay builds a tape delay. Unset knobs start at 0.
func NewTapeDelay(ctx *graph.Context, opts TapeDelayOptions) (*TapeDelay, error) {
	delay, err := graph.NewDelay(ctx, maxTapeDelaySeconds)
	if err != nil {
		return nil, fmt.Errorf("effects: tape delay: %w", err)
	}

	d := &TapeDelay{
		input:    graph.NewGain(ctx, 1),
		output:   graph.NewGain(ctx, 1),
		delay:    delay,
		feedback: graph.NewGain(ctx, 0),
	}
	d.IO = audioio.NewIO(d.input, d.output)

	d.input.Connect(d.output)
	d.input.Connect(delay)
	delay.Connect(d.feedback)
	d.feedback.Connect(delay)
	d.feedback.Connect(d.output)

	d.SetOptions(TapeDelayOptions{
		Time:  core.Some(opts.Time.Or(0)),
		Depth: core.Some(opts.Depth.Or(0)),
	})

	return d, nil
}

// SetOptions applies the set fields live.
func (d *TapeDelay) SetOptions(opts TapeDelayOptions) *TapeDelay {
	if v, ok := opts.Time.Get(); ok {
		d.delay.DelayTime().SetValue(core.NormalizeToRange(minTapeDelaySeconds, maxTapeDelaySeconds, v))
	}

	if v, ok := opts.Depth.Get(); ok {
		d.feedback.Gain().SetValue(core.NormalizeToRange(0, maxTapeFeedback, v))
	}

	return d
}

// Time returns the echo spacing in seconds.
func (d *TapeDelay) Time() float64 { return d.delay.DelayTime().Value() }

// Feedback returns the feedback gain.
func (d *TapeDelay) Feedback() float64 { return d.feedback.Gain().Value() }

// Close disconnects the unit.
func (d *TapeDelay) Close() {
	if d.closed {
		return
	}

	d.closed = true
	for _, n := range []graph.Node{d.input, d.delay, d.feedback, d.output} {
		n.Disconnect()
	}
}
