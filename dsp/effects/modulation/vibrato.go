package modulation

import (
	"fmt"

	"github.com/cwbudde/effectrack/dsp/audioio"
	"github.com/cwbudde/effectrack/dsp/core"
	"github.com/cwbudde/effectrack/dsp/graph"
)

const (
	maxVibratoDepthSeconds = 0.02
	maxVibratoRateHz       = 10

	// DefaultVibratoRate is the rate knob used when none is given.
	DefaultVibratoRate = 0.5
	// initialVibratoDepth is the swing before any depth is configured.
	initialVibratoDepth = 1.0 / 30
)

// VibratoOptions holds knob values in [0, 1].
type VibratoOptions struct {
	// Depth scales the delay swing, 0..20 ms.
	Depth core.Optional[float64]
	// Rate sets the LFO frequency, 0..10 Hz.
	Rate      core.Optional[float64]
	AutoStart core.Optional[bool]
}

// Vibrato is a delay line whose delay time follows a unipolar sine LFO,
// which bends the pitch periodically.
type Vibrato struct {
	audioio.IO

	input, output *graph.Gain
	delay         *graph.Delay
	depth         *graph.Gain
	lfo           *CustomOscillator

	closed bool
}

// NewVibrato builds a vibrato.
func NewVibrato(ctx *graph.Context, opts VibratoOptions) (*Vibrato, error) {
	delay, err := graph.NewDelay(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("modulation: vibrato: %w", err)
	}

	v := &Vibrato{
		input:  graph.NewGain(ctx, 1),
		output: graph.NewGain(ctx, 1),
		delay:  delay,
		depth:  graph.NewGain(ctx, initialVibratoDepth),
		lfo: NewCustomOscillator(ctx, CustomOscillatorOptions{
			Type:      core.Some(graph.Sine),
			Frequency: core.Some(core.NormalizeToRange(0, maxVibratoRateHz, DefaultVibratoRate)),
			AutoStart: core.Some(false),
		}),
	}
	v.IO = audioio.NewIO(v.input, v.output)

	v.input.Connect(delay)
	delay.Connect(v.output)

	v.lfo.Connect(audioio.Node(v.depth))
	v.depth.ConnectParam(delay.DelayTime())

	v.SetOptions(opts)

	if opts.AutoStart.Or(true) {
		if err := v.Start(ctx.CurrentTime()); err != nil {
			v.Close()
			return nil, fmt.Errorf("modulation: vibrato: %w", err)
		}
	}

	return v, nil
}

// SetOptions applies the set fields live.
func (v *Vibrato) SetOptions(opts VibratoOptions) *Vibrato {
	if d, ok := opts.Depth.Get(); ok {
		v.depth.Gain().SetValue(core.NormalizeToRange(0, maxVibratoDepthSeconds, d))
	}

	if r, ok := opts.Rate.Get(); ok {
		v.lfo.SetFrequency(core.NormalizeToRange(0, maxVibratoRateHz, r))
	}

	return v
}

// Depth returns the delay swing in seconds.
func (v *Vibrato) Depth() float64 { return v.depth.Gain().Value() }

// Rate returns the LFO frequency in Hz.
func (v *Vibrato) Rate() float64 { return v.lfo.Frequency() }

// Start starts the LFO.
func (v *Vibrato) Start(when float64) error {
	if v.closed {
		return ErrClosed
	}

	return v.lfo.Start(when)
}

// Close stops the LFO and disconnects the unit.
func (v *Vibrato) Close() {
	if v.closed {
		return
	}

	v.closed = true
	v.lfo.Close()

	for _, n := range []graph.Node{v.input, v.delay, v.depth, v.output} {
		n.Disconnect()
	}
}
