package modulation

import (
	"fmt"

	"github.com/cwbudde/effectrack/dsp/audioio"
	"github.com/cwbudde/effectrack/dsp/core"
	"github.com/cwbudde/effectrack/dsp/graph"
)

// Physical ranges of the flanger knobs.
const (
	minFlangerDelaySeconds = 0.001
	maxFlangerDelaySeconds = 0.02
	minFlangerSpeedHz      = 0.5
	maxFlangerSpeedHz      = 5
	minFlangerDepthSeconds = 0.0005
	maxFlangerDepthSeconds = 0.005
	maxFlangerFeedback     = 0.8
)

// FlangerOptions holds knob values in [0, 1]. Out-of-range values are
// clamped.
type FlangerOptions struct {
	Time     core.Optional[float64]
	Speed    core.Optional[float64]
	Depth    core.Optional[float64]
	Feedback core.Optional[float64]
	Mix      core.Optional[float64]
	Wave     core.Optional[graph.WaveType]
	// AutoStart starts the LFO on construction. Default true.
	AutoStart core.Optional[bool]
}

// Flanger is a short feedback delay whose delay time is swept by an LFO.
//
//	input -> tap -> delay -> feedback -> tap
//	tap, delay -> wet -> output
//	input -> dry -> output
//	lfo -> lfoGain -> delay.delayTime
type Flanger struct {
	audioio.IO

	ctx      *graph.Context
	delay    *graph.Delay
	feedback *graph.Gain
	dry      *graph.Gain
	wet      *graph.Gain
	lfo      *graph.Oscillator
	lfoGain  *graph.Gain
	nodes    []graph.Node

	started bool
	closed  bool
}

// NewFlanger builds a flanger. Unset options start at zero knob values and
// a sine LFO.
func NewFlanger(ctx *graph.Context, opts FlangerOptions) (*Flanger, error) {
	delay, err := graph.NewDelay(ctx, maxFlangerDelaySeconds+maxFlangerDepthSeconds)
	if err != nil {
		return nil, fmt.Errorf("modulation: flanger: %w", err)
	}

	input := graph.NewGain(ctx, 1)
	output := graph.NewGain(ctx, 1)
	tap := graph.NewGain(ctx, 1)

	f := &Flanger{
		IO:       audioio.NewIO(input, output),
		ctx:      ctx,
		delay:    delay,
		feedback: graph.NewGain(ctx, 0),
		dry:      graph.NewGain(ctx, 1),
		wet:      graph.NewGain(ctx, 0),
		lfo:      graph.NewOscillator(ctx, graph.Sine, minFlangerSpeedHz),
		lfoGain:  graph.NewGain(ctx, minFlangerDepthSeconds),
	}

	input.Connect(tap)
	input.Connect(f.dry)

	tap.Connect(delay)
	tap.Connect(f.wet)

	delay.Connect(f.wet)
	delay.Connect(f.feedback)
	f.feedback.Connect(tap)

	f.lfo.Connect(f.lfoGain)
	f.lfoGain.ConnectParam(delay.DelayTime())

	f.dry.Connect(output)
	f.wet.Connect(output)

	f.nodes = []graph.Node{input, tap, delay, f.feedback, f.dry, f.wet, f.lfo, f.lfoGain, output}

	f.SetOptions(FlangerOptions{
		Time:     core.Some(opts.Time.Or(0)),
		Speed:    core.Some(opts.Speed.Or(0)),
		Depth:    core.Some(opts.Depth.Or(0)),
		Feedback: core.Some(opts.Feedback.Or(0)),
		Mix:      core.Some(opts.Mix.Or(0)),
		Wave:     core.Some(opts.Wave.Or(graph.Sine)),
	})

	if opts.AutoStart.Or(true) {
		if err := f.Start(ctx.CurrentTime()); err != nil {
			f.Close()
			return nil, fmt.Errorf("modulation: flanger: %w", err)
		}
	}

	return f, nil
}

// SetOptions applies the set fields live.
func (f *Flanger) SetOptions(opts FlangerOptions) *Flanger {
	if v, ok := opts.Time.Get(); ok {
		f.delay.DelayTime().SetValue(core.NormalizeToRange(minFlangerDelaySeconds, maxFlangerDelaySeconds, v))
	}

	if v, ok := opts.Speed.Get(); ok {
		f.lfo.Frequency().SetValue(core.NormalizeToRange(minFlangerSpeedHz, maxFlangerSpeedHz, v))
	}

	if v, ok := opts.Depth.Get(); ok {
		f.lfoGain.Gain().SetValue(core.NormalizeToRange(minFlangerDepthSeconds, maxFlangerDepthSeconds, v))
	}

	if v, ok := opts.Feedback.Get(); ok {
		f.feedback.Gain().SetValue(core.NormalizeToRange(0, maxFlangerFeedback, v))
	}

	if v, ok := opts.Mix.Get(); ok {
		dry, wet := core.MixToDryWet(v)
		f.dry.Gain().SetValue(dry)
		f.wet.Gain().SetValue(wet)
	}

	if w, ok := opts.Wave.Get(); ok {
		f.lfo.SetType(w)
	}

	return f
}

// DelayTime returns the base delay in seconds.
func (f *Flanger) DelayTime() float64 { return f.delay.DelayTime().Value() }

// Speed returns the LFO frequency in Hz.
func (f *Flanger) Speed() float64 { return f.lfo.Frequency().Value() }

// Depth returns the LFO swing of the delay time in seconds.
func (f *Flanger) Depth() float64 { return f.lfoGain.Gain().Value() }

// Feedback returns the feedback gain.
func (f *Flanger) Feedback() float64 { return f.feedback.Gain().Value() }

// Mix returns the dry and wet gains.
func (f *Flanger) Mix() (dry, wet float64) {
	return f.dry.Gain().Value(), f.wet.Gain().Value()
}

// Wave returns the LFO waveform.
func (f *Flanger) Wave() graph.WaveType { return f.lfo.Type() }

// Start starts the LFO. It can be called once.
func (f *Flanger) Start(when float64) error {
	if f.closed {
		return ErrClosed
	}

	if err := f.lfo.Start(when); err != nil {
		return err
	}

	f.started = true

	return nil
}

// Close stops the LFO and disconnects every internal node.
func (f *Flanger) Close() {
	if f.closed {
		return
	}

	f.closed = true
	if f.started {
		_ = f.lfo.Stop(f.ctx.CurrentTime())
	}

	for _, n := range f.nodes {
		n.Disconnect()
	}
}
