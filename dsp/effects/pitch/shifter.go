package pitch

import (
	"fmt"

	"github.com/cwbudde/effectrack/dsp/audioio"
	"github.com/cwbudde/effectrack/dsp/core"
	"github.com/cwbudde/effectrack/dsp/effects/modulation"
	"github.com/cwbudde/effectrack/dsp/graph"
)

// PitchShifter is a two voice delay-line shifter. Two sawtooths at the same
// frequency, half a cycle apart, sweep the two voices; a crossfade at the
// sawtooth frequency mutes each voice around its own wrap. All three
// oscillators are retuned with the same start time, so they stay aligned.
//
//	input -> delayA -> crossfade.left
//	input -> delayB -> crossfade.right
//	sawA -> sweepA -> delayA.delayTime
//	sawB -> sweepB -> delayB.delayTime
//	crossfade -> output
type PitchShifter struct {
	audioio.IO

	ctx            *graph.Context
	input, output  *graph.Gain
	delayA, delayB *graph.Delay
	sweepA, sweepB *graph.Gain
	sawA, sawB     *modulation.CustomOscillator
	crossfade      *modulation.Crossfade

	transposition float64
	started       bool
	closed        bool
}

// NewPitchShifter builds a two voice shifter.
func NewPitchShifter(ctx *graph.Context, opts Options) (*PitchShifter, error) {
	delayA, err := graph.NewDelay(ctx, WindowSize)
	if err != nil {
		return nil, fmt.Errorf("pitch: %w", err)
	}

	delayB, err := graph.NewDelay(ctx, WindowSize)
	if err != nil {
		return nil, fmt.Errorf("pitch: %w", err)
	}

	crossfade, err := modulation.NewCrossfade(ctx, modulation.CrossfadeOptions{
		Frequency:  core.Some(0.0),
		LeftInput:  core.Some(audioio.Node(delayA)),
		RightInput: core.Some(audioio.Node(delayB)),
		AutoStart:  core.Some(false),
	})
	if err != nil {
		return nil, fmt.Errorf("pitch: %w", err)
	}

	p := &PitchShifter{
		ctx:       ctx,
		input:     graph.NewGain(ctx, 1),
		output:    graph.NewGain(ctx, 1),
		delayA:    delayA,
		delayB:    delayB,
		sweepA:    graph.NewGain(ctx, WindowSize),
		sweepB:    graph.NewGain(ctx, WindowSize),
		sawA:      newSaw(ctx, 0),
		sawB:      newSaw(ctx, 0.5),
		crossfade: crossfade,
	}
	p.IO = audioio.NewIO(p.input, p.output)

	p.input.Connect(delayA)
	p.input.Connect(delayB)

	p.sawA.Connect(audioio.Node(p.sweepA))
	p.sweepA.ConnectParam(delayA.DelayTime())

	p.sawB.Connect(audioio.Node(p.sweepB))
	p.sweepB.ConnectParam(delayB.DelayTime())

	crossfade.Connect(audioio.Node(p.output))

	p.SetTransposition(opts.Transposition.Or(IdentityTransposition))

	if opts.AutoStart.Or(true) {
		if err := p.Start(ctx.CurrentTime()); err != nil {
			p.Close()
			return nil, fmt.Errorf("pitch: %w", err)
		}
	}

	return p, nil
}

// SetOptions applies the set fields live.
func (p *PitchShifter) SetOptions(opts Options) *PitchShifter {
	if k, ok := opts.Transposition.Get(); ok {
		p.SetTransposition(k)
	}

	return p
}

// SetTransposition retunes both sawtooths and the crossfade together. It
// can be called any number of times before or after Start; a knob that
// maps to the running frequency leaves the oscillators untouched.
func (p *PitchShifter) SetTransposition(k float64) {
	if !core.IsFinite(k) {
		return
	}

	p.transposition = core.Clamp(k, 0, 1)

	f := FrequencyFromTransposition(k)
	if p.started && f == p.sawA.Frequency() {
		return
	}

	when := p.ctx.CurrentTime()
	_ = p.sawA.Retune(f, when)
	_ = p.sawB.Retune(f, when)
	_ = p.crossfade.Retune(f, when)
}

// Transposition returns the current knob value.
func (p *PitchShifter) Transposition() float64 { return p.transposition }

// Frequency returns the sawtooth frequency in Hz.
func (p *PitchShifter) Frequency() float64 { return p.sawA.Frequency() }

// Crossfade exposes the voice crossfade.
func (p *PitchShifter) Crossfade() *modulation.Crossfade { return p.crossfade }

// Start starts both sawtooths and the crossfade at the same time so their
// phases line up. It can be called once.
func (p *PitchShifter) Start(when float64) error {
	if p.closed {
		return modulation.ErrClosed
	}

	if p.started {
		return graph.ErrAlreadyStarted
	}

	for _, saw := range []*modulation.CustomOscillator{p.sawA, p.sawB} {
		if err := saw.Start(when); err != nil {
			return err
		}
	}

	if err := p.crossfade.Start(when); err != nil {
		return err
	}

	p.started = true

	return nil
}

// Close stops every oscillator and disconnects the unit.
func (p *PitchShifter) Close() {
	if p.closed {
		return
	}

	p.closed = true
	p.sawA.Close()
	p.sawB.Close()
	p.crossfade.Close()

	for _, n := range []graph.Node{p.input, p.delayA, p.delayB, p.sweepA, p.sweepB, p.output} {
		n.Disconnect()
	}
}
