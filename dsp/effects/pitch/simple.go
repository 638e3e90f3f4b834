package pitch

import (
	"fmt"

	"github.com/cwbudde/effectrack/dsp/audioio"
	"github.com/cwbudde/effectrack/dsp/core"
	"github.com/cwbudde/effectrack/dsp/effects/modulation"
	"github.com/cwbudde/effectrack/dsp/graph"
)

// Options configures a pitch shifter.
type Options struct {
	// Transposition is the knob in [0, 1]; 0.5 means no shift.
	Transposition core.Optional[float64]
	// AutoStart starts the sawtooth on construction. Default true.
	AutoStart core.Optional[bool]
}

// SimplePitchShifter is a single swept delay.
//
//	input -> delay -> output
//	saw -> gain(WindowSize) -> delay.delayTime
type SimplePitchShifter struct {
	audioio.IO

	ctx           *graph.Context
	input, output *graph.Gain
	delay         *graph.Delay
	sweep         *graph.Gain
	saw           *modulation.CustomOscillator

	transposition float64
	closed        bool
}

// NewSimplePitchShifter builds a one voice shifter.
func NewSimplePitchShifter(ctx *graph.Context, opts Options) (*SimplePitchShifter, error) {
	delay, err := graph.NewDelay(ctx, WindowSize)
	if err != nil {
		return nil, fmt.Errorf("pitch: %w", err)
	}

	p := &SimplePitchShifter{
		ctx:    ctx,
		input:  graph.NewGain(ctx, 1),
		output: graph.NewGain(ctx, 1),
		delay:  delay,
		sweep:  graph.NewGain(ctx, WindowSize),
		saw:    newSaw(ctx, 0),
	}
	p.IO = audioio.NewIO(p.input, p.output)

	p.input.Connect(delay)
	delay.Connect(p.output)
	p.saw.Connect(audioio.Node(p.sweep))
	p.sweep.ConnectParam(delay.DelayTime())

	p.SetTransposition(opts.Transposition.Or(IdentityTransposition))

	if opts.AutoStart.Or(true) {
		if err := p.Start(ctx.CurrentTime()); err != nil {
			p.Close()
			return nil, fmt.Errorf("pitch: %w", err)
		}
	}

	return p, nil
}

// newSaw returns a stopped unipolar sawtooth that starts at phase, in
// cycles, every time it is retuned.
func newSaw(ctx *graph.Context, phase float64) *modulation.CustomOscillator {
	return modulation.NewCustomOscillator(ctx, modulation.CustomOscillatorOptions{
		Type:      core.Some(graph.Sawtooth),
		Frequency: core.Some(0.0),
		Phase:     core.Some(phase),
		AutoStart: core.Some(false),
	})
}

// SetOptions applies the set fields live.
func (p *SimplePitchShifter) SetOptions(opts Options) *SimplePitchShifter {
	if k, ok := opts.Transposition.Get(); ok {
		p.SetTransposition(k)
	}

	return p
}

// SetTransposition retunes the sawtooth for knob k.
func (p *SimplePitchShifter) SetTransposition(k float64) {
	if !core.IsFinite(k) {
		return
	}

	p.transposition = core.Clamp(k, 0, 1)

	f := FrequencyFromTransposition(k)
	if p.saw.Started() && f == p.saw.Frequency() {
		return
	}

	_ = p.saw.Retune(f, p.ctx.CurrentTime())
}

// Transposition returns the current knob value.
func (p *SimplePitchShifter) Transposition() float64 { return p.transposition }

// Frequency returns the sawtooth frequency in Hz.
func (p *SimplePitchShifter) Frequency() float64 { return p.saw.Frequency() }

// Start starts the sawtooth.
func (p *SimplePitchShifter) Start(when float64) error {
	if p.closed {
		return modulation.ErrClosed
	}

	return p.saw.Start(when)
}

// Close stops the sawtooth and disconnects the unit.
func (p *SimplePitchShifter) Close() {
	if p.closed {
		return
	}

	p.closed = true
	p.saw.Close()

	for _, n := range []graph.Node{p.input, p.delay, p.sweep, p.output} {
		n.Disconnect()
	}
}
