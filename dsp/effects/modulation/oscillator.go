package modulation

import (
	"errors"

	"github.com/cwbudde/effectrack/dsp/audioio"
	"github.com/cwbudde/effectrack/dsp/core"
	"github.com/cwbudde/effectrack/dsp/graph"
)

// ErrClosed is returned when starting a unit after Close.
var ErrClosed = errors.New("modulation: unit is closed")

// DefaultOscillatorFrequency is A4.
const DefaultOscillatorFrequency = 440.0

// CustomOscillatorOptions configures a CustomOscillator. Unset fields keep
// their current value.
type CustomOscillatorOptions struct {
	Frequency core.Optional[float64]
	Type      core.Optional[graph.WaveType]
	// Phase is the start phase in cycles. Every Retune starts the fresh
	// oscillator at this phase. Default 0.
	Phase core.Optional[float64]
	// AutoStart starts the oscillator on construction. Default true.
	AutoStart core.Optional[bool]
}

// CustomOscillator is a unipolar oscillator: its output swings in [0, 1]
// instead of [-1, 1]. It is the modulation source of the effects in this
// package.
//
// The running oscillator is an owned slot: Retune stops and drops it and
// installs a fresh one, because a started oscillator cannot be restarted.
type CustomOscillator struct {
	audioio.IO

	ctx    *graph.Context
	osc    *graph.Oscillator
	offset *graph.ConstantSource
	joiner *graph.Gain

	frequency float64
	wave      graph.WaveType
	phase     float64
	started   bool
	closed    bool
}

// NewCustomOscillator builds a unipolar oscillator.
func NewCustomOscillator(ctx *graph.Context, opts CustomOscillatorOptions) *CustomOscillator {
	io := graph.NewGain(ctx, 1)

	o := &CustomOscillator{
		IO:        audioio.NewIO(io, io),
		ctx:       ctx,
		offset:    graph.NewConstantSource(ctx, 1),
		joiner:    graph.NewGain(ctx, 0.5),
		frequency: opts.Frequency.Or(DefaultOscillatorFrequency),
		wave:      opts.Type.Or(graph.Sine),
		phase:     opts.Phase.Or(0),
	}

	// The offset runs for the whole lifetime of the unit.
	_ = o.offset.Start(ctx.CurrentTime())

	o.offset.Connect(o.joiner)
	o.joiner.Connect(io)
	o.install()

	if opts.AutoStart.Or(true) {
		_ = o.Start(ctx.CurrentTime())
	}

	return o
}

func (o *CustomOscillator) install() {
	o.osc = graph.NewOscillator(o.ctx, o.wave, o.frequency)
	o.osc.SetPhase(o.phase)
	o.osc.Connect(o.joiner)
}

// SetOptions applies the set fields live. AutoStart is only read on
// construction.
func (o *CustomOscillator) SetOptions(opts CustomOscillatorOptions) *CustomOscillator {
	if f, ok := opts.Frequency.Get(); ok {
		o.SetFrequency(f)
	}

	if w, ok := opts.Type.Get(); ok {
		o.SetType(w)
	}

	return o
}

// Frequency returns the oscillator frequency in Hz.
func (o *CustomOscillator) Frequency() float64 { return o.frequency }

// SetFrequency changes the frequency of the running oscillator.
func (o *CustomOscillator) SetFrequency(f float64) {
	if !core.IsFinite(f) {
		return
	}

	o.frequency = f
	o.osc.Frequency().SetValue(f)
}

// FrequencyParam exposes the frequency of the current oscillator for
// modulation. The param changes identity on Retune.
func (o *CustomOscillator) FrequencyParam() *graph.Param { return o.osc.Frequency() }

// Type returns the waveform.
func (o *CustomOscillator) Type() graph.WaveType { return o.wave }

// SetType changes the waveform.
func (o *CustomOscillator) SetType(w graph.WaveType) {
	o.wave = w
	o.osc.SetType(w)
}

// StartPhase returns the phase, in cycles, each fresh oscillator starts at.
func (o *CustomOscillator) StartPhase() float64 { return o.phase }

// Started reports whether Start has been called.
func (o *CustomOscillator) Started() bool { return o.started }

// Start starts the oscillator at context time when. A second call returns
// graph.ErrAlreadyStarted.
func (o *CustomOscillator) Start(when float64) error {
	if o.closed {
		return ErrClosed
	}

	if o.started {
		return graph.ErrAlreadyStarted
	}

	if err := o.osc.Start(when); err != nil {
		return err
	}

	o.started = true

	return nil
}

// Retune replaces the running oscillator with a fresh one at frequency f
// whose start phase begins at context time when. Coupled oscillators retuned with
// the same when stay phase aligned. Before Start it only sets the
// frequency.
func (o *CustomOscillator) Retune(f, when float64) error {
	if !core.IsFinite(f) {
		return nil
	}

	o.frequency = f
	if !o.started || o.closed {
		o.osc.Frequency().SetValue(f)
		return nil
	}

	old := o.osc
	_ = old.Stop(when)
	old.Disconnect()

	o.install()

	return o.osc.Start(when)
}

// Close stops every source and disconnects the unit. A closed oscillator
// cannot be started again.
func (o *CustomOscillator) Close() {
	if o.closed {
		return
	}

	o.closed = true
	now := o.ctx.CurrentTime()

	if o.started {
		_ = o.osc.Stop(now)
	}
	_ = o.offset.Stop(now)

	o.osc.Disconnect()
	o.offset.Disconnect()
	o.joiner.Disconnect()
	o.Disconnect()
}
