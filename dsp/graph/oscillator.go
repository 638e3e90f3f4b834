package graph

import (
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/effectrack/dsp/core"
)

// WaveType selects the oscillator waveform.
type WaveType int

const (
	Sine WaveType = iota
	Square
	Sawtooth
	Triangle
)

var waveNames = [...]string{"sine", "square", "sawtooth", "triangle"}

func (w WaveType) String() string {
	if w < 0 || int(w) >= len(waveNames) {
		return fmt.Sprintf("WaveType(%d)", int(w))
	}

	return waveNames[w]
}

// ParseWaveType maps a name such as "sine" to its WaveType.
func ParseWaveType(name string) (WaveType, error) {
	for i, n := range waveNames {
		if strings.EqualFold(name, n) {
			return WaveType(i), nil
		}
	}

	return Sine, fmt.Errorf("graph: unknown wave type %q", name)
}

// Oscillator generates a periodic waveform at the frequency param, in Hz.
// Waveforms follow the Web Audio phase conventions: sine, sawtooth and
// triangle start at 0 and rise, square starts at +1. Negative frequencies
// run the phase backwards.
type Oscillator struct {
	node
	playback

	frequency *Param
	wave      WaveType
	phase     float64
}

// NewOscillator returns a stopped oscillator.
func NewOscillator(ctx *Context, wave WaveType, frequency float64) *Oscillator {
	o := &Oscillator{wave: wave}
	o.init(ctx, o)

	nyquist := ctx.cfg.SampleRate / 2
	o.frequency = newParam(&o.node, "frequency", frequency, -nyquist, nyquist)

	return o
}

// Frequency returns the frequency param.
func (o *Oscillator) Frequency() *Param { return o.frequency }

// Type returns the waveform.
func (o *Oscillator) Type() WaveType { return o.wave }

// SetType changes the waveform without resetting the phase.
func (o *Oscillator) SetType(w WaveType) { o.wave = w }

// SetPhase moves the oscillator to the given position in its cycle, in
// cycles. Only the fractional part is kept, so 0.25 and -0.75 are the same
// phase. Calling it before Start sets the start phase.
func (o *Oscillator) SetPhase(cycles float64) {
	if !core.IsFinite(cycles) {
		return
	}

	o.phase = core.Frac(cycles)
}

// Phase returns the current position in the cycle, in [0, 1).
func (o *Oscillator) Phase() float64 { return o.phase }

// Start begins playback at context time when. An oscillator can be started
// once.
func (o *Oscillator) Start(when float64) error {
	return o.start(&o.node, o, when)
}

// Stop ends playback at context time when. A stopped oscillator cannot be
// restarted.
func (o *Oscillator) Stop(when float64) error {
	return o.stop(&o.node, when)
}

// Ended reports whether the oscillator has stopped.
func (o *Oscillator) Ended() bool {
	return o.finished(o.ctx.frame.Load())
}

func (o *Oscillator) process(frame int64, _, out []float64) {
	clear(out)

	from, to := o.window(frame, len(out))
	inc := 1 / o.ctx.cfg.SampleRate
	freq := o.frequency.buf

	for i := from; i < to; i++ {
		out[i] = waveform(o.wave, o.phase)
		o.phase = core.Frac(o.phase + freq[i]*inc)
	}
}

// waveform evaluates w at phase in [0, 1).
func waveform(w WaveType, phase float64) float64 {
	switch w {
	case Square:
		if phase < 0.5 {
			return 1
		}
		return -1
	case Sawtooth:
		if phase < 0.5 {
			return 2 * phase
		}
		return 2*phase - 2
	case Triangle:
		switch {
		case phase < 0.25:
			return 4 * phase
		case phase < 0.75:
			return 2 - 4*phase
		default:
			return 4*phase - 4
		}
	default:
		return math.Sin(2 * math.Pi * phase)
	}
}
