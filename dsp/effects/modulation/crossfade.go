package modulation

import (
	"fmt"

	"github.com/cwbudde/effectrack/dsp/audioio"
	"github.com/cwbudde/effectrack/dsp/core"
	"github.com/cwbudde/effectrack/dsp/graph"
)

// leftEnvelopePhase is the start phase of the envelope oscillator, in
// cycles. A quarter cycle turns the sine envelope into (1+cos)/2, so the
// left gain starts fully open.
const leftEnvelopePhase = 0.25

// CrossfadeOptions configures a Crossfade. Unset fields keep their current
// value.
type CrossfadeOptions struct {
	Frequency  core.Optional[float64]
	Type       core.Optional[graph.WaveType]
	LeftInput  core.Optional[audioio.Endpoint]
	RightInput core.Optional[audioio.Endpoint]
	AutoStart  core.Optional[bool]
}

// Crossfade fades periodically between a left and a right input. A unipolar
// oscillator drives the left gain; the right gain is one minus the same
// envelope, so the two gains sum to one at every sample for any waveform.
//
//	osc -> leftGain.gain
//	osc -> invert(-1) -> rightGain.gain (intrinsic 1)
type Crossfade struct {
	audioio.IO

	ctx       *graph.Context
	osc       *CustomOscillator
	invert    *graph.Gain
	leftGain  *graph.Gain
	rightGain *graph.Gain

	left, right audioio.Endpoint
	closed      bool
}

// NewCrossfade builds a crossfade. The frequency defaults to 440 Hz.
func NewCrossfade(ctx *graph.Context, opts CrossfadeOptions) (*Crossfade, error) {
	io := graph.NewGain(ctx, 1)

	c := &Crossfade{
		IO:        audioio.NewIO(io, io),
		ctx:       ctx,
		invert:    graph.NewGain(ctx, -1),
		leftGain:  graph.NewGain(ctx, 0),
		rightGain: graph.NewGain(ctx, 1),
		osc: NewCustomOscillator(ctx, CustomOscillatorOptions{
			Frequency: core.Some(SnapFrequency(opts.Frequency.Or(DefaultOscillatorFrequency))),
			Type:      opts.Type,
			Phase:     core.Some(leftEnvelopePhase),
			AutoStart: core.Some(false),
		}),
	}

	c.osc.ConnectParam(c.leftGain.Gain())
	c.osc.Connect(audioio.Node(c.invert))
	c.invert.ConnectParam(c.rightGain.Gain())

	c.leftGain.Connect(io)
	c.rightGain.Connect(io)

	c.SetOptions(CrossfadeOptions{
		LeftInput:  opts.LeftInput,
		RightInput: opts.RightInput,
	})

	if opts.AutoStart.Or(true) {
		if err := c.Start(ctx.CurrentTime()); err != nil {
			c.Close()
			return nil, fmt.Errorf("modulation: crossfade: %w", err)
		}
	}

	return c, nil
}

// SetOptions applies the set fields live.
func (c *Crossfade) SetOptions(opts CrossfadeOptions) *Crossfade {
	if e, ok := opts.LeftInput.Get(); ok {
		c.SetLeftInput(e)
	}

	if e, ok := opts.RightInput.Get(); ok {
		c.SetRightInput(e)
	}

	if w, ok := opts.Type.Get(); ok {
		c.osc.SetType(w)
	}

	if f, ok := opts.Frequency.Get(); ok {
		c.SetFrequency(f)
	}

	return c
}

// SetLeftInput replaces the left input. The previous one is disconnected
// from the crossfade first.
func (c *Crossfade) SetLeftInput(e audioio.Endpoint) {
	audioio.DisconnectFrom(c.left, audioio.Node(c.leftGain))
	c.left = e
	audioio.Connect(e, audioio.Node(c.leftGain))
}

// SetRightInput replaces the right input.
func (c *Crossfade) SetRightInput(e audioio.Endpoint) {
	audioio.DisconnectFrom(c.right, audioio.Node(c.rightGain))
	c.right = e
	audioio.Connect(e, audioio.Node(c.rightGain))
}

// LeftInput returns the current left input.
func (c *Crossfade) LeftInput() audioio.Endpoint { return c.left }

// RightInput returns the current right input.
func (c *Crossfade) RightInput() audioio.Endpoint { return c.right }

// Frequency returns the fade frequency in Hz.
func (c *Crossfade) Frequency() float64 { return c.osc.Frequency() }

// SetFrequency changes the fade frequency now. Setting the current
// frequency again leaves the running envelope untouched.
func (c *Crossfade) SetFrequency(f float64) {
	if !core.IsFinite(f) || (c.osc.Started() && SnapFrequency(f) == c.osc.Frequency()) {
		return
	}

	_ = c.Retune(f, c.ctx.CurrentTime())
}

// Retune changes the fade frequency with a fresh envelope that starts at
// context time when with the left gain fully open. Frequencies below
// MinFrequency in magnitude snap to 0, which freezes the envelope.
func (c *Crossfade) Retune(f, when float64) error {
	if !core.IsFinite(f) {
		return nil
	}

	return c.osc.Retune(SnapFrequency(f), when)
}

// Type returns the envelope waveform.
func (c *Crossfade) Type() graph.WaveType { return c.osc.Type() }

// LeftGain returns the gain param driven by the left envelope.
func (c *Crossfade) LeftGain() *graph.Param { return c.leftGain.Gain() }

// RightGain returns the gain param driven by the right envelope.
func (c *Crossfade) RightGain() *graph.Param { return c.rightGain.Gain() }

// Start starts the envelope oscillator.
func (c *Crossfade) Start(when float64) error {
	if c.closed {
		return ErrClosed
	}

	return c.osc.Start(when)
}

// Close disconnects both inputs and stops the envelope.
func (c *Crossfade) Close() {
	if c.closed {
		return
	}

	c.closed = true
	c.SetLeftInput(audioio.None)
	c.SetRightInput(audioio.None)
	c.osc.Close()

	for _, n := range []graph.Node{c.invert, c.leftGain, c.rightGain} {
		n.Disconnect()
	}
	c.Disconnect()
}
