package reverb

import (
	"github.com/cwbudde/effectrack/dsp/audioio"
	"github.com/cwbudde/effectrack/dsp/buffer"
	"github.com/cwbudde/effectrack/dsp/core"
	"github.com/cwbudde/effectrack/dsp/graph"
)

// Options configures a ConvolutionReverb.
type Options struct {
	// Impulse is the room response. It is resampled to the context rate and
	// downmixed to mono.
	Impulse core.Optional[*buffer.AudioBuffer]
	// Normalize applies the Web Audio loudness normalization. Default true.
	Normalize core.Optional[bool]
	// Mix is the wet share in [0, 1]. Default 1.
	Mix core.Optional[float64]
}

// ConvolutionReverb convolves its input with a room impulse response.
//
//	input -> dry -> output
//	input -> convolver -> wet -> output
type ConvolutionReverb struct {
	audioio.IO

	input, output *graph.Gain
	convolver     *graph.Convolver
	dry, wet      *graph.Gain

	err    error
	closed bool
}

// NewConvolutionReverb builds a reverb. Without an impulse it is silent on
// the wet path.
func NewConvolutionReverb(ctx *graph.Context, opts Options) (*ConvolutionReverb, error) {
	r := &ConvolutionReverb{
		input:     graph.NewGain(ctx, 1),
		output:    graph.NewGain(ctx, 1),
		convolver: graph.NewConvolver(ctx),
		dry:       graph.NewGain(ctx, 0),
		wet:       graph.NewGain(ctx, 1),
	}
	r.IO = audioio.NewIO(r.input, r.output)

	r.input.Connect(r.dry)
	r.input.Connect(r.convolver)
	r.convolver.Connect(r.wet)
	r.dry.Connect(r.output)
	r.wet.Connect(r.output)

	r.SetOptions(opts)
	if r.err != nil {
		return nil, r.err
	}

	return r, nil
}

// SetOptions applies the set fields live. Normalize is applied before a
// new impulse in the same call. A failed impulse update is kept for Err.
func (r *ConvolutionReverb) SetOptions(opts Options) *ConvolutionReverb {
	if on, ok := opts.Normalize.Get(); ok && on != r.convolver.Normalize() {
		r.convolver.SetNormalize(on)

		if _, fresh := opts.Impulse.Get(); !fresh && r.convolver.Buffer() != nil {
			r.err = r.convolver.SetBuffer(r.convolver.Buffer())
		}
	}

	if ir, ok := opts.Impulse.Get(); ok {
		r.err = r.SetImpulse(ir)
	}

	if v, ok := opts.Mix.Get(); ok {
		dry, wet := core.MixToDryWet(v)
		r.dry.Gain().SetValue(dry)
		r.wet.Gain().SetValue(wet)
	}

	return r
}

// SetImpulse installs a new impulse response. A nil buffer silences the
// wet path.
func (r *ConvolutionReverb) SetImpulse(ir *buffer.AudioBuffer) error {
	return r.convolver.SetBuffer(ir)
}

// Impulse returns the current impulse response.
func (r *ConvolutionReverb) Impulse() *buffer.AudioBuffer { return r.convolver.Buffer() }

// Normalize reports whether impulses are normalized.
func (r *ConvolutionReverb) Normalize() bool { return r.convolver.Normalize() }

// Mix returns the dry and wet gains.
func (r *ConvolutionReverb) Mix() (dry, wet float64) {
	return r.dry.Gain().Value(), r.wet.Gain().Value()
}

// Err returns the error of the last impulse update made by SetOptions.
func (r *ConvolutionReverb) Err() error { return r.err }

// Close disconnects the unit.
func (r *ConvolutionReverb) Close() {
	if r.closed {
		return
	}

	r.closed = true
	for _, n := range []graph.Node{r.input, r.dry, r.convolver, r.wet, r.output} {
		n.Disconnect()
	}
}
