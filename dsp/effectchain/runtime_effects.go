package effectchain

import (
	"fmt"
	"sync"

	"github.com/cwbudde/effectrack/dsp/audioio"
	"github.com/cwbudde/effectrack/dsp/buffer"
	"github.com/cwbudde/effectrack/dsp/core"
	"github.com/cwbudde/effectrack/dsp/effects"
	"github.com/cwbudde/effectrack/dsp/effects/modulation"
	"github.com/cwbudde/effectrack/dsp/effects/pitch"
	"github.com/cwbudde/effectrack/dsp/effects/reverb"
	"github.com/cwbudde/effectrack/dsp/graph"
)

// num converts a knob into an Optional that is set only when present.
func num(p Params, key string) core.Optional[float64] {
	if v, ok := p.LookupNum(key); ok {
		return core.Some(v)
	}

	return core.Optional[float64]{}
}

func wave(p Params, key string) (core.Optional[graph.WaveType], error) {
	name, ok := p.Str[key]
	if !ok {
		return core.Optional[graph.WaveType]{}, nil
	}

	w, err := graph.ParseWaveType(name)
	if err != nil {
		return core.Optional[graph.WaveType]{}, err
	}

	return core.Some(w), nil
}

type pitchRuntime struct {
	*pitch.PitchShifter
}

func (r *pitchRuntime) Configure(p Params) error {
	r.SetOptions(pitch.Options{Transposition: num(p, "transposition")})
	return nil
}

type vibratoRuntime struct {
	*modulation.Vibrato
}

func (r *vibratoRuntime) Configure(p Params) error {
	depth := num(p, "depth")
	if alias := num(p, "transposition"); alias.IsSet() {
		depth = alias
	}

	r.SetOptions(modulation.VibratoOptions{Depth: depth, Rate: num(p, "rate")})

	return nil
}

type tapeDelayRuntime struct {
	*effects.TapeDelay
}

func (r *tapeDelayRuntime) Configure(p Params) error {
	r.SetOptions(effects.TapeDelayOptions{Time: num(p, "time"), Depth: num(p, "depth")})
	return nil
}

type flangerRuntime struct {
	*modulation.Flanger
}

func (r *flangerRuntime) Configure(p Params) error {
	w, err := wave(p, "wave")
	if err != nil {
		return err
	}

	r.SetOptions(modulation.FlangerOptions{
		Time:     num(p, "time"),
		Speed:    num(p, "speed"),
		Depth:    num(p, "depth"),
		Feedback: num(p, "feedback"),
		Mix:      num(p, "mix"),
		Wave:     w,
	})

	return nil
}

// crossfadeRuntime fades its input in and out: the input feeds the left
// side and the right side stays silent.
type crossfadeRuntime struct {
	*modulation.Crossfade
	input *graph.Gain
}

func newCrossfadeRuntime(ctx *graph.Context) (*crossfadeRuntime, error) {
	input := graph.NewGain(ctx, 1)

	cf, err := modulation.NewCrossfade(ctx, modulation.CrossfadeOptions{
		LeftInput: core.Some(audioio.Node(input)),
	})
	if err != nil {
		return nil, err
	}

	return &crossfadeRuntime{Crossfade: cf, input: input}, nil
}

func (r *crossfadeRuntime) Input() graph.Node { return r.input }

func (r *crossfadeRuntime) Configure(p Params) error {
	w, err := wave(p, "wave")
	if err != nil {
		return err
	}

	r.SetOptions(modulation.CrossfadeOptions{Frequency: num(p, "frequency"), Type: w})

	return nil
}

func (r *crossfadeRuntime) Close() {
	r.Crossfade.Close()
	r.input.Disconnect()
}

type reverbRuntime struct {
	*reverb.ConvolutionReverb
	ctx       Context
	synthetic *syntheticImpulse
	impulse   string
}

func (r *reverbRuntime) Configure(p Params) error {
	opts := reverb.Options{Mix: num(p, "mix")}
	if v, ok := p.LookupNum("normalize"); ok {
		opts.Normalize = core.Some(v != 0)
	}

	name := p.GetStr("impulse", r.impulse)
	if name != r.impulse || r.Impulse() == nil {
		ir, err := r.lookup(name)
		if err != nil {
			return err
		}

		opts.Impulse = core.Some(ir)
		r.impulse = name
	}

	r.SetOptions(opts)

	return r.Err()
}

func (r *reverbRuntime) lookup(name string) (*buffer.AudioBuffer, error) {
	if r.ctx.IRs != nil {
		if ir, ok := r.ctx.IRs.Impulse(name); ok {
			return ir, nil
		}
	}

	if name == SyntheticImpulseName {
		return r.synthetic.get(r.ctx.Graph.SampleRate())
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownImpulse, name)
}

// SyntheticImpulseName selects the generated room impulse, which is used
// when the impulse library has no entry of that name.
const SyntheticImpulseName = "room"

// syntheticImpulse renders the built-in room once per sample rate.
type syntheticImpulse struct {
	mu   sync.Mutex
	rate float64
	ir   *buffer.AudioBuffer
}

func (s *syntheticImpulse) get(rate float64) (*buffer.AudioBuffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ir != nil && s.rate == rate {
		return s.ir, nil
	}

	ir, err := reverb.SyntheticImpulse(rate, reverb.ImpulseOptions{})
	if err != nil {
		return nil, err
	}

	s.rate, s.ir = rate, ir

	return ir, nil
}
