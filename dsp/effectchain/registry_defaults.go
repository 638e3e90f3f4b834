package effectchain

import (
	"github.com/cwbudde/effectrack/dsp/core"
	"github.com/cwbudde/effectrack/dsp/effects"
	"github.com/cwbudde/effectrack/dsp/effects/modulation"
	"github.com/cwbudde/effectrack/dsp/effects/pitch"
	"github.com/cwbudde/effectrack/dsp/effects/reverb"
)

var waveChoices = []string{"sine", "square", "sawtooth", "triangle"}

func unitKnobs(names ...string) []Knob {
	knobs := make([]Knob, len(names))
	for i, n := range names {
		knobs[i] = Knob{Name: n, Min: 0, Max: 1}
	}

	return knobs
}

// DefaultRegistry returns a Registry pre-populated with all built-in effects
// and the default knob values of the rack.
//
//nolint:funlen
func DefaultRegistry() *Registry {
	r := NewRegistry()
	synthetic := &syntheticImpulse{}

	r.MustRegister("pitch", Descriptor{
		Factory: func(ctx Context) (Runtime, error) {
			fx, err := pitch.NewPitchShifter(ctx.Graph, pitch.Options{})
			if err != nil {
				return nil, err
			}

			return &pitchRuntime{PitchShifter: fx}, nil
		},
		Defaults: Params{Num: map[string]float64{"transposition": 0.85}},
		Knobs:    unitKnobs("transposition"),
	})

	r.MustRegister("vibrato", Descriptor{
		Factory: func(ctx Context) (Runtime, error) {
			fx, err := modulation.NewVibrato(ctx.Graph, modulation.VibratoOptions{})
			if err != nil {
				return nil, err
			}

			return &vibratoRuntime{Vibrato: fx}, nil
		},
		Defaults: Params{Num: map[string]float64{"depth": 0.5, "rate": modulation.DefaultVibratoRate}},
		Knobs:    unitKnobs("depth", "rate"),
	})

	r.MustRegister("delay", Descriptor{
		Factory: func(ctx Context) (Runtime, error) {
			fx, err := effects.NewTapeDelay(ctx.Graph, effects.TapeDelayOptions{})
			if err != nil {
				return nil, err
			}

			return &tapeDelayRuntime{TapeDelay: fx}, nil
		},
		Defaults: Params{Num: map[string]float64{"time": 0.1, "depth": 0.5}},
		Knobs:    unitKnobs("time", "depth"),
	})

	r.MustRegister("flanger", Descriptor{
		Factory: func(ctx Context) (Runtime, error) {
			fx, err := modulation.NewFlanger(ctx.Graph, modulation.FlangerOptions{})
			if err != nil {
				return nil, err
			}

			return &flangerRuntime{Flanger: fx}, nil
		},
		Defaults: Params{
			Num: map[string]float64{"time": 0.5, "speed": 0.5, "depth": 0.9, "feedback": 0.9, "mix": 0.5},
			Str: map[string]string{"wave": "sine"},
		},
		Knobs: append(unitKnobs("time", "speed", "depth", "feedback", "mix"),
			Knob{Name: "wave", Choices: waveChoices}),
	})

	r.MustRegister("reverb", Descriptor{
		Factory: func(ctx Context) (Runtime, error) {
			fx, err := reverb.NewConvolutionReverb(ctx.Graph, reverb.Options{})
			if err != nil {
				return nil, err
			}

			return &reverbRuntime{ConvolutionReverb: fx, ctx: ctx, synthetic: synthetic}, nil
		},
		Defaults: Params{
			Num: map[string]float64{"mix": 1, "normalize": 1},
			Str: map[string]string{"impulse": SyntheticImpulseName},
		},
		Knobs: append(unitKnobs("mix"), Knob{Name: "impulse"}),
	})

	r.MustRegister("crossfade", Descriptor{
		Factory: func(ctx Context) (Runtime, error) {
			rt, err := newCrossfadeRuntime(ctx.Graph)
			if err != nil {
				return nil, err
			}

			return rt, nil
		},
		Defaults: Params{
			Num: map[string]float64{"frequency": 2},
			Str: map[string]string{"wave": "sine"},
		},
		Knobs: []Knob{
			{Name: "frequency", Min: 0, Max: 20},
			{Name: "wave", Choices: waveChoices},
		},
	})

	return r
}

// normalizeKnob clamps a knob of d to its range. Selector knobs and
// unknown keys pass through.
func (d Descriptor) normalizeKnob(key string, v float64) float64 {
	for _, k := range d.Knobs {
		if k.Name == key && k.Choices == nil && k.Max > k.Min {
			return core.Clamp(v, k.Min, k.Max)
		}
	}

	return v
}
