package modulation

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/cwbudde/effectrack/dsp/audioio"
	"github.com/cwbudde/effectrack/dsp/core"
	"github.com/cwbudde/effectrack/dsp/graph"
	"github.com/cwbudde/effectrack/internal/testutil"
)

func newTestContext() *graph.Context {
	return graph.NewContext(core.WithSampleRate(48000), core.WithBlockSize(128))
}

func renderQuanta(ctx *graph.Context, n int) []float64 {
	out := make([]float64, n*ctx.BlockSize())
	ctx.RenderFloat64(out)
	return out
}

func TestSnapFrequency(t *testing.T) {
	for _, f := range []float64{0, 0.1, -0.2, math.NaN(), math.Inf(1)} {
		if got := SnapFrequency(f); got != 0 {
			t.Fatalf("SnapFrequency(%v) = %v, want 0", f, got)
		}
	}

	if got := SnapFrequency(-3); got != -3 {
		t.Fatalf("SnapFrequency(-3) = %v, want -3", got)
	}
}

func TestCustomOscillatorIsUnipolar(t *testing.T) {
	ctx := newTestContext()
	osc := NewCustomOscillator(ctx, CustomOscillatorOptions{Frequency: core.Some(250.0)})
	osc.Connect(audioio.Node(ctx.Destination()))

	out := renderQuanta(ctx, 16)
	testutil.RequireFinite(t, out)

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range out {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	if lo < -1e-9 || hi > 1+1e-9 {
		t.Fatalf("output range = [%v, %v], want within [0, 1]", lo, hi)
	}
	if lo > 0.01 || hi < 0.99 {
		t.Fatalf("output range = [%v, %v], want a full swing", lo, hi)
	}

	// A sine starts at its midpoint.
	testutil.RequireNearlyEqual(t, "first sample", out[0], 0.5, 1e-12)
}

func TestCustomOscillatorStartContract(t *testing.T) {
	ctx := newTestContext()
	osc := NewCustomOscillator(ctx, CustomOscillatorOptions{AutoStart: core.Some(false)})
	osc.Connect(audioio.Node(ctx.Destination()))

	// Not started: only the offset contributes.
	out := renderQuanta(ctx, 1)
	testutil.RequireSliceNearlyEqual(t, out[:4], []float64{0.5, 0.5, 0.5, 0.5}, 1e-12)

	if osc.Started() {
		t.Fatal("Started() = true before Start")
	}

	if err := osc.Start(ctx.CurrentTime()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := osc.Start(ctx.CurrentTime()); !errors.Is(err, graph.ErrAlreadyStarted) {
		t.Fatalf("second Start() error = %v, want ErrAlreadyStarted", err)
	}

	osc.Close()
	osc.Close()

	if err := osc.Start(0); !errors.Is(err, ErrClosed) {
		t.Fatalf("Start() after Close error = %v, want ErrClosed", err)
	}

	out = renderQuanta(ctx, 2)
	testutil.RequireSliceNearlyEqual(t, out, make([]float64, len(out)), 0)
}

func TestCustomOscillatorRetune(t *testing.T) {
	ctx := newTestContext()
	osc := NewCustomOscillator(ctx, CustomOscillatorOptions{
		Frequency: core.Some(100.0),
		Type:      core.Some(graph.Sawtooth),
	})
	osc.Connect(audioio.Node(ctx.Destination()))
	renderQuanta(ctx, 3)

	if err := osc.Retune(375, ctx.CurrentTime()); err != nil {
		t.Fatalf("Retune() error = %v", err)
	}

	if got := osc.Frequency(); got != 375 {
		t.Fatalf("Frequency() = %v, want 375", got)
	}
	if got := osc.FrequencyParam().Value(); got != 375 {
		t.Fatalf("FrequencyParam().Value() = %v, want 375", got)
	}

	// The fresh sawtooth restarts at phase 0: 0.5, rising by 375/48000.
	out := renderQuanta(ctx, 1)
	testutil.RequireNearlyEqual(t, "first sample", out[0], 0.5, 1e-12)
	testutil.RequireNearlyEqual(t, "second sample", out[1], 0.5+375.0/48000, 1e-9)

	if !osc.Started() {
		t.Fatal("Started() = false after Retune")
	}
}

func TestCustomOscillatorStartPhase(t *testing.T) {
	ctx := newTestContext()
	osc := NewCustomOscillator(ctx, CustomOscillatorOptions{
		Frequency: core.Some(100.0),
		Type:      core.Some(graph.Sawtooth),
		Phase:     core.Some(0.5),
	})
	osc.Connect(audioio.Node(ctx.Destination()))

	if got := osc.StartPhase(); got != 0.5 {
		t.Fatalf("StartPhase() = %v, want 0.5", got)
	}

	// Half a cycle in, the sawtooth sits at the bottom of its ramp.
	out := renderQuanta(ctx, 2)
	testutil.RequireNearlyEqual(t, "first sample", out[0], 0, 1e-12)
	testutil.RequireNearlyEqual(t, "second sample", out[1], 100.0/48000, 1e-9)

	if err := osc.Retune(200, ctx.CurrentTime()); err != nil {
		t.Fatalf("Retune() error = %v", err)
	}

	out = renderQuanta(ctx, 1)
	testutil.RequireNearlyEqual(t, "first sample after Retune", out[0], 0, 1e-12)
	testutil.RequireNearlyEqual(t, "second sample after Retune", out[1], 200.0/48000, 1e-9)
}

// requireUnitSum fails unless the crossfade gains of the last rendered
// quantum sum to one at every sample.
func requireUnitSum(t *testing.T, cf *Crossfade, label string) {
	t.Helper()

	left, right := cf.LeftGain().Values(), cf.RightGain().Values()
	for i := range left {
		if s := left[i] + right[i]; math.Abs(s-1) > 1e-9 {
			t.Fatalf("%s sample %d: left+right = %v, want 1", label, i, s)
		}
	}
}

func TestCrossfadeConstantSum(t *testing.T) {
	tests := []struct {
		name string
		f    float64
		wave graph.WaveType
	}{
		{name: "sine", f: 100, wave: graph.Sine},
		{name: "sine backwards", f: -100, wave: graph.Sine},
		{name: "triangle", f: 60, wave: graph.Triangle},
		{name: "square", f: 30, wave: graph.Square},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := newTestContext()
			cf, err := NewCrossfade(ctx, CrossfadeOptions{
				Frequency: core.Some(tt.f),
				Type:      core.Some(tt.wave),
				AutoStart: core.Some(false),
			})
			if err != nil {
				t.Fatalf("NewCrossfade() error = %v", err)
			}
			cf.Connect(audioio.Node(ctx.Destination()))

			// Before Start the envelope rests at its midpoint.
			renderQuanta(ctx, 1)
			requireUnitSum(t, cf, "stopped")
			testutil.RequireNearlyEqual(t, "stopped left gain", cf.LeftGain().Values()[0], 0.5, 1e-12)

			if err := cf.Start(ctx.CurrentTime()); err != nil {
				t.Fatalf("Start() error = %v", err)
			}

			retunes := map[int]float64{3: 37, 7: -250, 11: 0.1, 14: tt.f}
			for q := 0; q < 20; q++ {
				if f, ok := retunes[q]; ok {
					cf.SetFrequency(f)
				}

				renderQuanta(ctx, 1)
				requireUnitSum(t, cf, fmt.Sprintf("quantum %d", q))

				if _, ok := retunes[q]; (ok || q == 0) && tt.wave == graph.Sine {
					testutil.RequireNearlyEqual(t, "left gain at envelope start", cf.LeftGain().Values()[0], 1, 1e-12)
				}
			}
		})
	}
}

func TestCrossfadeSameFrequencyKeepsEnvelope(t *testing.T) {
	build := func() (*graph.Context, *Crossfade) {
		ctx := newTestContext()
		cf, err := NewCrossfade(ctx, CrossfadeOptions{Frequency: core.Some(5.0)})
		if err != nil {
			t.Fatalf("NewCrossfade() error = %v", err)
		}
		cf.Connect(audioio.Node(ctx.Destination()))

		return ctx, cf
	}

	ctx, cf := build()
	refCtx, ref := build()

	renderQuanta(ctx, 400)
	renderQuanta(refCtx, 400)

	param := cf.osc.FrequencyParam()
	cf.SetOptions(CrossfadeOptions{Frequency: core.Some(5.0), Type: core.Some(graph.Sine)})
	cf.SetFrequency(5)

	if cf.osc.FrequencyParam() != param {
		t.Fatal("setting the running frequency replaced the envelope oscillator")
	}

	for q := 0; q < 50; q++ {
		renderQuanta(ctx, 1)
		renderQuanta(refCtx, 1)

		testutil.RequireSliceNearlyEqual(t, cf.LeftGain().Values(), ref.LeftGain().Values(), 1e-12)
		requireUnitSum(t, cf, fmt.Sprintf("quantum %d", q))
	}
}

func TestModulationUnitsReleaseSourcesOnClose(t *testing.T) {
	tests := []struct {
		name  string
		build func(*graph.Context) (interface{ Close() }, error)
	}{
		{name: "crossfade", build: func(ctx *graph.Context) (interface{ Close() }, error) {
			return NewCrossfade(ctx, CrossfadeOptions{Frequency: core.Some(3.0)})
		}},
		{name: "flanger", build: func(ctx *graph.Context) (interface{ Close() }, error) {
			return NewFlanger(ctx, FlangerOptions{Speed: core.Some(0.5)})
		}},
		{name: "vibrato", build: func(ctx *graph.Context) (interface{ Close() }, error) {
			return NewVibrato(ctx, VibratoOptions{})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := newTestContext()

			unit, err := tt.build(ctx)
			if err != nil {
				t.Fatalf("build error = %v", err)
			}

			renderQuanta(ctx, 2)
			if ctx.ActiveSources() == 0 {
				t.Fatal("ActiveSources() = 0 for a running unit")
			}

			unit.Close()
			renderQuanta(ctx, 1)

			if got := ctx.ActiveSources(); got != 0 {
				t.Fatalf("ActiveSources() = %d after Close, want 0", got)
			}
		})
	}
}

func TestCrossfadeGatesInputs(t *testing.T) {
	ctx := newTestContext()

	left := graph.NewConstantSource(ctx, 1)
	right := graph.NewConstantSource(ctx, 1)
	for _, s := range []*graph.ConstantSource{left, right} {
		if err := s.Start(0); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
	}

	cf, err := NewCrossfade(ctx, CrossfadeOptions{
		Frequency:  core.Some(100.0),
		LeftInput:  core.Some(audioio.Node(left)),
		RightInput: core.Some(audioio.Node(right)),
	})
	if err != nil {
		t.Fatalf("NewCrossfade() error = %v", err)
	}
	cf.Connect(audioio.Node(ctx.Destination()))

	renderQuanta(ctx, 4)
	out := renderQuanta(ctx, 8)
	for i, v := range out {
		if math.Abs(v-1) > 1e-6 {
			t.Fatalf("sample %d = %v, want 1 for equal inputs", i, v)
		}
	}

	// Replacing the right input drops the old one.
	cf.SetRightInput(audioio.None)
	out = renderQuanta(ctx, 8)
	if testutil.MaxAbs(out) > 1+1e-6 {
		t.Fatalf("peak = %v after removing the right input", testutil.MaxAbs(out))
	}

	if !cf.RightInput().IsAbsent() {
		t.Fatal("RightInput() is not absent")
	}

	cf.Close()
	out = renderQuanta(ctx, 2)
	testutil.RequireSliceNearlyEqual(t, out, make([]float64, len(out)), 0)
}

func TestCrossfadeSetFrequency(t *testing.T) {
	ctx := newTestContext()
	cf, err := NewCrossfade(ctx, CrossfadeOptions{})
	if err != nil {
		t.Fatalf("NewCrossfade() error = %v", err)
	}

	if got := cf.Frequency(); got != DefaultOscillatorFrequency {
		t.Fatalf("Frequency() = %v, want %v", got, DefaultOscillatorFrequency)
	}

	cf.SetOptions(CrossfadeOptions{Frequency: core.Some(0.1)})
	if got := cf.Frequency(); got != 0 {
		t.Fatalf("Frequency() = %v, want snapped 0", got)
	}

	if err := cf.Start(0); !errors.Is(err, graph.ErrAlreadyStarted) {
		t.Fatalf("Start() error = %v, want ErrAlreadyStarted", err)
	}
}

func TestFlangerScenario(t *testing.T) {
	ctx := newTestContext()
	fl, err := NewFlanger(ctx, FlangerOptions{
		Time:     core.Some(0.5),
		Speed:    core.Some(0.5),
		Depth:    core.Some(0.9),
		Feedback: core.Some(1.0),
		Mix:      core.Some(0.5),
	})
	if err != nil {
		t.Fatalf("NewFlanger() error = %v", err)
	}

	testutil.RequireNearlyEqual(t, "DelayTime", fl.DelayTime(), 0.0105, 1e-12)
	testutil.RequireNearlyEqual(t, "Feedback", fl.Feedback(), 0.8, 1e-12)
	testutil.RequireNearlyEqual(t, "Speed", fl.Speed(), 2.75, 1e-12)
	testutil.RequireNearlyEqual(t, "Depth", fl.Depth(), 0.00455, 1e-12)

	dry, wet := fl.Mix()
	testutil.RequireNearlyEqual(t, "dry", dry, 0.5, 1e-12)
	testutil.RequireNearlyEqual(t, "wet", wet, 0.5, 1e-12)

	if fl.Wave() != graph.Sine {
		t.Fatalf("Wave() = %v, want sine", fl.Wave())
	}

	src := graph.NewConstantSource(ctx, 1)
	if err := src.Start(0); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	audioio.Connect(audioio.Node(src), audioio.Of(fl))
	fl.Connect(audioio.Node(ctx.Destination()))

	out := renderQuanta(ctx, 400)
	testutil.RequireFinite(t, out)

	// DC through a 0.8 feedback loop settles at 0.5 + 0.5*(5+5).
	if peak := testutil.MaxAbs(out); peak > 5.5+1e-6 {
		t.Fatalf("peak = %v, want <= 5.5", peak)
	}
	testutil.RequireNearlyEqual(t, "settled", out[len(out)-1], 5.5, 1e-3)
}

func TestFlangerClampsKnobs(t *testing.T) {
	ctx := newTestContext()
	fl, err := NewFlanger(ctx, FlangerOptions{AutoStart: core.Some(false)})
	if err != nil {
		t.Fatalf("NewFlanger() error = %v", err)
	}

	fl.SetOptions(FlangerOptions{
		Time:     core.Some(2.0),
		Feedback: core.Some(-1.0),
		Mix:      core.Some(7.0),
		Wave:     core.Some(graph.Triangle),
	})

	testutil.RequireNearlyEqual(t, "DelayTime", fl.DelayTime(), 0.02, 1e-12)
	testutil.RequireNearlyEqual(t, "Feedback", fl.Feedback(), 0, 0)

	dry, wet := fl.Mix()
	if dry != 0 || wet != 1 {
		t.Fatalf("Mix() = (%v, %v), want (0, 1)", dry, wet)
	}

	if err := fl.Start(0); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	fl.Close()
	if err := fl.Start(0); !errors.Is(err, ErrClosed) {
		t.Fatalf("Start() after Close error = %v, want ErrClosed", err)
	}
}

func TestVibrato(t *testing.T) {
	ctx := newTestContext()
	v, err := NewVibrato(ctx, VibratoOptions{Depth: core.Some(0.25)})
	if err != nil {
		t.Fatalf("NewVibrato() error = %v", err)
	}

	testutil.RequireNearlyEqual(t, "Depth", v.Depth(), 0.005, 1e-12)
	testutil.RequireNearlyEqual(t, "Rate", v.Rate(), 5, 1e-12)

	v.SetOptions(VibratoOptions{Rate: core.Some(0.2)})
	testutil.RequireNearlyEqual(t, "Rate", v.Rate(), 2, 1e-12)

	src := graph.NewOscillator(ctx, graph.Sine, 440)
	if err := src.Start(0); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	audioio.Connect(audioio.Node(src), audioio.Of(v))
	v.Connect(audioio.Node(ctx.Destination()))

	out := renderQuanta(ctx, 100)
	testutil.RequireFinite(t, out)

	if peak := testutil.MaxAbs(out); peak > 1.01 || peak < 0.9 {
		t.Fatalf("peak = %v, want close to 1", peak)
	}

	if err := v.Start(0); !errors.Is(err, graph.ErrAlreadyStarted) {
		t.Fatalf("Start() error = %v, want ErrAlreadyStarted", err)
	}

	v.Close()
	out = renderQuanta(ctx, 2)
	testutil.RequireSliceNearlyEqual(t, out, make([]float64, len(out)), 0)
}
