package reverb

import (
	"testing"

	"github.com/cwbudde/effectrack/dsp/audioio"
	"github.com/cwbudde/effectrack/dsp/buffer"
	"github.com/cwbudde/effectrack/dsp/core"
	"github.com/cwbudde/effectrack/dsp/graph"
	"github.com/cwbudde/effectrack/internal/testutil"
)

const testRate = 48000

func renderImpulse(t *testing.T, opts Options, n int) ([]float64, *ConvolutionReverb) {
	t.Helper()

	ctx := graph.NewContext(core.WithSampleRate(testRate))

	r, err := NewConvolutionReverb(ctx, opts)
	if err != nil {
		t.Fatalf("NewConvolutionReverb() error = %v", err)
	}

	buf, err := buffer.FromChannels(testRate, testutil.Impulse(1, 0))
	if err != nil {
		t.Fatalf("FromChannels() error = %v", err)
	}

	src := graph.NewBufferSource(ctx, buf)
	if err := src.Start(0); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	audioio.Connect(audioio.Node(src), audioio.Of(r))
	r.Connect(audioio.Node(ctx.Destination()))

	out := make([]float64, n)
	ctx.RenderFloat64(out)

	return out, r
}

func mustBuffer(t *testing.T, samples ...float64) *buffer.AudioBuffer {
	t.Helper()

	buf, err := buffer.FromChannels(testRate, samples)
	if err != nil {
		t.Fatalf("FromChannels() error = %v", err)
	}

	return buf
}

func TestConvolutionReverbWetPath(t *testing.T) {
	ir := mustBuffer(t, 0, 0.5, 0.25)

	out, r := renderImpulse(t, Options{
		Impulse:   core.Some(ir),
		Normalize: core.Some(false),
	}, 256)

	want := make([]float64, 256)
	want[1], want[2] = 0.5, 0.25
	testutil.RequireSliceNearlyEqual(t, out, want, 1e-9)

	if r.Impulse() != ir {
		t.Fatal("Impulse() does not return the installed buffer")
	}
	if r.Err() != nil {
		t.Fatalf("Err() = %v", r.Err())
	}
}

func TestConvolutionReverbMix(t *testing.T) {
	out, r := renderImpulse(t, Options{
		Impulse:   core.Some(mustBuffer(t, 0, 1)),
		Normalize: core.Some(false),
		Mix:       core.Some(0.25),
	}, 128)

	dry, wet := r.Mix()
	if dry != 0.75 || wet != 0.25 {
		t.Fatalf("Mix() = (%v, %v), want (0.75, 0.25)", dry, wet)
	}

	testutil.RequireNearlyEqual(t, "dry sample", out[0], 0.75, 1e-9)
	testutil.RequireNearlyEqual(t, "wet sample", out[1], 0.25, 1e-9)
}

func TestConvolutionReverbNormalizes(t *testing.T) {
	ir := mustBuffer(t, 0.5)

	out, r := renderImpulse(t, Options{Impulse: core.Some(ir)}, 128)
	if !r.Normalize() {
		t.Fatal("Normalize() = false by default")
	}

	testutil.RequireNearlyEqual(t, "normalized", out[0], 0.5*graph.NormalizationScale(ir), 1e-9)

	r.SetOptions(Options{Normalize: core.Some(false)})
	if r.Normalize() || r.Err() != nil {
		t.Fatalf("Normalize() = %v, Err() = %v", r.Normalize(), r.Err())
	}
}

func TestConvolutionReverbWithoutImpulse(t *testing.T) {
	out, r := renderImpulse(t, Options{}, 128)
	testutil.RequireSliceNearlyEqual(t, out, make([]float64, 128), 0)

	r.Close()
	r.Close()
}

func TestSyntheticImpulse(t *testing.T) {
	ir, err := SyntheticImpulse(testRate, ImpulseOptions{Duration: core.Some(1.0)})
	if err != nil {
		t.Fatalf("SyntheticImpulse() error = %v", err)
	}

	if ir.NumChannels() != 2 || ir.Len() != testRate {
		t.Fatalf("impulse shape = %d x %d, want 2 x %d", ir.NumChannels(), ir.Len(), testRate)
	}

	left := ir.Channel(0)
	testutil.RequireFinite(t, left)
	testutil.RequireFinite(t, ir.Channel(1))

	// Nothing before the 10 ms pre-delay.
	if peak := testutil.MaxAbs(left[:testRate/100]); peak != 0 {
		t.Fatalf("pre-delay peak = %v, want 0", peak)
	}

	early := testutil.RMS(left[:testRate/4])
	late := testutil.RMS(left[3*testRate/4:])
	if early == 0 || late >= early {
		t.Fatalf("RMS early = %v late = %v, want a decaying tail", early, late)
	}
}

func TestSyntheticImpulseValidation(t *testing.T) {
	tests := []struct {
		name string
		rate float64
		opts ImpulseOptions
	}{
		{name: "rate", rate: 0},
		{name: "duration", rate: testRate, opts: ImpulseOptions{Duration: core.Some(-1.0)}},
		{name: "rt60", rate: testRate, opts: ImpulseOptions{RT60: core.Some(0.0)}},
		{name: "damp", rate: testRate, opts: ImpulseOptions{Damp: core.Some(2.0)}},
		{name: "pre-delay", rate: testRate, opts: ImpulseOptions{PreDelay: core.Some(-0.1)}},
		{name: "mod rate", rate: testRate, opts: ImpulseOptions{ModRate: core.Some(-1.0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := SyntheticImpulse(tt.rate, tt.opts); err == nil {
				t.Fatal("SyntheticImpulse() error = nil")
			}
		})
	}
}
