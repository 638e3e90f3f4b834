package pitch

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/effectrack/dsp/audioio"
	"github.com/cwbudde/effectrack/dsp/core"
	"github.com/cwbudde/effectrack/dsp/effects/modulation"
	"github.com/cwbudde/effectrack/dsp/graph"
	"github.com/cwbudde/effectrack/internal/testutil"
)

const testSampleRate = 48000

func TestFrequencyFromTransposition(t *testing.T) {
	tests := []struct {
		k     float64
		want  float64
		ratio float64
	}{
		{k: 0.5, want: 0, ratio: 1},
		{k: 1, want: 15, ratio: 0.5},
		{k: 0, want: -15, ratio: 1.5},
		{k: 0.85, want: 10.5, ratio: 0.65},
		{k: 2, want: 15, ratio: 0.5},
		{k: 0.502, want: 0, ratio: 1},
	}

	for _, tt := range tests {
		testutil.RequireNearlyEqual(t, "FrequencyFromTransposition", FrequencyFromTransposition(tt.k), tt.want, 1e-9)
		testutil.RequireNearlyEqual(t, "Ratio", Ratio(tt.k), tt.ratio, 1e-9)
	}
}

func TestPitchShifterIdentityHasZeroFrequency(t *testing.T) {
	ctx := graph.NewContext(core.WithSampleRate(testSampleRate))
	p, err := NewPitchShifter(ctx, Options{Transposition: core.Some(0.5)})
	if err != nil {
		t.Fatalf("NewPitchShifter() error = %v", err)
	}

	if got := p.Frequency(); got != 0 {
		t.Fatalf("Frequency() = %v, want 0", got)
	}
	if got := p.Crossfade().Frequency(); got != 0 {
		t.Fatalf("Crossfade().Frequency() = %v, want 0", got)
	}
}

func TestPitchShifterConfigureBeforeStart(t *testing.T) {
	ctx := graph.NewContext(core.WithSampleRate(testSampleRate))
	p, err := NewPitchShifter(ctx, Options{AutoStart: core.Some(false)})
	if err != nil {
		t.Fatalf("NewPitchShifter() error = %v", err)
	}

	for _, k := range []float64{0.1, 0.9, 1} {
		p.SetOptions(Options{Transposition: core.Some(k)})
	}

	if err := p.Start(0); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := p.Start(0); !errors.Is(err, graph.ErrAlreadyStarted) {
		t.Fatalf("second Start() error = %v, want ErrAlreadyStarted", err)
	}

	p.SetTransposition(0.25)
	testutil.RequireNearlyEqual(t, "Frequency", p.Frequency(), -7.5, 1e-9)
	testutil.RequireNearlyEqual(t, "Crossfade frequency", p.Crossfade().Frequency(), -7.5, 1e-9)
	testutil.RequireNearlyEqual(t, "Transposition", p.Transposition(), 0.25, 0)

	p.Close()
	if err := p.Start(0); !errors.Is(err, modulation.ErrClosed) {
		t.Fatalf("Start() after Close error = %v, want ErrClosed", err)
	}
}

func TestPitchShifterVoicesStayAligned(t *testing.T) {
	ctx := graph.NewContext(core.WithSampleRate(testSampleRate), core.WithBlockSize(128))
	p, err := NewPitchShifter(ctx, Options{Transposition: core.Some(0.85)})
	if err != nil {
		t.Fatalf("NewPitchShifter() error = %v", err)
	}
	defer p.Close()

	p.Connect(audioio.Node(ctx.Destination()))

	cf := p.Crossfade()
	retunes := map[int]float64{40: 0.2, 80: 0.85, 120: 0.5, 140: 1}
	prevA, prevB := math.NaN(), math.NaN()
	out := make([]float64, ctx.BlockSize())

	for q := 0; q < 200; q++ {
		k, retuned := retunes[q]
		if retuned {
			p.SetTransposition(k)
		}

		ctx.RenderFloat64(out)

		left, right := cf.LeftGain().Values(), cf.RightGain().Values()
		sweepA, sweepB := p.delayA.DelayTime().Values(), p.delayB.DelayTime().Values()

		for i := range left {
			if s := left[i] + right[i]; math.Abs(s-1) > 1e-9 {
				t.Fatalf("quantum %d sample %d: left+right = %v, want 1", q, i, s)
			}

			// Each voice wraps its sweep only while its gain is closed.
			if !(retuned && i == 0) {
				if math.Abs(sweepA[i]-prevA) > WindowSize/2 && left[i] > 1e-3 {
					t.Fatalf("quantum %d sample %d: voice A wrapped with gain %v", q, i, left[i])
				}
				if math.Abs(sweepB[i]-prevB) > WindowSize/2 && right[i] > 1e-3 {
					t.Fatalf("quantum %d sample %d: voice B wrapped with gain %v", q, i, right[i])
				}
			}

			prevA, prevB = sweepA[i], sweepB[i]
		}
	}
}

func TestPitchShifterSameTranspositionKeepsPhase(t *testing.T) {
	build := func() (*graph.Context, *PitchShifter) {
		ctx := graph.NewContext(core.WithSampleRate(testSampleRate))
		p, err := NewPitchShifter(ctx, Options{Transposition: core.Some(0.7)})
		if err != nil {
			t.Fatalf("NewPitchShifter() error = %v", err)
		}
		p.Connect(audioio.Node(ctx.Destination()))

		return ctx, p
	}

	ctx, p := build()
	refCtx, ref := build()

	out := make([]float64, 4096)
	ctx.RenderFloat64(out)
	refCtx.RenderFloat64(out)

	p.SetOptions(Options{Transposition: core.Some(0.7)})
	testutil.RequireNearlyEqual(t, "Transposition", p.Transposition(), 0.7, 0)

	for q := 0; q < 20; q++ {
		ctx.RenderFloat64(out[:ctx.BlockSize()])
		refCtx.RenderFloat64(out[:refCtx.BlockSize()])

		testutil.RequireSliceNearlyEqual(t, p.delayA.DelayTime().Values(), ref.delayA.DelayTime().Values(), 1e-12)
		testutil.RequireSliceNearlyEqual(t, p.Crossfade().LeftGain().Values(), ref.Crossfade().LeftGain().Values(), 1e-12)
	}
}

func TestPitchShifterReleasesSourcesOnClose(t *testing.T) {
	ctx := graph.NewContext(core.WithSampleRate(testSampleRate))

	p, err := NewPitchShifter(ctx, Options{Transposition: core.Some(0.3)})
	if err != nil {
		t.Fatalf("NewPitchShifter() error = %v", err)
	}

	s, err := NewSimplePitchShifter(ctx, Options{Transposition: core.Some(0.3)})
	if err != nil {
		t.Fatalf("NewSimplePitchShifter() error = %v", err)
	}

	out := make([]float64, ctx.BlockSize())
	ctx.RenderFloat64(out)

	p.Close()
	s.Close()
	ctx.RenderFloat64(out)

	if got := ctx.ActiveSources(); got != 0 {
		t.Fatalf("ActiveSources() = %d after Close, want 0", got)
	}
}

// zeroCrossings counts sign changes in x.
func zeroCrossings(x []float64) int {
	n := 0
	for i := 1; i < len(x); i++ {
		if (x[i-1] < 0) != (x[i] < 0) {
			n++
		}
	}

	return n
}

func shiftedSine(t *testing.T, k float64, simple bool) []float64 {
	t.Helper()

	ctx := graph.NewContext(core.WithSampleRate(testSampleRate))

	var unit interface {
		audioio.Unit
		Close()
	}
	if simple {
		p, err := NewSimplePitchShifter(ctx, Options{Transposition: core.Some(k)})
		if err != nil {
			t.Fatalf("NewSimplePitchShifter() error = %v", err)
		}
		unit = p
	} else {
		p, err := NewPitchShifter(ctx, Options{Transposition: core.Some(k)})
		if err != nil {
			t.Fatalf("NewPitchShifter() error = %v", err)
		}
		unit = p
	}
	defer unit.Close()

	src := graph.NewOscillator(ctx, graph.Sine, 1000)
	if err := src.Start(0); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	audioio.Connect(audioio.Node(src), audioio.Of(unit))
	audioio.Connect(audioio.Of(unit), audioio.Node(ctx.Destination()))

	out := make([]float64, testSampleRate*6/10)
	ctx.RenderFloat64(out)
	testutil.RequireFinite(t, out)

	// Skip the first 100 ms while the delays fill.
	return out[testSampleRate/10:]
}

func TestPitchShifterShiftsDown(t *testing.T) {
	tests := []struct {
		name   string
		k      float64
		simple bool
		lo, hi int
	}{
		// Half a second of a 1 kHz sine has 1000 crossings.
		{name: "identity", k: 0.5, lo: 990, hi: 1010},
		{name: "octave down", k: 1, lo: 450, hi: 550},
		{name: "simple octave down", k: 1, simple: true, lo: 450, hi: 550},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := zeroCrossings(shiftedSine(t, tt.k, tt.simple))
			if got < tt.lo || got > tt.hi {
				t.Fatalf("zero crossings = %d, want in [%d, %d]", got, tt.lo, tt.hi)
			}
		})
	}
}

func TestPitchShifterOutputBounded(t *testing.T) {
	out := shiftedSine(t, 0.2, false)
	if peak := testutil.MaxAbs(out); peak > 1+1e-3 {
		t.Fatalf("peak = %v, want <= 1", peak)
	}
}
