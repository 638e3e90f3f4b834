package effects

import (
	"math"
	"testing"

	"github.com/cwbudde/effectrack/dsp/audioio"
	"github.com/cwbudde/effectrack/dsp/buffer"
	"github.com/cwbudde/effectrack/dsp/core"
	"github.com/cwbudde/effectrack/dsp/graph"
	"github.com/cwbudde/effectrack/internal/testutil"
)

func impulseResponse(t *testing.T, opts TapeDelayOptions, n int) ([]float64, *TapeDelay) {
	t.Helper()

	ctx := graph.NewContext(core.WithSampleRate(48000), core.WithBlockSize(128))

	d, err := NewTapeDelay(ctx, opts)
	if err != nil {
		t.Fatalf("NewTapeDelay() error = %v", err)
	}

	buf, err := buffer.FromChannels(48000, testutil.Impulse(1, 0))
	if err != nil {
		t.Fatalf("FromChannels() error = %v", err)
	}

	src := graph.NewBufferSource(ctx, buf)
	if err := src.Start(0); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	audioio.Connect(audioio.Node(src), audioio.Of(d))
	d.Connect(audioio.Node(ctx.Destination()))

	out := make([]float64, n)
	ctx.RenderFloat64(out)

	return out, d
}

func TestTapeDelayEchoesDecay(t *testing.T) {
	for _, depth := range []float64{0, 0.5, 1} {
		out, d := impulseResponse(t, TapeDelayOptions{Time: core.Some(0.0), Depth: core.Some(depth)}, 6*4800)
		testutil.RequireFinite(t, out)

		g := d.Feedback()
		testutil.RequireNearlyEqual(t, "Feedback", g, 0.9*depth, 1e-12)
		testutil.RequireNearlyEqual(t, "Time", d.Time(), 0.1, 1e-12)

		for i, v := range out {
			want := 0.0
			if i%4800 == 0 {
				want = math.Pow(g, float64(i/4800))
			}

			if math.Abs(v-want) > 1e-9 {
				t.Fatalf("depth=%v sample %d = %v, want %v", depth, i, v, want)
			}
		}
	}
}

func TestTapeDelayBounded(t *testing.T) {
	ctx := graph.NewContext()
	d, err := NewTapeDelay(ctx, TapeDelayOptions{Time: core.Some(0.3), Depth: core.Some(5.0)})
	if err != nil {
		t.Fatalf("NewTapeDelay() error = %v", err)
	}

	testutil.RequireNearlyEqual(t, "Feedback", d.Feedback(), 0.9, 1e-12)
	testutil.RequireNearlyEqual(t, "Time", d.Time(), 0.37, 1e-12)

	src := graph.NewConstantSource(ctx, 1)
	if err := src.Start(0); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	audioio.Connect(audioio.Node(src), audioio.Of(d))
	d.Connect(audioio.Node(ctx.Destination()))

	out := make([]float64, 10*48000)
	ctx.RenderFloat64(out)
	testutil.RequireFinite(t, out)

	// 1 + 0.9/(1-0.9) is the steady state of a constant input.
	if peak := testutil.MaxAbs(out); peak > 10+1e-6 {
		t.Fatalf("peak = %v, want <= 10", peak)
	}

	d.Close()
	d.Close()
}
