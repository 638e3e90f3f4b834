package device

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/cwbudde/effectrack/dsp/graph"
)

type rampRenderer struct{ next float32 }

func (r *rampRenderer) Render(dst []float32) {
	for i := range dst {
		dst[i] = r.next
		r.next++
	}
}

func TestReaderEncodesFloat32LE(t *testing.T) {
	t.Parallel()

	rd := NewReader(&rampRenderer{})

	p := make([]byte, 14)
	n, err := rd.Read(p)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if n != 12 {
		t.Fatalf("Read() = %d, want 12 (whole samples only)", n)
	}

	for i := range 3 {
		got := math.Float32frombits(binary.LittleEndian.Uint32(p[4*i:]))
		if got != float32(i) {
			t.Fatalf("sample %d = %v, want %d", i, got, i)
		}
	}

	// The next read continues the stream.
	if _, err := rd.Read(p[:4]); err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got := math.Float32frombits(binary.LittleEndian.Uint32(p)); got != 3 {
		t.Fatalf("next sample = %v, want 3", got)
	}
}

func TestReaderRendersGraph(t *testing.T) {
	t.Parallel()

	ctx := graph.NewContext()
	src := graph.NewConstantSource(ctx, 0.25)
	src.Connect(ctx.Destination())
	if err := src.Start(0); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	rd := NewReader(ctx)
	p := make([]byte, 4*(ctx.BlockSize()+3))

	if _, err := rd.Read(p); err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	for i := 0; i < len(p); i += 4 {
		if got := math.Float32frombits(binary.LittleEndian.Uint32(p[i:])); got != 0.25 {
			t.Fatalf("sample %d = %v, want 0.25", i/4, got)
		}
	}
}

func TestOpenRejectsSampleRate(t *testing.T) {
	t.Parallel()

	if _, err := Open(&rampRenderer{}, Options{}); err == nil {
		t.Fatal("Open(rate 0) error = nil")
	}
}
