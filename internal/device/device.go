// Package device plays a render graph on the default audio output.
package device

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// DefaultLatency is the output buffer duration requested from the driver.
const DefaultLatency = 40 * time.Millisecond

// Renderer produces mono float32 samples. *graph.Context implements it.
type Renderer interface {
	Render(dst []float32)
}

// Reader adapts a Renderer to the float32 little endian byte stream oto
// pulls from.
type Reader struct {
	r       Renderer
	samples []float32
}

// NewReader returns a Reader rendering from r.
func NewReader(r Renderer) *Reader {
	return &Reader{r: r}
}

// Read fills p with whole samples. It never fails.
func (rd *Reader) Read(p []byte) (int, error) {
	n := len(p) / 4
	if cap(rd.samples) < n {
		rd.samples = make([]float32, n)
	}

	samples := rd.samples[:n]
	rd.r.Render(samples)

	for i, v := range samples {
		binary.LittleEndian.PutUint32(p[4*i:], math.Float32bits(v))
	}

	return 4 * n, nil
}

// Options configures Open.
type Options struct {
	SampleRate int
	Latency    time.Duration
}

// Device is an open output stream.
type Device struct {
	mu     sync.Mutex
	ctx    *oto.Context
	player *oto.Player
}

// Open starts playing r on the default output. Only one device may be
// open per process.
func Open(r Renderer, opts Options) (*Device, error) {
	if opts.SampleRate <= 0 {
		return nil, fmt.Errorf("device: sample rate must be > 0: %d", opts.SampleRate)
	}

	if opts.Latency <= 0 {
		opts.Latency = DefaultLatency
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   opts.SampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   opts.Latency,
	})
	if err != nil {
		return nil, fmt.Errorf("device: %w", err)
	}
	<-ready

	d := &Device{ctx: ctx, player: ctx.NewPlayer(NewReader(r))}
	d.player.Play()

	return d, nil
}

// Err returns the first error reported by the driver.
func (d *Device) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.player == nil {
		return nil
	}

	return d.player.Err()
}

// Close stops playback. The driver context stays alive, see oto.NewContext.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.player == nil {
		return nil
	}

	err := d.player.Close()
	d.player = nil

	if err := d.ctx.Suspend(); err != nil {
		return fmt.Errorf("device: %w", err)
	}

	return err
}
