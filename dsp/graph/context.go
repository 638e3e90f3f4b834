package graph

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/effectrack/dsp/core"
)

// Context owns the render graph and its clock.
type Context struct {
	mu  sync.Mutex
	cfg core.ProcessorConfig

	// frame is the index of the first sample of the next quantum.
	frame atomic.Int64

	dest *Destination

	ids      int
	version  uint64
	compiled uint64
	sched    schedule

	// active holds started sources so they keep running, and stay
	// reachable, while nothing downstream references them.
	active map[*node]scheduled

	tail    []float64
	tailPos int
}

// scheduled is implemented by sources with a start/stop lifecycle.
type scheduled interface {
	finished(frame int64) bool
}

// NewContext creates a render context. Invalid options are ignored, see
// core.ApplyProcessorOptions.
func NewContext(opts ...core.ProcessorOption) *Context {
	cfg := core.ApplyProcessorOptions(opts...)

	c := &Context{
		cfg:     cfg,
		active:  make(map[*node]scheduled),
		tail:    make([]float64, cfg.BlockSize),
		tailPos: cfg.BlockSize,
		version: 1,
	}
	c.dest = newDestination(c)

	return c
}

// SampleRate returns the sample rate in Hz.
func (c *Context) SampleRate() float64 { return c.cfg.SampleRate }

// BlockSize returns the render quantum in samples.
func (c *Context) BlockSize() int { return c.cfg.BlockSize }

// ActiveSources returns the number of started sources that have not yet
// ended. A stopped source is released by the first quantum rendered at or
// after its stop time. Must not be called inside Update.
func (c *Context) ActiveSources() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.active)
}

// Destination returns the sink whose input is rendered.
func (c *Context) Destination() *Destination { return c.dest }

// CurrentTime returns the time in seconds of the next quantum to render.
// It is safe to call from any goroutine.
func (c *Context) CurrentTime() float64 {
	return float64(c.frame.Load()) / c.cfg.SampleRate
}

// Update runs fn with the render lock held. Graph mutations from goroutines
// other than the render goroutine must happen inside Update.
func (c *Context) Update(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fn()
}

// Render fills dst with the next samples of the destination, rendering as
// many quanta as needed. Samples past the end of dst are kept for the next
// call.
func (c *Context) Render(dst []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for len(dst) > 0 {
		c.refill()
		n := min(len(dst), len(c.tail)-c.tailPos)
		for i, v := range c.tail[c.tailPos : c.tailPos+n] {
			dst[i] = float32(v)
		}
		dst = dst[n:]
		c.tailPos += n
	}
}

// RenderFloat64 is Render for float64 samples.
func (c *Context) RenderFloat64(dst []float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for len(dst) > 0 {
		c.refill()
		n := copy(dst, c.tail[c.tailPos:])
		dst = dst[n:]
		c.tailPos += n
	}
}

func (c *Context) refill() {
	if c.tailPos < len(c.tail) {
		return
	}

	c.renderQuantum()
	copy(c.tail, c.dest.out)
	c.tailPos = 0
}

func (c *Context) renderQuantum() {
	if c.compiled != c.version {
		c.sched = c.compile()
		c.compiled = c.version
	}

	frame := c.frame.Load()

	for _, n := range c.sched.order {
		n.render(frame)
	}

	for _, d := range c.sched.split {
		d.writeBlock()
	}

	next := frame + int64(c.cfg.BlockSize)
	for n, s := range c.active {
		if s.finished(next) {
			delete(c.active, n)
			c.invalidate()
		}
	}

	c.frame.Store(next)
}

func (c *Context) nextNodeID() int {
	c.ids++
	return c.ids
}

func (c *Context) invalidate() {
	c.version++
}

func (c *Context) activate(n *node, s scheduled) {
	c.active[n] = s
	c.invalidate()
}

// frameAt converts context time to a sample frame.
func (c *Context) frameAt(t float64) int64 {
	if t <= 0 || !core.IsFinite(t) {
		return 0
	}

	return int64(math.Round(t * c.cfg.SampleRate))
}
