package delay

import (
	"fmt"
	"math"

	"github.com/cwbudde/effectrack/dsp/core"
)

// guard is the headroom kept behind the longest delay for the interpolator.
const guard = 4

// Line is a circular delay line addressed by delay relative to the most
// recently written sample: Read(0) after Write(x) returns x.
type Line struct {
	buffer   []float64
	writePos int
	maxDelay int
}

// New returns a delay line that can serve delays up to maxDelay samples.
func New(maxDelay int) (*Line, error) {
	if maxDelay <= 0 {
		return nil, fmt.Errorf("delay: max delay must be > 0: %d", maxDelay)
	}

	return &Line{
		buffer:   make([]float64, maxDelay+guard),
		maxDelay: maxDelay,
	}, nil
}

// Len returns internal buffer size.
func (d *Line) Len() int {
	return len(d.buffer)
}

// MaxDelay returns the longest delay in samples that Read honours.
func (d *Line) MaxDelay() int {
	return d.maxDelay
}

// Write appends one sample.
func (d *Line) Write(sample float64) {
	d.buffer[d.writePos] = sample

	d.writePos++
	if d.writePos >= len(d.buffer) {
		d.writePos = 0
	}
}

// Read returns the sample written delay samples before the latest one.
// Delays outside [0, Len()-1] are clamped.
func (d *Line) Read(delay int) float64 {
	size := len(d.buffer)
	if delay < 0 {
		delay = 0
	} else if delay >= size {
		delay = size - 1
	}

	pos := d.writePos - 1 - delay
	if pos < 0 {
		pos += size
	}

	return d.buffer[pos]
}

// ReadFractional reads a fractional delay with cubic Hermite interpolation.
// The delay is clamped to [0, MaxDelay()].
func (d *Line) ReadFractional(delay float64) float64 {
	delay = core.Clamp(delay, 0, float64(d.maxDelay))

	p := int(math.Floor(delay))
	t := delay - float64(p)
	if t == 0 {
		return d.Read(p)
	}

	xm1 := d.Read(max(0, p-1))
	x0 := d.Read(p)
	x1 := d.Read(p + 1)
	x2 := d.Read(p + 2)

	return core.Hermite4(t, xm1, x0, x1, x2)
}

// Reset clears line state.
func (d *Line) Reset() {
	clear(d.buffer)
	d.writePos = 0
}
