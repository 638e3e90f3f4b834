package graph

import (
	"fmt"
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/effectrack/dsp/buffer"
	"github.com/cwbudde/effectrack/dsp/conv"
)

// Normalization constants of the Web Audio convolver.
const (
	gainCalibration           = 0.00125
	gainCalibrationSampleRate = 44100
	minPower                  = 0.000125
)

// Convolver convolves its input with an impulse response.
type Convolver struct {
	node

	normalize bool
	impulse   *buffer.AudioBuffer
	engine    *conv.Partitioned
}

// NewConvolver returns a convolver without impulse response, which renders
// silence. Normalization is enabled.
func NewConvolver(ctx *Context) *Convolver {
	c := &Convolver{normalize: true}
	c.init(ctx, c)

	return c
}

// Normalize reports whether impulse responses are normalized.
func (c *Convolver) Normalize() bool { return c.normalize }

// SetNormalize controls normalization of buffers passed to later
// SetBuffer calls.
func (c *Convolver) SetNormalize(on bool) { c.normalize = on }

// Buffer returns the impulse response as given to SetBuffer.
func (c *Convolver) Buffer() *buffer.AudioBuffer { return c.impulse }

// SetBuffer installs an impulse response. It is downmixed to mono and
// resampled to the context rate. A nil buffer silences the node.
func (c *Convolver) SetBuffer(ir *buffer.AudioBuffer) error {
	if ir == nil || ir.Len() == 0 {
		c.impulse = ir
		c.engine = nil
		return nil
	}

	scale := 1.0
	if c.normalize {
		scale = NormalizationScale(ir)
	}

	resampled, err := ir.Resample(c.ctx.cfg.SampleRate)
	if err != nil {
		return fmt.Errorf("graph: convolver: %w", err)
	}

	kernel := resampled.Mono()
	vecmath.ScaleBlockInPlace(kernel, scale)

	engine, err := conv.NewPartitioned(kernel, c.ctx.cfg.BlockSize)
	if err != nil {
		return fmt.Errorf("graph: convolver: %w", err)
	}

	c.impulse = ir
	c.engine = engine

	return nil
}

// NormalizationScale returns the gain the Web Audio convolver applies to an
// impulse response so that impulses of different loudness and length give
// comparable output levels.
func NormalizationScale(ir *buffer.AudioBuffer) float64 {
	power := ir.RMS()
	if math.IsNaN(power) || math.IsInf(power, 0) || power < minPower {
		power = minPower
	}

	return (1 / power) * gainCalibration * gainCalibrationSampleRate / ir.SampleRate()
}

func (c *Convolver) process(_ int64, in, out []float64) {
	if c.engine == nil {
		clear(out)
		return
	}

	if err := c.engine.ProcessBlock(out, in); err != nil {
		clear(out)
	}
}
