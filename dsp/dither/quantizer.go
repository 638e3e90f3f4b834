package dither

import (
	"math"
	"math/rand/v2"
)

// Quantizer maps samples in [-1, 1] to signed integers of a fixed bit depth.
// Full scale is 2^(bits-1): 0.5 becomes 16384 at 16 bits. Values outside
// the range clip to the integer limits.
type Quantizer struct {
	bitDepth  int
	typ       Type
	amplitude float64
	shaper    NoiseShaper
	rng       *rand.Rand

	scale float64
	lo    int
	hi    int
}

// NewQuantizer creates a Quantizer. The default is 16 bit TPDF dither with
// the F-weighted 9th-order shaper.
func NewQuantizer(opts ...Option) (*Quantizer, error) {
	cfg := defaultConfig()

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if cfg.shaper == nil {
		cfg.shaper = NewFIRShaper(defaultPreset.Coefficients())
	}

	if cfg.rng == nil {
		cfg.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	scale := math.Exp2(float64(cfg.bitDepth - 1))

	return &Quantizer{
		bitDepth:  cfg.bitDepth,
		typ:       cfg.typ,
		amplitude: cfg.amplitude,
		shaper:    cfg.shaper,
		rng:       cfg.rng,
		scale:     scale,
		lo:        -int(scale),
		hi:        int(scale) - 1,
	}, nil
}

// Quantize converts one sample.
func (q *Quantizer) Quantize(input float64) int {
	if math.IsNaN(input) {
		input = 0
	}

	shaped := q.shaper.Shape(input * q.scale)
	v := math.Floor(shaped + q.noise() + 0.5)

	// The error is taken before clipping so a clipped run cannot drive the
	// feedback loop unstable.
	q.shaper.RecordError(v - shaped)

	switch {
	case v < float64(q.lo):
		return q.lo
	case v > float64(q.hi):
		return q.hi
	default:
		return int(v)
	}
}

// AppendInts quantizes src and appends the integers to dst.
func (q *Quantizer) AppendInts(dst []int, src []float64) []int {
	for _, v := range src {
		dst = append(dst, q.Quantize(v))
	}

	return dst
}

// Reset clears the noise shaper history.
func (q *Quantizer) Reset() {
	q.shaper.Reset()
}

// BitDepth returns the target bit depth.
func (q *Quantizer) BitDepth() int { return q.bitDepth }

// Type returns the dither noise type.
func (q *Quantizer) Type() Type { return q.typ }

func (q *Quantizer) noise() float64 {
	switch q.typ {
	case Rectangular:
		return q.amplitude * (q.rng.Float64() - 0.5)
	case Triangular:
		return q.amplitude * (q.rng.Float64() - q.rng.Float64())
	case Gaussian:
		return q.amplitude * 0.5 * q.rng.NormFloat64()
	default:
		return 0
	}
}
