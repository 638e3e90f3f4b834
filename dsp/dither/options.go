package dither

import (
	"fmt"
	"math"
	"math/rand/v2"
)

const (
	defaultBitDepth  = 16
	defaultType      = Triangular
	defaultAmplitude = 1.0
	defaultPreset    = Preset9FC
	minBitDepth      = 2
	maxBitDepth      = 32
)

type config struct {
	bitDepth  int
	typ       Type
	amplitude float64
	shaper    NoiseShaper
	rng       *rand.Rand
}

func defaultConfig() config {
	return config{
		bitDepth:  defaultBitDepth,
		typ:       defaultType,
		amplitude: defaultAmplitude,
	}
}

// Option configures a [Quantizer].
type Option func(*config) error

// WithBitDepth sets the target bit depth (2-32, default 16).
func WithBitDepth(bits int) Option {
	return func(cfg *config) error {
		if bits < minBitDepth || bits > maxBitDepth {
			return fmt.Errorf("dither: bit depth must be in [%d, %d]: %d", minBitDepth, maxBitDepth, bits)
		}

		cfg.bitDepth = bits

		return nil
	}
}

// WithType sets the dither noise PDF (default [Triangular]).
func WithType(t Type) Option {
	return func(cfg *config) error {
		if !t.Valid() {
			return fmt.Errorf("dither: invalid type: %d", t)
		}

		cfg.typ = t

		return nil
	}
}

// WithAmplitude scales the dither noise in LSBs (default 1).
func WithAmplitude(amp float64) Option {
	return func(cfg *config) error {
		if amp < 0 || math.IsNaN(amp) || math.IsInf(amp, 0) {
			return fmt.Errorf("dither: amplitude must be >= 0 and finite: %f", amp)
		}

		cfg.amplitude = amp

		return nil
	}
}

// WithPreset selects an [FIRShaper] coefficient set (default [Preset9FC]).
func WithPreset(p Preset) Option {
	return func(cfg *config) error {
		if !p.Valid() {
			return fmt.Errorf("dither: invalid preset: %d", p)
		}

		cfg.shaper = NewFIRShaper(p.Coefficients())

		return nil
	}
}

// WithNoiseShaper installs a custom [NoiseShaper].
func WithNoiseShaper(ns NoiseShaper) Option {
	return func(cfg *config) error {
		cfg.shaper = ns
		return nil
	}
}

// WithRNG sets the noise source, for reproducible output.
func WithRNG(rng *rand.Rand) Option {
	return func(cfg *config) error {
		cfg.rng = rng
		return nil
	}
}
