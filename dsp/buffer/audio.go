package buffer

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/effectrack/dsp/core"
)

// ErrNoChannels is returned when a buffer would carry no channel data.
var ErrNoChannels = errors.New("buffer: at least one channel is required")

// AudioBuffer is planar, multi-channel sample data. All channels have the
// same length.
type AudioBuffer struct {
	sampleRate float64
	channels   [][]float64
}

// New returns a silent buffer.
func New(channels, length int, sampleRate float64) (*AudioBuffer, error) {
	if channels <= 0 {
		return nil, ErrNoChannels
	}

	if length < 0 {
		return nil, fmt.Errorf("buffer: length must be >= 0: %d", length)
	}

	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return nil, fmt.Errorf("buffer: sample rate must be > 0 and finite: %f", sampleRate)
	}

	data := make([][]float64, channels)
	for i := range data {
		data[i] = make([]float64, length)
	}

	return &AudioBuffer{sampleRate: sampleRate, channels: data}, nil
}

// FromChannels wraps planar data without copying. Shorter channels are
// zero-padded to the longest one.
func FromChannels(sampleRate float64, channels ...[]float64) (*AudioBuffer, error) {
	if len(channels) == 0 {
		return nil, ErrNoChannels
	}

	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return nil, fmt.Errorf("buffer: sample rate must be > 0 and finite: %f", sampleRate)
	}

	length := 0
	for _, ch := range channels {
		length = max(length, len(ch))
	}

	data := make([][]float64, len(channels))
	for i, ch := range channels {
		if len(ch) < length {
			padded := make([]float64, length)
			copy(padded, ch)
			ch = padded
		}
		data[i] = ch
	}

	return &AudioBuffer{sampleRate: sampleRate, channels: data}, nil
}

// SampleRate returns the sample rate in Hz.
func (b *AudioBuffer) SampleRate() float64 { return b.sampleRate }

// NumChannels returns the channel count.
func (b *AudioBuffer) NumChannels() int { return len(b.channels) }

// Len returns the number of frames.
func (b *AudioBuffer) Len() int {
	if len(b.channels) == 0 {
		return 0
	}

	return len(b.channels[0])
}

// Duration returns the length in seconds.
func (b *AudioBuffer) Duration() float64 {
	return float64(b.Len()) / b.sampleRate
}

// Channel returns the samples of channel i. The slice is shared.
func (b *AudioBuffer) Channel(i int) []float64 {
	return b.channels[i]
}

// Mono returns the average of all channels as a new slice.
func (b *AudioBuffer) Mono() []float64 {
	out := make([]float64, b.Len())
	if len(b.channels) == 1 {
		copy(out, b.channels[0])
		return out
	}

	scale := 1 / float64(len(b.channels))
	for _, ch := range b.channels {
		for i, v := range ch {
			out[i] += v * scale
		}
	}

	return out
}

// Peak returns the largest absolute sample over all channels.
func (b *AudioBuffer) Peak() float64 {
	peak := 0.0
	for _, ch := range b.channels {
		for _, v := range ch {
			peak = math.Max(peak, math.Abs(v))
		}
	}

	return peak
}

// RMS returns the root mean square over all channels and frames.
func (b *AudioBuffer) RMS() float64 {
	n := b.Len() * len(b.channels)
	if n == 0 {
		return 0
	}

	sum := 0.0
	for _, ch := range b.channels {
		for _, v := range ch {
			sum += v * v
		}
	}

	return math.Sqrt(sum / float64(n))
}

// Resample returns a copy of the buffer at the target rate using cubic
// Hermite interpolation. The receiver is returned when rates match.
func (b *AudioBuffer) Resample(sampleRate float64) (*AudioBuffer, error) {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return nil, fmt.Errorf("buffer: sample rate must be > 0 and finite: %f", sampleRate)
	}

	if sampleRate == b.sampleRate {
		return b, nil
	}

	ratio := b.sampleRate / sampleRate
	length := int(math.Ceil(float64(b.Len()) / ratio))

	out := make([][]float64, len(b.channels))
	for c, src := range b.channels {
		dst := make([]float64, length)
		for i := range dst {
			pos := float64(i) * ratio
			idx := int(pos)
			dst[i] = core.Hermite4(pos-float64(idx),
				sampleAt(src, idx-1), sampleAt(src, idx), sampleAt(src, idx+1), sampleAt(src, idx+2))
		}
		out[c] = dst
	}

	return &AudioBuffer{sampleRate: sampleRate, channels: out}, nil
}

func sampleAt(s []float64, i int) float64 {
	if i < 0 || i >= len(s) {
		return 0
	}

	return s[i]
}
