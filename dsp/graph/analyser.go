package graph

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/effectrack/dsp/core"
	"github.com/cwbudde/effectrack/dsp/window"
)

// Analyser defaults match the Web Audio AnalyserNode.
const (
	DefaultFFTSize         = 2048
	DefaultSmoothing       = 0.8
	DefaultMinDecibels     = -100.0
	DefaultMaxDecibels     = -30.0
	DefaultWindow          = window.TypeBlackman
	minFFTSize, maxFFTSize = 32, 32768
)

// Analyser passes audio through unchanged and exposes the most recent
// FFTSize samples in the time and frequency domain.
type Analyser struct {
	node

	fftSize     int
	smoothing   float64
	minDecibels float64
	maxDecibels float64
	windowType  window.Type

	history []float64
	pos     int

	plan     *algofft.Plan[complex128]
	window   []float64
	frame    []float64
	spectrum []complex128
	re, im   []float64
	mag      []float64
	smoothed []float64
}

// NewAnalyser returns an analyser with DefaultFFTSize.
func NewAnalyser(ctx *Context) *Analyser {
	a := &Analyser{
		smoothing:   DefaultSmoothing,
		minDecibels: DefaultMinDecibels,
		maxDecibels: DefaultMaxDecibels,
		windowType:  DefaultWindow,
	}
	a.init(ctx, a)

	if err := a.SetFFTSize(DefaultFFTSize); err != nil {
		panic(err)
	}

	return a
}

// FFTSize returns the analysis window length.
func (a *Analyser) FFTSize() int { return a.fftSize }

// FrequencyBinCount returns FFTSize/2.
func (a *Analyser) FrequencyBinCount() int { return a.fftSize / 2 }

// SetFFTSize changes the window length, a power of two in [32, 32768].
// History and smoothing state are cleared.
func (a *Analyser) SetFFTSize(n int) error {
	if n < minFFTSize || n > maxFFTSize || n&(n-1) != 0 {
		return fmt.Errorf("graph: fft size must be a power of two in [%d, %d]: %d", minFFTSize, maxFFTSize, n)
	}

	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return fmt.Errorf("graph: analyser FFT plan: %w", err)
	}

	a.fftSize = n
	a.plan = plan
	a.history = make([]float64, n)
	a.pos = 0
	a.window, err = window.Generate(a.windowType, n)
	if err != nil {
		return err
	}

	a.frame = make([]float64, n)
	a.spectrum = make([]complex128, n)
	a.re = make([]float64, n/2)
	a.im = make([]float64, n/2)
	a.mag = make([]float64, n/2)
	a.smoothed = make([]float64, n/2)

	return nil
}

// Window returns the analysis window type.
func (a *Analyser) Window() window.Type { return a.windowType }

// SetWindow changes the analysis window. Smoothing state is kept.
func (a *Analyser) SetWindow(t window.Type) error {
	w, err := window.Generate(t, a.fftSize)
	if err != nil {
		return fmt.Errorf("graph: %w", err)
	}

	a.windowType, a.window = t, w

	return nil
}

// SetSmoothingTimeConstant sets the averaging constant in [0, 1].
func (a *Analyser) SetSmoothingTimeConstant(v float64) {
	a.smoothing = core.Clamp(v, 0, 1)
}

// SetDecibelRange sets the range mapped onto byte frequency data. Invalid
// ranges are ignored.
func (a *Analyser) SetDecibelRange(min, max float64) {
	if min < max && core.IsFinite(min) && core.IsFinite(max) {
		a.minDecibels, a.maxDecibels = min, max
	}
}

func (a *Analyser) process(_ int64, in, out []float64) {
	copy(out, in)

	for _, x := range in {
		a.history[a.pos] = x
		a.pos++
		if a.pos == len(a.history) {
			a.pos = 0
		}
	}
}

// GetFloatTimeDomainData copies the most recent samples into dst, oldest
// first. At most FFTSize samples are written.
func (a *Analyser) GetFloatTimeDomainData(dst []float64) {
	n := min(len(dst), a.fftSize)
	start := a.pos - n
	if start < 0 {
		start += a.fftSize
	}

	for i := range n {
		dst[i] = a.history[(start+i)%a.fftSize]
	}
}

// GetByteTimeDomainData writes the most recent samples mapped to
// 128 + 128*x and clamped to [0, 255].
func (a *Analyser) GetByteTimeDomainData(dst []byte) {
	n := min(len(dst), a.fftSize)
	tmp := make([]float64, n)
	a.GetFloatTimeDomainData(tmp)

	for i, x := range tmp {
		dst[i] = byte(core.Clamp(math.Floor(128*(1+x)), 0, 255))
	}
}

// GetFloatFrequencyData writes the smoothed magnitude spectrum in dB. At
// most FrequencyBinCount values are written.
func (a *Analyser) GetFloatFrequencyData(dst []float64) {
	a.analyse()

	n := min(len(dst), len(a.smoothed))
	for i := range n {
		dst[i] = core.LinearToDB(a.smoothed[i])
	}
}

// GetByteFrequencyData writes the spectrum scaled from the decibel range
// onto [0, 255].
func (a *Analyser) GetByteFrequencyData(dst []byte) {
	a.analyse()

	span := a.maxDecibels - a.minDecibels
	n := min(len(dst), len(a.smoothed))

	for i := range n {
		db := core.LinearToDB(a.smoothed[i])
		dst[i] = byte(core.Clamp(math.Floor(255*(db-a.minDecibels)/span), 0, 255))
	}
}

// Peak returns the largest absolute sample of the analysis window.
func (a *Analyser) Peak() float64 {
	return vecmath.MaxAbs(a.history)
}

// RMS returns the root mean square of the analysis window.
func (a *Analyser) RMS() float64 {
	return math.Sqrt(vecmath.DotProduct(a.history, a.history) / float64(a.fftSize))
}

func (a *Analyser) analyse() {
	a.GetFloatTimeDomainData(a.frame)

	if err := window.Apply(a.frame, a.window); err != nil {
		return
	}

	for i, v := range a.frame {
		a.spectrum[i] = complex(v, 0)
	}

	if err := a.plan.Forward(a.spectrum, a.spectrum); err != nil {
		return
	}

	scale := 1 / float64(a.fftSize)
	for i := range a.re {
		a.re[i] = real(a.spectrum[i]) * scale
		a.im[i] = imag(a.spectrum[i]) * scale
	}

	vecmath.Magnitude(a.mag, a.re, a.im)

	for i, m := range a.mag {
		a.smoothed[i] = a.smoothing*a.smoothed[i] + (1-a.smoothing)*m
	}
}
