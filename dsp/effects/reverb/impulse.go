package reverb

import (
	"fmt"
	"math"

	"github.com/cwbudde/effectrack/dsp/buffer"
	"github.com/cwbudde/effectrack/dsp/core"
	"github.com/cwbudde/effectrack/dsp/delay"
)

const (
	fdnSize = 8

	defaultImpulseSeconds  = 2.5
	defaultRT60Seconds     = 1.8
	defaultDamp            = 0.3
	defaultPreDelaySeconds = 0.01
	defaultModDepthSeconds = 0.002
	defaultModRateHz       = 0.1
	maxImpulseSeconds      = 20.0
	fdnReferenceSampleRate = 44100.0
)

// Mutually prime line lengths at the reference rate.
var fdnDelaySamples = [fdnSize]float64{1537, 1753, 1999, 2251, 2473, 2689, 2851, 3067}

var fdnHadamard = [fdnSize][fdnSize]float64{
	{1, 1, 1, 1, 1, 1, 1, 1},
	{1, -1, 1, -1, 1, -1, 1, -1},
	{1, 1, -1, -1, 1, 1, -1, -1},
	{1, -1, -1, 1, 1, -1, -1, 1},
	{1, 1, 1, 1, -1, -1, -1, -1},
	{1, -1, 1, -1, -1, 1, -1, 1},
	{1, 1, -1, -1, -1, -1, 1, 1},
	{1, -1, -1, 1, -1, 1, 1, -1},
}

// ImpulseOptions shapes a synthetic room impulse.
type ImpulseOptions struct {
	// Duration is the impulse length in seconds. Default 2.5.
	Duration core.Optional[float64]
	// RT60 is the decay time to -60 dB in seconds. Default 1.8.
	RT60 core.Optional[float64]
	// Damp is the high frequency damping in [0, 1]. Default 0.3.
	Damp core.Optional[float64]
	// PreDelay is the gap before the first reflection. Default 10 ms.
	PreDelay core.Optional[float64]
	// ModDepth and ModRate set the line length modulation.
	ModDepth core.Optional[float64]
	ModRate  core.Optional[float64]
}

// SyntheticImpulse renders the impulse response of a modulated feedback
// delay network into a stereo buffer. The rack uses it as the built-in
// room when no impulse files are loaded.
func SyntheticImpulse(sampleRate float64, opts ImpulseOptions) (*buffer.AudioBuffer, error) {
	duration := opts.Duration.Or(defaultImpulseSeconds)
	rt60 := opts.RT60.Or(defaultRT60Seconds)
	damp := opts.Damp.Or(defaultDamp)
	preDelay := opts.PreDelay.Or(defaultPreDelaySeconds)
	modDepth := opts.ModDepth.Or(defaultModDepthSeconds) * sampleRate
	modRate := opts.ModRate.Or(defaultModRateHz)

	switch {
	case !core.IsFinite(sampleRate) || sampleRate <= 0:
		return nil, fmt.Errorf("reverb: sample rate must be > 0: %f", sampleRate)
	case !core.IsFinite(duration) || duration <= 0 || duration > maxImpulseSeconds:
		return nil, fmt.Errorf("reverb: impulse duration must be in (0, %g]: %f", maxImpulseSeconds, duration)
	case !core.IsFinite(rt60) || rt60 <= 0:
		return nil, fmt.Errorf("reverb: RT60 must be > 0: %f", rt60)
	case !core.IsFinite(damp) || damp < 0 || damp > 1:
		return nil, fmt.Errorf("reverb: damp must be in [0,1]: %f", damp)
	case !core.IsFinite(preDelay) || preDelay < 0:
		return nil, fmt.Errorf("reverb: pre-delay must be >= 0: %f", preDelay)
	case !core.IsFinite(modDepth) || modDepth < 0 || !core.IsFinite(modRate) || modRate < 0:
		return nil, fmt.Errorf("reverb: modulation must be >= 0")
	}

	scale := sampleRate / fdnReferenceSampleRate
	gain := 1 / math.Sqrt(fdnSize)

	var (
		lines    [fdnSize]*delay.Line
		lengths  [fdnSize]float64
		feedback [fdnSize]float64
		state    [fdnSize]float64
		taps     [fdnSize]float64
	)

	for i := range fdnSize {
		lengths[i] = fdnDelaySamples[i] * scale
		feedback[i] = math.Pow(10, -3*lengths[i]/sampleRate/rt60)

		line, err := delay.New(int(math.Ceil(lengths[i]+modDepth)) + 1)
		if err != nil {
			return nil, fmt.Errorf("reverb: %w", err)
		}
		lines[i] = line
	}

	n := int(math.Round(duration * sampleRate))
	offset := int(math.Round(preDelay * sampleRate))
	left := make([]float64, n)
	right := make([]float64, n)

	phase := 0.0
	step := 2 * math.Pi * modRate / sampleRate

	for t := 0; t+offset < n; t++ {
		in := 0.0
		if t == 0 {
			in = 1
		}

		for i := range fdnSize {
			mod := 0.5 * (1 + math.Sin(phase+2*math.Pi*float64(i)/fdnSize))
			taps[i] = lines[i].ReadFractional(lengths[i] + modDepth*mod - 1)
		}

		phase = math.Mod(phase+step, 2*math.Pi)

		for i := range fdnSize {
			mixed := 0.0
			for j := range fdnSize {
				mixed += fdnHadamard[i][j] * taps[j]
			}

			filtered := gain*mixed*(1-damp) + state[i]*damp
			state[i] = filtered
			lines[i].Write(in*gain + filtered*feedback[i])
		}

		var l, r float64
		for i, v := range taps {
			l += v
			if i%2 == 0 {
				r += v
			} else {
				r -= v
			}
		}

		left[t+offset] = l * gain
		right[t+offset] = r * gain
	}

	return buffer.FromChannels(sampleRate, left, right)
}
