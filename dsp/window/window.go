// Package window generates the analysis windows used by the spectrum
// analyser.
package window

import (
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-vecmath"
)

// Type identifies a window function.
type Type int

const (
	TypeRectangular Type = iota
	TypeHann
	TypeHamming
	TypeBlackman
	TypeBlackmanHarris
	TypeFlatTop

	typeCount
)

var typeNames = [typeCount]string{"rectangular", "hann", "hamming", "blackman", "blackman-harris", "flattop"}

// Sum-of-cosines coefficients a0 - a1 cos(x) + a2 cos(2x) - ...
var cosineTerms = [typeCount][]float64{
	TypeRectangular:    {1},
	TypeHann:           {0.5, 0.5},
	TypeHamming:        {0.54, 0.46},
	TypeBlackman:       {0.42, 0.5, 0.08},
	TypeBlackmanHarris: {0.35875, 0.48829, 0.14128, 0.01168},
	TypeFlatTop:        {0.21557895, 0.41663158, 0.277263158, 0.083578947, 0.006947368},
}

// String returns the window name.
func (t Type) String() string {
	if t.Valid() {
		return typeNames[t]
	}

	return fmt.Sprintf("Type(%d)", t)
}

// Valid reports whether t is a known window.
func (t Type) Valid() bool {
	return t >= 0 && t < typeCount
}

// Parse maps a window name to its Type.
func Parse(name string) (Type, error) {
	for t, n := range typeNames {
		if strings.EqualFold(name, n) {
			return Type(t), nil
		}
	}

	return TypeRectangular, fmt.Errorf("window: unknown type %q", name)
}

// Generate returns length periodic (DFT-even) coefficients of window t.
func Generate(t Type, length int) ([]float64, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("window: invalid type: %d", t)
	}

	if length <= 0 {
		return nil, fmt.Errorf("window: length must be > 0: %d", length)
	}

	terms := cosineTerms[t]
	w := make([]float64, length)

	for i := range w {
		x := 2 * math.Pi * float64(i) / float64(length)
		sign := 1.0

		for k, a := range terms {
			w[i] += sign * a * math.Cos(float64(k)*x)
			sign = -sign
		}
	}

	return w, nil
}

// Apply multiplies samples by coeffs in place.
func Apply(samples, coeffs []float64) error {
	if len(samples) != len(coeffs) {
		return fmt.Errorf("window: length mismatch: %d samples, %d coefficients", len(samples), len(coeffs))
	}

	vecmath.MulBlockInPlace(samples, coeffs)

	return nil
}

// CoherentGain returns the mean of coeffs, the amplitude a full-scale
// bin-centred sine reads after windowing.
func CoherentGain(coeffs []float64) float64 {
	if len(coeffs) == 0 {
		return 0
	}

	var sum float64
	for _, c := range coeffs {
		sum += c
	}

	return sum / float64(len(coeffs))
}

// EquivalentNoiseBandwidth returns the ENBW of coeffs in bins.
func EquivalentNoiseBandwidth(coeffs []float64) (float64, error) {
	if len(coeffs) == 0 {
		return 0, fmt.Errorf("window: empty coefficients")
	}

	var sum, sumSquares float64
	for _, c := range coeffs {
		sum += c
		sumSquares += c * c
	}

	if sum == 0 {
		return 0, fmt.Errorf("window: coefficients sum to zero")
	}

	return float64(len(coeffs)) * sumSquares / (sum * sum), nil
}
