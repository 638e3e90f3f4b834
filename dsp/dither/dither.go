// Package dither converts floating-point rack output to integer PCM with
// optional dither noise and error-feedback noise shaping.
package dither

import (
	"fmt"
	"strings"
)

// Type selects the probability distribution used for dither noise.
type Type int

const (
	// None applies no dither (plain rounding).
	None Type = iota
	// Rectangular uses a uniform PDF one LSB wide.
	Rectangular
	// Triangular uses a triangular PDF (TPDF), the usual choice for export.
	Triangular
	// Gaussian uses a normal PDF with a standard deviation of half an LSB.
	Gaussian

	typeCount
)

var typeNames = [typeCount]string{"none", "rect", "tpdf", "gauss"}

// String returns the short name of the dither type.
func (t Type) String() string {
	if t.Valid() {
		return typeNames[t]
	}

	return fmt.Sprintf("Type(%d)", t)
}

// Valid reports whether t is a known dither type.
func (t Type) Valid() bool {
	return t >= 0 && t < typeCount
}

// ParseType maps a short name ("none", "rect", "tpdf", "gauss") to a Type.
func ParseType(name string) (Type, error) {
	for t, n := range typeNames {
		if strings.EqualFold(name, n) {
			return Type(t), nil
		}
	}

	return None, fmt.Errorf("dither: unknown type %q (want one of %s)", name, strings.Join(typeNames[:], ", "))
}
