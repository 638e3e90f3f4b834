package core

// NormalizeToRange maps a knob value onto [min, max].
//
// x is clamped to [0, 1] first, so out-of-range input is never an error.
// Every effect parameter in this module is defined through this function,
// which lets a single [0, 1] control domain drive any effect.
func NormalizeToRange(min, max, x float64) float64 {
	return Clamp(x, 0, 1)*(max-min) + min
}

// NormalizeFromRange is the inverse of NormalizeToRange. x is clamped to
// [min, max] and the result lies in [0, 1]. A degenerate range maps to 0.
func NormalizeFromRange(min, max, x float64) float64 {
	if max == min {
		return 0
	}

	return (Clamp(x, min, max) - min) / (max - min)
}

// MixToDryWet splits a wet amount in [0, 1] into (dry, wet) gains.
func MixToDryWet(mix float64) (dry, wet float64) {
	mix = Clamp(mix, 0, 1)

	return 1 - mix, mix
}
