package utils

import "math"

// Clamp01 limits v to [0, 1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// MinMaxScale maps v from [lo, hi] onto [0, 1]. A degenerate range (lo == hi) maps
// every value to 0, and out-of-range values are clamped.
func MinMaxScale(v, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	return Clamp01((v - lo) / (hi - lo))
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
