package extract

import "fmt"

// Clamp01 restricts v to the range [0, 1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Ratio returns score/target clamped to [0, 1]. A target that is zero or
// negative has no meaningful ratio and yields ErrMetricUnavailable.
func Ratio(score, target float64) (float64, error) {
	if target <= 0 {
		return 0, fmt.Errorf("target %g: %w", target, ErrMetricUnavailable)
	}
	return Clamp01(score / target), nil
}
