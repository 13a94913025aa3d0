package extract

import (
	"math"
	"strconv"
	"strings"
)

// ParseNumber parses a cell as a number after trimming whitespace and
// stripping one trailing percent sign. "92.5%" and " 92.5 " both yield 92.5.
// NaN and infinities are rejected.
func ParseNumber(cell string) (float64, bool) {
	s := strings.TrimSpace(cell)
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Latest scans values top to bottom and returns the last one that parses as
// a number. Blank and non-numeric cells are skipped. A column with no
// parsable entry yields ErrMetricUnavailable.
func Latest(values []string) (float64, error) {
	nums := Numbers(values)
	if len(nums) == 0 {
		return 0, ErrMetricUnavailable
	}
	return nums[len(nums)-1], nil
}

// Numbers returns every parsable value of values in order.
func Numbers(values []string) []float64 {
	out := make([]float64, 0, len(values))
	for _, cell := range values {
		if v, ok := ParseNumber(cell); ok {
			out = append(out, v)
		}
	}
	return out
}
