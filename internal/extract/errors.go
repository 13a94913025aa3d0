package extract

import "errors"

var (
	// ErrShapeMismatch reports a sheet that lacks an expected column or range.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrMetricUnavailable reports a column that exists but yields no usable value.
	ErrMetricUnavailable = errors.New("metric unavailable")
)
