// Package extract turns a RawSheet into named scorecard values.
//
// schema.go compiles the field mapping table once at startup and resolves
// each field to a column of a fetched sheet. number.go holds the "latest"
// reducer, slice.go the positional submatrix reducer, dates.go the date
// filter, ratio.go the clamped score/target ratio and trend.go the
// improving/declining classification.
//
// Every reducer is pure. A failure affects only the value being derived and
// is reported as ErrShapeMismatch or ErrMetricUnavailable.
package extract
