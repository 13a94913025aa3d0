package extract

import (
	"github.com/montanaflynn/stats"
)

// Direction is the classification of a series' latest value against its mean.
type Direction string

// Trend directions.
const (
	Improving Direction = "improving"
	Declining Direction = "declining"
)

// Trend summarizes a numeric series.
type Trend struct {
	Latest    float64
	Mean      float64
	Direction Direction
}

// Classify compares the last value of series with the arithmetic mean of the
// whole series. Only a latest value strictly above the mean is Improving; a
// tie is Declining. An empty series yields ErrMetricUnavailable.
func Classify(series []float64) (Trend, error) {
	if len(series) == 0 {
		return Trend{}, ErrMetricUnavailable
	}
	mean, err := stats.Mean(series)
	if err != nil {
		return Trend{}, ErrMetricUnavailable
	}

	t := Trend{Latest: series[len(series)-1], Mean: mean, Direction: Declining}
	if t.Latest > t.Mean {
		t.Direction = Improving
	}
	return t, nil
}
