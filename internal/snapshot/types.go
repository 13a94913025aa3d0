package snapshot

import (
	"errors"
	"time"

	"github.com/cpsfl/scorecard/internal/extract"
	"github.com/cpsfl/scorecard/internal/ingest"
)

// Well-known metric names used by the canonical scorecard layout.
const (
	MetricOverallCompletion  = "overall_completion_pct"
	MetricReportsCompliance  = "reports_compliance_pct"
	MetricPerformanceMeasure = "performance_measure_pct"

	MetricOnTime   = "on_time"
	MetricLate     = "late"
	MetricMissing  = "missing"
	MetricRejected = "rejected"
	MetricPending  = "pending"

	FieldAvgWaitDays = "avg_wait_days"
)

// Performance row field names. A performance section maps its columns onto
// these; measure and description are optional.
const (
	FieldMeasure     = "measure"
	FieldDescription = "description"
	FieldScore       = "score"
	FieldTarget      = "target"
)

// ErrorKind is the stable, machine-readable class of a failure.
type ErrorKind string

// Error kinds.
const (
	KindSourceUnavailable ErrorKind = "source_unavailable"
	KindShapeMismatch     ErrorKind = "shape_mismatch"
	KindMetricUnavailable ErrorKind = "metric_unavailable"
)

// KindOf classifies err. Any error outside the taxonomy is reported as
// metric_unavailable.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ingest.ErrSourceUnavailable):
		return KindSourceUnavailable
	case errors.Is(err, extract.ErrShapeMismatch):
		return KindShapeMismatch
	default:
		return KindMetricUnavailable
	}
}

// Snapshot is one build of the whole scorecard.
type Snapshot struct {
	ID       string        `json:"id"`
	BuiltAt  time.Time     `json:"built_at"`
	Sheets   []SheetStatus `json:"sheets"`
	Sections []*Result     `json:"sections"`
}

// Section returns the result with the given section id.
func (s *Snapshot) Section(id string) (*Result, bool) {
	for _, r := range s.Sections {
		if r.ID == id {
			return r, true
		}
	}
	return nil, false
}

// Metric returns the first scalar metric named name across metric sections.
func (s *Snapshot) Metric(name string) (Metric, bool) {
	for _, r := range s.Sections {
		for _, m := range r.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return Metric{}, false
}

// FailedSections returns the number of sections that carry an error.
func (s *Snapshot) FailedSections() int {
	n := 0
	for _, r := range s.Sections {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// SheetStatus reports the outcome of fetching one sheet in this pass.
type SheetStatus struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Up        bool      `json:"up"`
	Rows      int       `json:"rows"`
	Dropped   int       `json:"dropped_undated"`
	FetchedAt time.Time `json:"fetched_at,omitzero"`

	// Error is why the fetch failed, or, on a sheet that is Up, why its
	// date column could not be applied.
	Error string `json:"error,omitempty"`
}

// Result is the outcome of one section. Exactly one of Metrics, Series,
// Table or Performance is populated, matching Kind.
type Result struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Kind  string `json:"kind"`
	Sheet string `json:"sheet"`

	Metrics     []Metric         `json:"metrics,omitempty"`
	Series      *Series          `json:"series,omitempty"`
	Table       *Table           `json:"table,omitempty"`
	Performance []PerformanceRow `json:"performance,omitempty"`

	// Err is set when the section as a whole could not be built.
	Err       error     `json:"-"`
	Error     string    `json:"error,omitempty"`
	ErrorKind ErrorKind `json:"error_kind,omitempty"`
}

func (r *Result) fail(err error) {
	r.Err = err
	r.Error = err.Error()
	r.ErrorKind = KindOf(err)
}

// Metric is one scalar value. Value is meaningful only when Available.
type Metric struct {
	Name      string    `json:"name"`
	Label     string    `json:"label"`
	Unit      string    `json:"unit,omitempty"`
	Value     float64   `json:"value"`
	Available bool      `json:"available"`
	Error     string    `json:"error,omitempty"`
	ErrorKind ErrorKind `json:"error_kind,omitempty"`
}

// Series is a dated value column with its trend.
type Series struct {
	Field  string  `json:"field"`
	Label  string  `json:"label"`
	Unit   string  `json:"unit,omitempty"`
	Points []Point `json:"points"`
	Trend  Trend   `json:"trend"`
}

// Point is one dated observation.
type Point struct {
	Date  time.Time `json:"date"`
	Label string    `json:"label"`
	Value float64   `json:"value"`
}

// Trend is the latest value of a series against its mean.
type Trend struct {
	Latest    float64           `json:"latest"`
	Mean      float64           `json:"mean"`
	Direction extract.Direction `json:"direction"`
}

// Table is a positional or name-mapped block of rows.
type Table struct {
	Fields []string   `json:"fields"`
	Rows   []TableRow `json:"rows"`
}

// TableRow is one kept row. Numbers holds the cells that parse as numbers.
type TableRow struct {
	Index   int                `json:"index"`
	Values  map[string]string  `json:"values"`
	Numbers map[string]float64 `json:"numbers,omitempty"`
}

// PerformanceRow is one performance measure compared against its target.
type PerformanceRow struct {
	Measure     string  `json:"measure"`
	Description string  `json:"description,omitempty"`
	Score       float64 `json:"score"`
	Target      float64 `json:"target"`

	// ScoreAvailable and TargetAvailable report whether the cells parsed.
	ScoreAvailable  bool `json:"score_available"`
	TargetAvailable bool `json:"target_available"`

	// Ratio is score/target clamped to [0, 1], valid when RatioAvailable.
	Ratio          float64 `json:"ratio"`
	RatioAvailable bool    `json:"ratio_available"`
	Met            bool    `json:"met"`
}
