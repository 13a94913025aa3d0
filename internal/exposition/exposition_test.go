package exposition

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/cpsfl/scorecard/internal/config"
	"github.com/cpsfl/scorecard/internal/extract"
	"github.com/cpsfl/scorecard/internal/snapshot"
)

func fixture() *snapshot.Snapshot {
	failed := errors.New("sheet \"waitlist\": source unavailable: boom")
	return &snapshot.Snapshot{
		ID:      "snap-1",
		BuiltAt: time.Unix(1706022000, 0),
		Sheets: []snapshot.SheetStatus{
			{ID: "scorecard", Up: true, Rows: 4},
			{ID: "waitlist"},
		},
		Sections: []*snapshot.Result{
			{
				ID: "overview", Kind: config.SectionMetrics,
				Metrics: []snapshot.Metric{
					{Name: "overall_completion_pct", Value: 94.1, Available: true},
					{Name: "missing", ErrorKind: snapshot.KindShapeMismatch},
				},
			},
			{
				ID: "trend", Kind: config.SectionSeries,
				Series: &snapshot.Series{Trend: snapshot.Trend{Latest: 94.1, Mean: 93.2, Direction: extract.Improving}},
			},
			{
				ID: "programs", Kind: config.SectionTable,
				Table: &snapshot.Table{Fields: []string{"program", "avg_wait_days"}, Rows: []snapshot.TableRow{
					{Index: 4, Values: map[string]string{"program": "Outpatient", "avg_wait_days": "12"},
						Numbers: map[string]float64{"avg_wait_days": 12}},
				}},
			},
			{
				ID: "measures", Kind: config.SectionPerformance,
				Performance: []snapshot.PerformanceRow{
					{Measure: "PM1", Score: 87.5, Target: 90, ScoreAvailable: true, TargetAvailable: true, Ratio: 87.5 / 90, RatioAvailable: true},
					{Measure: "PM3", Target: 80, TargetAvailable: true},
				},
			},
			{ID: "waitlist", Kind: config.SectionTable, Err: failed, Error: failed.Error()},
		},
	}
}

// parse round-trips the written exposition through the text parser.
func parse(t *testing.T, snap *snapshot.Snapshot) map[string]*dto.MetricFamily {
	t.Helper()
	var buf bytes.Buffer
	if err := Write(&buf, snap); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(&buf)
	if err != nil {
		t.Fatalf("parse exposition: %v\n%s", err, buf.String())
	}
	return mfs
}

// sample returns the gauge value of the metric in mf whose labels include want.
func sample(t *testing.T, mf *dto.MetricFamily, want map[string]string) (float64, bool) {
	t.Helper()
	if mf == nil {
		return 0, false
	}
	for _, m := range mf.GetMetric() {
		got := make(map[string]string)
		for _, lp := range m.GetLabel() {
			got[lp.GetName()] = lp.GetValue()
		}
		match := true
		for k, v := range want {
			if got[k] != v {
				match = false
				break
			}
		}
		if match {
			return m.GetGauge().GetValue(), true
		}
	}
	return 0, false
}

func TestWrite_RoundTrip(t *testing.T) {
	mfs := parse(t, fixture())

	tests := []struct {
		family string
		labels map[string]string
		want   float64
	}{
		{FamilyMetricValue, map[string]string{"section": "overview", "field": "overall_completion_pct"}, 94.1},
		{FamilyMetricAvailable, map[string]string{"field": "overall_completion_pct"}, 1},
		{FamilyMetricAvailable, map[string]string{"field": "missing"}, 0},
		{FamilySectionOK, map[string]string{"section": "overview"}, 1},
		{FamilySectionOK, map[string]string{"section": "waitlist"}, 0},
		{FamilySheetUp, map[string]string{"sheet": "scorecard"}, 1},
		{FamilySheetUp, map[string]string{"sheet": "waitlist"}, 0},
		{FamilySheetRows, map[string]string{"sheet": "scorecard"}, 4},
		{FamilyTableValue, map[string]string{"section": "programs", "row": "4", "field": "avg_wait_days"}, 12},
		{FamilyPerformanceScore, map[string]string{"measure": "PM1"}, 87.5},
		{FamilyPerformanceTarget, map[string]string{"measure": "PM3"}, 80},
		{FamilyTrendImproving, map[string]string{"section": "trend"}, 1},
		{FamilyBuildTimestamp, nil, 1706022000},
	}
	for _, tc := range tests {
		got, ok := sample(t, mfs[tc.family], tc.labels)
		if !ok {
			t.Errorf("%s%v: sample not found", tc.family, tc.labels)
			continue
		}
		if got != tc.want {
			t.Errorf("%s%v = %v, want %v", tc.family, tc.labels, got, tc.want)
		}
	}

	if _, ok := sample(t, mfs[FamilyMetricValue], map[string]string{"field": "missing"}); ok {
		t.Error("unavailable metric exported a value")
	}
	if _, ok := sample(t, mfs[FamilyPerformanceScore], map[string]string{"measure": "PM3"}); ok {
		t.Error("missing score exported")
	}
	if r, _ := sample(t, mfs[FamilyPerformanceRatio], map[string]string{"measure": "PM1"}); r < 0 || r > 1 {
		t.Errorf("ratio %v outside [0,1]", r)
	}
}

func TestFamilies_OmitsEmpty(t *testing.T) {
	mfs := Families(&snapshot.Snapshot{BuiltAt: time.Unix(0, 0)})
	if len(mfs) != 1 || mfs[0].GetName() != FamilyBuildTimestamp {
		names := make([]string, len(mfs))
		for i, mf := range mfs {
			names[i] = mf.GetName()
		}
		t.Errorf("families = %v, want only %s", names, FamilyBuildTimestamp)
	}
}

func TestContentType(t *testing.T) {
	if !strings.HasPrefix(ContentType, "text/plain") {
		t.Errorf("ContentType = %q", ContentType)
	}
}
