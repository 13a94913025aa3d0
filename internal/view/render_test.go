package view

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/cpsfl/scorecard/internal/config"
	"github.com/cpsfl/scorecard/internal/extract"
	"github.com/cpsfl/scorecard/internal/ingest"
	"github.com/cpsfl/scorecard/internal/snapshot"
)

var built = time.Date(2024, 1, 23, 15, 0, 0, 0, time.UTC)

func fixture() *snapshot.Snapshot {
	srcErr := &ingest.SourceError{SheetID: "waitlist", URL: "http://x", Err: errors.New("unexpected status 404")}
	return &snapshot.Snapshot{
		ID:      "snap-1",
		BuiltAt: built,
		Sheets: []snapshot.SheetStatus{
			{ID: "scorecard", Up: true, Rows: 4, FetchedAt: built.Add(-time.Minute)},
			{ID: "performance", Up: true, Rows: 3, FetchedAt: built.Add(-time.Hour)},
			{ID: "waitlist", Error: srcErr.Error()},
		},
		Sections: []*snapshot.Result{
			{
				ID: "overview", Title: "Overview", Kind: config.SectionMetrics,
				Metrics: []snapshot.Metric{
					{Name: "overall_completion_pct", Label: "Overall % Completed", Unit: UnitPercent, Value: 94.1, Available: true},
					{Name: "reports_compliance_pct", Label: "Required Reports Compliance", Unit: UnitPercent, Value: 130, Available: true},
					{Name: "on_time", Label: "On Time", Unit: UnitCount, Value: 14, Available: true},
					{Name: "missing", Label: "Missing", Unit: UnitCount, Error: "no column", ErrorKind: snapshot.KindShapeMismatch},
				},
			},
			{
				ID: "trend", Title: "Trend", Kind: config.SectionSeries,
				Series: &snapshot.Series{
					Label: "Overall % Completed",
					Points: []snapshot.Point{
						{Label: "1/2", Value: 92.5}, {Label: "1/9", Value: 93.0}, {Label: "1/23", Value: 94.1},
					},
					Trend: snapshot.Trend{Latest: 94.1, Mean: 93.2, Direction: extract.Improving},
				},
			},
			{
				ID: "measures", Title: "Measures", Kind: config.SectionPerformance,
				Performance: []snapshot.PerformanceRow{
					{Measure: "PM1", Score: 87.5, Target: 90, Ratio: 87.5 / 90, RatioAvailable: true},
					{Measure: "PM2", Score: 96, Target: 95, Ratio: 1, RatioAvailable: true, Met: true},
					{Measure: "PM3", Target: 0},
				},
			},
			{
				ID: "waitlist", Title: "Waitlist", Kind: config.SectionTable,
				Err: srcErr, Error: srcErr.Error(), ErrorKind: snapshot.KindSourceUnavailable,
			},
		},
	}
}

func TestRender_Gauges(t *testing.T) {
	m := Render(fixture())
	if m.SnapshotID != "snap-1" || m.GeneratedAt != "2024-01-23T15:00:00Z" {
		t.Errorf("header = %q %q", m.SnapshotID, m.GeneratedAt)
	}

	ov, ok := m.Section("overview")
	if !ok {
		t.Fatal("overview section missing")
	}
	if len(ov.Gauges) != 2 || len(ov.Stats) != 2 {
		t.Fatalf("gauges=%d stats=%d, want 2 and 2", len(ov.Gauges), len(ov.Stats))
	}
	g := ov.Gauges[0]
	if g.Display != "94.10%" || math.Abs(g.Fraction-0.941) > 1e-9 {
		t.Errorf("gauge = %+v", g)
	}
	if f := ov.Gauges[1].Fraction; f != 1 {
		t.Errorf("over-100%% gauge fraction = %v, want clamped to 1", f)
	}
	if s := ov.Stats[0]; s.Display != "14" {
		t.Errorf("count display = %q", s.Display)
	}
	if s := ov.Stats[1]; s.Available || s.Display != "unavailable" {
		t.Errorf("unavailable stat = %+v", s)
	}
}

func TestRender_TrendBarsAndBanner(t *testing.T) {
	m := Render(fixture())

	tr, _ := m.Section("trend")
	if tr.Trend == nil || !reflect.DeepEqual(tr.Trend.Labels, []string{"1/2", "1/9", "1/23"}) {
		t.Fatalf("trend = %+v", tr.Trend)
	}
	if tr.Trend.Direction != "improving" {
		t.Errorf("direction = %q", tr.Trend.Direction)
	}

	ms, _ := m.Section("measures")
	if len(ms.Bars) != 3 {
		t.Fatalf("bars = %d, want 3", len(ms.Bars))
	}
	for _, b := range ms.Bars {
		if b.Fraction < 0 || b.Fraction > 1 {
			t.Errorf("bar %s fraction %v outside [0,1]", b.Measure, b.Fraction)
		}
	}
	if ms.Bars[2].Available || ms.Bars[2].Display != "unavailable" {
		t.Errorf("bar without ratio = %+v", ms.Bars[2])
	}

	wl, _ := m.Section("waitlist")
	if wl.Error == nil || wl.Error.Kind != "source_unavailable" {
		t.Fatalf("banner = %+v", wl.Error)
	}
	if !strings.Contains(wl.Error.Message, "unexpected status 404") {
		t.Errorf("banner message = %q", wl.Error.Message)
	}
	if wl.Table != nil {
		t.Error("failed section must not render content")
	}
}

func TestRender_Table(t *testing.T) {
	snap := &snapshot.Snapshot{BuiltAt: built, Sections: []*snapshot.Result{{
		ID: "waitlist", Kind: config.SectionTable,
		Table: &snapshot.Table{
			Fields: []string{"program", "avg_wait_days"},
			Rows: []snapshot.TableRow{
				{Values: map[string]string{"program": "Outpatient", "avg_wait_days": "12"}},
				{Values: map[string]string{"program": "Residential", "avg_wait_days": "30"}},
			},
		},
	}}}
	m := Render(snap)
	sec, _ := m.Section("waitlist")
	want := [][]string{{"Outpatient", "12"}, {"Residential", "30"}}
	if sec.Table == nil || !reflect.DeepEqual(sec.Table.Rows, want) {
		t.Errorf("table = %+v", sec.Table)
	}
}

func TestRender_Pure(t *testing.T) {
	snap := fixture()
	if a, b := Render(snap), Render(snap); !reflect.DeepEqual(a, b) {
		t.Error("Render is not deterministic")
	}
}

func TestHints(t *testing.T) {
	hints := Render(fixture()).Hints

	keys := make(map[string]string, len(hints))
	for _, h := range hints {
		keys[h.Key] = h.Level
	}
	want := map[string]string{
		"sheet_down:waitlist":    LevelCritical,
		"missing_column:missing": LevelWarning,
		"trend:trend":            LevelInfo,
		"below_target:measures":  LevelWarning,
		"stale:performance":      LevelInfo,
	}
	for k, lvl := range want {
		if keys[k] != lvl {
			t.Errorf("hint %s: level %q, want %q", k, keys[k], lvl)
		}
	}
	if _, ok := keys["stale:scorecard"]; ok {
		t.Error("fresh sheet reported stale")
	}
	if hints[0].Level != LevelCritical {
		t.Errorf("first hint level = %q, want critical", hints[0].Level)
	}
	for i := 1; i < len(hints); i++ {
		if levelRank(hints[i-1].Level) > levelRank(hints[i].Level) {
			t.Errorf("hints out of order at %d: %s before %s", i, hints[i-1].Level, hints[i].Level)
		}
	}
}

func TestHints_AllClear(t *testing.T) {
	snap := &snapshot.Snapshot{BuiltAt: built, Sheets: []snapshot.SheetStatus{{ID: "s", Up: true, FetchedAt: built}}}
	hints := Render(snap).Hints
	if len(hints) != 1 || hints[0].Key != "healthy" {
		t.Errorf("hints = %+v, want single all-clear", hints)
	}
}

func TestHints_DateColumnMissing(t *testing.T) {
	snap := &snapshot.Snapshot{
		BuiltAt: built,
		Sheets: []snapshot.SheetStatus{{
			ID: "scorecard", Up: true, Rows: 5, FetchedAt: built,
			Error: `date column "Week": shape mismatch`,
		}},
	}
	hints := Render(snap).Hints

	if len(hints) != 1 {
		t.Fatalf("hints = %+v, want one", hints)
	}
	if h := hints[0]; h.Key != "date_column:scorecard" || h.Level != LevelWarning {
		t.Errorf("hint = %s (%s), want date_column:scorecard warning", h.Key, h.Level)
	}
	if got := Render(snap).Sheets[0]; !got.Up {
		t.Error("sheet rendered as down")
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		v    float64
		unit string
		want string
	}{
		{92.5, UnitPercent, "92.50%"},
		{14, UnitCount, "14"},
		{12, UnitDays, "12 days"},
		{7.5, UnitDays, "7.5 days"},
		{3.5, "", "3.5"},
	}
	for _, tc := range tests {
		if got := format(tc.v, tc.unit); got != tc.want {
			t.Errorf("format(%v, %q) = %q, want %q", tc.v, tc.unit, got, tc.want)
		}
	}
}
