package view

import (
	"fmt"
	"math"
	"time"

	"github.com/cpsfl/scorecard/internal/config"
	"github.com/cpsfl/scorecard/internal/extract"
	"github.com/cpsfl/scorecard/internal/snapshot"
)

// Display units.
const (
	UnitPercent = "percent"
	UnitCount   = "count"
	UnitDays    = "days"
)

// Render converts snap into a Model.
func Render(snap *snapshot.Snapshot) Model {
	m := Model{
		SnapshotID:  snap.ID,
		GeneratedAt: snap.BuiltAt.UTC().Format(time.RFC3339),
		Sections:    make([]Section, 0, len(snap.Sections)),
		Sheets:      make([]Sheet, 0, len(snap.Sheets)),
	}
	for _, st := range snap.Sheets {
		s := Sheet{ID: st.ID, Up: st.Up, Rows: st.Rows, Error: st.Error}
		if !st.FetchedAt.IsZero() {
			s.FetchedAt = st.FetchedAt.UTC().Format(time.RFC3339)
		}
		m.Sheets = append(m.Sheets, s)
	}
	for _, res := range snap.Sections {
		m.Sections = append(m.Sections, renderSection(res))
	}
	m.Hints = computeHints(snap)
	return m
}

func renderSection(res *snapshot.Result) Section {
	s := Section{ID: res.ID, Title: res.Title, Kind: res.Kind}

	// Metric sections keep their tiles so each one can show "unavailable".
	if res.Kind == config.SectionMetrics {
		for _, mt := range res.Metrics {
			if mt.Unit == UnitPercent {
				s.Gauges = append(s.Gauges, gauge(mt))
			} else {
				s.Stats = append(s.Stats, stat(mt))
			}
		}
	}
	if res.Err != nil {
		s.Error = &ErrorBanner{
			Kind:    string(res.ErrorKind),
			Title:   bannerTitle(res.ErrorKind),
			Message: res.Error,
		}
		return s
	}

	switch {
	case res.Series != nil:
		s.Trend = trendLine(res.Series)
	case res.Table != nil:
		s.Table = table(res.Table)
	case res.Performance != nil:
		s.Bars = bars(res.Performance)
	}
	return s
}

func bannerTitle(kind snapshot.ErrorKind) string {
	switch kind {
	case snapshot.KindSourceUnavailable:
		return "An error occurred while loading the Google Sheet"
	case snapshot.KindShapeMismatch:
		return "The sheet layout has changed"
	default:
		return "No data available"
	}
}

func gauge(mt snapshot.Metric) Gauge {
	g := Gauge{Name: mt.Name, Title: mt.Label, Available: mt.Available, Error: mt.Error}
	if !mt.Available {
		g.Display = "unavailable"
		return g
	}
	g.Value = mt.Value
	g.Fraction = extract.Clamp01(mt.Value / 100)
	g.Display = format(mt.Value, UnitPercent)
	return g
}

func stat(mt snapshot.Metric) Stat {
	s := Stat{Name: mt.Name, Title: mt.Label, Available: mt.Available, Error: mt.Error}
	if !mt.Available {
		s.Display = "unavailable"
		return s
	}
	s.Value = mt.Value
	s.Display = format(mt.Value, mt.Unit)
	return s
}

// format renders v for its unit. Percentages keep two decimals.
func format(v float64, unit string) string {
	switch unit {
	case UnitPercent:
		return fmt.Sprintf("%.2f%%", v)
	case UnitCount:
		return fmt.Sprintf("%.0f", v)
	case UnitDays:
		if v == math.Trunc(v) {
			return fmt.Sprintf("%.0f days", v)
		}
		return fmt.Sprintf("%.1f days", v)
	default:
		return fmt.Sprintf("%g", v)
	}
}

func trendLine(s *snapshot.Series) *TrendLine {
	t := &TrendLine{
		Title:     s.Label,
		Labels:    make([]string, len(s.Points)),
		Values:    make([]float64, len(s.Points)),
		Latest:    s.Trend.Latest,
		Mean:      s.Trend.Mean,
		Direction: string(s.Trend.Direction),
	}
	for i, p := range s.Points {
		t.Labels[i] = p.Label
		t.Values[i] = p.Value
	}
	return t
}

func table(t *snapshot.Table) *Table {
	out := &Table{Columns: t.Fields, Rows: make([][]string, 0, len(t.Rows))}
	for _, r := range t.Rows {
		row := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			row[i] = r.Values[f]
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

func bars(rows []snapshot.PerformanceRow) []Bar {
	out := make([]Bar, 0, len(rows))
	for _, r := range rows {
		b := Bar{
			Measure:     r.Measure,
			Description: r.Description,
			Score:       r.Score,
			Target:      r.Target,
			Met:         r.Met,
			Available:   r.RatioAvailable,
		}
		if r.RatioAvailable {
			b.Fraction = r.Ratio
			b.Display = fmt.Sprintf("%g / %g", r.Score, r.Target)
		} else {
			b.Display = "unavailable"
		}
		out = append(out, b)
	}
	return out
}
