package snapshot

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/cpsfl/scorecard/internal/config"
	"github.com/cpsfl/scorecard/internal/extract"
	"github.com/cpsfl/scorecard/internal/ingest"
)

// fieldNames returns the logical fields a table or performance section
// produces: the slice's positional names, or the mapping table's names.
func (s section) fieldNames() []string {
	if s.cfg.Slice != nil {
		return s.cfg.Slice.Fields
	}
	names := make([]string, len(s.schema.Fields))
	for i, f := range s.schema.Fields {
		names[i] = f.Name
	}
	return names
}

// rows extracts the section's rows either positionally or by column name.
// A name-mapped performance section needs only its score and target; the
// other fields fall back to "" when their column or cell is missing.
func (s section) rows(sheet *ingest.RawSheet) ([]extract.Row, error) {
	if sl := s.cfg.Slice; sl != nil {
		return extract.Slice(sheet, extract.Range{
			RowStart: sl.RowStart, RowEnd: sl.RowEnd,
			ColStart: sl.ColStart, ColEnd: sl.ColEnd,
		}, sl.Fields)
	}
	if s.cfg.Kind == config.SectionPerformance {
		return columnRows(s.schema, sheet, FieldScore, FieldTarget)
	}
	return columnRows(s.schema, sheet)
}

// columnRows resolves fields to columns and keeps the rows in which every
// required field is populated. With no required names given, every field is
// required. A missing required column fails the whole table.
func columnRows(schema *extract.Schema, sheet *ingest.RawSheet, required ...string) ([]extract.Row, error) {
	needed := func(name string) bool {
		return len(required) == 0 || slices.Contains(required, name)
	}

	cols := make([]int, len(schema.Fields))
	for i, f := range schema.Fields {
		c, err := f.Resolve(sheet)
		if err != nil {
			if needed(f.Name) {
				return nil, err
			}
			c = -1
		}
		cols[i] = c
	}

	var out []extract.Row
	for r := range sheet.Len() {
		row := extract.Row{Index: r, Values: make(map[string]string, len(cols))}
		keep := true
		for i, c := range cols {
			name := schema.Fields[i].Name
			v := strings.TrimSpace(sheet.Cell(r, c))
			if v == "" && needed(name) {
				keep = false
			}
			row.Values[name] = v
		}
		if keep {
			out = append(out, row)
		}
	}
	return out, nil
}

func table(sec section, sheet *ingest.RawSheet) (*Table, error) {
	rows, err := sec.rows(sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no populated rows: %w", extract.ErrMetricUnavailable)
	}

	out := &Table{Fields: sec.fieldNames(), Rows: make([]TableRow, 0, len(rows))}
	for _, r := range rows {
		tr := TableRow{Index: r.Index, Values: r.Values}
		for name, v := range r.Values {
			if n, ok := extract.ParseNumber(v); ok {
				if tr.Numbers == nil {
					tr.Numbers = make(map[string]float64, len(r.Values))
				}
				tr.Numbers[name] = n
			}
		}
		out.Rows = append(out.Rows, tr)
	}
	return out, nil
}

func performance(sec section, sheet *ingest.RawSheet) ([]PerformanceRow, error) {
	rows, err := sec.rows(sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no populated rows: %w", extract.ErrMetricUnavailable)
	}

	out := make([]PerformanceRow, 0, len(rows))
	for _, r := range rows {
		pr := PerformanceRow{
			Measure:     r.Values[FieldMeasure],
			Description: r.Values[FieldDescription],
		}
		if pr.Measure == "" {
			pr.Measure = "row " + strconv.Itoa(r.Index)
		}
		pr.Score, pr.ScoreAvailable = extract.ParseNumber(r.Values[FieldScore])
		pr.Target, pr.TargetAvailable = extract.ParseNumber(r.Values[FieldTarget])
		if pr.ScoreAvailable && pr.TargetAvailable {
			if ratio, err := extract.Ratio(pr.Score, pr.Target); err == nil {
				pr.Ratio, pr.RatioAvailable = ratio, true
			}
			pr.Met = pr.Score >= pr.Target
		}
		out = append(out, pr)
	}
	return out, nil
}

// checkPerformanceFields rejects a performance section that cannot yield a
// score and a target.
func checkPerformanceFields(sec section) error {
	if sec.cfg.Kind != config.SectionPerformance {
		return nil
	}
	for _, want := range []string{FieldScore, FieldTarget} {
		var ok bool
		if sl := sec.cfg.Slice; sl != nil {
			ok = slices.Contains(sl.Fields, want)
		} else {
			_, ok = sec.schema.Field(want)
		}
		if !ok {
			return fmt.Errorf("performance section needs a %q field", want)
		}
	}
	return nil
}
