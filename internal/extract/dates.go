package extract

import (
	"strings"
	"time"

	"github.com/cpsfl/scorecard/internal/ingest"
)

// dateLayouts are tried in order. Sheets exported from US locales write
// month-first dates, so 1/2/2006 is January 2nd.
var dateLayouts = []string{
	"1/2/2006",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"1/2/06",
	"Jan 2, 2006",
	"January 2, 2006",
	"2-Jan-2006",
}

// ParseDate parses a cell against the accepted date layouts.
func ParseDate(cell string) (time.Time, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DateLabel formats t as month/day without padding, e.g. "1/9".
func DateLabel(t time.Time) string {
	return t.Format("1/2")
}

// DropUndated returns the rows of sheet whose cell in column col parses as a
// date. The input sheet is not modified.
func DropUndated(sheet *ingest.RawSheet, col int) *ingest.RawSheet {
	return sheet.Filter(func(r int) bool {
		_, ok := ParseDate(sheet.Cell(r, col))
		return ok
	})
}

// Point is one dated observation of a series.
type Point struct {
	Date  time.Time
	Label string
	Value float64
}

// Series pairs the date column with the value column. Rows whose date or
// value does not parse are skipped.
func Series(sheet *ingest.RawSheet, dateCol, valueCol int) []Point {
	var out []Point
	for r := range sheet.Len() {
		d, ok := ParseDate(sheet.Cell(r, dateCol))
		if !ok {
			continue
		}
		v, ok := ParseNumber(sheet.Cell(r, valueCol))
		if !ok {
			continue
		}
		out = append(out, Point{Date: d, Label: DateLabel(d), Value: v})
	}
	return out
}
