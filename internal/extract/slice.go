package extract

import (
	"fmt"
	"strings"

	"github.com/cpsfl/scorecard/internal/ingest"
)

// Range is a half-open positional window over data rows (header excluded),
// like iloc[RowStart:RowEnd, ColStart:ColEnd].
type Range struct {
	RowStart, RowEnd int
	ColStart, ColEnd int
}

// Row is one kept row of a positional slice.
type Row struct {
	// Index is the zero-based data row the values came from.
	Index  int
	Values map[string]string
}

// Slice extracts the submatrix r from sheet and maps its cells onto fields by
// position. The window is clipped to the sheet. Only the mapped columns
// count: a row with none of them populated is dropped, and so is any row with
// fewer populated mapped cells than there are fields.
//
// Slice fails with ErrShapeMismatch only when the window lies entirely
// outside the sheet.
func Slice(sheet *ingest.RawSheet, r Range, fields []string) ([]Row, error) {
	rowEnd := min(r.RowEnd, sheet.Len())
	colEnd := min(r.ColEnd, sheet.Width())
	if r.RowStart >= rowEnd || r.ColStart >= colEnd {
		return nil, fmt.Errorf("slice [%d:%d, %d:%d] outside %dx%d sheet: %w",
			r.RowStart, r.RowEnd, r.ColStart, r.ColEnd, sheet.Len(), sheet.Width(), ErrShapeMismatch)
	}

	var out []Row
	for i := r.RowStart; i < rowEnd; i++ {
		row := Row{Index: i, Values: make(map[string]string, len(fields))}
		populated := 0
		for j, name := range fields {
			var v string
			if c := r.ColStart + j; c < colEnd {
				v = strings.TrimSpace(sheet.Cell(i, c))
			}
			if v != "" {
				populated++
			}
			row.Values[name] = v
		}
		if populated == 0 || populated < len(fields) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}
