package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// RawSheet is one fetched tab: a trimmed header row followed by data rows.
// Every data row is padded to the header width, so Cell never panics for
// in-range columns and simply returns "" beyond a short row.
type RawSheet struct {
	SourceID  string
	URL       string
	FetchedAt time.Time

	// Header holds the column labels of the first row, whitespace-trimmed.
	Header []string

	// Rows holds the data rows in source order, header excluded.
	Rows [][]string
}

// Width returns the number of columns.
func (s *RawSheet) Width() int { return len(s.Header) }

// Len returns the number of data rows.
func (s *RawSheet) Len() int { return len(s.Rows) }

// Cell returns the raw value at data row r, column c, or "" when out of range.
func (s *RawSheet) Cell(r, c int) string {
	if r < 0 || r >= len(s.Rows) || c < 0 || c >= len(s.Rows[r]) {
		return ""
	}
	return s.Rows[r][c]
}

// Column returns the values of column c, top to bottom.
func (s *RawSheet) Column(c int) []string {
	out := make([]string, len(s.Rows))
	for i := range s.Rows {
		out[i] = s.Cell(i, c)
	}
	return out
}

// Index returns the position of the column labelled exactly label.
func (s *RawSheet) Index(label string) (int, bool) {
	for i, h := range s.Header {
		if h == label {
			return i, true
		}
	}
	return -1, false
}

// Filter returns a shallow copy holding only the rows for which keep is true.
func (s *RawSheet) Filter(keep func(row int) bool) *RawSheet {
	out := *s
	out.Rows = make([][]string, 0, len(s.Rows))
	for i, row := range s.Rows {
		if keep(i) {
			out.Rows = append(out.Rows, row)
		}
	}
	return &out
}

// errNoHeader is returned by Parse for a body with no rows at all.
var errNoHeader = errors.New("no header row")

// Parse decodes a CSV body into a RawSheet.
//
// The body may lack a trailing newline, start with a UTF-8 BOM, or carry
// ragged rows. A cell that is not valid UTF-8 is decoded as Windows-1252,
// the usual encoding of legacy text pasted into a sheet; valid cells are
// left untouched.
func Parse(r io.Reader) (*RawSheet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	for _, rec := range records {
		for i, cell := range rec {
			rec[i] = decodeCell(cell)
		}
	}
	return FromRecords(records)
}

func decodeCell(cell string) string {
	if utf8.ValidString(cell) {
		return cell
	}
	decoded, err := charmap.Windows1252.NewDecoder().String(cell)
	if err != nil {
		return strings.ToValidUTF8(cell, "\uFFFD")
	}
	return decoded
}

// FromRecords builds a RawSheet from already-split rows, the first being the header.
func FromRecords(records [][]string) (*RawSheet, error) {
	if len(records) == 0 {
		return nil, errNoHeader
	}

	width := 0
	for _, rec := range records {
		width = max(width, len(rec))
	}

	header := make([]string, width)
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
	}

	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make([]string, width)
		copy(row, rec)
		rows = append(rows, row)
	}
	return &RawSheet{Header: header, Rows: rows}, nil
}
