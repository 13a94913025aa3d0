package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cpsfl/scorecard/internal/config"
	"github.com/cpsfl/scorecard/internal/ingest"
)

// Strategy selects how a field finds its column in the header row.
type Strategy string

// Match strategies.
const (
	MatchExact    Strategy = "exact"    // trimmed label equality
	MatchFold     Strategy = "fold"     // case-insensitive equality
	MatchPrefix   Strategy = "prefix"   // label starts with Source
	MatchRegex    Strategy = "regex"    // label matches the Source expression
	MatchPosition Strategy = "position" // zero-based column index
)

// Field is one compiled entry of the mapping table.
type Field struct {
	Name   string
	Label  string
	Unit   string
	Match  Strategy
	Source string
	Column int

	re *regexp.Regexp
}

// Schema is the compiled mapping table of one section, in declaration order.
type Schema struct {
	Fields []Field
}

// Compile validates the mapping table. Errors here are startup errors: an
// unknown strategy, an invalid regular expression, a duplicate field name, an
// empty source or a negative position.
func Compile(fields []config.Field) (*Schema, error) {
	seen := make(map[string]bool, len(fields))
	out := &Schema{Fields: make([]Field, 0, len(fields))}

	for i, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("extract: fields[%d]: name is required", i)
		}
		if seen[f.Name] {
			return nil, fmt.Errorf("extract: fields[%d]: duplicate field %q", i, f.Name)
		}
		seen[f.Name] = true

		cf := Field{
			Name:   f.Name,
			Label:  f.Label,
			Unit:   f.Unit,
			Match:  Strategy(f.Match),
			Source: strings.TrimSpace(f.Source),
			Column: f.Column,
		}
		if cf.Match == "" {
			cf.Match = MatchExact
		}
		if cf.Label == "" {
			cf.Label = cf.Source
		}

		switch cf.Match {
		case MatchExact, MatchFold, MatchPrefix:
			if cf.Source == "" {
				return nil, fmt.Errorf("extract: field %q: source is required for %s", f.Name, cf.Match)
			}
		case MatchRegex:
			re, err := regexp.Compile(cf.Source)
			if err != nil {
				return nil, fmt.Errorf("extract: field %q: compile regex: %w", f.Name, err)
			}
			cf.re = re
		case MatchPosition:
			if cf.Column < 0 {
				return nil, fmt.Errorf("extract: field %q: column %d is negative", f.Name, cf.Column)
			}
		default:
			return nil, fmt.Errorf("extract: field %q: unknown match strategy %q", f.Name, f.Match)
		}
		if cf.Label == "" {
			cf.Label = cf.Name
		}
		out.Fields = append(out.Fields, cf)
	}
	return out, nil
}

// Field returns the compiled field with the given name.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Resolve returns the column index of f in sheet. The first matching header
// wins. A field with no matching column yields ErrShapeMismatch.
func (f Field) Resolve(sheet *ingest.RawSheet) (int, error) {
	if f.Match == MatchPosition {
		if f.Column >= sheet.Width() {
			return -1, fmt.Errorf("field %q: column %d beyond width %d: %w",
				f.Name, f.Column, sheet.Width(), ErrShapeMismatch)
		}
		return f.Column, nil
	}
	for i, h := range sheet.Header {
		if f.matches(h) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("field %q: no column %s %q: %w", f.Name, f.Match, f.Source, ErrShapeMismatch)
}

func (f Field) matches(label string) bool {
	switch f.Match {
	case MatchExact:
		return label == f.Source
	case MatchFold:
		return strings.EqualFold(label, f.Source)
	case MatchPrefix:
		return strings.HasPrefix(label, f.Source)
	case MatchRegex:
		return f.re.MatchString(label)
	}
	return false
}
