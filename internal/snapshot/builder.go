package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cpsfl/scorecard/internal/cache"
	"github.com/cpsfl/scorecard/internal/config"
	"github.com/cpsfl/scorecard/internal/extract"
	"github.com/cpsfl/scorecard/internal/ingest"
)

// Options controls one build pass.
type Options struct {
	// Refresh bypasses the URL cache and replaces its entries.
	Refresh bool
}

// section is a config.Section with its compiled schema.
type section struct {
	cfg        config.Section
	schema     *extract.Schema
	dateColumn string
}

// Builder turns the configured sheets into Snapshots.
// All exported methods are safe for concurrent use.
type Builder struct {
	sheets   []config.Sheet
	fetchers map[string]ingest.Fetcher
	sections []section
	cache    *cache.Cache
	now      func() time.Time // injectable for deterministic tests
}

// NewBuilder creates one Fetcher per configured sheet and compiles every
// section's mapping table. Any compile error is a startup error.
// c may be nil, in which case every build fetches.
func NewBuilder(ctx context.Context, cfg *config.Config, c *cache.Cache, opts ingest.Options) (*Builder, error) {
	if c == nil {
		c = cache.New(0)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = cfg.Fetch.Timeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = cfg.Fetch.UserAgent
	}

	b := &Builder{
		sheets:   cfg.Sheets,
		fetchers: make(map[string]ingest.Fetcher, len(cfg.Sheets)),
		cache:    c,
		now:      time.Now,
	}
	for _, sh := range cfg.Sheets {
		f, err := ingest.New(ctx, sh, opts)
		if err != nil {
			return nil, fmt.Errorf("snapshot: sheet %q: %w", sh.ID, err)
		}
		b.fetchers[sh.ID] = f
	}
	for _, sec := range cfg.Sections {
		schema, err := extract.Compile(sec.Fields)
		if err != nil {
			return nil, fmt.Errorf("snapshot: section %q: %w", sec.ID, err)
		}
		sh, _ := cfg.SheetByID(sec.Sheet)
		compiled := section{cfg: sec, schema: schema, dateColumn: sh.DateColumn}
		if err := checkPerformanceFields(compiled); err != nil {
			return nil, fmt.Errorf("snapshot: section %q: %w", sec.ID, err)
		}
		b.sections = append(b.sections, compiled)
	}
	return b, nil
}

// SectionIDs returns the configured section ids in order.
func (b *Builder) SectionIDs() []string {
	out := make([]string, len(b.sections))
	for i, s := range b.sections {
		out[i] = s.cfg.ID
	}
	return out
}

// loaded is the per-pass outcome of one sheet.
type loaded struct {
	sheet *ingest.RawSheet
	err   error
}

// Build runs one pass: every sheet is fetched once, undated rows are
// dropped, then each section is evaluated in config order.
func (b *Builder) Build(ctx context.Context, opts Options) *Snapshot {
	snap := &Snapshot{
		ID:      uuid.NewString(),
		BuiltAt: b.now().UTC(),
	}

	data := make(map[string]loaded, len(b.sheets))
	for _, sh := range b.sheets {
		f := b.fetchers[sh.ID]
		status := SheetStatus{ID: sh.ID, URL: f.URL()}

		raw, err := b.cache.Get(ctx, f, opts.Refresh)
		if err != nil {
			status.Error = err.Error()
			data[sh.ID] = loaded{err: err}
			snap.Sheets = append(snap.Sheets, status)
			continue
		}
		if sh.DateColumn != "" {
			// Without its date column the sheet keeps every row; only
			// series sections, which need the dates, fail.
			kept, dropped, derr := dropUndated(raw, sh.DateColumn)
			if derr != nil {
				status.Error = derr.Error()
			} else {
				raw, status.Dropped = kept, dropped
			}
		}
		status.Up = true
		status.Rows = raw.Len()
		status.FetchedAt = raw.FetchedAt
		data[sh.ID] = loaded{sheet: raw}
		snap.Sheets = append(snap.Sheets, status)
	}

	for _, sec := range b.sections {
		res := evaluate(sec, data[sec.cfg.Sheet])
		if res.Err != nil {
			slog.Warn("snapshot: section failed", "section", res.ID, "sheet", res.Sheet,
				"kind", res.ErrorKind, "err", res.Err)
		}
		snap.Sections = append(snap.Sections, res)
	}

	slog.Debug("snapshot: built", "id", snap.ID, "sections", len(snap.Sections),
		"failed", snap.FailedSections())
	return snap
}

// dropUndated removes rows whose date column does not parse. A sheet without
// the declared date column is a shape mismatch for every section using it.
func dropUndated(raw *ingest.RawSheet, label string) (*ingest.RawSheet, int, error) {
	col, ok := raw.Index(label)
	if !ok {
		return nil, 0, fmt.Errorf("date column %q: %w", label, extract.ErrShapeMismatch)
	}
	kept := extract.DropUndated(raw, col)
	return kept, raw.Len() - kept.Len(), nil
}

func evaluate(sec section, in loaded) *Result {
	res := &Result{
		ID:    sec.cfg.ID,
		Title: sec.cfg.Title,
		Kind:  sec.cfg.Kind,
		Sheet: sec.cfg.Sheet,
	}
	if res.Title == "" {
		res.Title = sec.cfg.ID
	}

	if in.err != nil {
		res.fail(in.err)
		if sec.cfg.Kind == config.SectionMetrics {
			res.Metrics = unavailableMetrics(sec.schema, in.err)
		}
		return res
	}

	switch sec.cfg.Kind {
	case config.SectionMetrics:
		res.Metrics = metrics(sec.schema, in.sheet)
	case config.SectionSeries:
		s, err := series(sec, in.sheet)
		if err != nil {
			res.fail(err)
			break
		}
		res.Series = s
	case config.SectionTable:
		t, err := table(sec, in.sheet)
		if err != nil {
			res.fail(err)
			break
		}
		res.Table = t
	case config.SectionPerformance:
		rows, err := performance(sec, in.sheet)
		if err != nil {
			res.fail(err)
			break
		}
		res.Performance = rows
	}
	return res
}

// metrics reduces every field with "latest". Each field fails on its own.
func metrics(schema *extract.Schema, sheet *ingest.RawSheet) []Metric {
	out := make([]Metric, 0, len(schema.Fields))
	for _, f := range schema.Fields {
		m := Metric{Name: f.Name, Label: f.Label, Unit: f.Unit}
		v, err := latest(f, sheet)
		if err != nil {
			m.Error = err.Error()
			m.ErrorKind = KindOf(err)
		} else {
			m.Value, m.Available = v, true
		}
		out = append(out, m)
	}
	return out
}

func latest(f extract.Field, sheet *ingest.RawSheet) (float64, error) {
	col, err := f.Resolve(sheet)
	if err != nil {
		return 0, err
	}
	v, err := extract.Latest(sheet.Column(col))
	if err != nil {
		return 0, fmt.Errorf("field %q: %w", f.Name, err)
	}
	return v, nil
}

func unavailableMetrics(schema *extract.Schema, err error) []Metric {
	out := make([]Metric, 0, len(schema.Fields))
	for _, f := range schema.Fields {
		out = append(out, Metric{
			Name:      f.Name,
			Label:     f.Label,
			Unit:      f.Unit,
			Error:     err.Error(),
			ErrorKind: KindOf(err),
		})
	}
	return out
}

// series pairs the sheet's date column with the section's single value field.
func series(sec section, sheet *ingest.RawSheet) (*Series, error) {
	f := sec.schema.Fields[0]
	valueCol, err := f.Resolve(sheet)
	if err != nil {
		return nil, err
	}
	dateCol, ok := sheet.Index(sec.dateColumn)
	if !ok {
		return nil, fmt.Errorf("date column %q: %w", sec.dateColumn, extract.ErrShapeMismatch)
	}

	pts := extract.Series(sheet, dateCol, valueCol)
	values := make([]float64, len(pts))
	out := &Series{Field: f.Name, Label: f.Label, Unit: f.Unit, Points: make([]Point, len(pts))}
	for i, p := range pts {
		out.Points[i] = Point{Date: p.Date, Label: p.Label, Value: p.Value}
		values[i] = p.Value
	}

	tr, err := extract.Classify(values)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", f.Name, err)
	}
	out.Trend = Trend{Latest: tr.Latest, Mean: tr.Mean, Direction: tr.Direction}
	return out, nil
}
