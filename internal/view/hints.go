package view

import (
	"fmt"
	"sort"
	"time"

	"github.com/cpsfl/scorecard/internal/extract"
	"github.com/cpsfl/scorecard/internal/snapshot"
)

// staleAfter is how old a sheet's fetch may be, relative to the build, before
// a stale-data hint is raised.
const staleAfter = 15 * time.Minute

// Hint levels, most severe first.
const (
	LevelCritical = "critical"
	LevelWarning  = "warning"
	LevelInfo     = "info"
	LevelOK       = "ok"
)

// Hint is one human-readable insight about the scorecard.
type Hint struct {
	// Key is a stable machine-readable identifier (used for dedup/ordering).
	Key string `json:"key"`
	// Level is "ok" | "info" | "warning" | "critical"
	Level string `json:"level"`
	// Title is a short label shown on the chip.
	Title string `json:"title"`
	// Detail is the full explanation shown on click/hover.
	Detail string `json:"detail"`
	// Value is an optional numeric value associated with this hint.
	Value *float64 `json:"value,omitempty"`
}

// computeHints derives hints from a snapshot, ordered critical first, then
// warnings, then info.
func computeHints(snap *snapshot.Snapshot) []Hint {
	var hints []Hint

	// ── Unreachable sheets ───────────────────────────────────────────────────
	for _, st := range snap.Sheets {
		if st.Up {
			if st.Error != "" {
				hints = append(hints, Hint{
					Key:   "date_column:" + st.ID,
					Level: LevelWarning,
					Title: "Date column not found",
					Detail: fmt.Sprintf(
						"The sheet %q loaded, but its dates could not be read: \"%s\". "+
							"All rows were kept; trend charts built from it show an error until the column is back.",
						st.ID, st.Error,
					),
				})
			}
			continue
		}
		hints = append(hints, Hint{
			Key:   "sheet_down:" + st.ID,
			Level: LevelCritical,
			Title: "Can't load sheet",
			Detail: fmt.Sprintf(
				"The sheet %q could not be loaded: \"%s\". "+
					"Check that it is still published to the web and that the link has not changed. "+
					"Every section built from it shows an error until the next refresh succeeds.",
				st.ID, st.Error,
			),
		})
	}

	for _, res := range snap.Sections {
		// ── Layout changes ───────────────────────────────────────────────────
		if res.ErrorKind == snapshot.KindShapeMismatch {
			hints = append(hints, Hint{
				Key:   "shape_mismatch:" + res.ID,
				Level: LevelWarning,
				Title: "Sheet layout changed",
				Detail: fmt.Sprintf(
					"Section %q expected a column or range that is not in the sheet (%s). "+
						"A header was probably renamed or rows were moved. "+
						"Update the field mapping in the config to match the new layout.",
					res.Title, res.Error,
				),
			})
		}
		for _, mt := range res.Metrics {
			if mt.Available || res.Err != nil || mt.ErrorKind != snapshot.KindShapeMismatch {
				continue
			}
			hints = append(hints, Hint{
				Key:   "missing_column:" + mt.Name,
				Level: LevelWarning,
				Title: "Column not found",
				Detail: fmt.Sprintf(
					"%s is not shown because its column is missing (%s). "+
						"The other figures on this sheet are unaffected.",
					mt.Label, mt.Error,
				),
			})
		}

		// ── Trend direction ──────────────────────────────────────────────────
		if s := res.Series; s != nil {
			latest := s.Trend.Latest
			if s.Trend.Direction == extract.Improving {
				hints = append(hints, Hint{
					Key:   "trend:" + res.ID,
					Level: LevelInfo,
					Title: "Trending up",
					Detail: fmt.Sprintf(
						"The latest %s (%.2f) is above its average of %.2f across %d reporting dates.",
						s.Label, s.Trend.Latest, s.Trend.Mean, len(s.Points),
					),
					Value: &latest,
				})
			} else {
				hints = append(hints, Hint{
					Key:   "trend:" + res.ID,
					Level: LevelWarning,
					Title: "Trending down",
					Detail: fmt.Sprintf(
						"The latest %s (%.2f) is not above its average of %.2f across %d reporting dates. "+
							"Look at the most recent entries to see what changed.",
						s.Label, s.Trend.Latest, s.Trend.Mean, len(s.Points),
					),
					Value: &latest,
				})
			}
		}

		// ── Measures below target ────────────────────────────────────────────
		var below []string
		for _, r := range res.Performance {
			if r.RatioAvailable && !r.Met {
				below = append(below, r.Measure)
			}
		}
		if len(below) > 0 {
			n := float64(len(below))
			hints = append(hints, Hint{
				Key:   "below_target:" + res.ID,
				Level: LevelWarning,
				Title: fmt.Sprintf("%d below target", len(below)),
				Detail: fmt.Sprintf(
					"%d of %d performance measures are below target: %v.",
					len(below), len(res.Performance), below,
				),
				Value: &n,
			})
		}
	}

	// ── Stale data ───────────────────────────────────────────────────────────
	for _, st := range snap.Sheets {
		if !st.Up || st.FetchedAt.IsZero() {
			continue
		}
		age := snap.BuiltAt.Sub(st.FetchedAt)
		if age < staleAfter {
			continue
		}
		mins := age.Minutes()
		hints = append(hints, Hint{
			Key:   "stale:" + st.ID,
			Level: LevelInfo,
			Title: "Cached data",
			Detail: fmt.Sprintf(
				"The sheet %q was last fetched %.0f minutes ago. Use refresh to load the latest figures.",
				st.ID, mins,
			),
			Value: &mins,
		})
	}

	// ── All clear ────────────────────────────────────────────────────────────
	if len(hints) == 0 {
		hints = append(hints, Hint{
			Key:    "healthy",
			Level:  LevelOK,
			Title:  "All clear",
			Detail: "Every sheet loaded and every section was built.",
		})
	}

	sort.SliceStable(hints, func(i, j int) bool {
		return levelRank(hints[i].Level) < levelRank(hints[j].Level)
	})
	return hints
}

func levelRank(level string) int {
	switch level {
	case LevelCritical:
		return 0
	case LevelWarning:
		return 1
	case LevelInfo:
		return 2
	default:
		return 3
	}
}
