package exposition

import (
	"fmt"
	"io"
	"slices"
	"strconv"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/cpsfl/scorecard/internal/extract"
	"github.com/cpsfl/scorecard/internal/snapshot"
)

// Family names.
const (
	FamilyMetricValue       = "scorecard_metric_value"
	FamilyMetricAvailable   = "scorecard_metric_available"
	FamilySectionOK         = "scorecard_section_ok"
	FamilySheetUp           = "scorecard_sheet_up"
	FamilySheetRows         = "scorecard_sheet_rows"
	FamilyTableValue        = "scorecard_table_value"
	FamilyPerformanceScore  = "scorecard_performance_score"
	FamilyPerformanceTarget = "scorecard_performance_target"
	FamilyPerformanceRatio  = "scorecard_performance_ratio"
	FamilyTrendImproving    = "scorecard_trend_improving"
	FamilyBuildTimestamp    = "scorecard_build_timestamp_seconds"
)

// ContentType is the media type of the text exposition written by Write.
var ContentType = string(expfmt.NewFormat(expfmt.TypeTextPlain))

// gaugeFamily accumulates samples of one gauge family.
type gaugeFamily struct {
	mf *dto.MetricFamily
}

func newGauge(name, help string) *gaugeFamily {
	return &gaugeFamily{mf: &dto.MetricFamily{
		Name: proto.String(name),
		Help: proto.String(help),
		Type: dto.MetricType_GAUGE.Enum(),
	}}
}

// add appends one sample. labels alternate name, value.
func (g *gaugeFamily) add(v float64, labels ...string) {
	m := &dto.Metric{Gauge: &dto.Gauge{Value: proto.Float64(v)}}
	for i := 0; i+1 < len(labels); i += 2 {
		m.Label = append(m.Label, &dto.LabelPair{
			Name:  proto.String(labels[i]),
			Value: proto.String(labels[i+1]),
		})
	}
	g.mf.Metric = append(g.mf.Metric, m)
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Families converts snap into gauge families. Families without samples are
// omitted.
func Families(snap *snapshot.Snapshot) []*dto.MetricFamily {
	var (
		value     = newGauge(FamilyMetricValue, "Latest value of a scorecard metric.")
		available = newGauge(FamilyMetricAvailable, "Whether a scorecard metric could be derived (1) or not (0).")
		sectionOK = newGauge(FamilySectionOK, "Whether a section was built without error.")
		sheetUp   = newGauge(FamilySheetUp, "Whether a source sheet was fetched in the last build.")
		sheetRows = newGauge(FamilySheetRows, "Data rows of a source sheet after undated rows were dropped.")
		tableVal  = newGauge(FamilyTableValue, "Numeric cell of a table section.")
		perfScore = newGauge(FamilyPerformanceScore, "Score of a performance measure.")
		perfTgt   = newGauge(FamilyPerformanceTarget, "Target of a performance measure.")
		perfRatio = newGauge(FamilyPerformanceRatio, "Score over target, clamped to [0, 1].")
		trend     = newGauge(FamilyTrendImproving, "Whether the latest value of a series is above its mean.")
		built     = newGauge(FamilyBuildTimestamp, "Unix time of the build.")
	)

	built.add(float64(snap.BuiltAt.Unix()))

	for _, st := range snap.Sheets {
		sheetUp.add(boolValue(st.Up), "sheet", st.ID)
		if st.Up {
			sheetRows.add(float64(st.Rows), "sheet", st.ID)
		}
	}

	for _, res := range snap.Sections {
		sectionOK.add(boolValue(res.Err == nil), "section", res.ID, "kind", res.Kind)

		for _, m := range res.Metrics {
			available.add(boolValue(m.Available), "section", res.ID, "field", m.Name)
			if m.Available {
				value.add(m.Value, "section", res.ID, "field", m.Name)
			}
		}
		if t := res.Table; t != nil {
			for _, row := range t.Rows {
				keys := make([]string, 0, len(row.Numbers))
				for k := range row.Numbers {
					keys = append(keys, k)
				}
				slices.Sort(keys)
				for _, k := range keys {
					tableVal.add(row.Numbers[k], "section", res.ID, "row", strconv.Itoa(row.Index), "field", k)
				}
			}
		}
		for _, p := range res.Performance {
			if p.ScoreAvailable {
				perfScore.add(p.Score, "section", res.ID, "measure", p.Measure)
			}
			if p.TargetAvailable {
				perfTgt.add(p.Target, "section", res.ID, "measure", p.Measure)
			}
			if p.RatioAvailable {
				perfRatio.add(p.Ratio, "section", res.ID, "measure", p.Measure)
			}
		}
		if s := res.Series; s != nil {
			trend.add(boolValue(s.Trend.Direction == extract.Improving), "section", res.ID)
		}
	}

	var out []*dto.MetricFamily
	for _, g := range []*gaugeFamily{value, available, sectionOK, sheetUp, sheetRows,
		tableVal, perfScore, perfTgt, perfRatio, trend, built} {
		if len(g.mf.Metric) > 0 {
			out = append(out, g.mf)
		}
	}
	return out
}

// Write encodes snap as Prometheus text exposition.
func Write(w io.Writer, snap *snapshot.Snapshot) error {
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range Families(snap) {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("exposition: encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
