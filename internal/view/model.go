package view

// Model is the complete view of one snapshot.
type Model struct {
	SnapshotID  string    `json:"snapshot_id"`
	GeneratedAt string    `json:"generated_at"` // RFC3339
	Sections    []Section `json:"sections"`
	Sheets      []Sheet   `json:"sheets"`
	Hints       []Hint    `json:"hints"`
}

// Section returns the rendered section with the given id.
func (m *Model) Section(id string) (Section, bool) {
	for _, s := range m.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return Section{}, false
}

// Section is one rendered block. Error is set instead of content when the
// section failed as a whole.
type Section struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Kind  string `json:"kind"`

	Gauges []Gauge      `json:"gauges,omitempty"`
	Stats  []Stat       `json:"stats,omitempty"`
	Table  *Table       `json:"table,omitempty"`
	Bars   []Bar        `json:"bars,omitempty"`
	Trend  *TrendLine   `json:"trend,omitempty"`
	Error  *ErrorBanner `json:"error,omitempty"`
}

// Gauge is a half-circle gauge. Fraction is the fill in [0, 1].
type Gauge struct {
	Name      string  `json:"name"`
	Title     string  `json:"title"`
	Value     float64 `json:"value"`
	Display   string  `json:"display"`
	Fraction  float64 `json:"fraction"`
	Available bool    `json:"available"`
	Error     string  `json:"error,omitempty"`
}

// Stat is a single number tile, used for counts and other non-percent metrics.
type Stat struct {
	Name      string  `json:"name"`
	Title     string  `json:"title"`
	Value     float64 `json:"value"`
	Display   string  `json:"display"`
	Available bool    `json:"available"`
	Error     string  `json:"error,omitempty"`
}

// Table is a grid of display strings.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Bar compares one measure's score with its target.
type Bar struct {
	Measure     string  `json:"measure"`
	Description string  `json:"description,omitempty"`
	Score       float64 `json:"score"`
	Target      float64 `json:"target"`
	Fraction    float64 `json:"fraction"`
	Display     string  `json:"display"`
	Met         bool    `json:"met"`
	Available   bool    `json:"available"`
}

// TrendLine is a labelled line series with its classification.
type TrendLine struct {
	Title     string    `json:"title"`
	Labels    []string  `json:"labels"`
	Values    []float64 `json:"values"`
	Latest    float64   `json:"latest"`
	Mean      float64   `json:"mean"`
	Direction string    `json:"direction"`
}

// ErrorBanner is the inline error shown in place of a failed section.
type ErrorBanner struct {
	Kind    string `json:"kind"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Sheet is the fetch status of one source sheet.
type Sheet struct {
	ID        string `json:"id"`
	Up        bool   `json:"up"`
	Rows      int    `json:"rows"`
	FetchedAt string `json:"fetched_at,omitempty"` // RFC3339
	Error     string `json:"error,omitempty"`
}
