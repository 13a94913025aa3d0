package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultHTTPPort     = 8080
	DefaultFetchTimeout = 10 * time.Second
	DefaultAuthHeader   = "x-api-key"
	DefaultSheetsRange  = "A1:Z1000"
)

// Sheet kinds.
const (
	KindCSV    = "csv"
	KindSheets = "sheets"
)

// Section kinds.
const (
	SectionMetrics     = "metrics"
	SectionSeries      = "series"
	SectionTable       = "table"
	SectionPerformance = "performance"
)

// Config is the full scorecard configuration. Fields map 1:1 to config.example.yaml.
type Config struct {
	Server   ServerConfig `yaml:"server"`
	Fetch    FetchConfig  `yaml:"fetch"`
	Sheets   []Sheet      `yaml:"sheets"`
	Sections []Section    `yaml:"sections"`
}

// ServerConfig holds the HTTP surface settings.
type ServerConfig struct {
	// HTTPPort is the port the REST API, WebSocket hub and /metrics listen on.
	HTTPPort int `yaml:"http_port"`

	// Auth configures optional API key protection of the HTTP API.
	Auth AuthConfig `yaml:"auth"`

	// PushInterval rebuilds the snapshot and pushes it to WebSocket clients on
	// this period. Zero disables periodic pushes; refreshes are still broadcast.
	PushInterval time.Duration `yaml:"push_interval"`
}

// AuthConfig controls client authentication on the HTTP API.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// KeyEnv is the name of the environment variable that holds the expected key.
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header carrying the key. Defaults to "x-api-key".
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default "x-api-key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return DefaultAuthHeader
}

// FetchConfig controls how sheets are retrieved.
type FetchConfig struct {
	// Timeout bounds a single fetch. Expiry is reported as source unavailable.
	Timeout time.Duration `yaml:"timeout"`

	// CacheTTL memoizes fetched sheets by URL. Zero fetches on every build.
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// UserAgent is sent with every CSV request when non-empty.
	UserAgent string `yaml:"user_agent"`
}

// Sheet describes one published tab.
type Sheet struct {
	// ID is the unique name sections use to reference this sheet.
	ID string `yaml:"id"`

	// Kind is csv (publish-to-web export) or sheets (Sheets API v4). Defaults to csv.
	Kind string `yaml:"kind"`

	// URL is the full CSV export URL. When empty it is built from DocID and GID.
	URL string `yaml:"url"`

	// DocID is the published document id (the "2PACX-..." token).
	DocID string `yaml:"doc_id"`

	// GID selects the tab inside the published document. Empty means the first tab.
	GID string `yaml:"gid"`

	// SpreadsheetID and Range address the tab when Kind == "sheets".
	SpreadsheetID string `yaml:"spreadsheet_id"`
	Range         string `yaml:"range"`

	// APIKeyEnv is the environment variable holding the Sheets API key.
	APIKeyEnv string `yaml:"api_key_env"`

	// DateColumn names a date column. Rows whose date does not parse are
	// dropped before any metric of this sheet is computed.
	DateColumn string `yaml:"date_column"`
}

// APIKey returns the Sheets API key resolved from the environment.
func (s Sheet) APIKey() string {
	if s.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(s.APIKeyEnv)
}

// EffectiveKind returns Kind, defaulting to csv.
func (s Sheet) EffectiveKind() string {
	if s.Kind == "" {
		return KindCSV
	}
	return s.Kind
}

// Section is one independently rendered block of the scorecard.
type Section struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`

	// Kind is one of: metrics | series | table | performance.
	Kind string `yaml:"kind"`

	// Sheet references Sheet.ID.
	Sheet string `yaml:"sheet"`

	// Fields is the schema mapping table for this section.
	Fields []Field `yaml:"fields"`

	// Slice selects a positional submatrix for table and performance sections.
	Slice *Slice `yaml:"slice"`
}

// Field maps one logical field onto a source column.
type Field struct {
	// Name is the logical field name (e.g. overall_completion_pct).
	Name string `yaml:"name"`

	// Label is the human-readable title shown by the presentation layer.
	Label string `yaml:"label"`

	// Match is one of: exact | fold | prefix | regex | position. Defaults to exact.
	Match string `yaml:"match"`

	// Source is the header label, prefix, or regular expression to match.
	Source string `yaml:"source"`

	// Column is the zero-based column index used when Match == "position".
	Column int `yaml:"column"`

	// Unit is a display hint: percent | count | days | score.
	Unit string `yaml:"unit"`
}

// Slice is a half-open positional range over data rows (header excluded).
type Slice struct {
	RowStart int      `yaml:"row_start"`
	RowEnd   int      `yaml:"row_end"`
	ColStart int      `yaml:"col_start"`
	ColEnd   int      `yaml:"col_end"`
	Fields   []string `yaml:"fields"`
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with sensible defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config bytes, applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// SheetByID returns the sheet with the given id.
func (c *Config) SheetByID(id string) (Sheet, bool) {
	for _, s := range c.Sheets {
		if s.ID == id {
			return s, true
		}
	}
	return Sheet{}, false
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: DefaultHTTPPort,
		},
		Fetch: FetchConfig{
			Timeout: DefaultFetchTimeout,
		},
	}
}

// validate checks required fields and structural constraints. Column-matching
// rules (regex syntax, duplicate fields) are checked when the schema compiles.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	switch cfg.Server.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want apikey|none", cfg.Server.Auth.Mode)
	}
	if cfg.Server.PushInterval < 0 {
		return fmt.Errorf("server.push_interval must not be negative")
	}
	if cfg.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be positive")
	}
	if cfg.Fetch.CacheTTL < 0 {
		return fmt.Errorf("fetch.cache_ttl must not be negative")
	}

	sheets := make(map[string]bool, len(cfg.Sheets))
	for i, s := range cfg.Sheets {
		if s.ID == "" {
			return fmt.Errorf("sheets[%d]: id is required", i)
		}
		if sheets[s.ID] {
			return fmt.Errorf("sheets[%d]: duplicate id %q", i, s.ID)
		}
		sheets[s.ID] = true

		switch s.EffectiveKind() {
		case KindCSV:
			if s.URL == "" && s.DocID == "" {
				return fmt.Errorf("sheets[%d] %q: url or doc_id is required", i, s.ID)
			}
		case KindSheets:
			if s.SpreadsheetID == "" {
				return fmt.Errorf("sheets[%d] %q: spreadsheet_id is required for kind sheets", i, s.ID)
			}
		default:
			return fmt.Errorf("sheets[%d] %q: unknown kind %q", i, s.ID, s.Kind)
		}
	}

	sections := make(map[string]bool, len(cfg.Sections))
	for i, sec := range cfg.Sections {
		if sec.ID == "" {
			return fmt.Errorf("sections[%d]: id is required", i)
		}
		if sections[sec.ID] {
			return fmt.Errorf("sections[%d]: duplicate id %q", i, sec.ID)
		}
		sections[sec.ID] = true

		if !sheets[sec.Sheet] {
			return fmt.Errorf("sections[%d] %q: unknown sheet %q", i, sec.ID, sec.Sheet)
		}
		if err := validateSection(sec, cfg); err != nil {
			return fmt.Errorf("sections[%d] %q: %w", i, sec.ID, err)
		}
	}
	return nil
}

func validateSection(sec Section, cfg *Config) error {
	switch sec.Kind {
	case SectionMetrics:
		if len(sec.Fields) == 0 {
			return fmt.Errorf("at least one field is required")
		}
	case SectionSeries:
		if len(sec.Fields) != 1 {
			return fmt.Errorf("series sections take exactly one value field")
		}
		if sheet, _ := cfg.SheetByID(sec.Sheet); sheet.DateColumn == "" {
			return fmt.Errorf("series sections need sheet %q to declare date_column", sec.Sheet)
		}
	case SectionTable:
		if sec.Slice == nil && len(sec.Fields) == 0 {
			return fmt.Errorf("table sections need a slice or fields")
		}
	case SectionPerformance:
		if sec.Slice == nil && len(sec.Fields) == 0 {
			return fmt.Errorf("performance sections need a slice or fields")
		}
	default:
		return fmt.Errorf("unknown kind %q", sec.Kind)
	}

	if s := sec.Slice; s != nil {
		if s.RowStart < 0 || s.ColStart < 0 {
			return fmt.Errorf("slice start must not be negative")
		}
		if s.RowEnd <= s.RowStart || s.ColEnd <= s.ColStart {
			return fmt.Errorf("slice end must be greater than start")
		}
		if len(s.Fields) == 0 {
			return fmt.Errorf("slice.fields is required")
		}
		if len(s.Fields) > s.ColEnd-s.ColStart {
			return fmt.Errorf("slice maps %d fields onto %d columns", len(s.Fields), s.ColEnd-s.ColStart)
		}
	}
	return nil
}
