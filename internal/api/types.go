package api

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	// Status is "ok" when every sheet loaded and every section built,
	// "degraded" when something failed, "down" when no sheet loaded.
	Status         string        `json:"status"`
	SnapshotID     string        `json:"snapshot_id"`
	BuiltAt        string        `json:"built_at"` // RFC3339
	SheetCount     int           `json:"sheet_count"`
	SheetsUp       int           `json:"sheets_up"`
	SectionCount   int           `json:"section_count"`
	FailedSections int           `json:"failed_sections"`
	Sheets         []SheetHealth `json:"sheets"`
}

// SheetHealth is one sheet entry in HealthResponse.
type SheetHealth struct {
	ID    string `json:"id"`
	Up    bool   `json:"up"`
	Rows  int    `json:"rows"`
	Error string `json:"error,omitempty"`
}

// SectionSummary is one entry of GET /api/v1/sections.
type SectionSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Kind      string `json:"kind"`
	OK        bool   `json:"ok"`
	ErrorKind string `json:"error_kind,omitempty"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
