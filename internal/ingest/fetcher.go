package ingest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cpsfl/scorecard/internal/config"
)

// ErrSourceUnavailable marks a sheet that could not be fetched or parsed as a
// whole: network error, timeout, non-200 response, or malformed body.
var ErrSourceUnavailable = errors.New("source unavailable")

// SourceError reports why one sheet is unavailable.
// errors.Is(err, ErrSourceUnavailable) holds for every SourceError.
type SourceError struct {
	SheetID string
	URL     string
	Err     error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("sheet %q: %v: %v", e.SheetID, ErrSourceUnavailable, e.Err)
}

func (e *SourceError) Unwrap() []error { return []error{ErrSourceUnavailable, e.Err} }

// Fetcher retrieves one configured sheet.
type Fetcher interface {
	// Fetch performs a single attempt and returns the parsed sheet or a *SourceError.
	Fetch(ctx context.Context) (*RawSheet, error)

	// URL identifies the source and is the cache key for fetched sheets.
	URL() string
}

// Options carries settings shared by every fetcher.
type Options struct {
	Timeout   time.Duration
	UserAgent string

	// Client overrides the HTTP client. Tests point this at httptest servers.
	// For kind sheets a custom client replaces API key authentication.
	Client *http.Client

	// SheetsEndpoint overrides the Sheets API base URL.
	SheetsEndpoint string
}

// New returns the Fetcher for the sheet's kind.
func New(ctx context.Context, sheet config.Sheet, opts Options) (Fetcher, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = config.DefaultFetchTimeout
	}
	switch sheet.EffectiveKind() {
	case config.KindCSV:
		client := opts.Client
		if client == nil {
			client = &http.Client{Timeout: opts.Timeout}
		}
		return &csvFetcher{
			sheet:     sheet,
			url:       CSVURL(sheet),
			client:    client,
			timeout:   opts.Timeout,
			userAgent: opts.UserAgent,
		}, nil
	case config.KindSheets:
		return newSheetsFetcher(ctx, sheet, opts)
	default:
		return nil, fmt.Errorf("ingest: unsupported kind %q", sheet.Kind)
	}
}

// unavailable wraps err as a *SourceError for sheet.
func unavailable(sheet config.Sheet, url string, err error) error {
	return &SourceError{SheetID: sheet.ID, URL: url, Err: err}
}
