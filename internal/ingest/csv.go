package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cpsfl/scorecard/internal/config"
)

// publishBase is the root of Google Sheets "publish to web" documents.
const publishBase = "https://docs.google.com/spreadsheets/d/e/"

// CSVURL returns the CSV export URL for a published sheet. An explicit URL
// wins; otherwise the URL is built from the document id and optional tab gid.
func CSVURL(sheet config.Sheet) string {
	if sheet.URL != "" {
		return sheet.URL
	}
	q := url.Values{}
	if sheet.GID != "" {
		q.Set("gid", sheet.GID)
		q.Set("single", "true")
	}
	q.Set("output", "csv")
	return publishBase + url.PathEscape(sheet.DocID) + "/pub?" + q.Encode()
}

type csvFetcher struct {
	sheet     config.Sheet
	url       string
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

func (f *csvFetcher) URL() string { return f.url }

// Fetch downloads the published CSV export and parses it.
func (f *csvFetcher) Fetch(ctx context.Context) (*RawSheet, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, unavailable(f.sheet, f.url, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "text/csv")
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		slog.Warn("ingest: csv fetch failed", "sheet", f.sheet.ID, "url", f.url, "err", err)
		return nil, unavailable(f.sheet, f.url, fmt.Errorf("http get: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, unavailable(f.sheet, f.url, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	sheet, err := Parse(resp.Body)
	if err != nil {
		return nil, unavailable(f.sheet, f.url, err)
	}
	sheet.SourceID = f.sheet.ID
	sheet.URL = f.url
	sheet.FetchedAt = time.Now().UTC()

	slog.Debug("ingest: csv fetched", "sheet", f.sheet.ID, "rows", sheet.Len(), "cols", sheet.Width())
	return sheet, nil
}
