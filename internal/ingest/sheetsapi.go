package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/cpsfl/scorecard/internal/config"
)

// sheetsFetcher reads a tab range through the Sheets API v4. Only public
// sheets are supported: the request carries an API key, never OAuth tokens.
type sheetsFetcher struct {
	sheet   config.Sheet
	rng     string
	service *sheets.Service
	timeout time.Duration
}

func newSheetsFetcher(ctx context.Context, sheet config.Sheet, opts Options) (*sheetsFetcher, error) {
	var clientOpts []option.ClientOption
	switch {
	case opts.Client != nil:
		clientOpts = append(clientOpts, option.WithHTTPClient(opts.Client))
	case sheet.APIKey() != "":
		clientOpts = append(clientOpts, option.WithAPIKey(sheet.APIKey()))
	default:
		clientOpts = append(clientOpts, option.WithoutAuthentication())
	}
	if opts.SheetsEndpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.SheetsEndpoint))
	}

	service, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("ingest: create sheets service for %q: %w", sheet.ID, err)
	}

	rng := sheet.Range
	if rng == "" {
		rng = config.DefaultSheetsRange
	}
	return &sheetsFetcher{sheet: sheet, rng: rng, service: service, timeout: opts.Timeout}, nil
}

func (f *sheetsFetcher) URL() string {
	return "sheets://" + f.sheet.SpreadsheetID + "/" + f.rng
}

// Fetch reads the configured range and stringifies every cell.
func (f *sheetsFetcher) Fetch(ctx context.Context) (*RawSheet, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	resp, err := f.service.Spreadsheets.Values.Get(f.sheet.SpreadsheetID, f.rng).Context(ctx).Do()
	if err != nil {
		slog.Warn("ingest: sheets api read failed", "sheet", f.sheet.ID, "range", f.rng, "err", err)
		return nil, unavailable(f.sheet, f.URL(), fmt.Errorf("read range: %w", err))
	}

	records := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		rec := make([]string, len(row))
		for i, v := range row {
			if v != nil {
				rec[i] = fmt.Sprintf("%v", v)
			}
		}
		records = append(records, rec)
	}

	sheet, err := FromRecords(records)
	if err != nil {
		return nil, unavailable(f.sheet, f.URL(), err)
	}
	sheet.SourceID = f.sheet.ID
	sheet.URL = f.URL()
	sheet.FetchedAt = time.Now().UTC()
	return sheet, nil
}
