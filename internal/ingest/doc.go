// Package ingest fetches published Google Sheets tabs and parses them into
// RawSheet values.
//
// Two kinds are supported. csv (csv.go) downloads the publish-to-web CSV
// export; sheets (sheetsapi.go) reads a range through the Sheets API v4 with
// an API key. Factory: New(ctx, config.Sheet, Options) returns the Fetcher.
//
// Every failure to obtain a usable sheet is a *SourceError matching
// ErrSourceUnavailable. A fetch is a single attempt; there are no retries.
package ingest
