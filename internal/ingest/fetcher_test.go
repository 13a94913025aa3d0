package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cpsfl/scorecard/internal/config"
)

const scorecardCSV = "Date,Overall % Completed (MHOs & Discharges),Required Reports Compliance\n" +
	"1/2/2024,92.5%,88\n" +
	"1/9/2024,93.0%,90\n"

func TestCSVFetcher_Fetch(t *testing.T) {
	var gotAccept, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(scorecardCSV))
	}))
	defer srv.Close()

	f, err := New(context.Background(), config.Sheet{ID: "scorecard", URL: srv.URL},
		Options{Timeout: time.Second, UserAgent: "scorecard-test", Client: srv.Client()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if f.URL() != srv.URL {
		t.Errorf("URL() = %q, want %q", f.URL(), srv.URL)
	}

	s, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if s.SourceID != "scorecard" || s.URL != srv.URL || s.FetchedAt.IsZero() {
		t.Errorf("metadata not recorded: %+v", s)
	}
	if s.Len() != 2 || s.Width() != 3 {
		t.Errorf("shape = %dx%d, want 2x3", s.Len(), s.Width())
	}
	if gotAccept != "text/csv" {
		t.Errorf("Accept = %q", gotAccept)
	}
	if gotUA != "scorecard-test" {
		t.Errorf("User-Agent = %q", gotUA)
	}
}

func TestCSVFetcher_Unavailable(t *testing.T) {
	notFound := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer notFound.Close()

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	defer empty.Close()

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()

	tests := []struct {
		name string
		url  string
	}{
		{"non-200", notFound.URL},
		{"empty body", empty.URL},
		{"timeout", slow.URL},
		{"unreachable", "http://127.0.0.1:1/pub?output=csv"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f, err := New(context.Background(), config.Sheet{ID: "s", URL: tc.url},
				Options{Timeout: 100 * time.Millisecond})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			_, err = f.Fetch(context.Background())
			if !errors.Is(err, ErrSourceUnavailable) {
				t.Fatalf("Fetch() error = %v, want ErrSourceUnavailable", err)
			}
			var se *SourceError
			if !errors.As(err, &se) || se.SheetID != "s" || se.URL != tc.url {
				t.Errorf("SourceError = %+v", se)
			}
		})
	}
}

func TestCSVURL(t *testing.T) {
	tests := []struct {
		name  string
		sheet config.Sheet
		want  string
	}{
		{
			name:  "explicit url wins",
			sheet: config.Sheet{URL: "http://example.com/x.csv", DocID: "ignored"},
			want:  "http://example.com/x.csv",
		},
		{
			name:  "first tab",
			sheet: config.Sheet{DocID: "2PACX-abc"},
			want:  "https://docs.google.com/spreadsheets/d/e/2PACX-abc/pub?output=csv",
		},
		{
			name:  "specific tab",
			sheet: config.Sheet{DocID: "2PACX-abc", GID: "460550068"},
			want:  "https://docs.google.com/spreadsheets/d/e/2PACX-abc/pub?gid=460550068&output=csv&single=true",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CSVURL(tc.sheet); got != tc.want {
				t.Errorf("CSVURL() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNew_UnsupportedKind(t *testing.T) {
	if _, err := New(context.Background(), config.Sheet{ID: "x", Kind: "xlsx"}, Options{}); err == nil {
		t.Fatal("expected error for unsupported kind")
	}
}

func TestSheetsFetcher_Fetch(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"range": "Performance!A1:Z1000",
			"majorDimension": "ROWS",
			"values": [
				["Measure", "Description", "Score", "Target"],
				["PM1", "Timely contacts", "87.5%", 90],
				["PM2", "Case reviews"]
			]
		}`))
	}))
	defer srv.Close()

	sheet := config.Sheet{ID: "perf", Kind: config.KindSheets, SpreadsheetID: "1QgYUW", Range: "Performance!A1:Z1000"}
	f, err := New(context.Background(), sheet, Options{
		Timeout:        time.Second,
		Client:         srv.Client(),
		SheetsEndpoint: srv.URL + "/",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	s, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if gotPath == "" {
		t.Fatal("sheets endpoint was not called")
	}
	if s.Len() != 2 || s.Width() != 4 {
		t.Fatalf("shape = %dx%d, want 2x4", s.Len(), s.Width())
	}
	if got := s.Cell(0, 3); got != "90" {
		t.Errorf("numeric cell = %q, want 90", got)
	}
	if got := s.Cell(1, 2); got != "" {
		t.Errorf("short row not padded: %q", got)
	}
	if s.URL != "sheets://1QgYUW/Performance!A1:Z1000" {
		t.Errorf("URL = %q", s.URL)
	}
}

func TestSheetsFetcher_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"The caller does not have permission"}}`))
	}))
	defer srv.Close()

	sheet := config.Sheet{ID: "perf", Kind: config.KindSheets, SpreadsheetID: "1QgYUW"}
	f, err := New(context.Background(), sheet, Options{Client: srv.Client(), SheetsEndpoint: srv.URL + "/"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := f.Fetch(context.Background()); !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("Fetch() error = %v, want ErrSourceUnavailable", err)
	}
}
