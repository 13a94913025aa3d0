package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cpsfl/scorecard/internal/config"
	"github.com/cpsfl/scorecard/internal/exposition"
	"github.com/cpsfl/scorecard/internal/snapshot"
	"github.com/cpsfl/scorecard/internal/view"
)

// Builder produces snapshots. *snapshot.Live satisfies it.
type Builder interface {
	Build(ctx context.Context, opts snapshot.Options) *snapshot.Snapshot
	SectionIDs() []string
}

// Publisher receives every view produced by a refresh. *ws.Hub satisfies it.
type Publisher interface {
	Publish(view.Model)
}

// Options wires optional collaborators into the handler.
type Options struct {
	// Auth protects /api/v1 when Mode is "apikey".
	Auth config.AuthConfig

	// Publisher, when set, is handed every refreshed view.
	Publisher Publisher

	// Stream, when set, is mounted at /ws/stream.
	Stream http.Handler
}

// Handler serves the scorecard HTTP API.
type Handler struct {
	builder Builder
	opts    Options
	router  chi.Router
}

// New creates a Handler wired to b and registers all routes.
func New(b Builder, opts Options) http.Handler {
	h := &Handler{builder: b, opts: opts, router: chi.NewRouter()}

	r := h.router
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		jsonErr(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(APIKey(opts.Auth.Mode, opts.Auth.EffectiveHeader(), opts.Auth.Key()))
		r.Get("/view", h.view)
		r.Post("/refresh", h.refresh)
		r.Get("/sections", h.listSections)
		r.Get("/sections/{id}", h.getSection)
		r.Get("/health", h.health)
	})
	r.Get("/metrics", h.metrics)
	if opts.Stream != nil {
		r.Handle("/ws/stream", opts.Stream)
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// view returns GET /api/v1/view: the full rendered view.
func (h *Handler) view(w http.ResponseWriter, r *http.Request) {
	snap := h.builder.Build(r.Context(), snapshot.Options{})
	jsonResp(w, http.StatusOK, view.Render(snap))
}

// refresh returns POST /api/v1/refresh: a view built from freshly fetched
// sheets, also pushed to stream subscribers.
func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	snap := h.builder.Build(r.Context(), snapshot.Options{Refresh: true})
	m := view.Render(snap)
	if h.opts.Publisher != nil {
		h.opts.Publisher.Publish(m)
	}
	slog.Info("api: refreshed", "snapshot", snap.ID, "failed_sections", snap.FailedSections())
	jsonResp(w, http.StatusOK, m)
}

// listSections returns GET /api/v1/sections.
func (h *Handler) listSections(w http.ResponseWriter, r *http.Request) {
	snap := h.builder.Build(r.Context(), snapshot.Options{})
	out := make([]SectionSummary, 0, len(snap.Sections))
	for _, res := range snap.Sections {
		out = append(out, SectionSummary{
			ID:        res.ID,
			Title:     res.Title,
			Kind:      res.Kind,
			OK:        res.Err == nil,
			ErrorKind: string(res.ErrorKind),
		})
	}
	jsonResp(w, http.StatusOK, out)
}

// getSection returns GET /api/v1/sections/{id}: one rendered section.
func (h *Handler) getSection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !slices.Contains(h.builder.SectionIDs(), id) {
		jsonErr(w, http.StatusNotFound, "section not found")
		return
	}

	m := view.Render(h.builder.Build(r.Context(), snapshot.Options{}))
	sec, ok := m.Section(id)
	if !ok {
		// The builder was swapped by a config reload mid-request.
		jsonErr(w, http.StatusNotFound, "section not found")
		return
	}
	jsonResp(w, http.StatusOK, sec)
}

// health returns GET /api/v1/health: sheet availability and failure counts.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	snap := h.builder.Build(r.Context(), snapshot.Options{})
	resp := HealthResponse{
		SnapshotID:     snap.ID,
		BuiltAt:        snap.BuiltAt.UTC().Format(time.RFC3339),
		SheetCount:     len(snap.Sheets),
		SectionCount:   len(snap.Sections),
		FailedSections: snap.FailedSections(),
		Sheets:         make([]SheetHealth, 0, len(snap.Sheets)),
	}
	for _, st := range snap.Sheets {
		if st.Up {
			resp.SheetsUp++
		}
		resp.Sheets = append(resp.Sheets, SheetHealth{ID: st.ID, Up: st.Up, Rows: st.Rows, Error: st.Error})
	}

	switch {
	case resp.SheetCount > 0 && resp.SheetsUp == 0:
		resp.Status = "down"
	case resp.FailedSections > 0 || resp.SheetsUp < resp.SheetCount:
		resp.Status = "degraded"
	default:
		resp.Status = "ok"
	}
	jsonResp(w, http.StatusOK, resp)
}

// metrics returns GET /metrics: Prometheus text exposition.
func (h *Handler) metrics(w http.ResponseWriter, r *http.Request) {
	snap := h.builder.Build(r.Context(), snapshot.Options{})
	w.Header().Set("Content-Type", exposition.ContentType)
	if err := exposition.Write(w, snap); err != nil {
		slog.Error("api: write exposition", "err", err)
	}
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
