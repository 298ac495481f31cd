// Package proxy serves the spreadsheet read and write endpoints the
// dashboard talks to, forwarding to a datastore.Store.
package proxy

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lepinkainen/concierge/internal/datastore"
	"github.com/lepinkainen/concierge/internal/fallback"
	"github.com/lepinkainen/concierge/internal/record"
)

const notConfiguredMessage = "Apps Script URL not configured. Please deploy your Google Apps Script and update the URL."

// Recorder is told about every successful read, so a cache-backed fallback
// can serve it later.
type Recorder interface {
	RememberTable(name string, table record.Table)
	RememberSnapshot(snap record.Snapshot)
}

// Server holds the proxy dependencies.
type Server struct {
	store    datastore.Store
	fallback fallback.Policy
	recorder Recorder
	feed     *Feed
}

// Option configures a Server.
type Option func(*Server)

// WithFallback sets the data served when the store cannot be read.
func WithFallback(p fallback.Policy) Option {
	return func(s *Server) {
		if p != nil {
			s.fallback = p
		}
	}
}

// WithRecorder sets where successful reads are recorded.
func WithRecorder(r Recorder) Option {
	return func(s *Server) {
		s.recorder = r
	}
}

// WithFeed sets the change feed mutations are announced on.
func WithFeed(f *Feed) Option {
	return func(s *Server) {
		if f != nil {
			s.feed = f
		}
	}
}

// NewServer creates a proxy for store. A nil store means no backend is
// configured: reads serve the fallback and writes are rejected.
func NewServer(store datastore.Store, opts ...Option) *Server {
	s := &Server{
		store:    store,
		fallback: fallback.None{},
		feed:     NewFeed(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Feed returns the server's change feed.
func (s *Server) Feed() *Feed {
	return s.feed
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)
	r.Use(cors)

	r.Get("/fetch-sheets-data", s.fetchSheetsData)
	r.Post("/fetch-sheets-data", s.fetchSheetsData)
	r.Post("/sheets-crud", s.sheetsCRUD)
	r.Get("/ws", s.feed.ServeHTTP)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "concierge"})
	})
	return r
}

type sheetPayload struct {
	Data  record.Table `json:"data"`
	Sheet string       `json:"sheet"`
}

func (s *Server) fetchSheetsData(w http.ResponseWriter, r *http.Request) {
	sheet := r.URL.Query().Get("sheet")
	if r.Method == http.MethodPost {
		var body struct {
			Sheet *string `json:"sheet"`
		}
		// a missing or malformed body leaves the query parameter in charge
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil && body.Sheet != nil {
			sheet = *body.Sheet
		}
	}

	if s.store == nil {
		slog.Info("No backend configured, serving fallback data", "sheet", sheet)
		s.writeFallback(w, sheet)
		return
	}

	ctx := r.Context()
	if sheet != "" {
		rows, err := s.store.SheetData(ctx, sheet)
		if err != nil {
			slog.Error("Error in fetch-sheets-data", "sheet", sheet, "error", err)
			s.writeFallback(w, sheet)
			return
		}
		if s.recorder != nil {
			s.recorder.RememberTable(sheet, rows)
		}
		writeJSON(w, http.StatusOK, sheetPayload{Data: rows, Sheet: sheet})
		return
	}

	snap, err := s.store.AllData(ctx)
	if err != nil {
		slog.Error("Error in fetch-sheets-data", "error", err)
		s.writeFallback(w, "")
		return
	}
	if s.recorder != nil {
		s.recorder.RememberSnapshot(snap)
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) writeFallback(w http.ResponseWriter, sheet string) {
	if sheet != "" {
		rows, ok := s.fallback.Table(sheet)
		if !ok || rows == nil {
			rows = record.Table{}
		}
		writeJSON(w, http.StatusOK, sheetPayload{Data: rows, Sheet: sheet})
		return
	}
	snap := s.fallback.Snapshot()
	if snap == nil {
		snap = record.Snapshot{}
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) sheetsCRUD(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": notConfiguredMessage})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var m record.Mutation
	if err := json.Unmarshal(body, &m); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := m.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	slog.Info("CRUD request", "action", m.Action, "sheet", m.Sheet, "rowIndex", m.Index())
	result, err := s.store.Apply(r.Context(), m)
	if err != nil {
		slog.Error("Error in sheets-crud", "action", m.Action, "sheet", m.Sheet, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.feed.Broadcast(Message{
		Type: "sheet_changed",
		Data: SheetChange{Sheet: m.Sheet, Action: string(m.Action)},
	})
	writeJSON(w, http.StatusOK, result)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error(), "success": false})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to write response", "error", err)
	}
}

// cors adds the dashboard CORS headers to every response and answers
// preflight requests.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
