package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"UpdatesScanner/internal/domain"
	"UpdatesScanner/internal/ports"
)

// Server exposes the read side of the store: weekly record listings and
// the set of weeks known. It never writes; the pipeline owns all writes.
type Server struct {
	store  ports.UpdateStore
	logger *slog.Logger
}

// NewServer wires the query handlers around a store.
func NewServer(store ports.UpdateStore, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{store: store, logger: logger}
}

// Routes mounts the read API onto a fresh router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(corsHeaders)
	r.Get("/api/updates", s.handleUpdates)
	r.Get("/api/weeks", s.handleWeeks)
	return r
}

// handleUpdates returns every record of the requested week, newest
// publication first. Without a week parameter it serves the most recent
// week present in the store.
func (s *Server) handleUpdates(w http.ResponseWriter, r *http.Request) {
	week := r.URL.Query().Get("week")
	if week == "" {
		weeks, err := s.store.Weeks(r.Context())
		if err != nil {
			s.fail(w, "list weeks", err)
			return
		}
		if len(weeks) == 0 {
			writeJSON(w, http.StatusOK, []updateResponse{})
			return
		}
		week = weeks[0]
	}

	records, err := s.store.ListWeek(r.Context(), week)
	if err != nil {
		s.fail(w, "list week", err)
		return
	}

	out := make([]updateResponse, 0, len(records))
	for _, record := range records {
		out = append(out, normalize(record))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleWeeks(w http.ResponseWriter, r *http.Request) {
	weeks, err := s.store.Weeks(r.Context())
	if err != nil {
		s.fail(w, "list weeks", err)
		return
	}
	if weeks == nil {
		weeks = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"weeks": weeks})
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	s.logger.Error("query failed", "op", op, "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

// updateResponse is the exact field set the front end consumes.
type updateResponse struct {
	UpdateID    string   `json:"updateId"`
	Title       string   `json:"title"`
	Link        string   `json:"link"`
	PublishedAt string   `json:"publishedAt"`
	WeekKey     string   `json:"weekKey"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	Summary     string   `json:"summary"`
	ImageURL    string   `json:"imageUrl"`
	Source      string   `json:"source"`
}

func normalize(record domain.UpdateRecord) updateResponse {
	tags := record.Tags
	if tags == nil {
		tags = []string{}
	}
	category := record.Category
	if category == "" {
		category = "Other"
	}
	return updateResponse{
		UpdateID:    record.UpdateID,
		Title:       record.Title,
		Link:        record.Link,
		PublishedAt: record.PublishedAt.UTC().Format(time.RFC3339),
		WeekKey:     record.WeekKey,
		Category:    category,
		Tags:        tags,
		Summary:     record.Summary,
		ImageURL:    record.ImageURL,
		Source:      record.Source,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func corsHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
