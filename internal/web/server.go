// Package web exposes search, suggestion and stats endpoints over HTTP.
package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Yrd980/starsearch/internal/searcher"
	"github.com/Yrd980/starsearch/internal/storage"
	"github.com/Yrd980/starsearch/pkg/types"
)

const (
	defaultSuggestionLimit = 10
	maxSuggestionLimit     = 20
)

// Server serves the read-only query API over an indexed store.
type Server struct {
	searcher *searcher.Searcher
	store    storage.Store
	logger   *slog.Logger
}

// SearchResponse is the JSON shape of /api/search
type SearchResponse struct {
	Success bool               `json:"success"`
	Query   string             `json:"query"`
	Total   int                `json:"total"`
	Results []types.ScoredRepo `json:"results"`
}

// SuggestionsResponse is the JSON shape of /api/suggestions
type SuggestionsResponse struct {
	Success     bool     `json:"success"`
	Query       string   `json:"query"`
	Suggestions []string `json:"suggestions"`
}

// StatsResponse is the JSON shape of /api/stats
type StatsResponse struct {
	Success bool              `json:"success"`
	Stats   *types.IndexStats `json:"stats"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// NewServer creates a Server over the given searcher and store.
func NewServer(sr *searcher.Searcher, store storage.Store) *Server {
	return &Server{
		searcher: sr,
		store:    store,
		logger:   slog.Default(),
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/search", s.handleSearch)
	mux.HandleFunc("/api/suggestions", s.handleSuggestions)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/health", s.handleHealth)

	return mux
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := parseIntParam(r, "limit", searcher.DefaultLimit)
	minScore := parseFloatParam(r, "min_score", searcher.DefaultMinScore)

	resp, err := s.searcher.Search(r.Context(), searcher.Request{
		Query:    query,
		Limit:    limit,
		MinScore: minScore,
		UseCache: true,
		CacheTTL: 5 * time.Minute,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, SearchResponse{
		Success: true,
		Query:   query,
		Total:   resp.Total,
		Results: resp.Results,
	})
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := parseIntParam(r, "limit", defaultSuggestionLimit)
	if limit > maxSuggestionLimit {
		limit = maxSuggestionLimit
	}

	suggestions, err := s.searcher.Suggestions(r.Context(), query, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, SuggestionsResponse{
		Success:     true,
		Query:       query,
		Suggestions: suggestions,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, StatsResponse{
		Success: true,
		Stats:   stats,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	s.writeJSON(w, http.StatusInternalServerError, errorResponse{
		Success: false,
		Error:   err.Error(),
	})
}

func parseIntParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func parseFloatParam(r *http.Request, name string, fallback float64) float64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
