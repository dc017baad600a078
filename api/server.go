// Package api exposes the search core over HTTP. It is a thin presentation
// collaborator: the aggregate result structure is the entire contract.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"rental-scanner/models"
	"rental-scanner/storage"
	"rental-scanner/utils"
)

// Searcher is the slice of the search manager the API needs.
type Searcher interface {
	SearchAll(ctx context.Context, location string, minPrice, maxPrice *float64) (*models.AggregateResult, error)
	EnabledSources() []string
}

// Server routes HTTP requests to the search core and, when a store is
// configured, writes results through to it.
type Server struct {
	searcher Searcher
	store    storage.ListingStore
	logger   *utils.Logger
	router   *mux.Router
}

// NewServer creates a Server. store may be nil to disable persistence.
func NewServer(searcher Searcher, store storage.ListingStore, logger *utils.Logger) *Server {
	s := &Server{
		searcher: searcher,
		store:    store,
		logger:   logger,
		router:   mux.NewRouter(),
	}

	s.router.HandleFunc("/api/search", s.withRequestID(s.handleSearch)).Methods(http.MethodGet)
	s.router.HandleFunc("/api/listings", s.withRequestID(s.handleListings)).Methods(http.MethodGet)
	s.router.HandleFunc("/api/sources", s.withRequestID(s.handleSources)).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	return s
}

// Router returns the HTTP handler for mounting.
func (s *Server) Router() http.Handler {
	return s.router
}

// withRequestID tags every request with a correlation id for the access log.
func (s *Server) withRequestID(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)

		start := time.Now()
		next(w, r)
		s.logger.Info("[api] %s %s %s (%.0fms)",
			id[:8], r.Method, r.URL.Path, float64(time.Since(start).Milliseconds()))
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	location := strings.TrimSpace(q.Get("location"))
	if location == "" {
		writeError(w, http.StatusBadRequest, "location is required")
		return
	}

	minPrice, err := priceParam(q.Get("min_price"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "min_price must be a number")
		return
	}
	maxPrice, err := priceParam(q.Get("max_price"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "max_price must be a number")
		return
	}

	result, err := s.searcher.SearchAll(r.Context(), location, minPrice, maxPrice)
	if err != nil {
		s.logger.Error("[api] Search failed: %v", err)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	if s.store != nil && len(result.Listings) > 0 {
		if n, err := s.store.Upsert(r.Context(), result.Listings); err != nil {
			s.logger.Error("[api] Store upsert failed: %v", err)
		} else {
			s.logger.Debug("[api] Upserted %d listings", n)
		}
	}

	writeJSON(w, http.StatusOK, result)
}

// handleListings serves previously stored listings, cheapest first.
func (s *Server) handleListings(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "persistence is not configured")
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	listings, err := s.store.FetchActive(r.Context(), limit)
	if err != nil {
		s.logger.Error("[api] Fetch listings failed: %v", err)
		writeError(w, http.StatusInternalServerError, "fetch failed")
		return
	}
	if listings == nil {
		listings = []models.Listing{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(listings),
		"listings": listings,
	})
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{
		"enabled": s.searcher.EnabledSources(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"sources": len(s.searcher.EnabledSources()),
	})
}

func priceParam(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
