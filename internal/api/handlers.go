package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/baxromumarov/job-alerts/internal/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.runner.Stats())
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	sources := s.runner.Sources()
	if sources == nil {
		sources = []string{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items": sources,
		"total": len(sources),
	})
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r, store.DefaultListLimit)

	entries, err := s.store.ListEntries(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "Failed to list dedup entries: "+err.Error())
		return
	}
	if entries == nil {
		entries = []store.Entry{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items":  entries,
		"limit":  limit,
		"offset": offset,
	})
}

// handleRunCycle runs a cycle outside the schedule. The request context is not
// used so a disconnecting client cannot cut a cycle short.
func (s *Server) handleRunCycle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 5*time.Minute)
	defer cancel()

	report := s.runner.RunOnce(ctx)
	respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleLastCycle(w http.ResponseWriter, r *http.Request) {
	report, ok := s.runner.LastReport()
	if !ok {
		respondError(w, http.StatusNotFound, "no cycle has run yet")
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func parsePagination(r *http.Request, defaultLimit int) (int, int) {
	q := r.URL.Query()
	limit := defaultLimit
	offset := 0

	if v := q.Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}

	if v := q.Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}

	if limit <= 0 {
		limit = defaultLimit
	}
	limit = store.ClampLimit(limit)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
