package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/baxromumarov/job-alerts/internal/core"
	"github.com/baxromumarov/job-alerts/internal/observability"
	"github.com/baxromumarov/job-alerts/internal/store"
)

// Runner is the part of core.Service the API drives.
type Runner interface {
	RunOnce(ctx context.Context) core.CycleReport
	LastReport() (core.CycleReport, bool)
	Stats() observability.StatsSnapshot
	Sources() []string
}

type Server struct {
	router *chi.Mux
	store  store.DedupStore
	runner Runner
	voice  http.Handler
}

// NewServer wires the routes. voice may be nil when voice alerts are disabled.
func NewServer(store store.DedupStore, runner Runner, voice http.Handler) *Server {
	s := &Server{
		router: chi.NewRouter(),
		store:  store,
		runner: runner,
		voice:  voice,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
	}))

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/stats", s.handleStats)
	s.router.Get("/sources", s.handleListSources)
	s.router.Get("/entries", s.handleListEntries)
	s.router.Post("/cycles", s.handleRunCycle)
	s.router.Get("/cycles/last", s.handleLastCycle)

	if s.voice != nil {
		s.router.Get("/voice", s.voice.ServeHTTP)
		s.router.Post("/voice", s.voice.ServeHTTP)
	}
}

func (s *Server) Router() http.Handler {
	return s.router
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
