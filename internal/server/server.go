package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lazypower/tidemark/internal/engine"
	"github.com/lazypower/tidemark/internal/store"
)

// Server is the tidemark HTTP API server.
type Server struct {
	db      *store.DB
	engine  *engine.Engine
	metrics http.Handler
	router  chi.Router
	version string
	started time.Time
}

// New creates a new Server. eng may be nil, which disables run triggers;
// metricsHandler may be nil, which disables GET /metrics.
func New(db *store.DB, eng *engine.Engine, metricsHandler http.Handler, version string) *Server {
	s := &Server{
		db:      db,
		engine:  eng,
		metrics: metricsHandler,
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Get("/persons", s.handleListPersons)
		r.Get("/persons/{personID}/state", s.handleGetState)
		r.Get("/persons/{personID}/signals", s.handleGetSignals)

		r.Get("/runs", s.handleListRuns)
		r.Post("/runs/{component}", s.handleTriggerRun)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.Ping(); err != nil {
		dbOK = false
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": s.db.Path,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
