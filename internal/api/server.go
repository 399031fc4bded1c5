package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/artweave/internal/config"
	"github.com/dgallion1/artweave/internal/pipeline"
	"github.com/dgallion1/artweave/internal/xai"
)

// Server is the HTTP API server for artweave.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	grok         *xai.Client
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, grok *xai.Client, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		grok:         grok,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.ArtweaveAPIKey, s.log))

		r.Post("/api/enrich", s.handleEnrich)
		r.Get("/api/enrich/{jobID}/status", s.handleEnrichStatus)
		r.Get("/api/enrich/{jobID}/result", s.handleEnrichResult)
		r.Get("/api/jobs", s.handleListJobs)
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
