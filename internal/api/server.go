package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/wikiscan/internal/config"
	"github.com/dgallion1/wikiscan/internal/mediawiki"
	"github.com/dgallion1/wikiscan/internal/offsets"
	"github.com/dgallion1/wikiscan/internal/pipeline"
	"github.com/dgallion1/wikiscan/internal/store"
	"github.com/dgallion1/wikiscan/internal/tsv"
	"github.com/dgallion1/wikiscan/internal/wikiparser"
)

// Deps are the components the handlers call into. Stats may be nil when no
// wiki is configured.
type Deps struct {
	Orchestrator *pipeline.Orchestrator
	Parser       *wikiparser.Parser
	Builder      *offsets.Builder
	Converter    *tsv.Converter
	Store        *store.Store
	Stats        *mediawiki.RequestStats
}

// Server is the HTTP API server for wikiscan.
type Server struct {
	router chi.Router
	deps   Deps
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(deps Deps, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		deps: deps,
		log:  log,
		cfg:  cfg,
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
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/parse", s.handleParse)
		r.Post("/api/offsets", s.handleOffsets)
		r.Post("/api/annotate", s.handleAnnotate)
		r.Post("/api/tsv", s.handleTSV)

		r.Post("/api/ingest", s.handleIngest)
		r.Get("/api/ingest/{jobID}/status", s.handleIngestStatus)
		r.Post("/api/ingest/batch", s.handleBatchIngest)
		r.Post("/api/export", s.handleExport)
		r.Get("/api/stats/fetch", s.handleFetchStats)

		r.Get("/api/documents", s.handleListDocuments)
		r.Get("/api/documents/{title}", s.handleGetDocument)
		r.Delete("/api/documents/{title}", s.handleDeleteDocument)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
