// Package httpserver provides the HTTP REST API for the paper scout service.
package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/venturelens/paper-scout/internal/corpus"
	"github.com/venturelens/paper-scout/internal/domain"
	"github.com/venturelens/paper-scout/internal/ingest"
	"github.com/venturelens/paper-scout/internal/observability"
	"github.com/venturelens/paper-scout/internal/scoring"
	"github.com/venturelens/paper-scout/internal/tasks"
)

// IngestionService runs one ingestion pass.
type IngestionService interface {
	Run(ctx context.Context) (ingest.Summary, error)
}

// ScoringService scores a batch of unscored papers.
type ScoringService interface {
	ScoreBatch(ctx context.Context, limit int) (scoring.Summary, error)
}

// CorpusService answers read queries against the current snapshot.
type CorpusService interface {
	List(params corpus.ListParams) (corpus.PageResult, error)
	Get(id string) (domain.Paper, error)
	Stats() (corpus.Stats, error)
	Categories() ([]string, error)
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// StaticDir holds the web UI; served at / when present.
	StaticDir string

	// IngestionTimeout and ScoringTimeout are the wall-clock ceilings for the
	// corresponding background jobs.
	IngestionTimeout time.Duration
	ScoringTimeout   time.Duration

	// DefaultScoringRows is the batch size used when a scoring request does
	// not supply num_rows.
	DefaultScoringRows int
}

// Server is the HTTP REST API server.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	cfg        Config

	corpus    CorpusService
	ingestion IngestionService
	scoring   ScoringService
	runner    *tasks.Runner
	tracker   *tasks.Tracker

	validate *validator.Validate
	metrics  *observability.Metrics
	logger   zerolog.Logger
}

// NewServer creates an HTTP server wired to the given services.
func NewServer(
	cfg Config,
	corpusSvc CorpusService,
	ingestionSvc IngestionService,
	scoringSvc ScoringService,
	runner *tasks.Runner,
	tracker *tasks.Tracker,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *Server {
	s := &Server{
		cfg:       cfg,
		corpus:    corpusSvc,
		ingestion: ingestionSvc,
		scoring:   scoringSvc,
		runner:    runner,
		tracker:   tracker,
		validate:  validator.New(),
		metrics:   metrics,
		logger:    logger.With().Str("component", "http-server").Logger(),
	}

	s.router = s.buildRouter()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.healthHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(jsonContentTypeMiddleware)

		r.Get("/papers", s.listPapers)
		r.Get("/paper/{paperID}", s.getPaper)
		r.Get("/stats", s.getStats)
		r.Get("/categories", s.getCategories)

		r.Post("/scrape", s.triggerIngestion)
		r.Post("/evaluate", s.triggerScoring)
		r.Get("/task-status", s.getTaskStatus)
	})

	s.mountStatic(r)

	return r
}

// mountStatic serves the web UI from StaticDir, if it exists.
func (s *Server) mountStatic(r chi.Router) {
	if s.cfg.StaticDir == "" {
		return
	}
	index := filepath.Join(s.cfg.StaticDir, "index.html")
	if _, err := os.Stat(index); err != nil {
		s.logger.Warn().Str("dir", s.cfg.StaticDir).Msg("static directory missing, web UI disabled")
		return
	}

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.ServeFile(w, req, index)
	})
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(s.cfg.StaticDir))))
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the handler tree, primarily for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// healthHandler returns basic liveness status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Best-effort; headers already sent.
		_ = err
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
