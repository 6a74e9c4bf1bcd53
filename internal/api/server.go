// Package api serves LexiGo over a JSON HTTP API.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/example/lexigo/internal/arena"
	"github.com/example/lexigo/internal/database"
	"github.com/example/lexigo/internal/lesson"
	"github.com/example/lexigo/internal/metrics"
	"github.com/example/lexigo/internal/spaced_repetition"
	"github.com/example/lexigo/pkg/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const maxRequestBodySize = 1 << 20 // 1MB

// maxAudioBodySize bounds pronunciation uploads, base64 included
const maxAudioBodySize = 10 << 20

// Config configures the HTTP server
type Config struct {
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Coach answers the generator-backed extras of the home and study screens
type Coach interface {
	DailySentence(ctx context.Context) (*models.DailySentence, error)
	EvaluatePronunciation(ctx context.Context, word string, wav []byte) (*models.PronunciationResult, error)
}

// Deps holds what the handlers need
type Deps struct {
	Repos   *database.Repositories
	Lessons *lesson.Service
	Arena   *arena.Service
	Coach   Coach
	Clock   spaced_repetition.Clock
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

type handlers struct {
	Deps
	srs *spaced_repetition.Scheduler
}

// NewHandler returns the router serving the API, /health and /metrics
func NewHandler(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	h := &handlers{Deps: deps, srs: spaced_repetition.New()}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(deps.Logger, deps.Metrics))

	r.Get("/health", handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/profile", h.getProfile)
		r.Put("/profile", h.putProfile)
		r.Get("/categories", h.listCategories)
		r.Get("/stats", h.getStats)
		r.Get("/daily-sentence", h.dailySentence)
		r.Get("/notebook", h.listNotebook)
		r.Get("/notebook/due", h.listDue)
		r.Post("/lessons", h.startLesson)
		r.Get("/lessons/{id}", h.getLesson)
		r.Post("/lessons/{id}/judgments", h.judge)
		r.Post("/arena", h.startArena)
		r.Post("/arena/{id}/answers", h.answerArena)
		r.Post("/pronunciation", h.pronunciation)
	})
	return r
}

// Server is the HTTP server with graceful shutdown
type Server struct {
	cfg    Config
	srv    *http.Server
	logger *zap.Logger
}

// NewServer creates a server for handler
func NewServer(cfg Config, handler http.Handler, logger *zap.Logger) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	return &Server{
		cfg: cfg,
		srv: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.cfg.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down http server")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}
