// Package api exposes the small control surface users drive the queue with:
// task status reads plus the approve/reject/cancel/retry/manual transitions.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"go-applyflow-automation/internal/models"
)

// Store is the slice of the repository the API needs.
type Store interface {
	GetTask(ctx context.Context, taskID int64) (*models.ApplicationTask, error)
	Transition(ctx context.Context, taskID int64, from, to models.Status) error
	SetManualStarted(ctx context.Context, taskID int64) error
}

// Server holds the HTTP server state.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	store      Store
	logger     *slog.Logger
}

// NewServer constructs the HTTP API server.
func NewServer(addr string, store Store, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	s := &Server{
		router: router,
		store:  store,
		logger: logger,
	}
	s.registerRoutes()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.router.Route("/api/tasks/{taskID}", func(r chi.Router) {
		r.Get("/", s.handleGetTask)
		r.Post("/approve", s.transitionTo(models.StatusApproved))
		r.Post("/reject", s.transitionTo(models.StatusRejected))
		r.Post("/cancel", s.transitionTo(models.StatusCancelled))
		r.Post("/retry", s.transitionTo(models.StatusPending))
		r.Post("/manual-start", s.handleManualStart)
		r.Post("/manual-complete", s.transitionTo(models.StatusManualSuccess))
	})
}
