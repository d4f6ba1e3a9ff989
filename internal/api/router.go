package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"essaycron/internal/core"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// HistoryReader lists journal events, newest first.
type HistoryReader interface {
	List(ctx context.Context, limit int) ([]core.Event, error)
}

// Server holds the HTTP server state.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	scheduler  *core.Scheduler
	waiter     *core.Waiter
	history    HistoryReader
	logger     *slog.Logger
}

// NewServer constructs the HTTP API server. history may be nil.
func NewServer(addr string, scheduler *core.Scheduler, waiter *core.Waiter, history HistoryReader, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:    router,
		scheduler: scheduler,
		waiter:    waiter,
		history:   history,
		logger:    logger,
	}
	s.registerRoutes()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

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
	s.router.Route("/v1", func(r chi.Router) {
		r.Post("/patterns/preview", s.handlePreview)

		r.Route("/schedules", func(r chi.Router) {
			r.Get("/", s.handleListSchedules)
			r.Post("/", s.handleCreateSchedule)
			r.Delete("/{name}", s.handleDeleteSchedule)
		})

		r.Route("/waiters", func(r chi.Router) {
			r.Get("/", s.handleListWaiters)
			r.Post("/", s.handleCreateWaiter)
		})

		r.Get("/history", s.handleHistory)
	})
}
