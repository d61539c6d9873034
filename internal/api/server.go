// Package api serves diagnostic sessions and stored results over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Horizon-Research-Group/neuromath-navigator/internal/sessions"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/store"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configure a Server.
type Options struct {
	Registry    *sessions.Registry
	Students    store.StudentRepo
	Auth        *Auth
	Health      Pinger
	CORSOrigins []string
	Logger      *slog.Logger

	// RequestTimeout bounds one request, LLM calls included.
	RequestTimeout time.Duration
}

// Server holds the HTTP handlers.
type Server struct {
	registry *sessions.Registry
	students store.StudentRepo
	auth     *Auth
	health   Pinger
	logger   *slog.Logger
	router   chi.Router
}

func New(opts Options) (*Server, error) {
	if opts.Registry == nil || opts.Students == nil || opts.Auth == nil {
		return nil, errors.New("api: registry, students and auth are required")
	}
	s := &Server{
		registry: opts.Registry,
		students: opts.Students,
		auth:     opts.Auth,
		health:   opts.Health,
		logger:   opts.Logger,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	s.router = s.routes(opts.CORSOrigins, timeout)
	return s, nil
}

func (s *Server) routes(origins []string, timeout time.Duration) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(s.logger), middleware.Recoverer)

	if len(origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", s.healthz)

	r.Route("/v1", func(v chi.Router) {
		v.Use(s.auth.Middleware, middleware.Timeout(timeout))

		v.Post("/sessions", s.createSession)
		v.Route("/sessions/{id}", func(sr chi.Router) {
			sr.Get("/", s.getSession)
			sr.Post("/age", s.submitAge)
			sr.Post("/enroll", s.enroll)
			sr.Post("/answers", s.submitAnswer)
		})

		v.Get("/students", s.listStudents)
		v.Get("/tests/{id}", s.getTest)
	})
	return r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then drains
// in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	s.logger.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
