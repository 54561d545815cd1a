package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Server wraps the chi router and the listener lifecycle.
type Server struct {
	Router *chi.Mux
	Host   string
	Port   int

	logger *slog.Logger
	http   *http.Server
}

// New builds the router with the standard middleware chain applied in
// order: request ID, logging, timeout, panic recovery, then OTel HTTP
// instrumentation around the whole thing.
func New(host string, port int, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(TimeoutMiddleware(90 * time.Second))
	r.Use(RecoverMiddleware(logger))

	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "consulta-gateway")
	})

	return &Server{
		Router: r,
		Host:   host,
		Port:   port,
		logger: logger,
	}
}

// Start blocks serving HTTP until the listener fails or Shutdown is
// called.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	s.http = &http.Server{
		Addr:    addr,
		Handler: s.Router,
	}

	s.logger.Info("starting server", slog.String("addr", addr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
