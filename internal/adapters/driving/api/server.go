package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/ragbox/internal/logger"
)

// Default server settings.
const (
	DefaultHost           = "0.0.0.0"
	DefaultPort           = 8000
	DefaultMaxUploadBytes = 64 << 20
	DefaultWriteTimeout   = 10 * time.Minute
	shutdownTimeout       = 10 * time.Second
)

// Config holds HTTP server settings.
type Config struct {
	Host string
	Port int

	// MaxUploadBytes caps a multipart upload request (default: 64 MiB).
	MaxUploadBytes int64

	// WriteTimeout must outlast the slowest answer (default: 10m).
	WriteTimeout time.Duration
}

// Server serves the ragbox HTTP API.
type Server struct {
	ports    *Ports
	cfg      Config
	validate *validator.Validate
	handler  http.Handler
}

// NewServer creates a server for the given ports.
func NewServer(ports *Ports, cfg Config) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, err
	}
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}

	s := &Server{
		ports:    ports,
		cfg:      cfg,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	s.handler = s.withMiddleware(s.routes())
	return s, nil
}

// Handler returns the HTTP handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port))
}

// Run listens on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.Addr(),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown: %v", err)
		}
	}()

	logger.Info("HTTP API listening on http://%s", s.Addr())
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		logger.Info("HTTP API stopped")
		return nil
	}
	return fmt.Errorf("http server: %w", err)
}
