// Package server runs the auth HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/taskiq/taskiq-auth/internal/auth"
	"github.com/taskiq/taskiq-auth/internal/config"
	"github.com/taskiq/taskiq-auth/internal/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	// shutdownTimeout is the maximum time to wait for server shutdown
	shutdownTimeout = 5 * time.Second

	readHeaderTimeout = 10 * time.Second
)

// Server owns the listening HTTP server
type Server struct {
	config *config.ServerConfig
	http   *http.Server
	errCh  chan error
}

// NewServer creates a server for the auth routes
func NewServer(cfg *config.Config, authService *auth.Service) *Server {
	if cfg == nil {
		logger.Fatal("Config cannot be nil")
	}
	if authService == nil {
		logger.Fatal("Auth service cannot be nil")
	}

	return &Server{
		config: &cfg.Server,
		http: &http.Server{
			Addr:              cfg.Server.Addr(),
			Handler:           authService.Handler(),
			ReadHeaderTimeout: readHeaderTimeout,
		},
		errCh: make(chan error, 1),
	}
}

// Start binds the listener and serves in the background
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.http.Addr, err)
	}
	return s.Serve(ln)
}

// Serve serves on ln in the background. Errors other than a clean shutdown
// are reported on Errors.
func (s *Server) Serve(ln net.Listener) error {
	logger.Info("Starting server", zap.String("address", ln.Addr().String()))

	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", zap.Error(err))
			s.errCh <- fmt.Errorf("server error: %w", err)
		}
	}()
	return nil
}

// Errors reports a failure of the serving goroutine
func (s *Server) Errors() <-chan error {
	return s.errCh
}

// Stop gracefully shuts the server down
func (s *Server) Stop(ctx context.Context) error {
	logger.Info("Shutting down server", zap.Duration("timeout", shutdownTimeout))

	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}

// register hooks the server into the fx lifecycle
func register(lc fx.Lifecycle, srv *Server, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := srv.Start(ctx); err != nil {
				return err
			}
			go func() {
				if err := <-srv.Errors(); err != nil {
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: srv.Stop,
	})
}

// Module provides the HTTP server and binds it to the application lifecycle
var Module = fx.Module("server",
	fx.Provide(NewServer),
	fx.Invoke(register),
)
