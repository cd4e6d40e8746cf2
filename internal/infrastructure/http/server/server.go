package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"tho/simplercv/internal/infrastructure/config"
	"tho/simplercv/internal/infrastructure/http/middleware"
)

// Authenticator guards the sync routes. *middleware.JWTAuthenticator
// satisfies it and passes everything through when auth is disabled.
type Authenticator interface {
	Middleware(next http.Handler) http.Handler
	Close()
}

// Server exposes the health check and the SimpleAPI RCV sync endpoints.
type Server struct {
	log        *slog.Logger
	cfg        config.AppConfig
	httpServer *http.Server
	auth       Authenticator
}

// Options wires the handlers into the router. Only POST and OPTIONS reach
// SyncHandler; other methods get 405 before authentication.
type Options struct {
	Config        config.AppConfig
	Logger        *slog.Logger
	HealthHandler http.Handler
	SyncHandler   http.Handler
	LogsHandler   http.Handler
	Authenticator Authenticator
}

// New builds the router and the underlying http.Server.
func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.HealthHandler == nil {
		return nil, errors.New("health handler is required")
	}
	if opts.SyncHandler == nil {
		return nil, errors.New("sync handler is required")
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(opts.Config.Auth.Enabled))

	r.Method(http.MethodGet, "/health", opts.HealthHandler)

	var protected []func(http.Handler) http.Handler
	if opts.Authenticator != nil {
		protected = append(protected, opts.Authenticator.Middleware)
	}
	protected = append(protected, middleware.RequestTimeout(opts.Config.Sync.Timeout))

	// The method check runs before authentication.
	syncChain := append([]func(http.Handler) http.Handler{
		middleware.AllowMethods(opts.Logger, http.MethodPost, http.MethodOptions),
	}, protected...)
	r.With(syncChain...).Handle("/api/simple-rcv", opts.SyncHandler)
	if opts.LogsHandler != nil {
		r.With(protected...).Method(http.MethodGet, "/api/simple-rcv/logs", opts.LogsHandler)
	}

	return &Server{
		log: opts.Logger,
		cfg: opts.Config,
		httpServer: &http.Server{
			Addr:         opts.Config.HTTP.Address(),
			Handler:      r,
			ReadTimeout:  opts.Config.HTTP.ReadTimeout,
			WriteTimeout: opts.Config.HTTP.WriteTimeout,
			IdleTimeout:  opts.Config.HTTP.IdleTimeout,
		},
		auth: opts.Authenticator,
	}, nil
}

// Handler returns the configured router.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx is cancelled, then drains in-flight requests for at
// most HTTP.ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server started", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.log.Info("HTTP server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

// Close releases the authenticator's background refreshers.
func (s *Server) Close() {
	if s.auth != nil {
		s.auth.Close()
	}
}
