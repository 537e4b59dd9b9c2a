package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Darklegion92/backend-DIAN-sub001/internal/infrastructure/config"
	httperrors "github.com/Darklegion92/backend-DIAN-sub001/internal/infrastructure/http"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/infrastructure/http/middleware"
)

// DocumentRoutes serves the document pipeline endpoints.
type DocumentRoutes interface {
	Submit(w http.ResponseWriter, r *http.Request)
	Preview(w http.ResponseWriter, r *http.Request)
	Batch(w http.ResponseWriter, r *http.Request)
	DownloadArtifact(w http.ResponseWriter, r *http.Request)
}

// ResolutionRoutes serves the numbering resolution endpoints.
type ResolutionRoutes interface {
	GetResolutions(w http.ResponseWriter, r *http.Request)
	Register(w http.ResponseWriter, r *http.Request)
}

// Server wraps the HTTP server and its router.
type Server struct {
	log             *slog.Logger
	httpServer      *http.Server
	auth            *middleware.JWTAuthenticator
	shutdownTimeout time.Duration
}

// Options configures New. HealthHandler is required; a nil route group
// answers 503.
type Options struct {
	Config        config.AppConfig
	Logger        *slog.Logger
	HealthHandler http.Handler
	Documents     DocumentRoutes
	Resolutions   ResolutionRoutes
	Authenticator *middleware.JWTAuthenticator
}

// New builds the router and the underlying http.Server.
func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.HealthHandler == nil {
		return nil, errors.New("health handler is required")
	}

	auth := opts.Authenticator
	if auth == nil {
		var err error
		auth, err = middleware.NewJWTAuthenticator(opts.Config.Auth, opts.Logger)
		if err != nil {
			return nil, fmt.Errorf("create authenticator: %w", err)
		}
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(chimw.Recoverer)
	r.Use(auth.Middleware)

	r.Method(http.MethodGet, "/health", opts.HealthHandler)

	unavailable := unavailableHandler(opts.Logger)

	r.Route("/api/v1/documents", func(r chi.Router) {
		if opts.Documents == nil {
			r.Handle("/*", unavailable)
			r.Handle("/", unavailable)
			return
		}
		r.Post("/", opts.Documents.Submit)
		r.Post("/preview", opts.Documents.Preview)
		r.With(middleware.ExtendedTimeout(opts.Config.HTTP)).Post("/batch", opts.Documents.Batch)
		r.Get("/{nit}/{type}/{prefix}/{number}/artifact", opts.Documents.DownloadArtifact)
	})

	r.Route("/api/v1/resolutions", func(r chi.Router) {
		if opts.Resolutions == nil {
			r.Handle("/*", unavailable)
			r.Handle("/", unavailable)
			return
		}
		r.Post("/", opts.Resolutions.Register)
		r.Get("/{nit}", opts.Resolutions.GetResolutions)
	})

	writeTimeout := opts.Config.HTTP.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Minute
	}
	readTimeout := opts.Config.HTTP.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 30 * time.Second
	}
	idleTimeout := opts.Config.HTTP.IdleTimeout
	if idleTimeout <= 0 {
		idleTimeout = 120 * time.Second
	}

	srv := &http.Server{
		Addr:              opts.Config.HTTP.Address(),
		Handler:           r,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	shutdownTimeout := opts.Config.HTTP.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}

	return &Server{
		log:             opts.Logger,
		httpServer:      srv,
		auth:            auth,
		shutdownTimeout: shutdownTimeout,
	}, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx is cancelled, then drains in-flight requests for at
// most the configured shutdown timeout.
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
		s.log.Info("Shutting down HTTP server", "timeout", s.shutdownTimeout.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

// Close stops the JWKS refresher.
func (s *Server) Close() {
	if s.auth != nil {
		s.auth.Close()
	}
}

func unavailableHandler(log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, http.StatusServiceUnavailable, "Servicio no Disponible", []string{"El servicio no está configurado"}, log)
	})
}
