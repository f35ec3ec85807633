// Package server implements the HTTP API surface.
//
// Handlers here are thin: they decode requests, resolve identity, call
// into pkg/files and pkg/share, and translate domain error codes into
// HTTP statuses. All business rules live below this package.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Anshuman-git-code/AWS-Drive-Storage/internal/logger"
	"github.com/Anshuman-git-code/AWS-Drive-Storage/internal/ratelimiter"
	"github.com/Anshuman-git-code/AWS-Drive-Storage/pkg/auth"
	"github.com/Anshuman-git-code/AWS-Drive-Storage/pkg/files"
	"github.com/Anshuman-git-code/AWS-Drive-Storage/pkg/share"
	"github.com/Anshuman-git-code/AWS-Drive-Storage/pkg/storage"
)

// Server is the HTTP front of the API.
//
// Lifecycle:
//  1. Creation: New() with the domain services
//  2. Startup: Serve() starts the listener
//  3. Shutdown: context cancellation triggers graceful shutdown
//
// Serve() should only be called once per server instance.
type Server struct {
	cfg         Config
	files       *files.Service
	shares      *share.Engine
	verifier    *auth.TokenVerifier
	redeemLimit *ratelimiter.RateLimiter
	http        *http.Server
}

// Config contains the server's settings and collaborators.
type Config struct {
	// ListenAddress is the host:port to bind to
	ListenAddress string

	// ReadTimeout bounds request reads; uploads count against it
	ReadTimeout time.Duration

	// WriteTimeout bounds response writes
	WriteTimeout time.Duration

	// IdleTimeout bounds idle keep-alive connections
	IdleTimeout time.Duration

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration

	// Files is the file lifecycle service (required)
	Files *files.Service

	// Shares is the share lifecycle engine (required)
	Shares *share.Engine

	// Verifier authenticates bearer tokens on identity-scoped routes
	// (required)
	Verifier *auth.TokenVerifier

	// RedeemRateLimit throttles the public redemption endpoint, in
	// requests per second. Zero disables the limit.
	RedeemRateLimit uint

	// RedeemRateBurst is the redemption limiter's burst capacity.
	RedeemRateBurst uint
}

// New creates a new Server with the provided services.
//
// Panics if a required collaborator is nil (indicates programmer error).
func New(cfg Config) *Server {
	if cfg.Files == nil {
		panic("files service cannot be nil")
	}
	if cfg.Shares == nil {
		panic("share engine cannot be nil")
	}
	if cfg.Verifier == nil {
		panic("token verifier cannot be nil")
	}

	s := &Server{
		cfg:         cfg,
		files:       cfg.Files,
		shares:      cfg.Shares,
		verifier:    cfg.Verifier,
		redeemLimit: ratelimiter.New(cfg.RedeemRateLimit, cfg.RedeemRateBurst),
	}

	s.http = &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      s.routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// routes assembles the router.
//
// /api/files/* requires a verified identity. /api/shared/{shareID} is
// deliberately public: the share id is the capability, and requiring
// login there would defeat the point of share links.
func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Post("/files", s.handleUpload)
			r.Get("/files", s.handleListFiles)
			r.Get("/files/{fileID}/download", s.handleDownload)
			r.Delete("/files/{fileID}", s.handleDeleteFile)
			r.Post("/files/{fileID}/share", s.handleCreateShare)
			r.Delete("/shares/{shareID}", s.handleDeactivateShare)
		})

		// Public: redeemed by anyone holding the link. Rate-limited so
		// the route cannot be used to enumerate share ids at line rate.
		r.With(s.limitRedemptions).Get("/shared/{shareID}", s.handleRedeemShare)
	})

	return r
}

// Handler returns the server's HTTP handler. Exposed for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Serve starts the HTTP listener and blocks until the context is
// cancelled or the listener fails.
//
// Shutdown behavior: on context cancellation the server stops accepting
// new connections and waits up to ShutdownTimeout for in-flight requests
// to finish, then returns context.Canceled.
func (s *Server) Serve(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		logger.Info("HTTP server listening on %s", s.cfg.ListenAddress)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received (reason: %v)", ctx.Err())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()

		if err := s.http.Shutdown(shutdownCtx); err != nil {
			logger.Error("Graceful shutdown failed, closing connections: %v", err)
			_ = s.http.Close()
		}

		logger.Info("HTTP server stopped gracefully")
		return ctx.Err()

	case err := <-errChan:
		logger.Error("HTTP server failed: %v", err)
		return err
	}
}

// limitRedemptions rejects redemption attempts over the configured rate
// with 429 before any store access happens.
func (s *Server) limitRedemptions(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.redeemLimit.Allow() {
			writeError(w, r, &storage.StoreError{
				Code:    storage.ErrAccessLimitReached,
				Message: "too many requests, slow down",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleHealth reports liveness. It does not probe the stores; a broken
// store surfaces through request errors and metrics, and failing the
// liveness probe for it would just add restarts on top.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
