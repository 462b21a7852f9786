// Package httpserver is the HTTP edge of the admin gate: the route gate,
// the auth API and the pass-through to the dashboard front-end.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/smartscan/admingate/internal/logging"
	"github.com/smartscan/admingate/internal/server/config"
)

type Server struct {
	cfg     *config.Config
	handler http.Handler
	log     logging.Logger
}

// NewServer builds the router. tokens must be the same verifier the auth
// service signs with.
func NewServer(cfg *config.Config, svc AuthService, tokens TokenVerifier, db Pinger, log logging.Logger) (*Server, error) {
	log = log.With("module", "http")

	upstream, err := newUpstream(cfg.UpstreamURL, log)
	if err != nil {
		return nil, err
	}

	h := &handlers{
		svc:    svc,
		db:     db,
		secure: cfg.IsProduction(),
		ttl:    cfg.TokenValidityDuration,
		log:    log,
	}
	gate := NewGate(tokens, cfg.IsProduction(), log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	r.Use(gate.Middleware)

	r.Get("/healthz", h.healthz)
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", h.login)
		r.Get("/verify", h.verify)
		r.Post("/logout", h.logout)
	})
	r.NotFound(upstream.ServeHTTP)
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return &Server{cfg: cfg, handler: r, log: log}, nil
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves on cfg.HTTPAddr until ctx is cancelled, then drains in-flight
// requests for at most cfg.ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.HTTPAddr, err)
	}
	return s.Serve(ctx, lis)
}

func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	done := make(chan error, 1)
	go func() {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			done <- fmt.Errorf("http server failed: %w", err)
			return
		}
		done <- nil
	}()

	s.log.Info(ctx, "http server listening", "addr", lis.Addr().String())

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown failed: %w", err)
		}
		s.log.Info(ctx, "http server stopped")
		return <-done
	case err := <-done:
		return err
	}
}

// requestLogger logs one line per request and tags the context so later
// log lines carry the request id.
func requestLogger(log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logging.ContextWith(r.Context(), "request_id", middleware.GetReqID(r.Context()))
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r.WithContext(ctx))

			log.Info(ctx, "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}
