// Package server exposes page imports, page maps and route tables over HTTP
// for development hosts.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	ferrors "git.home.luguber.info/inful/pagecompiler/internal/foundation/errors"
	"git.home.luguber.info/inful/pagecompiler/internal/logfields"
	"git.home.luguber.info/inful/pagecompiler/internal/pageload"
	"git.home.luguber.info/inful/pagecompiler/internal/routes"
	smw "git.home.luguber.info/inful/pagecompiler/internal/server/middleware"
)

// Options configures a Server.
type Options struct {
	Addr          string
	DefaultLocale string
	Loader        *pageload.Loader
	// Metrics serves /metrics when set.
	Metrics http.Handler
	Logger  *slog.Logger
}

// Server is the development HTTP surface.
type Server struct {
	opts         Options
	logger       *slog.Logger
	errorAdapter *ferrors.HTTPErrorAdapter
	startTime    time.Time
	handler      http.Handler

	srv *http.Server
	ln  net.Listener
}

// New wires the handlers.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		opts:         opts,
		logger:       logger,
		errorAdapter: ferrors.NewHTTPErrorAdapter(logger),
		startTime:    time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /pages", s.handlePage)
	mux.HandleFunc("GET /pages/{path...}", s.handlePage)
	mux.HandleFunc("GET /pagemap", s.handlePageMap)
	mux.HandleFunc("GET /routes", s.handleRoutes)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics)
	}
	s.handler = smw.Chain(logger, s.errorAdapter)(mux)
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) registry() *routes.Registry { return s.opts.Loader.Registry }

// Start binds the listen address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("http startup failed: %w", err)
	}
	s.ln = ln
	s.srv = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", logfields.Error(err))
		}
	}()
	s.logger.Info("HTTP server started", slog.String("addr", ln.Addr().String()))
	return nil
}

// Addr is the bound address once started.
func (s *Server) Addr() string {
	if s.ln == nil {
		return s.opts.Addr
	}
	return s.ln.Addr().String()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}
