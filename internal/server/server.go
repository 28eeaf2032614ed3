// Package server exposes the mdv HTTP surface: the workspace management
// API, confined file browsing, the per-workspace reload stream (SSE), and
// the global remote-control stream (WebSocket).
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/mdview/mdv/internal/config"
	"github.com/mdview/mdv/internal/logging"
	"github.com/mdview/mdv/internal/render"
	"github.com/mdview/mdv/internal/workspace"
)

// Server ties the sync service to the HTTP layer. All handler state is
// read through the service; the server itself owns only the listener.
type Server struct {
	config   *config.Config
	service  *workspace.Service
	renderer *render.Renderer
	log      logging.Logger

	httpServer   *http.Server
	serverMutex  sync.Mutex
	shutdownOnce sync.Once
}

// New creates a server with a fresh sync service.
func New(cfg *config.Config, log logging.Logger) *Server {
	return &Server{
		config:   cfg,
		service:  workspace.NewService(cfg.Watch.Interval, log),
		renderer: render.New(),
		log:      log.WithComponent("server"),
	}
}

// Service exposes the sync service, mainly for tests.
func (s *Server) Service() *workspace.Service {
	return s.service
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /api/workspace/register", s.handleRegister)
	mux.HandleFunc("DELETE /api/workspace/{id}", s.handleUnregister)
	mux.HandleFunc("GET /api/active", s.handleActive)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/remote/scroll", s.handleScroll)

	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("GET /_reload/{id}", s.handleReload)

	mux.HandleFunc("GET /view/{id}", s.handleViewRoot)
	mux.HandleFunc("GET /view/{id}/{path...}", s.handleViewPath)
	mux.HandleFunc("GET /_raw/{id}/{path...}", s.handleRaw)

	return s.withRequestLogging(mux)
}

func (s *Server) withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug(r.Context(), "request",
			"method", r.Method, "path", r.URL.Path, "duration", time.Since(start).String())
	})
}

// Start binds the listen address and serves until Shutdown. A bind failure
// is returned immediately; it is the caller's sole fatal condition.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("cannot bind to %s: %w", addr, err)
	}

	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Handler:     s.routes(),
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	server := s.httpServer
	s.serverMutex.Unlock()

	s.log.Info(ctx, "mdv server listening", "addr", "http://"+listener.Addr().String())

	if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown stops every workspace watcher and closes both buses first, so
// long-lived SSE and WebSocket handlers terminate, then drains the
// remaining in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.service.Close()

		s.serverMutex.Lock()
		server := s.httpServer
		s.serverMutex.Unlock()

		if server != nil {
			shutdownErr = server.Shutdown(ctx)
		}
	})

	return shutdownErr
}
