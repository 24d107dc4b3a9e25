package myhttp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"ride-sim/internal/config"
	"ride-sim/internal/mylogger"
	"ride-sim/internal/ride-sim/adapters/driver/myhttp/handle"
	"ride-sim/internal/ride-sim/adapters/driver/myhttp/middleware"
	"ride-sim/internal/ride-sim/adapters/driver/myhttp/ws"
	"ride-sim/internal/ride-sim/core/ports/driver"
)

const (
	WaitTime          = 10
	readHeaderTimeout = 5 * time.Second
)

type Server struct {
	mux     *http.ServeMux
	cfg     *config.Config
	srv     *http.Server
	mylog   mylogger.Logger
	session driver.ISessionController
	hub     *ws.Hub
	checks  map[string]handle.Check
	ctx     context.Context
	mu      sync.Mutex
	once    sync.Once
}

func NewServer(ctx context.Context, mylog mylogger.Logger, cfg *config.Config, session driver.ISessionController, hub *ws.Hub, checks map[string]handle.Check) *Server {
	return &Server{
		ctx:     ctx,
		cfg:     cfg,
		mylog:   mylog,
		session: session,
		hub:     hub,
		checks:  checks,
		mux:     http.NewServeMux(),
	}
}

// Run configures routes and listens. It returns when the server stops or ctx
// is done.
func (s *Server) Run() error {
	mylog := s.mylog.Action("server_started")

	s.mu.Lock()
	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%v", s.cfg.Srv.SimServicePort),
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	s.mu.Unlock()

	mylog.WithGroup("details").With("port", s.cfg.Srv.SimServicePort).Info("server is running")
	return s.startHTTPServer()
}

// Stop shuts the HTTP server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mylog.Info("Shutting down HTTP server...")

	if s.srv != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, WaitTime*time.Second)
		defer cancel()

		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.mylog.Error("Failed to shut down HTTP server gracefully", err)
			return fmt.Errorf("http server shutdown: %w", err)
		}
	}

	s.mylog.Info("HTTP server shut down gracefully")
	return nil
}

// Handler returns the configured router.
func (s *Server) Handler() http.Handler {
	s.once.Do(s.Configure)
	return s.mux
}

func (s *Server) startHTTPServer() error {
	errCh := make(chan error, 1)

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		} else {
			errCh <- nil
		}
	}()

	select {
	case <-s.ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Configure registers the session API, health check and map websocket.
func (s *Server) Configure() {
	sessionHandler := handle.NewSessionHandler(s.session, s.mylog)
	healthHandler := handle.NewHealthHandler(s.session, s.checks)
	logging := middleware.NewLoggingMiddleware(s.mylog)

	s.mux.Handle("POST /session/start", logging.Wrap(sessionHandler.StartSession()))
	s.mux.Handle("POST /location/permission", logging.Wrap(sessionHandler.SetPermission()))
	s.mux.Handle("POST /location", logging.Wrap(sessionHandler.UpdateLocation()))
	s.mux.Handle("GET /session", logging.Wrap(sessionHandler.GetSession()))
	s.mux.Handle("GET /health", healthHandler.Health())

	// websocket routes
	s.mux.Handle("GET /ws/map", logging.Wrap(s.hub.WsHandler()))
}
