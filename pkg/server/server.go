package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"kae-hq/kae/pkg/appspec"
	"kae-hq/kae/pkg/config"
	"kae-hq/kae/pkg/history"
	"kae-hq/kae/pkg/server/middleware"
	"kae-hq/kae/pkg/telemetry"
	"kae-hq/kae/pkg/telemetry/logging"
)

// Recorder records validation results in the history store.
type Recorder interface {
	Record(ctx context.Context, res *appspec.Result) (*history.Record, error)
}

// Deps are the components the server is built from. History and Recorder
// are optional; without History the /v1/history endpoints are not served.
type Deps struct {
	Engine    *appspec.Engine
	Telemetry *telemetry.Telemetry
	History   history.Storage
	Recorder  Recorder
}

// Server is the HTTP validation service.
type Server struct {
	config     *config.Config
	deps       Deps
	logger     *logging.Logger
	httpServer *http.Server
	engine     atomic.Pointer[appspec.Engine]

	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
	addr         net.Addr
}

// NewServer creates a validation server.
func NewServer(cfg *config.Config, deps Deps) *Server {
	s := &Server{
		config: cfg,
		deps:   deps,
		logger: deps.Telemetry.Logger().With("component", "server"),
	}
	if deps.Engine != nil {
		s.engine.Store(deps.Engine)
	}

	s.deps.Telemetry.Health().RegisterCheck("engine", func(context.Context) error {
		if s.engine.Load() == nil {
			return errors.New("validation engine not configured")
		}
		return nil
	})
	if deps.History != nil {
		s.deps.Telemetry.Health().RegisterCheck("history", deps.History.Ping)
	}

	return s
}

// SetEngine replaces the engine used for requests that arrive afterwards.
func (s *Server) SetEngine(engine *appspec.Engine) {
	s.engine.Store(engine)
}

// Start listens on the configured address and serves until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Server.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Server.ListenAddress, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		_ = ln.Close()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.addr = ln.Addr()
	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting validation server",
			"address", ln.Addr().String(),
			"history", s.deps.History != nil,
		)
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	}
}

// Shutdown gracefully stops the server, waiting at most the configured
// shutdown timeout for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		running := s.isRunning
		s.mu.Unlock()
		if !running {
			return
		}

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.Server.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("validation server stopped")
	})

	return shutdownErr
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	tel := s.deps.Telemetry
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/validate", s.handleValidate)
	if s.deps.History != nil {
		mux.HandleFunc("GET /v1/history", s.handleHistory)
		mux.HandleFunc("GET /v1/history/{id}", s.handleHistoryRecord)
	}

	health := s.config.Telemetry.Health
	tel.Health().Register(mux, health.LivenessPath, health.ReadinessPath)
	if s.config.Telemetry.Metrics.Enabled {
		mux.Handle(s.config.Telemetry.Metrics.Path, tel.Metrics().Handler())
	}

	var handler http.Handler = mux
	handler = middleware.Tracing(tel.Tracer())(handler)
	handler = middleware.Metrics(tel.Metrics())(handler)
	handler = middleware.Logging(s.logger)(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Recovery(s.logger)(handler)
	return handler
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Addr returns the listening address once the server is running.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}
