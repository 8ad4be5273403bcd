package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/novaprops-core/internal/actuation"
	"github.com/nerrad567/novaprops-core/internal/audit"
	"github.com/nerrad567/novaprops-core/internal/history"
	"github.com/nerrad567/novaprops-core/internal/infrastructure/config"
	"github.com/nerrad567/novaprops-core/internal/infrastructure/logging"
	"github.com/nerrad567/novaprops-core/internal/probe"
	"github.com/nerrad567/novaprops-core/internal/subdevice"
	"github.com/nerrad567/novaprops-core/internal/telemetry"
)

// gracefulShutdownTimeout bounds how long Close waits for in-flight requests.
const gracefulShutdownTimeout = 10 * time.Second

// HealthChecker is implemented by every infrastructure client.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// CountersSource reports telemetry throughput. Satisfied by *telemetry.Forwarder.
type CountersSource interface {
	Counters() telemetry.Counters
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config    config.APIConfig
	WS        config.WebSocketConfig
	Device    config.DeviceConfig
	Logger    *logging.Logger
	Registry  *subdevice.Registry
	Engine    *actuation.Engine
	Probe     *probe.Probe
	History   *history.Repository      // optional
	Audit     audit.Repository         // optional
	Hub       *Hub                     // optional; created by Start when nil
	Telemetry CountersSource           // optional
	Checks    map[string]HealthChecker // optional; reported by /status
	Version   string
}

// Server is the HTTP API server.
type Server struct {
	cfg       config.APIConfig
	wsCfg     config.WebSocketConfig
	device    config.DeviceConfig
	logger    *logging.Logger
	registry  *subdevice.Registry
	engine    *actuation.Engine
	probe     *probe.Probe
	history   *history.Repository
	audit     audit.Repository
	telemetry CountersSource
	checks    map[string]HealthChecker
	version   string
	started   time.Time

	server      *http.Server
	hub         *Hub
	externalHub bool
	cancel      context.CancelFunc
}

// New creates a server. It does not listen until Start.
//
// Parameters:
//   - deps: Logger, Registry, Engine and Probe are required
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If a required dependency is missing
func New(deps Deps) (*Server, error) {
	switch {
	case deps.Logger == nil:
		return nil, fmt.Errorf("logger is required")
	case deps.Registry == nil:
		return nil, fmt.Errorf("subdevice registry is required")
	case deps.Engine == nil:
		return nil, fmt.Errorf("actuation engine is required")
	case deps.Probe == nil:
		return nil, fmt.Errorf("probe is required")
	}

	s := &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		device:    deps.Device,
		logger:    deps.Logger,
		registry:  deps.Registry,
		engine:    deps.Engine,
		probe:     deps.Probe,
		history:   deps.History,
		audit:     deps.Audit,
		telemetry: deps.Telemetry,
		checks:    deps.Checks,
		version:   deps.Version,
		started:   time.Now(),
	}
	if deps.Hub != nil {
		s.hub = deps.Hub
		s.externalHub = true
	}
	return s, nil
}

// Hub returns the WebSocket hub, or nil before Start when none was injected.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the routed handler without starting a listener.
func (s *Server) Handler() http.Handler {
	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, s.logger)
	}
	return s.buildRouter()
}

// Start begins listening in a background goroutine.
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, s.logger)
	}
	if !s.externalHub {
		go s.hub.Run(srvCtx)
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()
	return nil
}

// Close gracefully shuts the server down.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck reports whether the server has been started.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}
	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
