package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nerrad567/modi-core/internal/infrastructure/config"
	"github.com/nerrad567/modi-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/modi-core/internal/infrastructure/logging"
	"github.com/nerrad567/modi-core/internal/inventory"
	"github.com/nerrad567/modi-core/internal/module"
	"github.com/nerrad567/modi-core/internal/property"
)

const (
	gracefulShutdownTimeout = 10 * time.Second
	healthCheckTimeout      = 2 * time.Second
	defaultMaxBodyBytes     = 1 << 20
)

// Modules is the module manager as seen by the API.
// *module.Manager satisfies it.
type Modules interface {
	Module(id uint16) (*module.Module, error)
	Modules() []*module.Module
	Registry() *property.Registry
}

// InventoryLister lists every module ever announced.
// *inventory.SQLiteRepository satisfies it.
type InventoryLister interface {
	List(ctx context.Context) ([]inventory.Record, error)
}

// HistoryQuerier reads recorded values of stored properties.
// *influxdb.Client satisfies it.
type HistoryQuerier interface {
	History(ctx context.Context, moduleID uint16, properties []string, start, end time.Time) ([]influxdb.HistoryPoint, error)
}

// HealthChecker is implemented by infrastructure clients.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies of the API server.
type Deps struct {
	Config  config.APIConfig
	Metrics config.MetricsConfig
	Logger  *logging.Logger
	Modules Modules

	// Inventory is optional; without it /inventory answers 404.
	Inventory InventoryLister

	// History is optional; without it property history answers 404.
	History HistoryQuerier

	// Checks are reported by /health under their map key.
	Checks map[string]HealthChecker

	// Gatherer backs the Prometheus endpoint when metrics are enabled.
	Gatherer prometheus.Gatherer

	// HTTPMetrics records request counts and latency. Optional.
	HTTPMetrics *Metrics

	// SendTimeout bounds how long a property write may wait on a full
	// queue under the block policy. Zero means the request context only.
	SendTimeout time.Duration

	Version string
}

// Server is the admin HTTP server.
type Server struct {
	cfg         config.APIConfig
	metricsCfg  config.MetricsConfig
	logger      *logging.Logger
	modules     Modules
	inventory   InventoryLister
	history     HistoryQuerier
	checks      map[string]HealthChecker
	gatherer    prometheus.Gatherer
	httpMetrics *Metrics
	sendTimeout time.Duration
	version     string
	startTime   time.Time

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// New creates a server. It does not listen until Start.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Modules == nil {
		return nil, fmt.Errorf("module manager is required")
	}

	return &Server{
		cfg:         deps.Config,
		metricsCfg:  deps.Metrics,
		logger:      deps.Logger,
		modules:     deps.Modules,
		inventory:   deps.Inventory,
		history:     deps.History,
		checks:      deps.Checks,
		gatherer:    deps.Gatherer,
		httpMetrics: deps.HTTPMetrics,
		sendTimeout: deps.SendTimeout,
		version:     deps.Version,
		startTime:   time.Now(),
	}, nil
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start binds the listen address and serves in the background.
// A bind failure is returned; later serve errors are logged.
func (s *Server) Start(_ context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprintf("%d", s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	s.mu.Lock()
	s.server = srv
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info("API server listening", "address", ln.Addr().String())
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close shuts the server down, waiting for in-flight requests.
func (s *Server) Close() error {
	s.mu.Lock()
	srv := s.server
	s.server = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck reports whether the server is serving.
func (s *Server) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("api health check: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
