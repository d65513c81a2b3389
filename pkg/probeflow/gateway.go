package probeflow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ghalamif/ProbeFlow/internal/adapters/observability"
	"github.com/ghalamif/ProbeFlow/internal/adapters/process"
	"github.com/ghalamif/ProbeFlow/internal/adapters/queue"
	"github.com/ghalamif/ProbeFlow/internal/adapters/sink"
	"github.com/ghalamif/ProbeFlow/internal/app/pipeline"
	"github.com/ghalamif/ProbeFlow/internal/ports"
)

const shutdownTimeout = 5 * time.Second

// GatewayOption customizes the dependencies used by Gateway.
type GatewayOption func(*gatewayOverrides)

type gatewayOverrides struct {
	spawner       Spawner
	source        Source
	sinks         []Sink
	observability Observability
	logger        *zap.Logger
	registry      *prometheus.Registry
}

// WithSpawner replaces the probe process supervisor.
func WithSpawner(s Spawner) GatewayOption {
	return func(o *gatewayOverrides) {
		o.spawner = s
	}
}

// WithSource runs the gateway over an already running source instead of
// spawning one. The source is consumed by the first Run.
func WithSource(src Source) GatewayOption {
	return func(o *gatewayOverrides) {
		o.source = src
	}
}

// WithSink adds a sink. When any sink is given the default log and Timescale
// sinks are not created.
func WithSink(s Sink) GatewayOption {
	return func(o *gatewayOverrides) {
		if s != nil {
			o.sinks = append(o.sinks, s)
		}
	}
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs Observability) GatewayOption {
	return func(o *gatewayOverrides) {
		o.observability = obs
	}
}

// WithLogger replaces the logger built from Config.Logging.
func WithLogger(logger *zap.Logger) GatewayOption {
	return func(o *gatewayOverrides) {
		o.logger = logger
	}
}

// WithRegistry registers gateway metrics on reg and serves it on /metrics.
func WithRegistry(reg *prometheus.Registry) GatewayOption {
	return func(o *gatewayOverrides) {
		o.registry = reg
	}
}

// Gateway wires source → extractor/decoder → bounded queue → sink and owns
// the metrics endpoint and database handle around one coordinated run.
type Gateway struct {
	cfg       *Config
	sessionID uuid.UUID
	logger    *zap.Logger
	obs       ports.Observability
	registry  *prometheus.Registry
	spawner   ports.Spawner
	source    ports.Source
	sink      ports.Sink
	timescale *sink.TimescaleSink
	db        *sql.DB

	mu          sync.Mutex
	coordinator *pipeline.Coordinator
	metricsSrv  *http.Server
	metricsAddr net.Addr
}

// NewGateway bootstraps the default adapters (probe supervisor, log sink,
// optional Timescale sink, Prometheus observability). GatewayOption values
// override any of them.
func NewGateway(cfg *Config, opts ...GatewayOption) (*Gateway, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var overrides gatewayOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	sessionID := uuid.New()

	logger := overrides.logger
	if logger == nil {
		var err error
		logger, err = observability.NewLogger(cfg.Logging)
		if err != nil {
			return nil, fmt.Errorf("build logger: %w", err)
		}
	}
	logger = logger.With(zap.String("session_id", sessionID.String()))

	reg := overrides.registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	obs := overrides.observability
	if obs == nil {
		promObs, err := observability.NewPromObs(reg, logger)
		if err != nil {
			return nil, err
		}
		obs = promObs
	}

	g := &Gateway{
		cfg:       cfg,
		sessionID: sessionID,
		logger:    logger,
		obs:       obs,
		registry:  reg,
		source:    overrides.source,
		spawner:   overrides.spawner,
	}

	if g.source == nil && g.spawner == nil {
		sup, err := process.NewSupervisor(cfg.Process, logger.Named("process"))
		if err != nil {
			return nil, err
		}
		g.spawner = sup
	}

	sinks := overrides.sinks
	if len(sinks) == 0 {
		sinks = append(sinks, sink.NewLogSink(logger))
		if cfg.Timescale.Enabled() {
			db, err := sql.Open("postgres", cfg.Timescale.ConnString)
			if err != nil {
				return nil, fmt.Errorf("open timescale: %w", err)
			}
			ts, err := sink.NewTimescaleSink(db, cfg.Timescale.Table, sessionID)
			if err != nil {
				_ = db.Close()
				return nil, err
			}
			g.db = db
			g.timescale = ts
			sinks = append(sinks, ts)
		}
	}
	if len(sinks) == 1 {
		g.sink = sinks[0]
	} else {
		g.sink = sink.NewFanout(sinks...)
	}

	return g, nil
}

// SessionID identifies this gateway instance in logs and stored rows.
func (g *Gateway) SessionID() uuid.UUID { return g.sessionID }

// Registry is the Prometheus registry behind /metrics.
func (g *Gateway) Registry() *prometheus.Registry { return g.registry }

// State reports the coordinator phase; a gateway that has not run yet is running.
func (g *Gateway) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.coordinator == nil {
		return StateRunning
	}
	return g.coordinator.State()
}

// Stats returns ingest and sink counters once Run has returned.
func (g *Gateway) Stats() (IngestStats, SinkStats) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.coordinator == nil {
		return IngestStats{}, SinkStats{}
	}
	return g.coordinator.Stats()
}

// MetricsAddr is the bound metrics listener address, nil while not serving.
func (g *Gateway) MetricsAddr() net.Addr {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.metricsAddr
}

// Run starts the probe, streams until ctx is cancelled or the probe stops,
// drains every queued record and shuts down. It returns nil after an
// interrupt or a clean end of stream, a *StartupError when the probe could
// not be launched and an *AbnormalExitError when it died on its own.
func (g *Gateway) Run(ctx context.Context) error {
	if g == nil {
		return fmt.Errorf("gateway is nil")
	}

	if err := g.startMetrics(); err != nil {
		return g.abort(err)
	}

	if g.timescale != nil && g.cfg.Timescale.EnsureSchema {
		if err := g.timescale.EnsureSchema(ctx); err != nil {
			return g.abort(err)
		}
	}

	src, err := g.acquireSource(ctx)
	if err != nil {
		g.logger.Error("source startup failed", zap.Error(err))
		return g.abort(err)
	}

	q, err := queue.NewRecordQueue(g.cfg.Pipeline.ChannelCapacity)
	if err != nil {
		_ = src.Terminate(context.WithoutCancel(ctx))
		_ = src.Close()
		return g.abort(err)
	}

	coord := pipeline.NewCoordinator(src, q, g.sink, g.cfg.Pipeline, g.obs)
	g.mu.Lock()
	g.coordinator = coord
	g.mu.Unlock()

	g.logger.Info("gateway running",
		zap.Int("channel_capacity", q.Cap()),
		zap.String("sink", g.sink.Name()),
	)
	runErr := coord.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return errors.Join(runErr, g.Shutdown(shutdownCtx))
}

// Shutdown stops the metrics server and closes the DB connection.
func (g *Gateway) Shutdown(ctx context.Context) error {
	var errs []error

	g.mu.Lock()
	srv := g.metricsSrv
	g.metricsSrv = nil
	g.metricsAddr = nil
	g.mu.Unlock()

	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
	}

	if g.db != nil {
		if err := g.db.Close(); err != nil {
			errs = append(errs, err)
		}
		g.db = nil
	}

	return errors.Join(errs...)
}

func (g *Gateway) abort(err error) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return errors.Join(err, g.Shutdown(shutdownCtx))
}

func (g *Gateway) acquireSource(ctx context.Context) (ports.Source, error) {
	if g.source != nil {
		src := g.source
		g.source = nil
		return src, nil
	}
	if g.spawner == nil {
		return nil, fmt.Errorf("no source configured")
	}
	return g.spawner.Spawn(ctx)
}

func (g *Gateway) startMetrics() error {
	if g.cfg.Metrics.Disabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g.registry, promhttp.HandlerOpts{Registry: g.registry}))
	mux.HandleFunc("/healthz", g.handleHealth)

	ln, err := net.Listen("tcp", g.cfg.Metrics.Addr)
	if err != nil {
		return fmt.Errorf("metrics listener: %w", err)
	}

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.mu.Lock()
	g.metricsSrv = srv
	g.metricsAddr = ln.Addr()
	g.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("metrics server exited", zap.Error(err))
		}
	}()
	g.logger.Info("metrics server listening", zap.Stringer("addr", ln.Addr()))
	return nil
}

func (g *Gateway) handleHealth(w http.ResponseWriter, _ *http.Request) {
	state := g.State()
	if state == StateStopped {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_, _ = w.Write([]byte(state.String()))
}
