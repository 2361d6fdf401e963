// MODI Core binds MODI modules on the bus to property handles.
//
// It listens for module announcements and telemetry over MQTT, keeps a
// cache of every module's properties, queues property writes through a
// bounded dispatch queue and publishes them as command frames. An admin
// HTTP API exposes the bound modules, and the inventory of every module
// ever seen is kept in SQLite.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	_ "github.com/nerrad567/modi-core/migrations"

	"github.com/nerrad567/modi-core/internal/api"
	"github.com/nerrad567/modi-core/internal/dispatch"
	"github.com/nerrad567/modi-core/internal/infrastructure/config"
	"github.com/nerrad567/modi-core/internal/infrastructure/database"
	"github.com/nerrad567/modi-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/modi-core/internal/infrastructure/logging"
	"github.com/nerrad567/modi-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/modi-core/internal/inventory"
	"github.com/nerrad567/modi-core/internal/module"
	"github.com/nerrad567/modi-core/internal/property"
	"github.com/nerrad567/modi-core/internal/transport"
)

// Set at build time via -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	defaultConfigPath = "configs/config.yaml"

	// drainTimeout bounds how long queued commands may keep publishing
	// after shutdown starts.
	drainTimeout = 5 * time.Second
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and blocks until ctx is cancelled or a
// component fails.
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // linear startup sequence
	log := logging.Default()
	log.Info("starting MODI core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version).With("site", cfg.Site.ID)
	log.Info("configuration loaded", "path", configPath)

	// Database and inventory
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	inv := inventory.NewSQLiteRepository(db.DB)
	inv.SetLogger(log.Component("inventory"))
	if err := inv.ResetConnected(ctx); err != nil {
		return fmt.Errorf("resetting inventory: %w", err)
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		db.Collector("modi"),
	)
	queueMetrics, err := dispatch.NewMetrics(reg, "commands")
	if err != nil {
		return err
	}
	moduleMetrics, err := module.NewMetrics(reg)
	if err != nil {
		return err
	}
	transportMetrics, err := transport.NewMetrics(reg)
	if err != nil {
		return err
	}
	apiMetrics, err := api.NewMetrics(reg)
	if err != nil {
		return err
	}

	// Telemetry history (optional)
	var (
		recorder module.Recorder
		history  api.HistoryQuerier
	)
	checks := map[string]api.HealthChecker{"database": db}
	if cfg.InfluxDB.Enabled {
		influxClient, err := influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		recorder = influxClient
		history = influxClient
		checks["influxdb"] = influxClient
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Dispatch queue and module manager
	policy, err := dispatch.ParsePolicy(cfg.Bus.Backpressure)
	if err != nil {
		return fmt.Errorf("bus backpressure: %w", err)
	}
	queue := dispatch.New[module.Command](dispatch.Options{
		Capacity: cfg.Bus.QueueCapacity,
		Policy:   policy,
		Metrics:  queueMetrics,
	})
	log.Info("dispatch queue ready", "capacity", queue.Cap(), "policy", policy.String())

	manager := module.NewManager(property.DefaultRegistry(), queue, module.ManagerOptions{
		Inventory: inv,
		Recorder:  recorder,
		Metrics:   moduleMetrics,
		Logger:    log.Component("module"),
	})

	// Bus
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log.Component("mqtt"))
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	checks["mqtt"] = mqttClient
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	qos := byte(cfg.MQTT.QoS) //nolint:gosec // Validated to 0..2
	inbound := transport.NewInbound(manager, transport.InboundOptions{
		Logger:  log.Component("inbound"),
		Metrics: transportMetrics,
	})
	if err := inbound.Subscribe(mqttClient, qos); err != nil {
		return err
	}
	log.Info("subscribed to bus", "filters", mqttClient.Subscriptions())
	worker := transport.NewWorker(queue, mqttClient, transport.WorkerOptions{
		QoS:     qos,
		Logger:  log.Component("worker"),
		Metrics: transportMetrics,
		Limiter: transport.NewLimiter(cfg.Bus.CommandRate, cfg.Bus.CommandBurst),
	})

	// Admin API (optional)
	var server *api.Server
	if cfg.API.Enabled {
		server, err = api.New(api.Deps{
			Config:      cfg.API,
			Metrics:     cfg.Metrics,
			Logger:      log.Component("api"),
			Modules:     manager,
			Inventory:   inv,
			History:     history,
			Checks:      checks,
			Gatherer:    reg,
			HTTPMetrics: apiMetrics,
			SendTimeout: cfg.GetSendTimeout(),
			Version:     version,
		})
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		if err := server.Start(ctx); err != nil {
			return fmt.Errorf("starting API server: %w", err)
		}
	}

	log.Info("MODI core started")

	g, gctx := errgroup.WithContext(ctx)

	// The worker outlives gctx so commands queued before shutdown can drain.
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	workerDone := make(chan struct{})

	g.Go(func() error {
		defer close(workerDone)
		return worker.Run(workerCtx)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		var errs []error
		if server != nil {
			errs = append(errs, server.Close())
		}

		queue.Close()
		select {
		case <-workerDone:
		case <-time.After(drainTimeout):
			log.Warn("dispatch queue did not drain in time", "remaining", queue.Len())
			stopWorker()
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("MODI core stopped")
	return nil
}

// getConfigPath returns MODI_CONFIG or the default path.
func getConfigPath() string {
	if path := os.Getenv("MODI_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
