// Nova Props Core maps DMX/sACN frames onto prop actuators.
//
// The process owns the subdevice list (persisted as JSON), turns incoming
// frames into actuation events, records them in the probe and forwards them
// to MQTT, InfluxDB, SQLite history and WebSocket clients.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/novaprops-core/internal/actuation"
	"github.com/nerrad567/novaprops-core/internal/api"
	"github.com/nerrad567/novaprops-core/internal/audit"
	"github.com/nerrad567/novaprops-core/internal/history"
	"github.com/nerrad567/novaprops-core/internal/infrastructure/config"
	"github.com/nerrad567/novaprops-core/internal/infrastructure/database"
	"github.com/nerrad567/novaprops-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/novaprops-core/internal/infrastructure/logging"
	"github.com/nerrad567/novaprops-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/novaprops-core/internal/probe"
	"github.com/nerrad567/novaprops-core/internal/subdevice"
	"github.com/nerrad567/novaprops-core/internal/telemetry"
	"github.com/nerrad567/novaprops-core/migrations"
)

// Version information, set at build time via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

const dayDuration = 24 * time.Hour

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and blocks until ctx is cancelled.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // linear startup sequence
	log := logging.Default()
	log.Info("starting Nova Props Core", "version", version, "commit", commit, "build_date", date)

	configPath := getConfigPath()
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "path", configPath, "level", cfg.Logging.Level, "format", cfg.Logging.Format)

	// Actuator document.
	store := subdevice.NewFileStore(cfg.Device.ConfigPath)
	store.SetLogger(log.Component("store"))
	registry := subdevice.NewRegistry(store)
	registry.SetLogger(log.Component("subdevice"))
	if err := registry.Load(); err != nil {
		return fmt.Errorf("loading subdevices: %w", err)
	}
	log.Info("subdevices loaded", "path", store.Path(), "count", registry.Count())

	events := probe.New()
	engine := actuation.NewEngine(registry, events)
	engine.SetLogger(log.Component("actuation"))

	checks := make(map[string]api.HealthChecker)
	sinks := telemetry.Sinks{Stats: engine}

	// Event history and audit trail (optional).
	var repo *history.Repository
	var auditLog audit.Repository
	if cfg.Database.Enabled {
		var db *database.DB
		db, repo, err = openHistory(ctx, cfg.Database, log)
		if err != nil {
			return err
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		checks["database"] = db
		sinks.Recorder = repo
		auditLog = audit.NewSQLiteRepository(db.DB)
	} else {
		log.Info("event history disabled")
	}

	// MQTT (optional).
	if cfg.MQTT.Enabled {
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
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		topics := mqttClient.Topics()
		if err := mqttClient.Subscribe(topics.FrameCommand(), byte(cfg.MQTT.QoS), frameCommandHandler(engine)); err != nil {
			return fmt.Errorf("subscribing to frames: %w", err)
		}
		checks["mqtt"] = mqttClient
		sinks.Publisher = mqttClient
		sinks.Topic = topics.ProbeEvent
	} else {
		log.Info("MQTT disabled")
	}

	// InfluxDB (optional).
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
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "org", cfg.InfluxDB.Org, "bucket", cfg.InfluxDB.Bucket)
		checks["influxdb"] = influxClient
		sinks.Metrics = influxClient
	} else {
		log.Info("InfluxDB disabled")
	}

	// Live stream and forwarding.
	hub := api.NewHub(cfg.WebSocket, log.Component("websocket"))
	go hub.Run(ctx)
	sinks.Broadcaster = hub

	forwarder := telemetry.NewForwarder(sinks, telemetry.Options{})
	forwarder.SetLogger(log.Component("telemetry"))
	forwarder.Attach(events)
	forwarder.Start(ctx)
	defer func() {
		log.Info("stopping telemetry forwarder")
		forwarder.Stop()
	}()

	server, err := api.New(api.Deps{
		Config:    cfg.API,
		WS:        cfg.WebSocket,
		Device:    cfg.Device,
		Logger:    log.Component("api"),
		Registry:  registry,
		Engine:    engine,
		Probe:     events,
		History:   repo,
		Audit:     auditLog,
		Hub:       hub,
		Telemetry: forwarder,
		Checks:    checks,
		Version:   version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, checks); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("initialisation complete, waiting for shutdown signal",
		"api", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port))

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up", "frames", engine.Stats().String())
	return nil
}

// getConfigPath returns NOVAPROPS_CONFIG when set, otherwise the default path.
func getConfigPath() string {
	if path := os.Getenv("NOVAPROPS_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// loadConfig reads path. A missing file at the default location falls back to
// built-in defaults; a missing explicit path is an error.
func loadConfig(path string) (*config.Config, error) {
	if path == defaultConfigPath {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return config.Default(), nil
		}
	}
	return config.Load(path)
}

// openHistory opens the SQLite file, applies migrations and prunes expired
// events.
func openHistory(ctx context.Context, cfg config.DatabaseConfig, log *logging.Logger) (*database.DB, *history.Repository, error) {
	db, err := database.Open(database.Config{
		Path:        cfg.Path,
		WALMode:     cfg.WALMode,
		BusyTimeout: cfg.BusyTimeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	applied, err := db.Migrate(ctx, migrations.FS)
	if err != nil {
		db.Close() //nolint:errcheck // error path
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database ready", "path", cfg.Path, "migrations_applied", applied)

	repo := history.NewRepository(db.DB)
	if cfg.RetentionDays > 0 {
		pruned, err := repo.Prune(ctx, time.Duration(cfg.RetentionDays)*dayDuration)
		if err != nil {
			log.Warn("pruning event history failed", "error", err)
		} else if pruned > 0 {
			log.Info("event history pruned", "rows", pruned, "retention_days", cfg.RetentionDays)
		}
	}
	return db, repo, nil
}

// healthCheck runs every component check and returns the first failure.
func healthCheck(ctx context.Context, checks map[string]api.HealthChecker) error {
	for name, check := range checks {
		if err := check.HealthCheck(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
