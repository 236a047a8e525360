// Stockflow Core - Supply Group Translation Service
//
// This is the main entry point for the Stockflow Core application.
// Stockflow Core maintains supply group registries for remote platforms,
// translates controller signal readings into request entries on a fixed
// cycle, and pushes the computed requests to downstream provisioning
// sinks over MQTT.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/nerrad567/stockflow-core/migrations"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/nerrad567/stockflow-core/internal/api"
	"github.com/nerrad567/stockflow-core/internal/controller"
	"github.com/nerrad567/stockflow-core/internal/engine"
	"github.com/nerrad567/stockflow-core/internal/infrastructure/config"
	"github.com/nerrad567/stockflow-core/internal/infrastructure/database"
	"github.com/nerrad567/stockflow-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/stockflow-core/internal/infrastructure/logging"
	"github.com/nerrad567/stockflow-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/stockflow-core/internal/logistics"
	signalsrc "github.com/nerrad567/stockflow-core/internal/signal"
	"github.com/nerrad567/stockflow-core/internal/sink"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// Presence warm-up bounds: the first consistency sweep waits until the
// presence topic has been quiet for presenceQuiesce, giving the broker
// time to replay its retained snapshot, but never longer than
// presenceWarmupLimit in total.
const (
	presenceQuiesce     = 500 * time.Millisecond
	presenceWarmupLimit = 5 * time.Second
)

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // composition root: wires every subsystem in startup order
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Stockflow Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
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
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Initialise the supply group store
	groupStore := logistics.NewStore(logistics.NewSQLiteRepository(db.DB))
	groupStore.SetLogger(log)
	if loadErr := groupStore.Load(ctx); loadErr != nil {
		return fmt.Errorf("loading group store: %w", loadErr)
	}
	log.Info("group store initialised", "groups", groupStore.GroupCount())

	// Presence tracks which controller entities and owner platforms are
	// still alive; both the registry and the engine consult it.
	presence := signalsrc.NewPresence()

	// Initialise the controller registry
	registry := controller.NewRegistry(controller.NewSQLiteRepository(db.DB), groupStore, presence)
	registry.SetLogger(log)
	if loadErr := registry.Load(ctx); loadErr != nil {
		return fmt.Errorf("loading controller registry: %w", loadErr)
	}
	log.Info("controller registry initialised", "controllers", registry.ControllerCount())

	// Connect to MQTT broker
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
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Signal readings and presence updates arrive over MQTT
	signalSource := signalsrc.NewMQTTSource(cfg.GetSignalTTL())
	topics := mqtt.Topics{}
	qos := byte(cfg.MQTT.QoS)

	if subErr := mqttClient.Subscribe(topics.AllSignalReadings(), qos, signalSource.HandleReading); subErr != nil {
		return fmt.Errorf("subscribing to signal readings: %w", subErr)
	}
	if subErr := mqttClient.Subscribe(topics.AllPresence(), qos, presence.HandleStatus); subErr != nil {
		return fmt.Errorf("subscribing to presence updates: %w", subErr)
	}
	log.Info("MQTT subscriptions established",
		"signals", topics.AllSignalReadings(),
		"presence", topics.AllPresence(),
	)

	// Downstream request sink
	var locator sink.Locator
	switch cfg.Sink.Mode {
	case "mqtt":
		locator = sink.NewMQTTSink(mqttClient, mqtt.TopicPrefix, qos)
		log.Info("request sink enabled", "mode", "mqtt")
	default:
		locator = sink.Noop{}
		log.Info("request sink disabled")
	}
	adapter := sink.NewAdapter(locator)
	adapter.SetLogger(log)

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Prometheus registry shared by the engine and the API /metrics endpoint
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	engineMetrics := engine.NewMetrics(promRegistry)

	// Translation engine
	eng := engine.NewEngine(groupStore, registry, signalSource, adapter, presence, engine.Config{
		SignalInterval:  cfg.Engine.SignalInterval,
		CleanupInterval: cfg.Engine.CleanupInterval,
		TickRate:        cfg.GetTickRate(),
	}, engineMetrics, log)
	if influxClient != nil {
		eng.SetTelemetry(influxClient)
	}

	// API server
	apiServer, err := api.New(api.Deps{
		Config:      cfg.API,
		WS:          cfg.WebSocket,
		Security:    cfg.Security,
		Logger:      log,
		Groups:      groupStore,
		Controllers: registry,
		Metrics:     promRegistry,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	eng.SetBroadcaster(apiServer.Hub())

	if startErr := apiServer.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "host", cfg.API.Host, "port", cfg.API.Port)

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	// Let the broker finish replaying retained presence messages before
	// the first consistency sweep; sweeping against a cold tracker would
	// read every persisted controller and group as dead.
	presence.WaitSettled(ctx, presenceQuiesce, presenceWarmupLimit)
	entities, platforms := presence.Counts()
	log.Info("presence snapshot settled", "entities", entities, "platforms", platforms)

	// Start the engine: one consistency sweep, then the tick loop
	eng.OnInit(ctx)
	go eng.Run(ctx)

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. InfluxDB (if enabled)
	// 3. MQTT
	// 4. Database

	log.Info("Stockflow Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses STOCKFLOW_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("STOCKFLOW_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
