// motionlink - input device to visualization bridge
//
// This is the main entry point for the motionlink daemon. It bridges
// multi-DoF input hardware (mice, 3Dconnexion controllers, gamepads) to
// remote visualization processes: raw HID motion deltas are polled,
// rendered through configuration-driven command templates, and fanned
// out over UDP to the configured endpoints. A local HTTP/WebSocket API
// provides device listing, connect/disconnect control and live status.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/calder-vis/motionlink/internal/api"
	"github.com/calder-vis/motionlink/internal/command"
	"github.com/calder-vis/motionlink/internal/dispatch"
	"github.com/calder-vis/motionlink/internal/hid"
	"github.com/calder-vis/motionlink/internal/infrastructure/config"
	"github.com/calder-vis/motionlink/internal/infrastructure/database"
	"github.com/calder-vis/motionlink/internal/infrastructure/influxdb"
	"github.com/calder-vis/motionlink/internal/infrastructure/logging"
	"github.com/calder-vis/motionlink/internal/infrastructure/mqtt"
	"github.com/calder-vis/motionlink/internal/manager"
	"github.com/calder-vis/motionlink/internal/profile"
	"github.com/calder-vis/motionlink/internal/registry"
	"github.com/calder-vis/motionlink/internal/telemetry"
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
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Optional .env for local development; secrets reach the config
	// loader as environment overrides.
	_ = godotenv.Load()

	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting motionlink",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

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

	// Open the profile database
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

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	profiles := profile.NewSQLiteRepository(db.DB)

	// Build the pipeline: catalogue, templates, sink, manager
	deviceRegistry, err := registry.New(cfg.InputDevices)
	if err != nil {
		return fmt.Errorf("building device registry: %w", err)
	}
	log.Info("device registry initialised", "devices", len(deviceRegistry.List()))

	commands, err := command.NewTable(cfg.Actuation.Commands)
	if err != nil {
		return fmt.Errorf("compiling command templates: %w", err)
	}

	sink, err := dispatch.NewSink(cfg.Visualisation.RenderOptions.Visualisations)
	if err != nil {
		return fmt.Errorf("opening dispatch sink: %w", err)
	}
	defer func() {
		log.Info("closing dispatch sink")
		if closeErr := sink.Close(); closeErr != nil {
			log.Error("error closing dispatch sink", "error", closeErr)
		}
	}()
	log.Info("dispatch sink opened", "endpoints", sink.Endpoints())

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
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
	} else {
		log.Info("MQTT disabled")
	}

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

	sessionManager, err := manager.New(manager.Deps{
		Registry:        deviceRegistry,
		HID:             hid.NewUSBManager(),
		Commands:        commands,
		Sink:            sink,
		Profiles:        profiles,
		Recorder:        recorderOrNil(influxClient),
		Logger:          log,
		PollInterval:    cfg.GetPollInterval(),
		IdleBackoff:     cfg.GetIdleBackoff(),
		MaxPollFailures: cfg.Session.MaxPollFailures,
	})
	if err != nil {
		return fmt.Errorf("creating session manager: %w", err)
	}
	defer func() {
		log.Info("closing session manager")
		if closeErr := sessionManager.Close(); closeErr != nil {
			log.Error("error closing session manager", "error", closeErr)
		}
	}()

	// Telemetry reporter (requires MQTT)
	var reporter *telemetry.Reporter
	if mqttClient != nil {
		reporter = telemetry.New(telemetry.Config{
			Version:   version,
			Publisher: mqttClient,
			Source:    sessionManager,
		})
		reporter.SetLogger(log)
		reporter.Start(ctx)
		defer reporter.Stop()
	}

	// Control API (optional)
	var apiServer *api.Server
	if cfg.API.Enabled {
		health := make(map[string]api.HealthChecker)
		if mqttClient != nil {
			health["mqtt"] = mqttClient
		}
		if influxClient != nil {
			health["influxdb"] = influxClient
		}

		apiServer, err = api.New(api.Deps{
			Config:   cfg.API,
			Logger:   log,
			Manager:  sessionManager,
			Profiles: profiles,
			Health:   health,
			Version:  version,
		})
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
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
	} else {
		log.Info("API disabled")
	}

	// Fan session status events out to the WebSocket hub and telemetry
	go relayEvents(ctx, sessionManager, apiServer, reporter, log)

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	log.Info("motionlink stopped")
	return nil
}

// relayEvents forwards session status events to the UI boundary and the
// MQTT reporter until the context is cancelled.
func relayEvents(ctx context.Context, m *manager.Manager, apiServer *api.Server, reporter *telemetry.Reporter, log *logging.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-m.Events():
			if apiServer != nil {
				apiServer.Broadcast(ev)
			}
			if reporter != nil {
				if err := reporter.PublishTransition(ev.Device, string(ev.State), ev.Reason); err != nil {
					log.Warn("failed to publish status transition", "error", err)
				}
			}
		}
	}
}

// recorderOrNil avoids storing a typed nil pointer in the Recorder
// interface when InfluxDB is disabled.
func recorderOrNil(c *influxdb.Client) manager.Recorder {
	if c == nil {
		return nil
	}
	return c
}

// getConfigPath returns the configuration file path.
// Uses MOTIONLINK_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("MOTIONLINK_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
