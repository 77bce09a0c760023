// Castlink Core - Smart TV Control Service
//
// This is the main entry point for the Castlink Core application.
// Castlink aggregates the control channels of networked TVs (webOS
// WebSocket control, DIAL app launching) into single device handles,
// persists paired devices across restarts, and mirrors device
// lifecycle events onto MQTT for external automation.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/castlink-core/internal/bridges/dial"
	"github.com/nerrad567/castlink-core/internal/bridges/webos"
	"github.com/nerrad567/castlink-core/internal/channel"
	"github.com/nerrad567/castlink-core/internal/device"
	"github.com/nerrad567/castlink-core/internal/infrastructure/config"
	"github.com/nerrad567/castlink-core/internal/infrastructure/logging"
	"github.com/nerrad567/castlink-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/castlink-core/internal/store"
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
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Castlink Core",
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

	// Open the device store
	st, err := store.Open(store.Options{
		Path:   cfg.Store.Path,
		MaxAge: cfg.Store.GetMaxStoreDuration(),
		Logger: log,
	})
	if err != nil {
		return fmt.Errorf("opening device store: %w", err)
	}
	log.Info("device store opened",
		"path", cfg.Store.Path,
		"devices", len(st.Devices()),
	)

	// Serialise all device callbacks on a single dispatcher goroutine
	dispatcher := device.NewDispatcher()
	dispatcher.Start()
	defer func() {
		log.Info("stopping dispatcher")
		dispatcher.Stop()
	}()

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
		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled")
	}

	// Create the device manager
	opts := device.ManagerOptions{
		Store:      st,
		Dispatcher: dispatcher,
		Logger:     log,
	}
	if mqttClient != nil {
		opts.Publisher = mqttClient
	}
	manager := device.NewManager(opts)
	defer func() {
		log.Info("disconnecting devices")
		manager.Stop()
	}()

	// Rebuild channels for previously paired devices so commands can
	// reach them without waiting for rediscovery
	rehydrated := rehydrateDevices(st, manager, cfg, log)
	log.Info("stored devices rehydrated", "channels", rehydrated)

	// Listen for device commands on the bus
	if mqttClient != nil {
		adapter := &mqttCommandAdapter{client: mqttClient}
		if err := manager.BindCommands(adapter, byte(cfg.MQTT.QoS)); err != nil {
			return fmt.Errorf("subscribing to device commands: %w", err)
		}
		log.Info("device command listener bound")
	}

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order:
	// 1. Device manager (disconnects channels)
	// 2. MQTT (if enabled)
	// 3. Dispatcher

	log.Info("Castlink Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses CASTLINK_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("CASTLINK_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// rehydrateDevices rebuilds live channels from stored snapshots and
// hands them to the manager. Channels are not auto-connected; a
// connect command (or the application) drives that. Returns the number
// of channels rebuilt.
func rehydrateDevices(st *store.Store, manager *device.Manager, cfg *config.Config, log *logging.Logger) int {
	count := 0
	for _, d := range st.Devices() {
		for _, snap := range d.Channels {
			ch := buildChannel(snap, cfg, log)
			if ch == nil {
				log.Warn("skipping stored channel",
					"device_id", d.ID, "type", snap.Type)
				continue
			}
			manager.ChannelFound(d.ID, ch)
			count++
		}
	}
	return count
}

// buildChannel reconstructs a protocol channel from a stored snapshot.
// Returns nil for disabled or unrecognised channel types.
func buildChannel(snap *channel.Snapshot, cfg *config.Config, log *logging.Logger) channel.Channel {
	switch snap.Type {
	case webos.ChannelType:
		if !cfg.Channels.WebOS.Enabled {
			return nil
		}
		wcfg, _ := snap.Config.(*webos.Config)
		return webos.New(webos.Options{
			Description: snap.Description,
			Config:      wcfg,
			Logger:      log,
		})
	case dial.ChannelType:
		if !cfg.Channels.DIAL.Enabled {
			return nil
		}
		dcfg, _ := snap.Config.(*dial.Config)
		return dial.New(dial.Options{
			Description: snap.Description,
			Config:      dcfg,
		})
	default:
		return nil
	}
}

// mqttCommandAdapter adapts the infrastructure MQTT client to the
// device manager's CommandSubscriber interface. The only difference is
// the named MessageHandler type on the client's Subscribe signature.
type mqttCommandAdapter struct {
	client *mqtt.Client
}

// Subscribe implements device.CommandSubscriber.
func (a *mqttCommandAdapter) Subscribe(topic string, qos byte, handler func(topic string, payload []byte) error) error {
	return a.client.Subscribe(topic, qos, handler)
}
