package config

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for motionlink.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Logging       LoggingConfig                `yaml:"logging"`
	InputDevices  map[string]InputDeviceConfig `yaml:"input_devices"`
	Actuation     ActuationConfig              `yaml:"actuation"`
	Visualisation VisualisationConfig          `yaml:"visualisation"`
	Session       SessionConfig                `yaml:"session"`
	API           APIConfig                    `yaml:"api"`
	MQTT          MQTTConfig                   `yaml:"mqtt"`
	InfluxDB      InfluxDBConfig               `yaml:"influxdb"`
	Database      DatabaseConfig               `yaml:"database"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// InputDeviceConfig describes one physical input device the bridge may drive.
//
// VID and PID are the USB vendor and product identifiers as 4-digit
// lowercase hex strings (e.g. "046d"). Type is the logical device type
// ("mouse", "3dconnexion", "gamepad") that selects the command template.
type InputDeviceConfig struct {
	VID     string   `yaml:"vid"`
	PID     string   `yaml:"pid"`
	Type    string   `yaml:"type"`
	Axes    []string `yaml:"axes"`
	Buttons []string `yaml:"buttons"`
}

// ActuationConfig contains the command synthesis settings.
type ActuationConfig struct {
	// Commands maps a logical device type to its printf-style command
	// template, e.g. "addrotation %.3f 0.0 0.0 %s".
	Commands map[string]string `yaml:"commands"`
}

// VisualisationConfig contains visualization endpoint settings.
type VisualisationConfig struct {
	RenderOptions RenderOptionsConfig `yaml:"render_options"`
}

// RenderOptionsConfig contains rendering delivery options.
type RenderOptionsConfig struct {
	// Visualisations maps an endpoint name to its UDP destination.
	// Every rendered command is sent to all configured endpoints.
	Visualisations map[string]EndpointConfig `yaml:"visualisations"`
}

// EndpointConfig describes one UDP visualization endpoint.
type EndpointConfig struct {
	UDPIP   string `yaml:"udp_ip"`
	UDPPort int    `yaml:"udp_port"`
}

// SessionConfig contains device session and poll loop settings.
type SessionConfig struct {
	// PollIntervalMs is the delay between successive device polls (milliseconds).
	PollIntervalMs int `yaml:"poll_interval_ms"`

	// IdleBackoffMs is how long the loop idles when the device reports
	// no new data (milliseconds).
	IdleBackoffMs int `yaml:"idle_backoff_ms"`

	// MaxPollFailures is the number of consecutive read failures after
	// which the session is considered faulted.
	MaxPollFailures int `yaml:"max_poll_failures"`
}

// APIConfig contains HTTP control API settings.
type APIConfig struct {
	Enabled   bool             `yaml:"enabled"`
	Host      string           `yaml:"host"`
	Port      int              `yaml:"port"`
	Timeouts  APITimeoutConfig `yaml:"timeouts"`
	WebSocket WebSocketConfig  `yaml:"websocket"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// WebSocketConfig contains WebSocket status stream settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// MQTTConfig contains MQTT broker connection settings for telemetry.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains InfluxDB connection settings for motion telemetry.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// DatabaseConfig contains SQLite database settings for mapping profiles.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: MOTIONLINK_SECTION_KEY
// For example: MOTIONLINK_DATABASE_PATH, MOTIONLINK_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Session: SessionConfig{
			PollIntervalMs:  10,
			IdleBackoffMs:   15,
			MaxPollFailures: 5,
		},
		API: APIConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    8180,
			Timeouts: APITimeoutConfig{
				Read:  15,
				Write: 15,
				Idle:  60,
			},
			WebSocket: WebSocketConfig{
				Path:           "/ws",
				MaxMessageSize: 4096,
				PingInterval:   30,
				PongTimeout:    10,
			},
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "motionlink-core",
			},
			QoS: 0,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Database: DatabaseConfig{
			Path:        "./data/motionlink.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: MOTIONLINK_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("MOTIONLINK_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("MOTIONLINK_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("MOTIONLINK_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("MOTIONLINK_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("MOTIONLINK_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// InfluxDB
	if v := os.Getenv("MOTIONLINK_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Validation is fail-fast: a configuration that references a logical type
// with no matching command template, or that carries a malformed device or
// endpoint entry, is rejected at load time rather than surfacing as a
// runtime failure mid-stream.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Input device validation
	if len(c.InputDevices) == 0 {
		errs = append(errs, "input_devices: at least one device is required")
	}
	for name, dev := range c.InputDevices {
		if !isHexID(dev.VID) {
			errs = append(errs, fmt.Sprintf("input_devices.%s: vid %q is not a 4-digit hex identifier", name, dev.VID))
		}
		if !isHexID(dev.PID) {
			errs = append(errs, fmt.Sprintf("input_devices.%s: pid %q is not a 4-digit hex identifier", name, dev.PID))
		}
		if dev.Type == "" {
			errs = append(errs, fmt.Sprintf("input_devices.%s: type is required", name))
		} else if _, ok := c.Actuation.Commands[dev.Type]; !ok {
			errs = append(errs, fmt.Sprintf("input_devices.%s: no command template configured for type %q", name, dev.Type))
		}
		if len(dev.Axes) == 0 {
			errs = append(errs, fmt.Sprintf("input_devices.%s: at least one axis is required", name))
		}
		// Button state travels as a single bitmap byte in the report.
		if len(dev.Buttons) > 8 {
			errs = append(errs, fmt.Sprintf("input_devices.%s: at most 8 buttons are supported, got %d", name, len(dev.Buttons)))
		}
	}

	// Endpoint validation. A malformed address is a configuration defect,
	// not a per-sample runtime failure.
	for name, ep := range c.Visualisation.RenderOptions.Visualisations {
		if net.ParseIP(ep.UDPIP) == nil {
			errs = append(errs, fmt.Sprintf("visualisation.render_options.visualisations.%s: udp_ip %q is not a valid IP address", name, ep.UDPIP))
		}
		if ep.UDPPort < 1 || ep.UDPPort > 65535 {
			errs = append(errs, fmt.Sprintf("visualisation.render_options.visualisations.%s: udp_port must be between 1 and 65535", name))
		}
	}

	// Session validation
	if c.Session.PollIntervalMs < 0 {
		errs = append(errs, "session.poll_interval_ms must not be negative")
	}
	if c.Session.MaxPollFailures < 1 {
		errs = append(errs, "session.max_poll_failures must be at least 1")
	}

	// API validation
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// isHexID reports whether s is a 4-digit hexadecimal identifier,
// the canonical form for USB vendor and product IDs.
func isHexID(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

// GetPollInterval returns the session poll interval as a Duration.
func (c *Config) GetPollInterval() time.Duration {
	return time.Duration(c.Session.PollIntervalMs) * time.Millisecond
}

// GetIdleBackoff returns the no-data idle backoff as a Duration.
func (c *Config) GetIdleBackoff() time.Duration {
	return time.Duration(c.Session.IdleBackoffMs) * time.Millisecond
}

// GetReadTimeout returns the API read timeout as a Duration.
func (a APIConfig) GetReadTimeout() time.Duration {
	return time.Duration(a.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (a APIConfig) GetWriteTimeout() time.Duration {
	return time.Duration(a.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (a APIConfig) GetIdleTimeout() time.Duration {
	return time.Duration(a.Timeouts.Idle) * time.Second
}
