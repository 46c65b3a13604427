// ABOUTME: Configuration loading and parsing for parley
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backend names accepted in storage.backend.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Config represents the complete parley configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Stream    StreamConfig    `yaml:"stream"`
	Bus       BusConfig       `yaml:"bus"`
	Agent     AgentConfig     `yaml:"agent"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds the HTTP listen address and shutdown behavior
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	ShutdownTimeoutRaw string `yaml:"shutdown_timeout"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// StorageConfig selects the chat store backend and its file location
type StorageConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// StreamConfig holds event stream tuning
type StreamConfig struct {
	Heartbeat time.Duration `yaml:"-"`

	HeartbeatRaw string `yaml:"heartbeat"`
}

// BusConfig holds message bus tuning
type BusConfig struct {
	Buffer int `yaml:"buffer"`
}

// AgentConfig selects and tunes the reply-producing agent
type AgentConfig struct {
	Type  string        `yaml:"type"`
	Delay time.Duration `yaml:"-"`

	DelayRaw string `yaml:"delay"`
}

// TailscaleConfig holds Tailscale tsnet configuration
type TailscaleConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Hostname  string `yaml:"hostname"`
	AuthKey   string `yaml:"auth_key"`
	StateDir  string `yaml:"state_dir"`
	Ephemeral bool   `yaml:"ephemeral"`
	Funnel    bool   `yaml:"funnel"` // Expose publicly via Tailscale Funnel
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:               "127.0.0.1",
			Port:               8891,
			ShutdownTimeout:    5 * time.Second,
			ShutdownTimeoutRaw: "5s",
		},
		Storage: StorageConfig{
			Backend: BackendJSON,
		},
		Stream: StreamConfig{
			Heartbeat:    20 * time.Second,
			HeartbeatRaw: "20s",
		},
		Bus: BusConfig{
			Buffer: 64,
		},
		Agent: AgentConfig{
			Type:     "echo",
			DelayRaw: "0s",
		},
		Tailscale: TailscaleConfig{
			Hostname: "parley",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
	cfg.applyPathDefaults()
	return cfg
}

// Load reads the configuration file at path, expands ${VAR_NAME} patterns
// from the environment, and fills unset fields with defaults. A missing
// file is not an error; the defaults are returned.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	// Unmarshal over the defaults so absent keys keep their default values
	cfg := Default()
	if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyPathDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// DataDir returns the parley data directory.
// Priority: PARLEY_DATA env var > XDG_DATA_HOME/parley > ~/.local/share/parley
func DataDir() string {
	if envPath := os.Getenv("PARLEY_DATA"); envPath != "" {
		return envPath
	}

	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data"
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}
	return filepath.Join(dataDir, "parley")
}

// applyPathDefaults fills file locations that depend on the chosen backend
// and on the data directory.
func (c *Config) applyPathDefaults() {
	if c.Storage.Path == "" {
		name := "chats.json"
		if c.Storage.Backend == BackendSQLite {
			name = "chats.db"
		}
		c.Storage.Path = filepath.Join(DataDir(), name)
	}
	if c.Tailscale.StateDir == "" {
		c.Tailscale.StateDir = filepath.Join(DataDir(), "tsnet")
	}
}

// Validate checks that all configuration fields are usable.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Storage.Backend != BackendJSON && c.Storage.Backend != BackendSQLite {
		return fmt.Errorf("storage.backend must be %q or %q, got %q", BackendJSON, BackendSQLite, c.Storage.Backend)
	}

	if c.Stream.Heartbeat <= 0 {
		return fmt.Errorf("stream.heartbeat must be positive, got %s", c.Stream.Heartbeat)
	}

	if c.Bus.Buffer < 1 {
		return fmt.Errorf("bus.buffer must be at least 1, got %d", c.Bus.Buffer)
	}

	if c.Agent.Delay < 0 {
		return fmt.Errorf("agent.delay must not be negative, got %s", c.Agent.Delay)
	}

	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Server.ShutdownTimeoutRaw != "" {
		cfg.Server.ShutdownTimeout, err = time.ParseDuration(cfg.Server.ShutdownTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing shutdown_timeout %q: %w", cfg.Server.ShutdownTimeoutRaw, err)
		}
	}

	if cfg.Stream.HeartbeatRaw != "" {
		cfg.Stream.Heartbeat, err = time.ParseDuration(cfg.Stream.HeartbeatRaw)
		if err != nil {
			return fmt.Errorf("parsing heartbeat %q: %w", cfg.Stream.HeartbeatRaw, err)
		}
	}

	if cfg.Agent.DelayRaw != "" {
		cfg.Agent.Delay, err = time.ParseDuration(cfg.Agent.DelayRaw)
		if err != nil {
			return fmt.Errorf("parsing delay %q: %w", cfg.Agent.DelayRaw, err)
		}
	}

	return nil
}
