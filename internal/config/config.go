// Package config loads and validates the gateway configuration.
//
// DESIGN: The three parameters the proxy cannot run without (listen port,
// upstream base URL, upstream API key) MUST be present in the YAML file or
// supplied through ${VAR} expansion. Everything else falls back to documented
// defaults so a minimal config stays minimal.
//
// FILES:
//   - config.go: Root Config struct, Load(), Validate()
package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/embyfast/strm-gateway/internal/monitoring"
)

// Cache backend types.
const (
	CacheTypeMemory = "memory"
	CacheTypeSQLite = "sqlite"
)

// Config is the root configuration for the strm gateway.
type Config struct {
	Server     ServerConfig     `yaml:"server"`     // HTTP server settings
	Upstream   UpstreamConfig   `yaml:"upstream"`   // Media server target
	Cache      CacheConfig      `yaml:"cache"`      // Item classification cache
	Monitoring MonitoringConfig `yaml:"monitoring"` // Logging and telemetry
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`             // Port to listen on
	ReadTimeout     time.Duration `yaml:"read_timeout"`     // Max time to read request headers/body
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // 0 = unlimited (large media streams)
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // Drain window on SIGTERM
	RateLimit       int           `yaml:"rate_limit"`       // Requests/sec per client IP, 0 disables
}

// UpstreamConfig identifies the media server behind the gateway.
// Immutable after startup; shared read-only by all components.
type UpstreamConfig struct {
	BaseURL         string        `yaml:"base_url"`         // e.g. http://localhost:8096
	APIKey          string        `yaml:"api_key"`          // Credential for the metadata API
	MetadataTimeout time.Duration `yaml:"metadata_timeout"` // Budget for one classification lookup
}

// CacheConfig controls the item classification cache.
type CacheConfig struct {
	Type     string        `yaml:"type"`     // memory | sqlite
	Path     string        `yaml:"path"`     // sqlite file path (type=sqlite only)
	TTL      time.Duration `yaml:"ttl"`      // Entry freshness window
	Capacity int           `yaml:"capacity"` // Max entries before LRU eviction
}

// MonitoringConfig contains logging and telemetry settings.
type MonitoringConfig struct {
	LogLevel             string        `yaml:"log_level"`              // debug, info, warn, error
	LogFormat            string        `yaml:"log_format"`             // json, console
	LogOutput            string        `yaml:"log_output"`             // stdout, stderr, or file path
	TelemetryEnabled     bool          `yaml:"telemetry_enabled"`      // Enable per-request JSONL events
	TelemetryPath        string        `yaml:"telemetry_path"`         // Path to telemetry JSONL file
	HighLatencyThreshold time.Duration `yaml:"high_latency_threshold"` // Warn threshold for slow requests
}

// expandEnvWithDefaults expands environment variables with support for default values.
// Supports both ${VAR} and ${VAR:-default} syntax.
func expandEnvWithDefaults(s string) string {
	re := regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultValue := ""
		if len(parts) > 2 {
			defaultValue = parts[2]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return defaultValue
	})
}

// Load reads configuration from a YAML file.
// Returns an error if the file doesn't exist or is invalid.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config file path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	return LoadFromBytes(data)
}

// LoadFromBytes parses configuration from raw YAML bytes.
// Supports ${VAR:-default} env var expansion, defaults, and validation.
func LoadFromBytes(data []byte) (*Config, error) {
	expanded := expandEnvWithDefaults(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults fills in the optional fields left unset.
// Port, upstream base URL and API key have no defaults on purpose.
func (c *Config) applyDefaults() {
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = time.Minute
	}
	// Server.WriteTimeout stays 0: media transfers can outlive any sane cap.
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 30 * time.Second
	}
	if c.Upstream.MetadataTimeout == 0 {
		c.Upstream.MetadataTimeout = 10 * time.Second
	}
	if c.Cache.Type == "" {
		c.Cache.Type = CacheTypeMemory
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 5 * time.Minute
	}
	if c.Cache.Capacity == 0 {
		c.Cache.Capacity = 4096
	}
	if c.Monitoring.LogLevel == "" {
		c.Monitoring.LogLevel = "info"
	}
	if c.Monitoring.LogFormat == "" {
		c.Monitoring.LogFormat = "console"
	}
	if c.Monitoring.LogOutput == "" {
		c.Monitoring.LogOutput = "stdout"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("invalid server.rate_limit: %d", c.Server.RateLimit)
	}

	// Upstream validation
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required")
	}
	u, err := url.Parse(c.Upstream.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid upstream.base_url: %q", c.Upstream.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported upstream.base_url scheme: %q", u.Scheme)
	}
	if c.Upstream.APIKey == "" {
		return fmt.Errorf("upstream.api_key is required")
	}

	// Cache validation
	switch c.Cache.Type {
	case CacheTypeMemory:
	case CacheTypeSQLite:
		if c.Cache.Path == "" {
			return fmt.Errorf("cache.path is required when cache.type is sqlite")
		}
	default:
		return fmt.Errorf("unknown cache.type: %q (must be memory or sqlite)", c.Cache.Type)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}
	if c.Cache.Capacity <= 0 {
		return fmt.Errorf("cache.capacity must be positive")
	}

	return nil
}

// UpstreamURL returns the parsed upstream base URL.
// Validate must have succeeded before calling.
func (c *Config) UpstreamURL() *url.URL {
	u, _ := url.Parse(c.Upstream.BaseURL)
	return u
}

// LoggerConfig converts monitoring settings to a monitoring.LoggerConfig.
func (c *Config) LoggerConfig() monitoring.LoggerConfig {
	return monitoring.LoggerConfig{
		Level:  c.Monitoring.LogLevel,
		Format: c.Monitoring.LogFormat,
		Output: c.Monitoring.LogOutput,
	}
}

// TelemetryConfig converts monitoring settings to a monitoring.TelemetryConfig.
func (c *Config) TelemetryConfig() monitoring.TelemetryConfig {
	return monitoring.TelemetryConfig{
		Enabled: c.Monitoring.TelemetryEnabled,
		LogPath: c.Monitoring.TelemetryPath,
	}
}

// AlertConfig converts monitoring settings to a monitoring.AlertConfig.
func (c *Config) AlertConfig() monitoring.AlertConfig {
	return monitoring.AlertConfig{
		HighLatencyThreshold: c.Monitoring.HighLatencyThreshold,
	}
}
