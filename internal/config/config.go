package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all configuration for skillstream
type Config struct {
	// Server configuration
	HTTPPort int    `env:"SKILLSTREAM_HTTP_PORT" envDefault:"8081"`
	GRPCPort int    `env:"SKILLSTREAM_GRPC_PORT" envDefault:"9091"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	Stream StreamConfig

	Backend BackendConfig

	Notify NotifyConfig

	Uploads UploadsConfig

	// Redis configuration; an empty address selects the in-memory adapters
	Redis RedisConfig

	MonitorInterval time.Duration `env:"MONITOR_INTERVAL" envDefault:"30s"`

	// Timeouts
	Timeouts TimeoutConfig
}

// StreamConfig holds the push connection settings
type StreamConfig struct {
	URL              string        `env:"STREAM_URL" envDefault:"http://localhost:5000/stream"`
	Transport        string        `env:"STREAM_TRANSPORT" envDefault:"sse"`
	HandshakeTimeout time.Duration `env:"STREAM_HANDSHAKE_TIMEOUT" envDefault:"10s"`
}

// BackendConfig holds the REST backend settings
type BackendConfig struct {
	URL     string        `env:"BACKEND_URL" envDefault:"http://localhost:5000"`
	Timeout time.Duration `env:"BACKEND_TIMEOUT" envDefault:"10s"`
}

// NotifyConfig holds notification center settings
type NotifyConfig struct {
	TTL    time.Duration `env:"NOTIFY_TTL" envDefault:"5s"`
	Buffer int           `env:"NOTIFY_BUFFER" envDefault:"64"`
}

// UploadsConfig holds recent uploads settings
type UploadsConfig struct {
	RecentLimit int           `env:"UPLOADS_RECENT_LIMIT" envDefault:"10"`
	CacheTTL    time.Duration `env:"UPLOADS_CACHE_TTL" envDefault:"10m"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASS"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`

	// Connection pool settings
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// Enabled reports whether a Redis address was configured
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// TimeoutConfig holds various timeout configurations
type TimeoutConfig struct {
	ShutdownTimeout time.Duration `env:"TIMEOUT_SHUTDOWN" envDefault:"30s"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server ports
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.GRPCPort < 1 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPCPort)
	}

	// Validate stream config
	if c.Stream.Transport != "sse" && c.Stream.Transport != "websocket" {
		return fmt.Errorf("unsupported stream transport: %s (must be sse or websocket)", c.Stream.Transport)
	}
	streamSchemes := []string{"http", "https"}
	if c.Stream.Transport == "websocket" {
		streamSchemes = append(streamSchemes, "ws", "wss")
	}
	if err := validateURL("stream", c.Stream.URL, streamSchemes...); err != nil {
		return err
	}
	if err := validateURL("backend", c.Backend.URL, "http", "https"); err != nil {
		return err
	}

	if c.Notify.TTL <= 0 {
		return fmt.Errorf("notification TTL must be positive")
	}
	if c.Uploads.RecentLimit < 1 {
		return fmt.Errorf("recent uploads limit must be at least 1")
	}
	if c.MonitorInterval <= 0 {
		return fmt.Errorf("monitor interval must be positive")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

func validateURL(name, raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s url: %w", name, err)
	}
	if !slices.Contains(schemes, u.Scheme) {
		return fmt.Errorf("invalid %s url: %q (scheme must be one of %s)", name, raw, strings.Join(schemes, ", "))
	}
	if u.Host == "" {
		return fmt.Errorf("invalid %s url: %q (missing host)", name, raw)
	}
	return nil
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// GetGRPCAddr returns the gRPC server address
func (c *Config) GetGRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}
