// Package config loads timekeeper settings from a YAML file, TIMEKEEPER_*
// environment variables and built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g.
// TIMEKEEPER_SERVER_ADDR overrides server.addr
const EnvPrefix = "TIMEKEEPER"

// Config is the complete timekeeper configuration
type Config struct {
	Label     string          `mapstructure:"label" yaml:"label"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Client    ClientConfig    `mapstructure:"client" yaml:"client"`
	Auth      AuthConfig      `mapstructure:"auth" yaml:"auth"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Tracing   TracingConfig   `mapstructure:"tracing" yaml:"tracing"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
}

// ServerConfig configures the HTTP API started by serve
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	// TLS is served when both files are set
	TLSCertFile string `mapstructure:"tls_cert_file" yaml:"tls_cert_file"`
	TLSKeyFile  string `mapstructure:"tls_key_file" yaml:"tls_key_file"`
}

// ClientConfig configures the timings client commands
type ClientConfig struct {
	Server string `mapstructure:"server" yaml:"server"`
	APIKey string `mapstructure:"api_key" yaml:"api_key"`
	// CAFile is trusted in addition to the system roots
	CAFile  string `mapstructure:"ca_file" yaml:"ca_file"`
	Retries int    `mapstructure:"retries" yaml:"retries"`
}

// AuthConfig enables bearer authentication when APIKeyHash is set
type AuthConfig struct {
	APIKeyHash string `mapstructure:"api_key_hash" yaml:"api_key_hash"`
}

// RateLimitConfig limits requests per client IP
type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled" yaml:"enabled"`
	RPS     float64 `mapstructure:"rps" yaml:"rps"`
	Burst   int     `mapstructure:"burst" yaml:"burst"`
}

// LoggingConfig configures pkg/logging
type LoggingConfig struct {
	Level        string        `mapstructure:"level" yaml:"level"`
	JSON         bool          `mapstructure:"json" yaml:"json"`
	File         string        `mapstructure:"file" yaml:"file"`
	MaxAge       time.Duration `mapstructure:"max_age" yaml:"max_age"`
	RotationTime time.Duration `mapstructure:"rotation_time" yaml:"rotation_time"`
}

// TracingConfig configures the OTLP exporter
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`
	Endpoint    string `mapstructure:"endpoint" yaml:"endpoint"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	Environment string `mapstructure:"environment" yaml:"environment"`
}

// MetricsConfig configures the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// Default returns the configuration used when nothing is configured
func Default() *Config {
	return &Config{
		Label: "default",
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Client: ClientConfig{
			Server:  "http://localhost:8080",
			Retries: 3,
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			RPS:     50,
			Burst:   100,
		},
		Logging: LoggingConfig{
			Level:        "info",
			MaxAge:       7 * 24 * time.Hour,
			RotationTime: 24 * time.Hour,
		},
		Tracing: TracingConfig{
			Endpoint:    "localhost:4318",
			ServiceName: "timekeeper",
			Environment: "development",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// DefaultPath returns $HOME/.timekeeper/config.yaml
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to find home directory")
	}
	return filepath.Join(home, ".timekeeper", "config.yaml"), nil
}

// Load reads the configuration. An explicit path must exist; without one
// the default path is used if present. Environment variables override the
// file, the file overrides Default.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if explicit || !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("label", cfg.Label)
	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("server.read_timeout", cfg.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", cfg.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", cfg.Server.ShutdownTimeout)
	v.SetDefault("client.server", cfg.Client.Server)
	v.SetDefault("server.tls_cert_file", cfg.Server.TLSCertFile)
	v.SetDefault("server.tls_key_file", cfg.Server.TLSKeyFile)
	v.SetDefault("client.api_key", cfg.Client.APIKey)
	v.SetDefault("client.ca_file", cfg.Client.CAFile)
	v.SetDefault("client.retries", cfg.Client.Retries)
	v.SetDefault("auth.api_key_hash", cfg.Auth.APIKeyHash)
	v.SetDefault("rate_limit.enabled", cfg.RateLimit.Enabled)
	v.SetDefault("rate_limit.rps", cfg.RateLimit.RPS)
	v.SetDefault("rate_limit.burst", cfg.RateLimit.Burst)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.json", cfg.Logging.JSON)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.max_age", cfg.Logging.MaxAge)
	v.SetDefault("logging.rotation_time", cfg.Logging.RotationTime)
	v.SetDefault("tracing.enabled", cfg.Tracing.Enabled)
	v.SetDefault("tracing.endpoint", cfg.Tracing.Endpoint)
	v.SetDefault("tracing.service_name", cfg.Tracing.ServiceName)
	v.SetDefault("tracing.environment", cfg.Tracing.Environment)
	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}

// Validate rejects values the service cannot run with
func (c *Config) Validate() error {
	if c.Label == "" {
		return fmt.Errorf("label must not be empty")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("server timeouts must not be negative")
	}
	if (c.Server.TLSCertFile == "") != (c.Server.TLSKeyFile == "") {
		return fmt.Errorf("server.tls_cert_file and server.tls_key_file must be set together")
	}
	if c.Client.Retries < 0 {
		return fmt.Errorf("client.retries must not be negative")
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.RPS <= 0 {
			return fmt.Errorf("rate_limit.rps must be positive, got %v", c.RateLimit.RPS)
		}
		if c.RateLimit.Burst < 1 {
			return fmt.Errorf("rate_limit.burst must be at least 1, got %d", c.RateLimit.Burst)
		}
	}
	if c.Auth.APIKeyHash != "" && !strings.HasPrefix(c.Auth.APIKeyHash, "$2") {
		return fmt.Errorf("auth.api_key_hash is not a bcrypt hash")
	}
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return fmt.Errorf("tracing.endpoint is required when tracing is enabled")
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /, got %q", c.Metrics.Path)
	}
	if c.Logging.File != "" && c.Logging.RotationTime <= 0 {
		return fmt.Errorf("logging.rotation_time must be positive when logging to a file")
	}
	return nil
}
