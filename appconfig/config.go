// Package appconfig provides Viper-based configuration loading for the maze server.
package appconfig

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. MAZE_SERVER_PORT.
const EnvPrefix = "MAZE"

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the "host:port" listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// MapsConfig locates the map catalog.
type MapsConfig struct {
	Dir string `mapstructure:"dir"`
}

// SessionsConfig controls idle session expiry.
type SessionsConfig struct {
	// TTL is how long a session may stay unused before it is removed.
	TTL time.Duration `mapstructure:"ttl"`
	// CleanupInterval is the period of the expiry sweep.
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// NgrokConfig enables the optional public tunnel.
type NgrokConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	AuthToken string `mapstructure:"authtoken"`
	Domain    string `mapstructure:"domain"`
}

// TracingConfig enables OTLP/HTTP trace export.
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
}

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Maps     MapsConfig     `mapstructure:"maps"`
	Sessions SessionsConfig `mapstructure:"sessions"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Ngrok    NgrokConfig    `mapstructure:"ngrok"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

// Validate checks all configuration invariants and reports every violation.
func (c Config) Validate() error {
	var errs []string

	if c.Server.Host == "" {
		errs = append(errs, "server.host must not be empty")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	timeouts := []struct {
		name  string
		value time.Duration
	}{
		{"server.read_timeout", c.Server.ReadTimeout},
		{"server.write_timeout", c.Server.WriteTimeout},
		{"server.idle_timeout", c.Server.IdleTimeout},
		{"server.shutdown_timeout", c.Server.ShutdownTimeout},
	}
	for _, tt := range timeouts {
		if tt.value < 0 {
			errs = append(errs, fmt.Sprintf("%s must not be negative", tt.name))
		}
	}

	if c.Maps.Dir == "" {
		errs = append(errs, "maps.dir must not be empty")
	}

	if c.Sessions.TTL <= 0 {
		errs = append(errs, fmt.Sprintf("sessions.ttl must be positive, got %s", c.Sessions.TTL))
	}
	if c.Sessions.CleanupInterval <= 0 {
		errs = append(errs, fmt.Sprintf("sessions.cleanup_interval must be positive, got %s", c.Sessions.CleanupInterval))
	}

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}

	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		errs = append(errs, "tracing.endpoint is required when tracing is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load builds the configuration from defaults, an optional YAML file,
// MAZE_* environment variables and overrides, in increasing precedence, and
// validates the result. An empty path skips the file.
func Load(path string, overrides map[string]interface{}) (Config, error) {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The ngrok agent's own variables are honored too.
	_ = v.BindEnv("ngrok.authtoken", EnvPrefix+"_NGROK_AUTHTOKEN", "NGROK_AUTHTOKEN")
	_ = v.BindEnv("ngrok.domain", EnvPrefix+"_NGROK_DOMAIN", "NGROK_DOMAIN")

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	for key, value := range overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("maps.dir", "maps")

	v.SetDefault("sessions.ttl", "24h")
	v.SetDefault("sessions.cleanup_interval", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("ngrok.enabled", false)
	v.SetDefault("ngrok.authtoken", "")
	v.SetDefault("ngrok.domain", "")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.service_name", "mazerunner")
}
