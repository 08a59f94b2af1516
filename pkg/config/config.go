// Package config loads wmctl's configuration from the environment, a
// YAML file, and built-in defaults, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is wmctl's static configuration.
//
// Configuration sources, highest precedence first:
//  1. Environment variables (WMCTL_* / WATCHMAN_*)
//  2. A YAML configuration file
//  3. The defaults below
type Config struct {
	// Watchman configures how the command client finds and talks to
	// the watchman-compatible service.
	Watchman WatchmanConfig `mapstructure:"watchman" yaml:"watchman"`

	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry distributed tracing.
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// Metrics controls the Prometheus metrics listener.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// WatchmanConfig configures discovery and connection to the service.
type WatchmanConfig struct {
	// BinaryPath overrides the watchman CLI resolved via PATH, used
	// for socket discovery. Default: "watchman".
	BinaryPath string `mapstructure:"binary_path" yaml:"binary_path"`

	// Sock, if set, overrides discovery entirely and is dialed
	// directly. Equivalent to setting $WATCHMAN_SOCK.
	Sock string `mapstructure:"sock" yaml:"sock"`
}

// LoggingConfig controls log output behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive).
	Level string `mapstructure:"level" yaml:"level"`

	// Format specifies the log output format: text or json.
	Format string `mapstructure:"format" yaml:"format"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
type TelemetryConfig struct {
	// Enabled controls whether distributed tracing is enabled.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP collector endpoint (host:port).
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
}

// MetricsConfig controls the Prometheus metrics HTTP listener.
type MetricsConfig struct {
	// ListenAddr is the address the metrics endpoint listens on, e.g.
	// ":9090". Empty disables the listener.
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr"`
}

// Load loads configuration from environment variables, the config file
// (configPath if non-empty, else config.yaml in the default config
// directory; a missing file is not an error), and defaults, in that
// precedence order.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)
	applyDefaults(v)

	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return cfg, nil
}

// setupViper wires environment variable support and config file
// search paths. Every key can be set through a WMCTL_* variable (e.g.
// WMCTL_LOGGING_LEVEL); in addition, watchman.sock and
// watchman.binary_path are bound to the unprefixed WATCHMAN_SOCK and
// WATCHMAN_BINARY_PATH. No other WATCHMAN_* variable is read.
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("WMCTL")
	v.AutomaticEnv()
	_ = v.BindEnv("watchman.sock", "WATCHMAN_SOCK")
	_ = v.BindEnv("watchman.binary_path", "WATCHMAN_BINARY_PATH")

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(defaultConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("watchman.binary_path", "watchman")
	v.SetDefault("logging.level", "INFO")
	v.SetDefault("logging.format", "text")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "localhost:4317")
	v.SetDefault("metrics.listen_addr", "")
}

// readConfigFile reads the configuration file if it exists. A missing
// file is not an error: wmctl runs fine on defaults and environment
// variables alone.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("config: read: %w", err)
	}
	return true, nil
}

// defaultConfigDir returns $XDG_CONFIG_HOME/wmctl, falling back to
// ~/.config/wmctl.
func defaultConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "wmctl")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".wmctl"
	}
	return filepath.Join(home, ".config", "wmctl")
}
