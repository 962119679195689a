// Package config provides configuration management for plansketch using
// Viper for flexible loading from files, environment variables, and
// command-line flags.
//
// The configuration system supports YAML files, environment variable
// overrides with the PLANSKETCH_ prefix, and validation. It covers the live
// server, canvas behavior (snap threshold, legacy drawing scale, fraction
// output), reconciliation tolerance, and legacy import watching.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Canvas    CanvasConfig    `yaml:"canvas"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
	Import    ImportConfig    `yaml:"import"`
	LogLevel  string          `yaml:"log_level"`
	LogFormat string          `yaml:"log_format"`
}

type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type CanvasConfig struct {
	// SnapThreshold is the alignment-snap search distance in drawing pixels
	SnapThreshold float64 `yaml:"snap_threshold"`
	// ByTenths selects the 10x finer legacy drawing scale
	ByTenths bool `yaml:"by_tenths"`
	// UseFractions renders quarter-granular measurements as mixed fractions
	// on export
	UseFractions bool `yaml:"use_fractions"`
}

type ReconcileConfig struct {
	Tolerance float64 `yaml:"tolerance"`
}

type ImportConfig struct {
	// WatchPaths are legacy export files re-imported on change
	WatchPaths []string `yaml:"watch_paths"`
	// DebounceMs groups rapid file changes before re-importing
	DebounceMs int `yaml:"debounce_ms"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "localhost",
			Port:           7331,
			AllowedOrigins: []string{"http://localhost:7331"},
		},
		Canvas: CanvasConfig{
			SnapThreshold: 10,
		},
		Reconcile: ReconcileConfig{
			Tolerance: 0.05,
		},
		Import: ImportConfig{
			DebounceMs: 300,
		},
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load builds the configuration from viper's merged sources, applying
// defaults for anything unset and validating the result.
func Load() (*Config, error) {
	config := Default()
	if err := viper.Unmarshal(config); err != nil {
		return nil, err
	}

	// Workarounds for viper's zero-vs-unset ambiguity on scalars
	if viper.IsSet("server.host") {
		config.Server.Host = viper.GetString("server.host")
	}
	if viper.IsSet("server.port") {
		config.Server.Port = viper.GetInt("server.port")
	}
	if viper.IsSet("server.allowed_origins") {
		config.Server.AllowedOrigins = viper.GetStringSlice("server.allowed_origins")
	}
	if viper.IsSet("canvas.snap_threshold") {
		config.Canvas.SnapThreshold = viper.GetFloat64("canvas.snap_threshold")
	}
	if viper.IsSet("canvas.by_tenths") {
		config.Canvas.ByTenths = viper.GetBool("canvas.by_tenths")
	}
	if viper.IsSet("canvas.use_fractions") {
		config.Canvas.UseFractions = viper.GetBool("canvas.use_fractions")
	}
	if viper.IsSet("reconcile.tolerance") {
		config.Reconcile.Tolerance = viper.GetFloat64("reconcile.tolerance")
	}
	if viper.IsSet("import.watch_paths") {
		config.Import.WatchPaths = viper.GetStringSlice("import.watch_paths")
	}
	if viper.IsSet("import.debounce_ms") {
		config.Import.DebounceMs = viper.GetInt("import.debounce_ms")
	}
	if viper.IsSet("log_level") {
		config.LogLevel = viper.GetString("log_level")
	}
	// The CLI binds its flag under a dashed key
	if viper.IsSet("log-level") {
		config.LogLevel = viper.GetString("log-level")
	}

	if err := Validate(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// Validate checks configuration values for correctness.
func Validate(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if config.Canvas.SnapThreshold < 0 {
		return fmt.Errorf("canvas config: snap_threshold must not be negative, got %v", config.Canvas.SnapThreshold)
	}
	if config.Reconcile.Tolerance < 0 || config.Reconcile.Tolerance >= 1 {
		return fmt.Errorf("reconcile config: tolerance %v is not in valid range [0,1)", config.Reconcile.Tolerance)
	}
	if config.Import.DebounceMs < 0 {
		return fmt.Errorf("import config: debounce_ms must not be negative, got %d", config.Import.DebounceMs)
	}
	switch config.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level %q is not one of debug, info, warn, error", config.LogLevel)
	}
	return nil
}

func validateServerConfig(config *ServerConfig) error {
	// Allow 0 for system-assigned ports in testing
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Port)
	}

	if config.Host != "" {
		dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}
		for _, char := range dangerousChars {
			if strings.Contains(config.Host, char) {
				return fmt.Errorf("host contains dangerous character: %s", char)
			}
		}
	}
	return nil
}
