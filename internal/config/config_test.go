package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 7331, cfg.Server.Port)
	assert.Equal(t, 10.0, cfg.Canvas.SnapThreshold)
	assert.False(t, cfg.Canvas.ByTenths)
	assert.Equal(t, 0.05, cfg.Reconcile.Tolerance)
	assert.Equal(t, 300, cfg.Import.DebounceMs)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	viper.Reset()
	viper.Set("server.port", 8080)
	viper.Set("canvas.by_tenths", true)
	viper.Set("canvas.use_fractions", true)
	viper.Set("reconcile.tolerance", 0.1)
	viper.Set("import.watch_paths", []string{"/tmp/export.json"})
	defer viper.Reset()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.Canvas.ByTenths)
	assert.True(t, cfg.Canvas.UseFractions)
	assert.Equal(t, 0.1, cfg.Reconcile.Tolerance)
	assert.Equal(t, []string{"/tmp/export.json"}, cfg.Import.WatchPaths)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{"negative port", "server.port", -1},
		{"huge port", "server.port", 70000},
		{"negative snap threshold", "canvas.snap_threshold", -2.0},
		{"tolerance out of range", "reconcile.tolerance", 1.5},
		{"negative debounce", "import.debounce_ms", -100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			viper.Set(tt.key, tt.value)
			defer viper.Reset()

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestValidateHostInjection(t *testing.T) {
	cfg := Default()
	cfg.Server.Host = "localhost; rm -rf /"

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dangerous character")
}

func TestValidateLogLevel(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "verbose"
	assert.Error(t, Validate(cfg))

	cfg.LogLevel = "debug"
	assert.NoError(t, Validate(cfg))
}
