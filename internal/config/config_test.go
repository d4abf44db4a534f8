package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Shell config
	assert.Equal(t, "/bin/bash", cfg.Shell.Path)
	assert.Empty(t, cfg.Shell.Args)
	assert.Equal(t, 30*time.Second, cfg.Shell.Timeout())
	assert.Equal(t, 50*time.Millisecond, cfg.Shell.SettleDelay)
	assert.Equal(t, 250*time.Millisecond, cfg.Shell.KillGrace)
	assert.Equal(t, 1048576, cfg.Shell.LogLimit)
	assert.Equal(t, uint32(3), cfg.Shell.SpawnFailures)
	assert.Equal(t, 5*time.Second, cfg.Shell.SpawnCooldown)
	assert.Equal(t, 1.0, cfg.Shell.SpawnRate)
	assert.Equal(t, 3, cfg.Shell.SpawnBurst)

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	// Metrics config
	assert.False(t, cfg.Metrics.Enabled())

	assert.NoError(t, cfg.Validate())
}

func TestLoadMatchesDefault(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"SHELL_PATH":           "/usr/bin/zsh",
		"SHELL_ARGS":           "-f,-i",
		"SHELL_DIR":            "/tmp",
		"SHELL_TIMEOUT":        "5",
		"SHELL_SETTLE_DELAY":   "10ms",
		"SHELL_KILL_GRACE":     "1s",
		"SHELL_LOG_LIMIT":      "-1",
		"SHELL_SPAWN_FAILURES": "5",
		"SHELL_SPAWN_COOLDOWN": "30s",
		"SHELL_SPAWN_RATE":     "-1",
		"SHELL_SPAWN_BURST":    "10",
		"LOG_LEVEL":            "debug",
		"LOG_DEV":              "true",
		"METRICS_ADDR":         "127.0.0.1:9090",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	// Verify shell config
	assert.Equal(t, "/usr/bin/zsh", cfg.Shell.Path)
	assert.Equal(t, []string{"-f", "-i"}, cfg.Shell.Args)
	assert.Equal(t, "/tmp", cfg.Shell.Dir)
	assert.Equal(t, 5*time.Second, cfg.Shell.Timeout())
	assert.Equal(t, 10*time.Millisecond, cfg.Shell.SettleDelay)
	assert.Equal(t, time.Second, cfg.Shell.KillGrace)
	assert.Equal(t, -1, cfg.Shell.LogLimit)
	assert.Equal(t, uint32(5), cfg.Shell.SpawnFailures)
	assert.Equal(t, 30*time.Second, cfg.Shell.SpawnCooldown)
	assert.Equal(t, -1.0, cfg.Shell.SpawnRate)
	assert.Equal(t, 10, cfg.Shell.SpawnBurst)

	// Verify logging config
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)

	// Verify metrics config
	assert.Equal(t, "127.0.0.1:9090", cfg.Metrics.Addr)
	assert.True(t, cfg.Metrics.Enabled())
}

func TestLoadWithPartialEnvironmentVariables(t *testing.T) {
	t.Setenv("SHELL_TIMEOUT", "2")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Verify overridden values
	assert.Equal(t, 2*time.Second, cfg.Shell.Timeout())
	assert.Equal(t, "warn", cfg.Logging.Level)

	// Verify default values still apply
	assert.Equal(t, "/bin/bash", cfg.Shell.Path)
	assert.Equal(t, 1048576, cfg.Shell.LogLimit)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unparsable timeout", "SHELL_TIMEOUT", "soon"},
		{"zero timeout", "SHELL_TIMEOUT", "0"},
		{"negative timeout", "SHELL_TIMEOUT", "-3"},
		{"bad duration", "SHELL_KILL_GRACE", "forever"},
		{"negative settle delay", "SHELL_SETTLE_DELAY", "-1s"},
		{"zero spawn burst", "SHELL_SPAWN_BURST", "0"},
		{"unknown log level", "LOG_LEVEL", "verbose"},
		{"bad bool", "LOG_DEV", "sometimes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
