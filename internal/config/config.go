package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/kodexArg/terminal-singleton/internal/shell"
)

// Config holds all application configuration.
type Config struct {
	Shell   ShellConfig
	Logging LogConfig
	Metrics MetricsConfig
}

// ShellConfig holds shell session configuration.
type ShellConfig struct {
	Path           string        `envconfig:"SHELL_PATH" default:"/bin/bash"`
	Args           []string      `envconfig:"SHELL_ARGS"`
	Dir            string        `envconfig:"SHELL_DIR"`
	TimeoutSeconds int           `envconfig:"SHELL_TIMEOUT" default:"30"`
	SettleDelay    time.Duration `envconfig:"SHELL_SETTLE_DELAY" default:"50ms"`
	KillGrace      time.Duration `envconfig:"SHELL_KILL_GRACE" default:"250ms"`
	LogLimit       int           `envconfig:"SHELL_LOG_LIMIT" default:"1048576"`
	SpawnFailures  uint32        `envconfig:"SHELL_SPAWN_FAILURES" default:"3"`
	SpawnCooldown  time.Duration `envconfig:"SHELL_SPAWN_COOLDOWN" default:"5s"`
	SpawnRate      float64       `envconfig:"SHELL_SPAWN_RATE" default:"1"`
	SpawnBurst     int           `envconfig:"SHELL_SPAWN_BURST" default:"3"`
}

// Timeout returns the per-command wait as a duration.
func (c ShellConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// MetricsConfig holds the optional metrics listener configuration.
type MetricsConfig struct {
	// Addr is the listen address for /metrics and /health; empty disables it.
	Addr string `envconfig:"METRICS_ADDR"`
}

// Enabled reports whether the metrics listener should run.
func (c MetricsConfig) Enabled() bool {
	return c.Addr != ""
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns default configuration. It matches the env defaults above,
// which are pinned to the shell package constants by TestLoadMatchesDefault.
func Default() *Config {
	return &Config{
		Shell: ShellConfig{
			Path:           shell.DefaultShellPath,
			TimeoutSeconds: int(shell.DefaultTimeout / time.Second),
			SettleDelay:    shell.DefaultSettleDelay,
			KillGrace:      shell.DefaultKillGrace,
			LogLimit:       shell.DefaultLogLimit,
			SpawnFailures:  shell.DefaultSpawnFailureThreshold,
			SpawnCooldown:  shell.DefaultSpawnCooldown,
			SpawnRate:      shell.DefaultSpawnRate,
			SpawnBurst:     shell.DefaultSpawnBurst,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
	}
}

// Validate rejects values no session could run with.
func (c *Config) Validate() error {
	if c.Shell.Path == "" {
		return fmt.Errorf("invalid config: SHELL_PATH is empty")
	}
	if c.Shell.TimeoutSeconds <= 0 {
		return fmt.Errorf("invalid config: SHELL_TIMEOUT must be positive, got %d", c.Shell.TimeoutSeconds)
	}
	if c.Shell.SettleDelay < 0 {
		return fmt.Errorf("invalid config: SHELL_SETTLE_DELAY must not be negative, got %s", c.Shell.SettleDelay)
	}
	if c.Shell.KillGrace <= 0 {
		return fmt.Errorf("invalid config: SHELL_KILL_GRACE must be positive, got %s", c.Shell.KillGrace)
	}
	if c.Shell.SpawnBurst <= 0 {
		return fmt.Errorf("invalid config: SHELL_SPAWN_BURST must be positive, got %d", c.Shell.SpawnBurst)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid config: unknown LOG_LEVEL %q", c.Logging.Level)
	}
	return nil
}
