// Package config provides 12-factor configuration for the terminal singleton.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags override environment variables when explicitly set.
//
// Configuration Sections:
//   - Shell: executable, arguments, timeouts and log retention
//   - Logging: Log level and output format
//   - Metrics: optional /metrics and /health listener
//
// Example Usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("Running %s with a %s timeout\n", cfg.Shell.Path, cfg.Shell.Timeout())
//
// Environment Variables:
//   - SHELL_PATH, SHELL_ARGS, SHELL_DIR, SHELL_TIMEOUT
//   - SHELL_SETTLE_DELAY, SHELL_KILL_GRACE, SHELL_LOG_LIMIT
//   - SHELL_SPAWN_FAILURES, SHELL_SPAWN_COOLDOWN
//   - SHELL_SPAWN_RATE, SHELL_SPAWN_BURST
//   - LOG_LEVEL, LOG_DEV, METRICS_ADDR
package config
