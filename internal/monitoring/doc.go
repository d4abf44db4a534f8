// Package monitoring provides Prometheus metrics for the shell sessions.
//
// Metrics live on a dedicated registry instead of the global default one,
// so several registries of sessions (tests, embedded uses) never collide.
//
// Collected:
//   - terminal_commands_total{status}: outcomes of Run ("ok", "timeout", ...)
//   - terminal_command_duration_seconds: write-to-marker latency
//   - terminal_command_output_bytes: size of extracted outputs
//   - terminal_sessions_active / terminal_sessions_spawned_total
//   - terminal_spawn_errors_total
//   - terminal_respawns_total{reason}: "died" or "suspect"
//
// Example Usage:
//
//	metrics := monitoring.NewMetrics()
//	router.GET("/metrics", gin.WrapH(metrics.Handler()))
package monitoring
