// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Logs are written to stderr by default; stdout carries command output.
//
// Example Usage:
//
//	logger, err := logging.New(logging.FromSettings(cfg.Logging))
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//	logger.Info("Shell session started", zap.String("session_id", id))
package logging
