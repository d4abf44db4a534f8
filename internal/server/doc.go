// Package server provides the optional HTTP listener for the terminal.
//
// Routes:
//   - GET /: service definition and tool list
//   - GET /health: registry state and current session info
//   - GET /metrics: Prometheus exposition from monitoring.Metrics
//
// The listener never runs commands; shell access stays with the local
// driver. It is started only when a metrics address is configured.
//
// Example Usage:
//
//	srv := server.NewServer(server.Config{Addr: ":9090"}, term, provider, metrics, logger)
//	if err := srv.Run(ctx); err != nil {
//	    logger.Error("HTTP server failed", zap.Error(err))
//	}
package server
