package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for shell sessions.
//
// Every method is safe on a nil *Metrics, so callers that do not collect
// metrics can pass nil around.
type Metrics struct {
	registry *prometheus.Registry

	// Command metrics
	CommandsTotal   *prometheus.CounterVec
	CommandDuration prometheus.Histogram
	OutputBytes     prometheus.Histogram

	// Session metrics
	SessionsActive  prometheus.Gauge
	SessionsSpawned prometheus.Counter
	SpawnErrors     prometheus.Counter
	Respawns        *prometheus.CounterVec
}

// NewMetrics creates collectors on a dedicated registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		CommandsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "terminal_commands_total",
				Help: "Total number of commands run, by outcome",
			},
			[]string{"status"},
		),
		CommandDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "terminal_command_duration_seconds",
				Help:    "Time from writing a command to seeing its marker",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),
		OutputBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "terminal_command_output_bytes",
				Help:    "Size of extracted command output in bytes",
				Buckets: []float64{0, 64, 1024, 16384, 262144, 1048576},
			},
		),

		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "terminal_sessions_active",
				Help: "Number of live shell sessions",
			},
		),
		SessionsSpawned: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "terminal_sessions_spawned_total",
				Help: "Total number of shell sessions started",
			},
		),
		SpawnErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "terminal_spawn_errors_total",
				Help: "Total number of failed shell spawns",
			},
		),
		Respawns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "terminal_respawns_total",
				Help: "Total number of sessions replaced by the registry, by reason",
			},
			[]string{"reason"},
		),
	}
}

// Registry returns the Prometheus registry backing these metrics
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the metrics in Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordCommand records one Run outcome
func (m *Metrics) RecordCommand(status string, duration time.Duration, outputBytes int) {
	if m == nil {
		return
	}
	m.CommandsTotal.WithLabelValues(status).Inc()
	m.CommandDuration.Observe(duration.Seconds())
	if status == "ok" {
		m.OutputBytes.Observe(float64(outputBytes))
	}
}

// SessionStarted records a successful spawn
func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.SessionsSpawned.Inc()
	m.SessionsActive.Inc()
}

// SessionEnded records a session being closed
func (m *Metrics) SessionEnded() {
	if m == nil {
		return
	}
	m.SessionsActive.Dec()
}

// IncSpawnErrors increments the failed spawn counter
func (m *Metrics) IncSpawnErrors() {
	if m == nil {
		return
	}
	m.SpawnErrors.Inc()
}

// IncRespawns increments the respawn counter for reason
func (m *Metrics) IncRespawns(reason string) {
	if m == nil {
		return
	}
	m.Respawns.WithLabelValues(reason).Inc()
}
