// Package telemetry provides application-level observability for the backend.
//
// # Prometheus Metrics Endpoint
//
// All metrics are registered against the default Prometheus registry and are
// automatically available on the side-channel HTTP server started by main.go:
//
//	GET http(s)://<host>:<APR_TELEMETRY_METRICS_PROMETHEUS_PORT>/metrics
//
// Default port: 9090.  The endpoint returns data in the Prometheus text exposition
// format and is intended to be scraped by a Prometheus server every 15–60 seconds.
// It is NOT served by the Gin router, so the vault routes and the metrics endpoint
// never share a listener.
//
// # Metric Groups
//
//   - HTTP request counters and latency histograms (labelled by route template, not raw URL)
//   - Vault operation counters (add / list / reveal / update / delete, by outcome)
//   - Access gate rejection counters
//   - Password generator counter
//   - Database connection pool gauge (polled every 30 s)
//
// # Label Cardinality
//
// HTTP metrics use c.FullPath() (route template such as /api/v1/vault/passwords/:id)
// rather than the raw request URL to prevent unbounded label cardinality from
// user-supplied path segments such as credential IDs.
package telemetry

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics, labelled by method, route template, and status code.
//
// HTTPRequestsTotal is a CounterVec with labels {method, path, status}.
// The path label holds the Gin route template, NOT the raw URL.
//
// Example PromQL queries:
//   - Request rate (req/s, 5 m window):  rate(http_requests_total[5m])
//   - Error rate (%):                    sum(rate(http_requests_total{status=~"5.."}[5m])) / sum(rate(http_requests_total[5m])) * 100
//
// HTTPRequestDuration is a HistogramVec with labels {method, path} and exponential-ish
// buckets from 5 ms to 30 s.  Use histogram_quantile to compute latency percentiles.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)

// Vault metrics, recorded by the vault HTTP handlers.
//
// VaultOperationsTotal is a CounterVec with labels {operation, outcome}.
// operation is one of add, list, reveal, update, delete; outcome is "ok" or "error".
//
// Example PromQL queries:
//   - Reveal rate:     rate(vault_operations_total{operation="reveal"}[5m])
//   - Failure ratio:   sum(rate(vault_operations_total{outcome="error"}[5m])) / sum(rate(vault_operations_total[5m]))
//
// GateRejectionsTotal is a CounterVec with label {reason} ("missing_pin",
// "invalid_pin", "not_enrolled").  A spike in invalid_pin on a single account is
// worth alerting on: it looks like someone guessing.
var (
	VaultOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vault_operations_total",
			Help: "Total number of vault operations, by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	GateRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vault_gate_rejections_total",
			Help: "Total number of vault access gate rejections, by reason.",
		},
		[]string{"reason"},
	)
)

// PasswordsGeneratedTotal is a plain Counter (no labels) incremented once per
// successful call to the password generator endpoint.
var PasswordsGeneratedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "passwords_generated_total",
		Help: "Total number of passwords produced by the generator endpoint.",
	},
)

// DBOpenConnections is a Gauge that tracks the number of open connections currently
// held by the sql.DB connection pool.  It is sampled every 30 seconds by
// StartDBStatsCollector rather than per-request to avoid the overhead of sql.DB.Stats().
var DBOpenConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "db_open_connections",
		Help: "Current number of open database connections in the pool.",
	},
)

// StartDBStatsCollector launches a background goroutine that samples sql.DB connection
// pool statistics every 30 seconds and updates the DBOpenConnections gauge.
// The goroutine exits cleanly when the database becomes unreachable (db.Ping fails),
// which happens automatically when the application shuts down and defers db.Close().
//
// Call this once, immediately after db.Connect() succeeds in main.go:
//
//	telemetry.StartDBStatsCollector(database)
func StartDBStatsCollector(db *sql.DB) {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if err := db.Ping(); err != nil {
				slog.Warn("db stats collector: database unreachable, stopping collector", "error", err)
				return
			}
			DBOpenConnections.Set(float64(db.Stats().OpenConnections))
		}
	}()
}
