// Package telemetry provides application-level observability for Eventlane.
//
// All metrics are registered against the default Prometheus registry and are
// served on the side-channel HTTP server started by main.go:
//
//	GET http(s)://<host>:<EVO_TELEMETRY_METRICS_PROMETHEUS_PORT>/metrics
//
// Default port: 9090. The endpoint is NOT served by the Gin router so it stays
// off the public ingress and outside the rate-limiting middleware.
//
// HTTP metrics use c.FullPath() (route template such as /api/v1/events/:id)
// rather than the raw request URL to prevent unbounded label cardinality from
// user-supplied path segments.
package telemetry

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics — labelled by method, route template, and status code.
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

// Audit metrics.
//
// AuditEntriesTotal is a CounterVec with labels {status} (success/failure/blocked)
// incremented once per audit log row successfully written.
// AuditWriteErrorsTotal counts failed audit DB writes; audit writes are
// best-effort, so this counter is the only signal that the trail is
// under-reporting. Alert on any sustained increase.
// AuditRetentionDeletedTotal counts rows removed by the retention sweep.
var (
	AuditEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_entries_total",
			Help: "Total number of audit log entries written, by entry status.",
		},
		[]string{"status"},
	)

	AuditWriteErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_write_errors_total",
			Help: "Total number of audit log entries that failed to persist.",
		},
	)

	AuditRetentionDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_retention_deleted_total",
			Help: "Total number of audit log entries removed by the retention sweep.",
		},
	)
)

// RateLimitTripsTotal is a CounterVec with label {scope} ("api" or "auth")
// incremented whenever a request is rejected with 429.
var RateLimitTripsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "rate_limit_trips_total",
		Help: "Total number of requests rejected by the rate limiter, by limiter scope.",
	},
	[]string{"scope"},
)

// TicketsSoldTotal is a CounterVec with label {event_id} incremented by the
// number of tickets in each successful purchase.
var TicketsSoldTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tickets_sold_total",
		Help: "Total number of tickets sold, by event.",
	},
	[]string{"event_id"},
)

// DBOpenConnections is a Gauge that tracks the number of open connections currently
// held by the sql.DB connection pool. It is sampled every 30 seconds by
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
