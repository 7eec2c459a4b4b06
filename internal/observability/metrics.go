// Package observability provides Prometheus metrics and OpenTelemetry tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamerate_redis_error_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records catalog database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gamerate_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// CatalogLoads counts remote catalog load attempts by outcome.
	CatalogLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamerate_catalog_loads_total",
		Help: "Total number of remote catalog load attempts by outcome",
	}, []string{"outcome"})

	// CatalogGames is the number of games currently held in the catalog.
	CatalogGames = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gamerate_catalog_games",
		Help: "Number of games currently held in the normalized catalog",
	})

	// RateLimitRejections counts requests rejected by the rate limiter.
	RateLimitRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamerate_rate_limit_rejections_total",
		Help: "Total number of requests rejected by the rate limiter, by resource",
	}, []string{"resource"})

	// RegistryEvents counts registry mutations by event type.
	RegistryEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamerate_registry_events_total",
		Help: "Total number of registry events published on the bus",
	}, []string{"event"})
)

// DatabaseMetrics wraps DB access for recording query latency.
type DatabaseMetrics struct {
	db *gorm.DB
}

// NewDatabaseMetrics returns a new DatabaseMetrics instance.
func NewDatabaseMetrics(db *gorm.DB) *DatabaseMetrics {
	return &DatabaseMetrics{db: db}
}

// ObserveQuery records the latency of a database query.
func (m *DatabaseMetrics) ObserveQuery(operation, table string, start time.Time) {
	latency := time.Since(start).Seconds()
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(latency)
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func (m *DatabaseMetrics) TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		m.ObserveQuery(operation, table, start)
	}
}
