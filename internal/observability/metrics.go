// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Market data metrics
	FetchLatency *prometheus.HistogramVec
	FetchErrors  *prometheus.CounterVec

	// Query cache metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec

	// Refresh metrics
	RefreshRunsTotal *prometheus.CounterVec
	RefreshDuration  prometheus.Histogram
	CategorySize     *prometheus.GaugeVec

	// Live update metrics
	WSClients      prometheus.Gauge
	WSMessagesSent prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRefresh prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered on reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "markets_lab"
	}
	factory := promauto.With(reg)

	return &Metrics{
		FetchLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "marketdata",
			Name:      "fetch_latency_seconds",
			Help:      "Market data HTTP call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider", "endpoint"}),
		FetchErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "marketdata",
			Name:      "fetch_errors_total",
			Help:      "Total number of failed market data calls",
		}, []string{"provider", "endpoint"}),

		CacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "cache_hits_total",
			Help:      "Query cache hits by key",
		}, []string{"key"}),
		CacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "cache_misses_total",
			Help:      "Query cache misses by key",
		}, []string{"key"}),

		RefreshRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "runs_total",
			Help:      "Total number of refresh runs by status",
		}, []string{"status"}),
		RefreshDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "duration_seconds",
			Help:      "Refresh run duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		CategorySize: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "category_size",
			Help:      "Number of ranked ids in the latest category listing",
		}, []string{"category"}),

		WSClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "clients",
			Help:      "Currently connected websocket clients",
		}),
		WSMessagesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "messages_sent_total",
			Help:      "Total number of websocket messages sent",
		}),

		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		LastSuccessfulRefresh: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_refresh_timestamp",
			Help:      "Unix timestamp of last successful refresh",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", prometheus.DefaultRegisterer)

// RecordFetch records a market data call.
func RecordFetch(provider, endpoint string, seconds float64, err error) {
	DefaultMetrics.FetchLatency.WithLabelValues(provider, endpoint).Observe(seconds)
	if err != nil {
		DefaultMetrics.FetchErrors.WithLabelValues(provider, endpoint).Inc()
	}
}

// RecordCacheHit increments the cache hit counter for key.
func RecordCacheHit(key string) {
	DefaultMetrics.CacheHits.WithLabelValues(key).Inc()
}

// RecordCacheMiss increments the cache miss counter for key.
func RecordCacheMiss(key string) {
	DefaultMetrics.CacheMisses.WithLabelValues(key).Inc()
}

// RecordRefreshRun records a refresh run.
func RecordRefreshRun(status string, durationSeconds float64) {
	DefaultMetrics.RefreshRunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.RefreshDuration.Observe(durationSeconds)
}

// UpdateCategorySize sets the ranked id count of a category.
func UpdateCategorySize(category string, size int) {
	DefaultMetrics.CategorySize.WithLabelValues(category).Set(float64(size))
}

// UpdateLastRefresh sets the last successful refresh timestamp.
func UpdateLastRefresh(unixSeconds int64) {
	DefaultMetrics.LastSuccessfulRefresh.Set(float64(unixSeconds))
}

// UpdateWSClients sets the connected websocket client gauge.
func UpdateWSClients(n int) {
	DefaultMetrics.WSClients.Set(float64(n))
}

// RecordWSMessage increments the websocket messages sent counter.
func RecordWSMessage() {
	DefaultMetrics.WSMessagesSent.Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
