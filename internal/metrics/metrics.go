// Package metrics owns the Prometheus collectors of the service. Every
// Observe/Inc helper is a no-op until Init has run, so packages can call
// them unconditionally from tests.
package metrics

import (
	"database/sql"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricPrefix = "salarydash_"

	ResultSuccess = "success"
	ResultError   = "error"
	ResultInvalid = "invalid"
)

var (
	registerOnce sync.Once
	dbOnce       sync.Once

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	aggregationTotal   *prometheus.CounterVec
	aggregationLatency *prometheus.HistogramVec

	recordsStored   *prometheus.CounterVec
	eventsPublished *prometheus.CounterVec
	ledgerSync      *prometheus.CounterVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec

	cacheLookups *prometheus.CounterVec
)

// Init registers the collectors with the default registry.
func Init() {
	registerOnce.Do(func() {
		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by method, route and status code",
			},
			[]string{"method", "route", "status"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		)

		aggregationTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "aggregation_total",
				Help: "Total dashboard aggregations by operation and result",
			},
			[]string{"operation", "result"},
		)
		aggregationLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "aggregation_latency_seconds",
				Help:    "Dashboard aggregation latency in seconds, store fetch included",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "result"},
		)

		recordsStored = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "records_stored_total",
				Help: "Total earning and expense records written",
			},
			[]string{"kind"},
		)
		eventsPublished = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "events_published_total",
				Help: "Total record events published by kind and result",
			},
			[]string{"kind", "result"},
		)
		ledgerSync = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ledger_sync_total",
				Help: "Total ledger rows synced by result",
			},
			[]string{"result"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total summary exports by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Summary export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		cacheLookups = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "cache_lookups_total",
				Help: "Total cache lookups by cache and result",
			},
			[]string{"cache", "result"},
		)

		prometheus.MustRegister(
			httpRequests,
			httpLatency,
			aggregationTotal,
			aggregationLatency,
			recordsStored,
			eventsPublished,
			ledgerSync,
			exportTotal,
			exportLatency,
			cacheLookups,
		)
	})
}

// RegisterDBStats exposes connection pool statistics of db.
func RegisterDBStats(db *sql.DB) {
	if db == nil {
		return
	}
	dbOnce.Do(func() {
		prometheus.MustRegister(collectors.NewDBStatsCollector(db, "salarydash"))
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func resultOf(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}

// ObserveHTTP records one served request.
func ObserveHTTP(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	if httpRequests != nil {
		httpRequests.WithLabelValues(method, route, statusClass(status)).Inc()
	}
	if httpLatency != nil {
		httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
	}
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

// ObserveAggregation records a summary or chart computation.
func ObserveAggregation(operation, result string, duration time.Duration) {
	if result == "" {
		result = ResultSuccess
	}
	if aggregationTotal != nil {
		aggregationTotal.WithLabelValues(operation, result).Inc()
	}
	if aggregationLatency != nil {
		aggregationLatency.WithLabelValues(operation, result).Observe(duration.Seconds())
	}
}

// AddRecordsStored counts written records of kind.
func AddRecordsStored(kind string, n int) {
	if n <= 0 || recordsStored == nil {
		return
	}
	recordsStored.WithLabelValues(kind).Add(float64(n))
}

// IncEventPublished counts a publish attempt.
func IncEventPublished(kind string, err error) {
	if eventsPublished != nil {
		eventsPublished.WithLabelValues(kind, resultOf(err)).Inc()
	}
}

// IncLedgerSync counts a processed ledger event.
func IncLedgerSync(err error) {
	if ledgerSync != nil {
		ledgerSync.WithLabelValues(resultOf(err)).Inc()
	}
}

// ObserveExport records export latency and result.
func ObserveExport(format string, err error, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	result := resultOf(err)
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// CacheLookup returns a callback counting hits and misses of cache.
func CacheLookup(cache string) func(hit bool) {
	return func(hit bool) {
		if cacheLookups == nil {
			return
		}
		result := "miss"
		if hit {
			result = "hit"
		}
		cacheLookups.WithLabelValues(cache, result).Inc()
	}
}
