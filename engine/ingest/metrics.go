package ingest

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/twarcsql/twarcsql/engine/infra/postgres"
)

// Metrics holds the Prometheus metrics exposed while loading archives.
type Metrics struct {
	filesTotal    *prometheus.CounterVec
	pagesTotal    prometheus.Counter
	parseErrors   prometheus.Counter
	rowsInserted  *prometheus.CounterVec
	flushDuration prometheus.Histogram
	flushRetries  prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics creates a metrics instance backed by its own registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		filesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "twarcsql_files_total",
				Help: "Total number of archive files processed by status",
			},
			[]string{"status"},
		),

		pagesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "twarcsql_pages_total",
				Help: "Total number of API response pages read from archives",
			},
		),

		parseErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "twarcsql_parse_errors_total",
				Help: "Total number of archive lines that failed to parse or normalize",
			},
		),

		rowsInserted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "twarcsql_rows_inserted_total",
				Help: "Total number of rows inserted per table, excluding conflict skips",
			},
			[]string{"table"},
		),

		flushDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "twarcsql_flush_duration_seconds",
				Help:    "Batch flush duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),

		flushRetries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "twarcsql_flush_retries_total",
				Help: "Total number of batch flush retry attempts",
			},
		),

		registry: registry,
	}

	registry.MustRegister(
		m.filesTotal,
		m.pagesTotal,
		m.parseErrors,
		m.rowsInserted,
		m.flushDuration,
		m.flushRetries,
	)

	return m
}

// RecordFile records a processed file by outcome ("loaded" or "failed").
func (m *Metrics) RecordFile(status string) {
	m.filesTotal.WithLabelValues(status).Inc()
}

// RecordPage records one archive page read.
func (m *Metrics) RecordPage() {
	m.pagesTotal.Inc()
}

// RecordParseError records an archive line that failed to parse or normalize.
func (m *Metrics) RecordParseError() {
	m.parseErrors.Inc()
}

// RecordInserted records the per-table insert counts of a flush.
func (m *Metrics) RecordInserted(counts postgres.Counts) {
	for table, n := range counts {
		m.rowsInserted.WithLabelValues(table).Add(float64(n))
	}
}

// ObserveFlush records the duration of a flush.
func (m *Metrics) ObserveFlush(duration time.Duration) {
	m.flushDuration.Observe(duration.Seconds())
}

// RecordFlushRetry records one flush retry attempt.
func (m *Metrics) RecordFlushRetry() {
	m.flushRetries.Inc()
}

// Handler returns an HTTP handler serving the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
