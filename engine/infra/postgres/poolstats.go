package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolStatsCollector exposes pgxpool statistics as Prometheus metrics.
// Register it on the registry serving a load so pool saturation is
// visible next to the ingest counters.
type PoolStatsCollector struct {
	pool *pgxpool.Pool

	acquiredConns   *prometheus.Desc
	idleConns       *prometheus.Desc
	totalConns      *prometheus.Desc
	maxConns        *prometheus.Desc
	acquireCount    *prometheus.Desc
	emptyAcquires   *prometheus.Desc
	canceledAcquire *prometheus.Desc
}

func NewPoolStatsCollector(pool *pgxpool.Pool) *PoolStatsCollector {
	return &PoolStatsCollector{
		pool: pool,
		acquiredConns: prometheus.NewDesc(
			"twarcsql_pool_acquired_conns",
			"Number of connections currently acquired from the pool",
			nil, nil),
		idleConns: prometheus.NewDesc(
			"twarcsql_pool_idle_conns",
			"Number of idle connections in the pool",
			nil, nil),
		totalConns: prometheus.NewDesc(
			"twarcsql_pool_total_conns",
			"Total number of connections in the pool",
			nil, nil),
		maxConns: prometheus.NewDesc(
			"twarcsql_pool_max_conns",
			"Configured maximum size of the pool",
			nil, nil),
		acquireCount: prometheus.NewDesc(
			"twarcsql_pool_acquires_total",
			"Cumulative number of successful connection acquires",
			nil, nil),
		emptyAcquires: prometheus.NewDesc(
			"twarcsql_pool_empty_acquires_total",
			"Cumulative number of acquires that waited for a connection",
			nil, nil),
		canceledAcquire: prometheus.NewDesc(
			"twarcsql_pool_canceled_acquires_total",
			"Cumulative number of acquires canceled by their context",
			nil, nil),
	}
}

func (c *PoolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.acquiredConns
	ch <- c.idleConns
	ch <- c.totalConns
	ch <- c.maxConns
	ch <- c.acquireCount
	ch <- c.emptyAcquires
	ch <- c.canceledAcquire
}

func (c *PoolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	stat := c.pool.Stat()
	ch <- prometheus.MustNewConstMetric(c.acquiredConns, prometheus.GaugeValue, float64(stat.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(c.idleConns, prometheus.GaugeValue, float64(stat.IdleConns()))
	ch <- prometheus.MustNewConstMetric(c.totalConns, prometheus.GaugeValue, float64(stat.TotalConns()))
	ch <- prometheus.MustNewConstMetric(c.maxConns, prometheus.GaugeValue, float64(stat.MaxConns()))
	ch <- prometheus.MustNewConstMetric(c.acquireCount, prometheus.CounterValue, float64(stat.AcquireCount()))
	ch <- prometheus.MustNewConstMetric(c.emptyAcquires, prometheus.CounterValue, float64(stat.EmptyAcquireCount()))
	ch <- prometheus.MustNewConstMetric(c.canceledAcquire, prometheus.CounterValue, float64(stat.CanceledAcquireCount()))
}
