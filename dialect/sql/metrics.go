package sql

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector exports QueryStats as Prometheus metrics.
type Collector struct {
	stats *QueryStats

	queries  *prometheus.Desc
	execs    *prometheus.Desc
	rows     *prometheus.Desc
	duration *prometheus.Desc
	slow     *prometheus.Desc
	errors   *prometheus.Desc
}

// NewCollector returns a prometheus.Collector reading from the given statistics.
//
//	drv := sql.NewStatsDriver(base)
//	prometheus.MustRegister(sql.NewCollector(drv.QueryStats()))
func NewCollector(stats *QueryStats, labels ...string) *Collector {
	constLabels := prometheus.Labels{}
	for i := 0; i+1 < len(labels); i += 2 {
		constLabels[labels[i]] = labels[i+1]
	}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName("sqlbatch", "driver", name), help, nil, constLabels)
	}
	return &Collector{
		stats:    stats,
		queries:  desc("queries_total", "Number of queries executed."),
		execs:    desc("execs_total", "Number of statements executed."),
		rows:     desc("rows_affected_total", "Number of rows changed by executed statements."),
		duration: desc("duration_seconds_total", "Time spent executing queries and statements."),
		slow:     desc("slow_queries_total", "Number of queries exceeding the slow threshold."),
		errors:   desc("errors_total", "Number of failed queries and statements."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.queries
	ch <- c.execs
	ch <- c.rows
	ch <- c.duration
	ch <- c.slow
	ch <- c.errors
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats.Stats()
	ch <- prometheus.MustNewConstMetric(c.queries, prometheus.CounterValue, float64(s.TotalQueries))
	ch <- prometheus.MustNewConstMetric(c.execs, prometheus.CounterValue, float64(s.TotalExecs))
	ch <- prometheus.MustNewConstMetric(c.rows, prometheus.CounterValue, float64(s.RowsAffected))
	ch <- prometheus.MustNewConstMetric(c.duration, prometheus.CounterValue, s.TotalDuration.Seconds())
	ch <- prometheus.MustNewConstMetric(c.slow, prometheus.CounterValue, float64(s.SlowQueries))
	ch <- prometheus.MustNewConstMetric(c.errors, prometheus.CounterValue, float64(s.Errors))
}

var _ prometheus.Collector = (*Collector)(nil)
