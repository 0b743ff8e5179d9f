package database

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/event"
)

// PoolStatsCollector implements prometheus.Collector for MongoDB connection
// pool metrics. It is fed by the driver's pool events via Monitor.
type PoolStatsCollector struct {
	service string

	checkedOut     atomic.Int64
	open           atomic.Int64
	checkOutCount  atomic.Int64
	checkOutFailed atomic.Int64
	created        atomic.Int64
	closed         atomic.Int64

	checkedOutConns *prometheus.Desc
	openConns       *prometheus.Desc
	checkOutTotal   *prometheus.Desc
	checkOutFails   *prometheus.Desc
	createdTotal    *prometheus.Desc
	closedTotal     *prometheus.Desc
}

// NewPoolStatsCollector creates a collector exporting MongoDB pool statistics.
func NewPoolStatsCollector(service string) *PoolStatsCollector {
	labels := []string{"service"}
	return &PoolStatsCollector{
		service: service,
		checkedOutConns: prometheus.NewDesc(
			"db_pool_acquired_connections",
			"Number of connections currently checked out of the pool",
			labels, nil,
		),
		openConns: prometheus.NewDesc(
			"db_pool_total_connections",
			"Number of open connections in the pool",
			labels, nil,
		),
		checkOutTotal: prometheus.NewDesc(
			"db_pool_acquire_count_total",
			"Total number of successful connection checkouts",
			labels, nil,
		),
		checkOutFails: prometheus.NewDesc(
			"db_pool_failed_acquire_count_total",
			"Total number of failed connection checkouts",
			labels, nil,
		),
		createdTotal: prometheus.NewDesc(
			"db_pool_new_connections_total",
			"Total number of connections created",
			labels, nil,
		),
		closedTotal: prometheus.NewDesc(
			"db_pool_closed_connections_total",
			"Total number of connections closed",
			labels, nil,
		),
	}
}

// Monitor returns a driver pool monitor that updates the collector.
func (c *PoolStatsCollector) Monitor() *event.PoolMonitor {
	return &event.PoolMonitor{Event: c.handle}
}

func (c *PoolStatsCollector) handle(evt *event.PoolEvent) {
	switch evt.Type {
	case event.ConnectionCreated:
		c.open.Add(1)
		c.created.Add(1)
	case event.ConnectionClosed:
		c.open.Add(-1)
		c.closed.Add(1)
	case event.GetSucceeded:
		c.checkedOut.Add(1)
		c.checkOutCount.Add(1)
	case event.GetFailed:
		c.checkOutFailed.Add(1)
	case event.ConnectionReturned:
		c.checkedOut.Add(-1)
	}
}

// Describe sends the descriptors of all pool metrics.
func (c *PoolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.checkedOutConns
	ch <- c.openConns
	ch <- c.checkOutTotal
	ch <- c.checkOutFails
	ch <- c.createdTotal
	ch <- c.closedTotal
}

// Collect sends the current pool statistics as Prometheus metrics.
func (c *PoolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.checkedOutConns, prometheus.GaugeValue, float64(c.checkedOut.Load()), c.service)
	ch <- prometheus.MustNewConstMetric(c.openConns, prometheus.GaugeValue, float64(c.open.Load()), c.service)
	ch <- prometheus.MustNewConstMetric(c.checkOutTotal, prometheus.CounterValue, float64(c.checkOutCount.Load()), c.service)
	ch <- prometheus.MustNewConstMetric(c.checkOutFails, prometheus.CounterValue, float64(c.checkOutFailed.Load()), c.service)
	ch <- prometheus.MustNewConstMetric(c.createdTotal, prometheus.CounterValue, float64(c.created.Load()), c.service)
	ch <- prometheus.MustNewConstMetric(c.closedTotal, prometheus.CounterValue, float64(c.closed.Load()), c.service)
}

// RegisterPoolMetrics creates a pool collector, registers it with the default
// Prometheus registry and returns it so its Monitor can be passed to the client.
func RegisterPoolMetrics(service string) *PoolStatsCollector {
	c := NewPoolStatsCollector(service)
	prometheus.MustRegister(c)
	return c
}
