// Package metrics exports a task graph's observable state as
// Prometheus gauges: live node count, live edge count, capacity, and the
// depth of the finished-task channel waiting on the cleanup worker.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Source is polled by a Collector to produce the current gauge values. The
// taskgraph package's TaskGraph implements it directly.
type Source interface {
	NumNodes() int
	NumEdges() int
	Capacity() int
	FinishedQueueLen() int
}

// Collector is a prometheus.Collector that reports one TaskGraph's
// observable state on every scrape, rather than maintaining its own
// counters: the graph is already the source of truth for these values, so
// duplicating them into separately-updated gauges would only invite drift.
type Collector struct {
	source Source

	numNodes      *prometheus.Desc
	numEdges      *prometheus.Desc
	capacity      *prometheus.Desc
	finishedQueue *prometheus.Desc
}

// NewCollector builds a Collector for source, labeled with graphID so
// multiple graphs in one process can be told apart on scrape.
func NewCollector(graphID string, source Source) *Collector {
	labels := prometheus.Labels{"graph_id": graphID}
	return &Collector{
		source: source,
		numNodes: prometheus.NewDesc(
			"taskgraph_nodes",
			"Number of live nodes currently held in the DAG.",
			nil, labels,
		),
		numEdges: prometheus.NewDesc(
			"taskgraph_edges",
			"Number of live edges currently held in the DAG.",
			nil, labels,
		),
		capacity: prometheus.NewDesc(
			"taskgraph_capacity",
			"Current maximum number of nodes the DAG will hold before Insert blocks.",
			nil, labels,
		),
		finishedQueue: prometheus.NewDesc(
			"taskgraph_finished_queue_length",
			"Number of finished tasks waiting for the cleanup worker to remove them.",
			nil, labels,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.numNodes
	ch <- c.numEdges
	ch <- c.capacity
	ch <- c.finishedQueue
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.numNodes, prometheus.GaugeValue, float64(c.source.NumNodes()))
	ch <- prometheus.MustNewConstMetric(c.numEdges, prometheus.GaugeValue, float64(c.source.NumEdges()))
	ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(c.source.Capacity()))
	ch <- prometheus.MustNewConstMetric(c.finishedQueue, prometheus.GaugeValue, float64(c.source.FinishedQueueLen()))
}

// Register registers source's collector with reg under graphID. If reg is
// nil, the default Prometheus registry is used.
func Register(reg prometheus.Registerer, graphID string, source Source) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return reg.Register(NewCollector(graphID, source))
}
