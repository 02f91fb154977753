package consumer

import "github.com/prometheus/client_golang/prometheus"

// Metrics is the set of Prometheus collectors a Consumer updates as it
// writes batches; callers register it once against their own registry.
type Metrics struct {
	RowsWritten   *prometheus.CounterVec
	BytesMoved    *prometheus.CounterVec
	BatchesFailed *prometheus.CounterVec
	WriteLatency  *prometheus.HistogramVec
}

// NewMetrics builds a Metrics set labelled by destination table.
func NewMetrics() *Metrics {
	return &Metrics{
		RowsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dataflux",
			Subsystem: "consumer",
			Name:      "rows_written_total",
			Help:      "Rows successfully written to the destination.",
		}, []string{"table"}),
		BytesMoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dataflux",
			Subsystem: "consumer",
			Name:      "bytes_moved_total",
			Help:      "Bytes moved to the destination, where the sink reports it.",
		}, []string{"table"}),
		BatchesFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dataflux",
			Subsystem: "consumer",
			Name:      "batches_failed_total",
			Help:      "Batches that failed to write and were not retried successfully.",
		}, []string{"table"}),
		WriteLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dataflux",
			Subsystem: "consumer",
			Name:      "write_latency_seconds",
			Help:      "Time spent writing one batch to the destination.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"table"}),
	}
}

// MustRegister registers every collector in m against reg.
func (m *Metrics) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(m.RowsWritten, m.BytesMoved, m.BatchesFailed, m.WriteLatency)
}
