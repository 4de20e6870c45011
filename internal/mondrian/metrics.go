package mondrian

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects Prometheus counters for the partitioning engine. All
// metrics are optional: an Engine with nil Metrics records nothing.
type Metrics struct {
	SplitsAccepted       prometheus.Counter
	SplitsRejected       prometheus.Counter
	PartitionsFinalized  prometheus.Counter
	DimensionsDisallowed prometheus.Counter
	GroupSize            prometheus.Histogram
	PartitionDepth       prometheus.Histogram
}

// NewMetrics creates engine metrics and registers them on the registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		SplitsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "privacy",
			Subsystem: "mondrian",
			Name:      "splits_accepted_total",
			Help:      "Splits accepted because every child kept at least k members",
		}),
		SplitsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "privacy",
			Subsystem: "mondrian",
			Name:      "splits_rejected_total",
			Help:      "Candidate splits rejected for producing a child below k",
		}),
		PartitionsFinalized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "privacy",
			Subsystem: "mondrian",
			Name:      "partitions_finalized_total",
			Help:      "Partitions added to the result set",
		}),
		DimensionsDisallowed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "privacy",
			Subsystem: "mondrian",
			Name:      "dimensions_disallowed_total",
			Help:      "Dimensions marked no longer cuttable on a partition path",
		}),
		GroupSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "privacy",
			Subsystem: "mondrian",
			Name:      "group_size",
			Help:      "Member count of finalized partitions",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		PartitionDepth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "privacy",
			Subsystem: "mondrian",
			Name:      "partition_depth",
			Help:      "Split depth of finalized partitions",
			Buckets:   prometheus.LinearBuckets(0, 1, 20),
		}),
	}

	if registry != nil {
		registry.MustRegister(
			m.SplitsAccepted,
			m.SplitsRejected,
			m.PartitionsFinalized,
			m.DimensionsDisallowed,
			m.GroupSize,
			m.PartitionDepth,
		)
	}
	return m
}
