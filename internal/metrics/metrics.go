// Package metrics counts what one session loaded and writes the counters in the
// prometheus text format.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// prometheusNamespace is the prometheus namespace for the metrics.
	prometheusNamespace = "jumbotrace"
	// labelsParsedMetricName counts labels accepted by the parser.
	labelsParsedMetricName = "labels_parsed_total"
	// eventsReconstructedMetricName counts events in reconstructed trees.
	eventsReconstructedMetricName = "events_reconstructed_total"
	// malformedTracesMetricName counts traces rejected as malformed.
	malformedTracesMetricName = "malformed_traces_total"
	// missingNodesMetricName counts node ids without a source format entry.
	missingNodesMetricName = "missing_source_nodes_total"
	// objectsLoadedMetricName counts loaded object snapshots.
	objectsLoadedMetricName = "object_snapshots_loaded"
	// loadDurationMetricName is how long a session load took.
	loadDurationMetricName = "load_duration_seconds"
	// recomputeCountMetricName counts display recomputes.
	recomputeCountMetricName = "recompute_total"
)

// Metrics are the counters of one viewer session.
type Metrics struct {
	LabelsParsed        prometheus.Counter
	EventsReconstructed prometheus.Counter
	MalformedTraces     prometheus.Counter
	MissingNodes        prometheus.Counter
	ObjectsLoaded       prometheus.Gauge
	LoadDuration        prometheus.Histogram
	Recomputes          prometheus.Counter
}

// Register creates the session metrics and registers them with reg.
func Register(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LabelsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: prometheusNamespace,
			Name:      labelsParsedMetricName,
			Help:      "Number of trace labels parsed.",
		}),
		EventsReconstructed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: prometheusNamespace,
			Name:      eventsReconstructedMetricName,
			Help:      "Number of events in reconstructed trees.",
		}),
		MalformedTraces: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: prometheusNamespace,
			Name:      malformedTracesMetricName,
			Help:      "Number of traces rejected as malformed.",
		}),
		MissingNodes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: prometheusNamespace,
			Name:      missingNodesMetricName,
			Help:      "Number of node lookups without source format.",
		}),
		ObjectsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: prometheusNamespace,
			Name:      objectsLoadedMetricName,
			Help:      "Number of object snapshots in the store.",
		}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: prometheusNamespace,
			Name:      loadDurationMetricName,
			Help:      "Time spent loading and reconstructing a trace.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		Recomputes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: prometheusNamespace,
			Name:      recomputeCountMetricName,
			Help:      "Number of display recomputes triggered by toggles.",
		}),
	}

	reg.MustRegister(m.LabelsParsed)
	reg.MustRegister(m.EventsReconstructed)
	reg.MustRegister(m.MalformedTraces)
	reg.MustRegister(m.MissingNodes)
	reg.MustRegister(m.ObjectsLoaded)
	reg.MustRegister(m.LoadDuration)
	reg.MustRegister(m.Recomputes)

	return m
}

// WriteToTextfile writes everything in g to path in the prometheus text format.
// An empty path writes nothing.
func WriteToTextfile(path string, g prometheus.Gatherer) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, g)
}
