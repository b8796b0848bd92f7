// Package metrics provides Prometheus metrics for the HFO classification
// pipeline: event counts by outcome, the score distribution, run latency,
// and model age. Metrics are exposed on an optional HTTP endpoint when the
// CLI is configured with a metrics port.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for a classification run.
type Metrics struct {
	EventsClassified  prometheus.Counter   // Total events scored
	HFOsDetected      prometheus.Counter   // Events labeled as true HFOs
	ArtifactsFound    prometheus.Counter   // Events labeled as artifacts
	NaNEvents         prometheus.Counter   // Events with undefined outcome
	BadChanEvents     prometheus.Counter   // Events masked by a bad channel
	LoadErrors        prometheus.Counter   // Input validation failures
	ClassifyDuration  prometheus.Histogram // End-to-end run duration in seconds
	ScoreDistribution prometheus.Histogram // Distribution of HFO probabilities
	ModelAge          prometheus.Gauge     // Age of the model file in seconds
}

// New creates and registers all metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry, used by tests to
// avoid duplicate registration in the global registry.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		EventsClassified: factory.NewCounter(prometheus.CounterOpts{
			Name: "hfo_events_classified_total",
			Help: "Total number of events scored by the classifier",
		}),
		HFOsDetected: factory.NewCounter(prometheus.CounterOpts{
			Name: "hfo_events_positive_total",
			Help: "Total number of events labeled as true HFOs",
		}),
		ArtifactsFound: factory.NewCounter(prometheus.CounterOpts{
			Name: "hfo_events_artifact_total",
			Help: "Total number of events labeled as artifacts",
		}),
		NaNEvents: factory.NewCounter(prometheus.CounterOpts{
			Name: "hfo_events_nan_total",
			Help: "Total number of events with an undefined outcome",
		}),
		BadChanEvents: factory.NewCounter(prometheus.CounterOpts{
			Name: "hfo_events_bad_channel_total",
			Help: "Total number of events masked out by a bad channel",
		}),
		LoadErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "hfo_load_errors_total",
			Help: "Total number of input validation failures",
		}),
		ClassifyDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "hfo_classify_duration_seconds",
			Help:    "End-to-end classification run duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		}),
		ScoreDistribution: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "hfo_prediction_scores",
			Help:    "Distribution of predicted HFO probabilities",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		ModelAge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "hfo_model_age_seconds",
			Help: "Age of the loaded model file in seconds",
		}),
	}
}
