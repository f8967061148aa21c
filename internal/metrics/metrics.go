// Package metrics provides Prometheus metrics for the m6A prediction
// pipeline: prediction volume, failures, latency, score distribution, and
// model age, exposed via the Prometheus metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the predictor.
type Metrics struct {
	PredictionsTotal   prometheus.Counter   // Total number of site predictions made
	PredictionFailures prometheus.Counter   // Total number of failed prediction calls
	PositiveCalls      prometheus.Counter   // Total number of sites called Positive
	BatchRows          prometheus.Counter   // Total number of rows submitted in batch calls
	PredictionLatency  prometheus.Histogram // End-to-end batch prediction latency in seconds
	PredictionScores   prometheus.Histogram // Distribution of Positive-class probabilities
	ModelAge           prometheus.Gauge     // Age of the loaded model artifact in seconds
}

// New creates and registers all metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		PredictionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "m6a_predictions_total",
			Help: "Total number of site predictions made",
		}),
		PredictionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "m6a_prediction_failures_total",
			Help: "Total number of failed prediction calls",
		}),
		PositiveCalls: factory.NewCounter(prometheus.CounterOpts{
			Name: "m6a_positive_calls_total",
			Help: "Total number of sites called Positive",
		}),
		BatchRows: factory.NewCounter(prometheus.CounterOpts{
			Name: "m6a_batch_rows_total",
			Help: "Total number of rows submitted in batch calls",
		}),
		PredictionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "m6a_prediction_latency_seconds",
			Help:    "End-to-end batch prediction latency in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		}),
		PredictionScores: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "m6a_prediction_scores",
			Help:    "Distribution of Positive-class probabilities",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		ModelAge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "m6a_model_age_seconds",
			Help: "Age of the loaded model artifact in seconds",
		}),
	}
}
