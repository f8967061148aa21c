// Package ml runs m6A status prediction: it assembles validated feature
// vectors for candidate sites, obtains Positive-class probabilities from a
// trained classifier, and derives categorical calls with a per-call
// probability threshold.
//
// The classifier itself is an externally trained, externally persisted
// artifact. The engine only reads it, so one loaded classifier may serve
// concurrent calls.
package ml

// Classifier is the capability the prediction engine requires from a trained
// model: class-probability inference over numeric feature vectors.
type Classifier interface {
	// PredictProba returns the probability mass of the Positive class for
	// each input row.
	PredictProba(rows [][]float64) ([]float64, error)

	// NumFeatures reports the feature-vector width the model was trained on.
	NumFeatures() int
}

// MetricsSink receives prediction telemetry from the engine. A nil sink
// disables tracking.
type MetricsSink interface {
	PredictionsInc()
	FailuresInc()
	LatencyObserve(float64)
	ScoreObserve(float64)
	PositiveInc()
	BatchRowsAdd(int)
}
