package ml

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"m6apred/internal/features"
)

// Status labels for the thresholded call.
const (
	StatusNegative = "Negative"
	StatusPositive = "Positive"
)

// DefaultThreshold is the positive-call probability threshold used when the
// caller does not supply one.
const DefaultThreshold = 0.5

// Prediction is one site's augmented output row: the input record, its
// encoded nucleotide columns, and the classifier's call.
type Prediction struct {
	Site      features.Site
	Positions []string
	Prob      float64
	Status    string
}

// Status applies the decision rule: Positive only when prob strictly exceeds
// threshold, so a probability exactly at the threshold is Negative.
func Status(prob, threshold float64) string {
	if prob > threshold {
		return StatusPositive
	}
	return StatusNegative
}

// Engine predicts m6A status for candidate sites against an injected,
// read-only classifier.
type Engine struct {
	clf     Classifier
	schema  features.Schema
	metrics MetricsSink
}

// NewEngine wires a classifier to a feature schema. The schema's vector
// width must match what the classifier was trained on.
func NewEngine(clf Classifier, schema features.Schema, metrics MetricsSink) (*Engine, error) {
	if clf == nil {
		return nil, fmt.Errorf("classifier is required")
	}
	if got, want := clf.NumFeatures(), schema.Width(); got != want {
		return nil, fmt.Errorf("classifier expects %d features, schema produces %d", got, want)
	}
	return &Engine{clf: clf, schema: schema, metrics: metrics}, nil
}

// PredictBatch runs the full pipeline over sites: encode nucleotide contexts,
// assemble fixed-domain feature vectors, obtain Positive-class probabilities,
// and derive status labels. The returned slice preserves input row order and
// count. Any invalid row fails the whole call; classifier errors propagate
// unmodified.
func (e *Engine) PredictBatch(sites []features.Site, threshold float64) ([]Prediction, error) {
	start := time.Now()
	defer func() {
		if e.metrics != nil {
			e.metrics.LatencyObserve(time.Since(start).Seconds())
		}
	}()

	if len(sites) == 0 {
		return nil, fmt.Errorf("batch is empty")
	}
	if threshold < 0 || threshold > 1 {
		log.Warn().Float64("threshold", threshold).Msg("positive threshold outside [0,1]")
	}

	kmers := make([]string, len(sites))
	for i, s := range sites {
		kmers[i] = s.Kmer
	}
	positions, err := features.EncodeKmers(kmers)
	if err != nil {
		return nil, err
	}
	if got := len(positions[0]); got != e.schema.KmerLen() {
		return nil, &features.ShapeMismatchError{Want: e.schema.KmerLen(), Got: got, Row: 0, Kmer: kmers[0]}
	}

	rows := make([][]float64, len(sites))
	for i, s := range sites {
		v, err := e.schema.Vector(s, positions[i])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		rows[i] = v
	}

	probs, err := e.clf.PredictProba(rows)
	if err != nil {
		if e.metrics != nil {
			e.metrics.FailuresInc()
		}
		return nil, err
	}
	if len(probs) != len(sites) {
		if e.metrics != nil {
			e.metrics.FailuresInc()
		}
		return nil, fmt.Errorf("classifier returned %d probabilities for %d rows", len(probs), len(sites))
	}

	preds := make([]Prediction, len(sites))
	for i, s := range sites {
		status := Status(probs[i], threshold)
		preds[i] = Prediction{Site: s, Positions: positions[i], Prob: probs[i], Status: status}
		if e.metrics != nil {
			e.metrics.PredictionsInc()
			e.metrics.ScoreObserve(probs[i])
			if status == StatusPositive {
				e.metrics.PositiveInc()
			}
		}
	}
	if e.metrics != nil {
		e.metrics.BatchRowsAdd(len(sites))
	}
	return preds, nil
}

// PredictSingle scores one site by delegating to PredictBatch with a one-row
// batch, so the two entry points cannot diverge in semantics.
func (e *Engine) PredictSingle(gcContent float64, rnaType, rnaRegion string,
	exonLength, distanceToJunction, conservation float64, kmer string,
	threshold float64,
) (prob float64, status string, err error) {
	site := features.Site{
		GCContent:          gcContent,
		RNAType:            rnaType,
		RNARegion:          rnaRegion,
		ExonLength:         exonLength,
		DistanceToJunction: distanceToJunction,
		Conservation:       conservation,
		Kmer:               kmer,
	}
	preds, err := e.PredictBatch([]features.Site{site}, threshold)
	if err != nil {
		return 0, "", err
	}
	return preds[0].Prob, preds[0].Status, nil
}
