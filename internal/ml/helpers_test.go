package ml

import (
	"fmt"
	"sync"
)

// stubClassifier returns canned probabilities keyed by row index, modulo the
// number of canned values. A non-nil err is returned from every call.
type stubClassifier struct {
	numFeatures int
	probs       []float64
	err         error
}

func (s *stubClassifier) NumFeatures() int { return s.numFeatures }

func (s *stubClassifier) PredictProba(rows [][]float64) ([]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]float64, len(rows))
	for i, row := range rows {
		if len(row) != s.numFeatures {
			return nil, fmt.Errorf("row %d has %d features, expected %d", i, len(row), s.numFeatures)
		}
		out[i] = s.probs[i%len(s.probs)]
	}
	return out, nil
}

type mockMetrics struct {
	mu          sync.Mutex
	predictions int
	failures    int
	positives   int
	batchRows   int
	latencySum  float64
	scores      []float64
}

func (m *mockMetrics) PredictionsInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions++
}

func (m *mockMetrics) FailuresInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
}

func (m *mockMetrics) LatencyObserve(s float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencySum += s
}

func (m *mockMetrics) ScoreObserve(p float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores = append(m.scores, p)
}

func (m *mockMetrics) PositiveInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positives++
}

func (m *mockMetrics) BatchRowsAdd(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchRows += n
}
