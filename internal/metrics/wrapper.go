package metrics

// Wrapper adapts Metrics to the narrow sink interface the prediction engine
// consumes, so the engine package does not depend on Prometheus types.
type Wrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *Wrapper {
	return &Wrapper{m: m}
}

func (w *Wrapper) PredictionsInc() {
	if w != nil && w.m != nil {
		w.m.PredictionsTotal.Inc()
	}
}

func (w *Wrapper) FailuresInc() {
	if w != nil && w.m != nil {
		w.m.PredictionFailures.Inc()
	}
}

func (w *Wrapper) LatencyObserve(seconds float64) {
	if w != nil && w.m != nil {
		w.m.PredictionLatency.Observe(seconds)
	}
}

func (w *Wrapper) ScoreObserve(prob float64) {
	if w != nil && w.m != nil {
		w.m.PredictionScores.Observe(prob)
	}
}

func (w *Wrapper) PositiveInc() {
	if w != nil && w.m != nil {
		w.m.PositiveCalls.Inc()
	}
}

func (w *Wrapper) BatchRowsAdd(n int) {
	if w != nil && w.m != nil {
		w.m.BatchRows.Add(float64(n))
	}
}

func (w *Wrapper) ModelAgeSet(seconds float64) {
	if w != nil && w.m != nil {
		w.m.ModelAge.Set(seconds)
	}
}
