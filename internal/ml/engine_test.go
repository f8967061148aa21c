package ml

import (
	"errors"
	"fmt"
	"testing"

	"m6apred/internal/features"
)

func testSchema(t *testing.T) features.Schema {
	t.Helper()
	s, err := features.NewSchema(5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return s
}

func testSite(kmer string) features.Site {
	return features.Site{
		GCContent:          0.5,
		RNAType:            "mRNA",
		RNARegion:          "CDS",
		ExonLength:         10,
		DistanceToJunction: 8,
		Conservation:       0.5,
		Kmer:               kmer,
	}
}

func TestStatus_ThresholdRule(t *testing.T) {
	testCases := []struct {
		name      string
		prob      float64
		threshold float64
		expected  string
	}{
		{"above threshold", 0.94, 0.5, StatusPositive},
		{"below threshold", 0.2, 0.5, StatusNegative},
		{"exactly at threshold", 0.5, 0.5, StatusNegative},
		{"zero prob zero threshold", 0.0, 0.0, StatusNegative},
		{"just above", 0.5000001, 0.5, StatusPositive},
		{"threshold above one", 0.99, 1.5, StatusNegative},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Status(tc.prob, tc.threshold); got != tc.expected {
				t.Errorf("Status(%v, %v) = %s, expected %s", tc.prob, tc.threshold, got, tc.expected)
			}
		})
	}
}

func TestNewEngine_WidthMismatch(t *testing.T) {
	schema := testSchema(t)
	_, err := NewEngine(&stubClassifier{numFeatures: 7, probs: []float64{0.5}}, schema, nil)
	if err == nil {
		t.Fatal("expected error for feature width mismatch")
	}
}

func TestPredictBatch_PreservesRowOrderAndCount(t *testing.T) {
	schema := testSchema(t)
	clf := &stubClassifier{numFeatures: schema.Width(), probs: []float64{0.1, 0.9, 0.4}}
	engine, err := NewEngine(clf, schema, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sites := []features.Site{testSite("GGACA"), testSite("TGACC"), testSite("AAACA")}
	preds, err := engine.PredictBatch(sites, DefaultThreshold)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(preds) != len(sites) {
		t.Fatalf("expected %d predictions, got %d", len(sites), len(preds))
	}
	for i, p := range preds {
		if p.Site.Kmer != sites[i].Kmer {
			t.Errorf("row %d: expected k-mer %s, got %s", i, sites[i].Kmer, p.Site.Kmer)
		}
	}
	if preds[0].Status != StatusNegative || preds[1].Status != StatusPositive || preds[2].Status != StatusNegative {
		t.Errorf("unexpected statuses: %s %s %s", preds[0].Status, preds[1].Status, preds[2].Status)
	}
}

func TestPredictBatch_AppendsPositionColumns(t *testing.T) {
	schema := testSchema(t)
	clf := &stubClassifier{numFeatures: schema.Width(), probs: []float64{0.5}}
	engine, _ := NewEngine(clf, schema, nil)

	preds, err := engine.PredictBatch([]features.Site{testSite("GGACC")}, DefaultThreshold)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []string{"G", "G", "A", "C", "C"}
	for i, nt := range expected {
		if preds[0].Positions[i] != nt {
			t.Errorf("nt_pos%d: expected %s, got %s", i+1, nt, preds[0].Positions[i])
		}
	}
}

func TestPredictBatch_ThresholdMonotonicity(t *testing.T) {
	schema := testSchema(t)
	clf := &stubClassifier{numFeatures: schema.Width(), probs: []float64{0.55, 0.95, 0.3, 0.85, 0.6}}
	engine, _ := NewEngine(clf, schema, nil)

	sites := make([]features.Site, 5)
	for i := range sites {
		sites[i] = testSite("GGACA")
	}

	countPositives := func(threshold float64) int {
		preds, err := engine.PredictBatch(sites, threshold)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		n := 0
		for _, p := range preds {
			if p.Status == StatusPositive {
				n++
			}
		}
		return n
	}

	low, high := countPositives(0.5), countPositives(0.9)
	if high > low {
		t.Errorf("raising threshold increased positives: %d at 0.5, %d at 0.9", low, high)
	}
	if low != 4 || high != 1 {
		t.Errorf("expected 4 and 1 positives, got %d and %d", low, high)
	}
}

func TestPredictSingle_MatchesBatch(t *testing.T) {
	schema := testSchema(t)
	clf := &stubClassifier{numFeatures: schema.Width(), probs: []float64{0.77}}
	engine, _ := NewEngine(clf, schema, nil)

	site := testSite("GGACA")
	prob, status, err := engine.PredictSingle(
		site.GCContent, site.RNAType, site.RNARegion,
		site.ExonLength, site.DistanceToJunction, site.Conservation,
		site.Kmer, DefaultThreshold,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	preds, err := engine.PredictBatch([]features.Site{site}, DefaultThreshold)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if prob != preds[0].Prob || status != preds[0].Status {
		t.Errorf("single (%v, %s) diverges from batch (%v, %s)",
			prob, status, preds[0].Prob, preds[0].Status)
	}
	if status != StatusPositive {
		t.Errorf("expected Positive at prob 0.77, got %s", status)
	}
}

func TestPredictBatch_InvalidBatches(t *testing.T) {
	schema := testSchema(t)
	clf := &stubClassifier{numFeatures: schema.Width(), probs: []float64{0.5}}
	engine, _ := NewEngine(clf, schema, nil)

	t.Run("empty batch", func(t *testing.T) {
		if _, err := engine.PredictBatch(nil, DefaultThreshold); err == nil {
			t.Error("expected error for empty batch")
		}
	})

	t.Run("mixed k-mer lengths", func(t *testing.T) {
		sites := []features.Site{testSite("GGACA"), testSite("GGACAA")}
		_, err := engine.PredictBatch(sites, DefaultThreshold)
		var shape *features.ShapeMismatchError
		if !errors.As(err, &shape) {
			t.Fatalf("expected ShapeMismatchError, got %T: %v", err, err)
		}
	})

	t.Run("k-mer length disagrees with schema", func(t *testing.T) {
		sites := []features.Site{testSite("GGA"), testSite("TGA")}
		_, err := engine.PredictBatch(sites, DefaultThreshold)
		var shape *features.ShapeMismatchError
		if !errors.As(err, &shape) {
			t.Fatalf("expected ShapeMismatchError, got %T: %v", err, err)
		}
	})

	t.Run("unseen RNA type", func(t *testing.T) {
		site := testSite("GGACA")
		site.RNAType = "snoRNA"
		_, err := engine.PredictBatch([]features.Site{site}, DefaultThreshold)
		var unseen *features.UnseenCategoryError
		if !errors.As(err, &unseen) {
			t.Fatalf("expected UnseenCategoryError, got %T: %v", err, err)
		}
	})
}

func TestPredictBatch_ClassifierErrorPropagates(t *testing.T) {
	schema := testSchema(t)
	clfErr := fmt.Errorf("inference backend unavailable")
	clf := &stubClassifier{numFeatures: schema.Width(), err: clfErr}
	metrics := &mockMetrics{}
	engine, _ := NewEngine(clf, schema, metrics)

	_, err := engine.PredictBatch([]features.Site{testSite("GGACA")}, DefaultThreshold)
	if !errors.Is(err, clfErr) {
		t.Fatalf("expected classifier error to propagate unmodified, got %v", err)
	}
	if metrics.failures != 1 {
		t.Errorf("expected 1 failure tracked, got %d", metrics.failures)
	}
	if metrics.predictions != 0 {
		t.Errorf("expected no predictions tracked on failure, got %d", metrics.predictions)
	}
}

func TestPredictBatch_MetricsTracking(t *testing.T) {
	schema := testSchema(t)
	clf := &stubClassifier{numFeatures: schema.Width(), probs: []float64{0.9, 0.1}}
	metrics := &mockMetrics{}
	engine, _ := NewEngine(clf, schema, metrics)

	sites := []features.Site{testSite("GGACA"), testSite("TGACC")}
	if _, err := engine.PredictBatch(sites, DefaultThreshold); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if metrics.predictions != 2 {
		t.Errorf("expected 2 predictions tracked, got %d", metrics.predictions)
	}
	if metrics.positives != 1 {
		t.Errorf("expected 1 positive tracked, got %d", metrics.positives)
	}
	if metrics.batchRows != 2 {
		t.Errorf("expected 2 batch rows tracked, got %d", metrics.batchRows)
	}
	if metrics.latencySum == 0 {
		t.Error("expected some latency to be tracked")
	}
	if len(metrics.scores) != 2 {
		t.Errorf("expected 2 scores tracked, got %d", len(metrics.scores))
	}
}

func TestPredictBatch_Concurrency(t *testing.T) {
	schema := testSchema(t)
	clf := &stubClassifier{numFeatures: schema.Width(), probs: []float64{0.9}}
	metrics := &mockMetrics{}
	engine, _ := NewEngine(clf, schema, metrics)

	sites := []features.Site{testSite("GGACA")}
	numGoroutines := 10
	numCalls := 50

	done := make(chan bool, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			for j := 0; j < numCalls; j++ {
				if _, err := engine.PredictBatch(sites, DefaultThreshold); err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}
			done <- true
		}()
	}
	for i := 0; i < numGoroutines; i++ {
		<-done
	}

	if metrics.predictions != numGoroutines*numCalls {
		t.Errorf("expected %d predictions, got %d", numGoroutines*numCalls, metrics.predictions)
	}
}
