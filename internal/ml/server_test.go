package ml

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m6apred/internal/features"
)

func testServer(t *testing.T, probs []float64) *ModelServer {
	t.Helper()
	schema, err := features.NewSchema(5)
	require.NoError(t, err)

	clf := &stubClassifier{numFeatures: schema.Width(), probs: probs}
	engine, err := NewEngine(clf, schema, nil)
	require.NoError(t, err)

	info := ModelInfo{Version: "1", Trees: 10, NumFeatures: schema.Width(), KmerLength: 5}
	return NewModelServer(engine, info, DefaultThreshold, 0)
}

func postPredict(t *testing.T, srv *ModelServer, req SiteRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/predict", bytes.NewReader(body))
	srv.Handler().ServeHTTP(w, r)
	return w
}

func validRequest() SiteRequest {
	return SiteRequest{
		GCContent:          0.5,
		RNAType:            "mRNA",
		RNARegion:          "CDS",
		ExonLength:         10,
		DistanceToJunction: 8,
		Conservation:       0.5,
		Kmer:               "GGACA",
		RequestID:          "req-1",
	}
}

func TestModelServer_Predict(t *testing.T) {
	srv := testServer(t, []float64{0.94})

	w := postPredict(t, srv, validRequest())
	require.Equal(t, http.StatusOK, w.Code)

	var resp SiteResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.InDelta(t, 0.94, resp.Prob, 1e-12)
	assert.Equal(t, StatusPositive, resp.Status)
	assert.Equal(t, DefaultThreshold, resp.Threshold)
	assert.Equal(t, "req-1", resp.RequestID)
}

func TestModelServer_Predict_PerRequestThreshold(t *testing.T) {
	srv := testServer(t, []float64{0.94})

	req := validRequest()
	threshold := 0.95
	req.Threshold = &threshold

	w := postPredict(t, srv, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp SiteResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, StatusNegative, resp.Status)
	assert.Equal(t, threshold, resp.Threshold)
}

func TestModelServer_Predict_BadRequests(t *testing.T) {
	srv := testServer(t, []float64{0.5})

	t.Run("unseen RNA type", func(t *testing.T) {
		req := validRequest()
		req.RNAType = "circRNA"
		w := postPredict(t, srv, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("wrong k-mer length", func(t *testing.T) {
		req := validRequest()
		req.Kmer = "GGACAA"
		w := postPredict(t, srv, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("empty k-mer", func(t *testing.T) {
		req := validRequest()
		req.Kmer = ""
		w := postPredict(t, srv, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/predict", nil)
		srv.Handler().ServeHTTP(w, r)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestModelServer_HealthAndInfo(t *testing.T) {
	srv := testServer(t, []float64{0.5})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/model/info", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var info ModelInfo
	require.NoError(t, json.NewDecoder(w.Body).Decode(&info))
	assert.Equal(t, 10, info.Trees)
	assert.Equal(t, 5, info.KmerLength)
}
