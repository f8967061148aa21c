package ml

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"m6apred/internal/features"
)

// ModelServer exposes single-site prediction over HTTP. The core pipeline
// itself has no network surface; this is a serving layer on top of it.
type ModelServer struct {
	engine    *Engine
	info      ModelInfo
	threshold float64
	server    *http.Server
}

// SiteRequest is the incoming single-site prediction request. Threshold is
// optional; when omitted the server's configured threshold applies.
type SiteRequest struct {
	GCContent          float64  `json:"gc_content"`
	RNAType            string   `json:"RNA_type"`
	RNARegion          string   `json:"RNA_region"`
	ExonLength         float64  `json:"exon_length"`
	DistanceToJunction float64  `json:"distance_to_junction"`
	Conservation       float64  `json:"evolutionary_conservation"`
	Kmer               string   `json:"DNA_5mer"`
	Threshold          *float64 `json:"positive_threshold,omitempty"`
	RequestID          string   `json:"request_id,omitempty"`
}

// SiteResponse is the prediction result for one site.
type SiteResponse struct {
	Prob      float64   `json:"predicted_m6A_prob"`
	Status    string    `json:"predicted_m6A_status"`
	Threshold float64   `json:"positive_threshold"`
	RequestID string    `json:"request_id,omitempty"`
	LatencyMs float64   `json:"latency_ms"`
	Timestamp time.Time `json:"timestamp"`
}

// NewModelServer creates an HTTP server for single-site predictions.
func NewModelServer(engine *Engine, info ModelInfo, threshold float64, port int) *ModelServer {
	ms := &ModelServer{
		engine:    engine,
		info:      info,
		threshold: threshold,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/predict", ms.handlePredict)
	mux.HandleFunc("/health", ms.handleHealth)
	mux.HandleFunc("/model/info", ms.handleModelInfo)

	ms.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return ms
}

// Start begins serving HTTP requests.
func (ms *ModelServer) Start() error {
	log.Info().Str("addr", ms.server.Addr).Msg("starting model server")
	return ms.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (ms *ModelServer) Shutdown(ctx context.Context) error {
	return ms.server.Shutdown(ctx)
}

// Handler exposes the server's routes, mainly for tests.
func (ms *ModelServer) Handler() http.Handler {
	return ms.server.Handler
}

func (ms *ModelServer) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()

	var req SiteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
		return
	}
	if req.Kmer == "" {
		http.Error(w, "DNA_5mer cannot be empty", http.StatusBadRequest)
		return
	}

	threshold := ms.threshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	prob, status, err := ms.engine.PredictSingle(
		req.GCContent, req.RNAType, req.RNARegion,
		req.ExonLength, req.DistanceToJunction, req.Conservation,
		req.Kmer, threshold,
	)
	if err != nil {
		var unseen *features.UnseenCategoryError
		var shape *features.ShapeMismatchError
		if errors.As(err, &unseen) || errors.As(err, &shape) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Error().Err(err).Str("request_id", req.RequestID).Msg("prediction failed")
		http.Error(w, fmt.Sprintf("prediction failed: %v", err), http.StatusInternalServerError)
		return
	}

	resp := SiteResponse{
		Prob:      prob,
		Status:    status,
		Threshold: threshold,
		RequestID: req.RequestID,
		LatencyMs: float64(time.Since(start).Milliseconds()),
		Timestamp: time.Now(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (ms *ModelServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"healthy": true, "trees": ms.info.Trees})
}

func (ms *ModelServer) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ms.info)
}
