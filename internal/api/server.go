// Package api serves assessments over HTTP. The server wraps the same
// engine the CLI uses; assessment itself never touches the network.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"qrisk/internal/cache"
	"qrisk/internal/model"
)

// maxRequestBytes bounds scan request bodies.
const maxRequestBytes = 64 << 10

// maxBatchURLs bounds a single batch request.
const maxBatchURLs = 100

// Assessor analyzes one raw input string. Satisfied by engine.Engine.
type Assessor interface {
	Analyze(raw string) *model.RiskAssessment
}

// Server exposes the scan and health endpoints.
type Server struct {
	assessor Assessor
	store    cache.Cache
	cacheTTL time.Duration
	logger   *slog.Logger
}

// New wires a server. The cache is optional; nil disables memoization.
func New(a Assessor, store cache.Cache, ttl time.Duration, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{assessor: a, store: store, cacheTTL: ttl, logger: logger}
}

// Routes returns the chi router for the API.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealthz)
	r.Post("/v1/scan", s.handleScan)
	r.Post("/v1/scan/batch", s.handleScanBatch)
	return r
}

type scanRequest struct {
	URL string `json:"url"`
}

type batchRequest struct {
	URLs []string `json:"urls"`
}

type batchResponse struct {
	Results []*model.RiskAssessment `json:"results"`
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	a := s.assess(req.URL)
	s.logger.Info("scan served",
		"host", a.Host,
		"verdict", a.Verdict,
		"score", a.Score)
	writeJSON(w, http.StatusOK, a)
}

// handleScanBatch assesses up to maxBatchURLs inputs in request order.
// Analysis is synchronous CPU work, so the response holds one result
// per input, in the same order.
func (s *Server) handleScanBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.URLs) == 0 {
		writeError(w, http.StatusBadRequest, "urls is required")
		return
	}
	if len(req.URLs) > maxBatchURLs {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("too many urls (max %d)", maxBatchURLs))
		return
	}

	results := make([]*model.RiskAssessment, len(req.URLs))
	for i, raw := range req.URLs {
		results[i] = s.assess(raw)
	}
	s.logger.Info("batch scan served", "count", len(results))
	writeJSON(w, http.StatusOK, batchResponse{Results: results})
}

// assess runs one input through the cache and the engine.
func (s *Server) assess(raw string) *model.RiskAssessment {
	key := cache.Key(raw)
	if s.store != nil {
		if hit, ok := s.store.Get(key); ok {
			return hit
		}
	}
	a := s.assessor.Analyze(raw)
	if s.store != nil {
		s.store.Set(key, a, s.cacheTTL)
	}
	return a
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
