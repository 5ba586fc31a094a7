package handler

import (
	"encoding/json"
	"math"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/SyedDaiam9101/batch-score-service/internal/metrics"
	"github.com/SyedDaiam9101/batch-score-service/internal/middleware"
	"github.com/SyedDaiam9101/batch-score-service/internal/scorer"
)

// MaxBodyBytes bounds the size of a scoring request
const MaxBodyBytes = 10 << 20

// ScoreRequest is the body of POST /v1/score
type ScoreRequest struct {
	Records []Record `json:"records"`
}

// Record is one input row
type Record struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// ScoreResponse is returned on success, one result per record in request order
type ScoreResponse struct {
	Results []Result `json:"results"`
}

// Result is one scored record. Prediction is omitted when the model
// produced a non-finite value; Line always carries the text form.
type Result struct {
	ID         string   `json:"id"`
	Prediction *float64 `json:"prediction,omitempty"`
	Line       string   `json:"line"`
}

// Handler serves scoring requests over HTTP using an already loaded model
type Handler struct {
	scorer *scorer.Scorer
	logger *zap.Logger
}

// New creates a new Handler. A nil scorer makes every request fail with 503.
func New(s *scorer.Scorer, logger *zap.Logger) *Handler {
	return &Handler{
		scorer: s,
		logger: logger,
	}
}

// Register mounts the scoring routes on mux
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/score", h.Score)
}

// Score handles a batch scoring request
func (h *Handler) Score(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	requestID := middleware.GetRequestID(r.Context())
	if requestID == "" {
		requestID = "unknown"
	}
	logger := h.logger.With(zap.String("request_id", requestID))

	if h.scorer == nil {
		writeError(w, statusFor(errNotReady), errNotReady.Error(), requestID)
		return
	}

	var req ScoreRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, decodeStatus(err), "invalid request body: "+err.Error(), requestID)
		return
	}

	batch := make([]scorer.RecordSource, len(req.Records))
	for i, rec := range req.Records {
		batch[i] = scorer.RecordSource{ID: rec.ID, Content: rec.Content}
	}
	metrics.RecordInferenceBatch(len(batch))

	scored, err := h.scorer.ScoreResults(r.Context(), batch)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			logger.Error("scoring failed", zap.Error(err))
		} else {
			logger.Info("rejected batch", zap.Error(err))
		}
		metrics.RecordBatchDuration("error", time.Since(start).Seconds())
		writeError(w, status, err.Error(), requestID)
		return
	}

	resp := ScoreResponse{Results: make([]Result, len(scored))}
	for i, s := range scored {
		resp.Results[i] = Result{ID: s.ID, Line: s.String()}
		if !math.IsNaN(s.Prediction) && !math.IsInf(s.Prediction, 0) {
			p := s.Prediction
			resp.Results[i].Prediction = &p
		}
	}

	metrics.RecordBatchDuration("ok", time.Since(start).Seconds())
	logger.Debug("scored batch",
		zap.Int("batch_size", len(batch)),
		zap.Duration("elapsed", time.Since(start)))

	writeJSON(w, http.StatusOK, resp)
}
