package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/SyedDaiam9101/batch-score-service/internal/scorer"
)

var errNotReady = errors.New("model not loaded")

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// statusFor maps scoring errors to HTTP status codes
func statusFor(err error) int {
	var (
		parseErr *scorer.RecordParseError
		shapeErr *scorer.FeatureShapeError
	)

	switch {
	case errors.As(err, &parseErr), errors.As(err, &shapeErr):
		return http.StatusBadRequest
	case errors.Is(err, errNotReady):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeStatus maps request body decoding errors to HTTP status codes
func decodeStatus(err error) int {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func writeError(w http.ResponseWriter, status int, msg, requestID string) {
	writeJSON(w, status, errorResponse{Error: msg, RequestID: requestID})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
