package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/SyedDaiam9101/batch-score-service/internal/inference"
	"github.com/SyedDaiam9101/batch-score-service/internal/logging"
	"github.com/SyedDaiam9101/batch-score-service/internal/middleware"
	"github.com/SyedDaiam9101/batch-score-service/internal/scorer"
)

func newServer(p inference.Predictor) http.Handler {
	var s *scorer.Scorer
	if p != nil {
		s = scorer.New(p)
	}
	mux := http.NewServeMux()
	New(s, logging.Nop()).Register(mux)
	return middleware.RequestID(mux)
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/score", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Expected JSON error body, got %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestScoreWithMockInference(t *testing.T) {
	mock := inference.NewMock()
	h := newServer(mock)

	rec := post(t, h, `{"records":[
		{"id":"a/b/sample1.csv","content":"1.0,2.0,3.0,4.0"},
		{"id":"sample2.csv","content":"4,3,2,1"}
	]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp ScoreResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid response: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(resp.Results))
	}
	if resp.Results[0].Line != "sample1.csv: 42.0" || resp.Results[1].Line != "sample2.csv: 42.0" {
		t.Errorf("Unexpected lines: %+v", resp.Results)
	}
	if resp.Results[0].Prediction == nil || *resp.Results[0].Prediction != 42 {
		t.Errorf("Expected numeric prediction 42, got %v", resp.Results[0].Prediction)
	}
	if mock.Calls() != 2 {
		t.Errorf("Expected 2 model calls, got %d", mock.Calls())
	}
}

func TestScoreWithEmptyBatch(t *testing.T) {
	mock := inference.NewMock()
	rec := post(t, newServer(mock), `{"records":[]}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var resp ScoreResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Results) != 0 {
		t.Errorf("Expected no results, got %v", resp.Results)
	}
	if mock.Calls() != 0 {
		t.Errorf("Expected no model calls, got %d", mock.Calls())
	}
}

func TestScoreWithNilScorer(t *testing.T) {
	rec := post(t, newServer(nil), `{"records":[{"id":"a","content":"1,2,3,4"}]}`)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", rec.Code)
	}
}

func TestScoreWithParseError(t *testing.T) {
	rec := post(t, newServer(inference.NewMockWithValue(3, 1)), `{"records":[{"id":"bad.csv","content":"1.0,x,3.0"}]}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
	if msg := decodeError(t, rec).Error; !strings.Contains(msg, "bad.csv") {
		t.Errorf("Expected error to name the record, got %q", msg)
	}
}

func TestScoreWithShapeError(t *testing.T) {
	rec := post(t, newServer(inference.NewMock()), `{"records":[{"id":"short.csv","content":"1,2"}]}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
	if msg := decodeError(t, rec).Error; !strings.Contains(msg, "expects 4") {
		t.Errorf("Expected shape error message, got %q", msg)
	}
}

func TestScoreWithInferenceError(t *testing.T) {
	mock := inference.NewMock()
	mock.SetError("model execution failed")

	rec := post(t, newServer(mock), `{"records":[{"id":"a","content":"1,2,3,4"}]}`)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", rec.Code)
	}
}

func TestScoreWithMalformedBody(t *testing.T) {
	h := newServer(inference.NewMock())

	for _, body := range []string{`{"records":`, `{"records":"nope"}`, `{"rows":[]}`} {
		rec := post(t, h, body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Body %q: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestScoreWithOversizedBody(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(`{"records":[{"id":"a","content":"`)
	buf.WriteString(strings.Repeat("1", MaxBodyBytes))
	buf.WriteString(`"}]}`)

	rec := post(t, newServer(inference.NewMock()), buf.String())
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected 413, got %d", rec.Code)
	}
}

func TestScoreWithRequestID(t *testing.T) {
	h := newServer(inference.NewMock())

	req := httptest.NewRequest(http.MethodPost, "/v1/score", strings.NewReader(`{"records":[{"id":"a","content":"x"}]}`))
	req.Header.Set(middleware.RequestIDHeader, "test-request-id-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := decodeError(t, rec).RequestID; got != "test-request-id-123" {
		t.Errorf("Expected request ID in error body, got %q", got)
	}
	if got := rec.Header().Get(middleware.RequestIDHeader); got != "test-request-id-123" {
		t.Errorf("Expected request ID header, got %q", got)
	}
}

func TestScoreRejectsGet(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/score", nil)
	rec := httptest.NewRecorder()
	newServer(inference.NewMock()).ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rec.Code)
	}
}
