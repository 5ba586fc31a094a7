// Package scorer turns raw comma-delimited rows into formatted predictions.
package scorer

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/SyedDaiam9101/batch-score-service/internal/inference"
	"github.com/SyedDaiam9101/batch-score-service/internal/metrics"
)

var tracer = otel.Tracer("github.com/SyedDaiam9101/batch-score-service/internal/scorer")

// Scorer applies a loaded predictor to batches of records.
// It holds no per-call state, so one Scorer may serve concurrent callers
// as long as the predictor does.
type Scorer struct {
	model inference.Predictor
}

// New creates a Scorer for model
func New(model inference.Predictor) *Scorer {
	return &Scorer{model: model}
}

// Model returns the predictor the scorer was built with
func (s *Scorer) Model() inference.Predictor {
	return s.model
}

// Score returns one "<basename>: <prediction>" line per record, in input order.
// The first parse, shape or prediction error aborts the batch and no lines are returned.
func (s *Scorer) Score(ctx context.Context, batch []RecordSource) ([]string, error) {
	results, err := s.ScoreResults(ctx, batch)
	if err != nil {
		return nil, err
	}
	lines := make([]string, len(results))
	for i, r := range results {
		lines[i] = r.String()
	}
	return lines, nil
}

// ScoreResults is Score without the final text formatting
func (s *Scorer) ScoreResults(ctx context.Context, batch []RecordSource) ([]ScoredResult, error) {
	_, span := tracer.Start(ctx, "scorer.Score",
		trace.WithAttributes(attribute.Int("batch.size", len(batch))))
	defer span.End()

	results := make([]ScoredResult, 0, len(batch))
	for _, src := range batch {
		r, err := s.scoreOne(src)
		if err != nil {
			metrics.RecordScored("error", 1)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		results = append(results, r)
	}

	metrics.RecordScored("ok", len(results))
	return results, nil
}

func (s *Scorer) scoreOne(src RecordSource) (ScoredResult, error) {
	row, err := ParseRecord(src)
	if err != nil {
		return ScoredResult{}, err
	}

	if want := s.model.FeatureCount(); len(row) != want {
		return ScoredResult{}, &FeatureShapeError{ID: src.ID, Got: len(row), Want: want}
	}

	start := time.Now()
	prediction, err := s.model.Predict(row)
	metrics.RecordInferenceLatency(time.Since(start).Seconds())
	if err != nil {
		return ScoredResult{}, fmt.Errorf("record %s: prediction failed: %w", src.ID, err)
	}

	return ScoredResult{ID: src.ID, Prediction: prediction}, nil
}
