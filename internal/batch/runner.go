// Package batch hosts the scorer as a file-driven batch job: it discovers
// input files, cuts them into mini-batches, scores them on a worker pool and
// appends the results to a sink.
package batch

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/SyedDaiam9101/batch-score-service/internal/metrics"
	"github.com/SyedDaiam9101/batch-score-service/internal/scorer"
)

var tracer = otel.Tracer("github.com/SyedDaiam9101/batch-score-service/internal/batch")

// ReadError reports an input file that could not be read
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// Runner scores one mini-batch of file paths
type Runner struct {
	scorer *scorer.Scorer
	logger *zap.Logger
}

// NewRunner creates a Runner around a scorer built from an already loaded model
func NewRunner(s *scorer.Scorer, logger *zap.Logger) *Runner {
	return &Runner{scorer: s, logger: logger}
}

// Run reads every path in miniBatch and returns one result per path, in order.
// Any read, parse, shape or prediction error aborts the whole mini-batch.
func (r *Runner) Run(ctx context.Context, miniBatch []string) ([]scorer.ScoredResult, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "batch.Run",
		trace.WithAttributes(attribute.Int("batch.size", len(miniBatch))))
	defer span.End()

	results, err := r.run(ctx, miniBatch)

	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	metrics.RecordInferenceBatch(len(miniBatch))
	metrics.RecordBatchDuration(status, time.Since(start).Seconds())

	return results, err
}

func (r *Runner) run(ctx context.Context, miniBatch []string) ([]scorer.ScoredResult, error) {
	records := make([]scorer.RecordSource, 0, len(miniBatch))
	for _, path := range miniBatch {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &ReadError{Path: path, Err: err}
		}
		records = append(records, scorer.RecordSource{ID: path, Content: string(data)})
	}

	results, err := r.scorer.ScoreResults(ctx, records)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("mini-batch scored", zap.Int("records", len(results)))
	return results, nil
}
