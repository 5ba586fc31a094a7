package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/SyedDaiam9101/batch-score-service/internal/scorer"
)

// ErrThresholdExceeded is returned when more mini-batches failed than the job tolerates
var ErrThresholdExceeded = errors.New("mini-batch error threshold exceeded")

// JobConfig controls how a Job splits and schedules work
type JobConfig struct {
	MiniBatchSize int
	Workers       int
	// ErrorThreshold is the number of failed mini-batches tolerated; -1 tolerates any number
	ErrorThreshold int
}

// Summary describes a finished job
type Summary struct {
	RunID    string
	Batches  int
	Failed   int
	Records  int
	Duration time.Duration
}

// Job runs mini-batches through a Runner and writes successful results to a Sink
type Job struct {
	runner *Runner
	sink   Sink
	cfg    JobConfig
	logger *zap.Logger
}

// NewJob creates a Job
func NewJob(runner *Runner, sink Sink, cfg JobConfig, logger *zap.Logger) *Job {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MiniBatchSize <= 0 {
		cfg.MiniBatchSize = 1
	}
	return &Job{runner: runner, sink: sink, cfg: cfg, logger: logger}
}

// Run scores paths and appends the results to the sink in mini-batch order.
// Results are only written once every scheduled mini-batch has finished, so a
// job stopped by the error threshold writes nothing.
func (j *Job) Run(ctx context.Context, paths []string) (Summary, error) {
	start := time.Now()
	batches := Split(paths, j.cfg.MiniBatchSize)
	summary := Summary{RunID: uuid.New().String(), Batches: len(batches)}
	logger := j.logger.With(zap.String("run_id", summary.RunID))

	ctx, span := tracer.Start(ctx, "batch.Job", trace.WithAttributes(
		attribute.String("run.id", summary.RunID),
		attribute.Int("run.files", len(paths)),
		attribute.Int("run.batches", len(batches)),
	))
	defer span.End()

	logger.Info("starting batch job",
		zap.Int("files", len(paths)),
		zap.Int("mini_batches", len(batches)),
		zap.Int("workers", j.cfg.Workers))

	results := make([][]scorer.ScoredResult, len(batches))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.cfg.Workers)

	for i, mb := range batches {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			out, err := j.runner.Run(gctx, mb)
			if err == nil {
				results[i] = out
				return nil
			}

			mu.Lock()
			summary.Failed++
			failed := summary.Failed
			mu.Unlock()

			logger.Error("mini-batch failed",
				zap.Int("batch", i),
				zap.String("first_file", mb[0]),
				zap.Error(err))

			if j.cfg.ErrorThreshold >= 0 && failed > j.cfg.ErrorThreshold {
				return fmt.Errorf("%w (%d failed, threshold %d): %w", ErrThresholdExceeded, failed, j.cfg.ErrorThreshold, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		summary.Duration = time.Since(start)
		return summary, err
	}
	if err := ctx.Err(); err != nil {
		summary.Duration = time.Since(start)
		return summary, err
	}

	for _, out := range results {
		if len(out) == 0 {
			continue
		}
		if err := j.sink.Write(ctx, summary.RunID, out); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			summary.Duration = time.Since(start)
			return summary, fmt.Errorf("failed to write results: %w", err)
		}
		summary.Records += len(out)
	}

	summary.Duration = time.Since(start)
	logger.Info("batch job finished",
		zap.Int("records", summary.Records),
		zap.Int("failed_batches", summary.Failed),
		zap.Duration("duration", summary.Duration))

	return summary, nil
}
