// cmd/batch-score/main.go
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/SyedDaiam9101/batch-score-service/internal/app"
	"github.com/SyedDaiam9101/batch-score-service/internal/batch"
	"github.com/SyedDaiam9101/batch-score-service/internal/config"
	"github.com/SyedDaiam9101/batch-score-service/internal/logging"
	"github.com/SyedDaiam9101/batch-score-service/internal/scorer"
	"github.com/SyedDaiam9101/batch-score-service/internal/telemetry"
)

const serviceName = "batch-score"

func main() {
	input := flag.String("input", "", "Input directory or glob of record files")
	output := flag.String("output", "", "Output path (default: parallel_run_step.txt)")
	model := flag.String("model", "", "Model identifier, name or name:version (default: diabetes_model)")
	registryRoot := flag.String("registry", "", "Model registry root directory (default: ./models)")
	batchSize := flag.Int("mini-batch-size", 0, "Files per mini-batch (default: 10)")
	workers := flag.Int("workers", 0, "Concurrent mini-batches (default: 1)")
	configFile := flag.String("config", "", "Path to config file (optional)")
	useMock := flag.Bool("mock", false, "Use mock inference engine (for testing)")
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *configFile != "" {
		cfg, err = config.LoadWithConfigFile(*configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *input != "" {
		cfg.Input = *input
	}
	if *output != "" {
		cfg.Output.Path = *output
	}
	if *model != "" {
		cfg.Model = *model
	}
	if *registryRoot != "" {
		cfg.Registry.Root = *registryRoot
	}
	if *batchSize > 0 {
		cfg.MiniBatchSize = *batchSize
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if *useMock {
		cfg.UseMockInference = true
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("batch job failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OTELEnabled {
		shutdown, err := telemetry.InitTracer(serviceName, cfg.OTELEndpoint, logger)
		if err != nil {
			logger.Warn("failed to initialize tracer", zap.Error(err))
		} else {
			defer shutdown(context.Background())
		}
	}

	paths, err := batch.Discover(cfg.Input)
	if err != nil {
		return err
	}

	predictor, err := app.LoadModel(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer predictor.Close()

	sink, err := app.OpenSink(cfg)
	if err != nil {
		return err
	}
	defer sink.Close()

	runner := batch.NewRunner(scorer.New(predictor), logger)
	job := batch.NewJob(runner, sink, batch.JobConfig{
		MiniBatchSize:  cfg.MiniBatchSize,
		Workers:        cfg.Workers,
		ErrorThreshold: cfg.ErrorThreshold,
	}, logger)

	summary, err := job.Run(ctx, paths)
	if err != nil {
		return err
	}

	logger.Info("results written",
		zap.String("run_id", summary.RunID),
		zap.String("output", cfg.Output.Path),
		zap.Int("records", summary.Records),
		zap.Int("failed_batches", summary.Failed))
	return nil
}
