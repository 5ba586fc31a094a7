// Package app wires configuration into the registry, model and sink used by the binaries.
package app

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/SyedDaiam9101/batch-score-service/internal/batch"
	"github.com/SyedDaiam9101/batch-score-service/internal/config"
	"github.com/SyedDaiam9101/batch-score-service/internal/inference"
	"github.com/SyedDaiam9101/batch-score-service/internal/registry"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenRegistry builds the resolver selected by cfg.Registry. The returned
// closer releases any connection held by the resolver.
func OpenRegistry(ctx context.Context, cfg *config.Config) (registry.Resolver, io.Closer, error) {
	switch cfg.Registry.Type {
	case config.RegistryDir:
		return registry.NewDirRegistry(cfg.Registry.Root), nopCloser{}, nil
	case config.RegistryRedis:
		r, err := registry.NewRedisRegistry(ctx, cfg.Registry.Redis)
		if err != nil {
			return nil, nil, err
		}
		return r, r, nil
	default:
		return nil, nil, fmt.Errorf("unknown registry type %q", cfg.Registry.Type)
	}
}

// LoadModel performs the one-time model initialization for a process
func LoadModel(ctx context.Context, cfg *config.Config, logger *zap.Logger) (inference.Predictor, error) {
	if cfg.UseMockInference {
		logger.Warn("using mock inference engine")
		return inference.NewMock(), nil
	}

	resolver, closer, err := OpenRegistry(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	logger.Info("loading model",
		zap.String("model", cfg.Model),
		zap.String("registry", cfg.Registry.Type))

	p, err := inference.Load(ctx, resolver, cfg.Model, inference.LoadOptions{
		ONNX: inference.ONNXOptions{
			LibraryPath:  cfg.ONNX.LibraryPath,
			InputName:    cfg.ONNX.InputName,
			OutputName:   cfg.ONNX.OutputName,
			FeatureCount: cfg.ONNX.FeatureCount,
		},
	})
	if err != nil {
		return nil, err
	}

	logger.Info("model loaded", zap.Int("feature_count", p.FeatureCount()))
	return p, nil
}

// OpenSink opens the result sink selected by cfg.Output
func OpenSink(cfg *config.Config) (batch.Sink, error) {
	switch cfg.Output.Type {
	case config.OutputFile:
		return batch.NewFileSink(cfg.Output.Path)
	case config.OutputSQLite:
		return batch.NewSQLiteSink(cfg.Output.Path)
	default:
		return nil, fmt.Errorf("unknown output type %q", cfg.Output.Type)
	}
}
