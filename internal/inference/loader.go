package inference

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/SyedDaiam9101/batch-score-service/internal/registry"
)

// LoadOptions carries format-specific settings for Load
type LoadOptions struct {
	ONNX ONNXOptions
}

// Load resolves identifier ("name" or "name:version") through resolver and
// deserializes the artifact. On failure no predictor is returned.
func Load(ctx context.Context, resolver registry.Resolver, identifier string, opts LoadOptions) (Predictor, error) {
	name, version, err := registry.ParseIdentifier(identifier)
	if err != nil {
		return nil, err
	}

	path, err := resolver.Resolve(ctx, name, version)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s resolved to missing artifact %s", ErrModelNotFound, identifier, path)
		}
		return nil, &ModelLoadError{Model: identifier, Path: path, Err: err}
	}

	var p Predictor
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".onnx":
		p, err = NewONNX(path, opts.ONNX)
	case ".json":
		p, err = LoadDocument(path)
	default:
		err = fmt.Errorf("unsupported artifact format %q", ext)
	}
	if err != nil {
		return nil, &ModelLoadError{Model: identifier, Path: path, Err: err}
	}

	return p, nil
}
