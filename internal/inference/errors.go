package inference

import (
	"fmt"

	"github.com/SyedDaiam9101/batch-score-service/internal/registry"
)

// ErrModelNotFound is returned when the registry has no artifact for a model identifier
var ErrModelNotFound = registry.ErrModelNotFound

// ModelLoadError reports an artifact that exists but cannot be deserialized
type ModelLoadError struct {
	Model string
	Path  string
	Err   error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("failed to load model %s from %s: %v", e.Model, e.Path, e.Err)
}

func (e *ModelLoadError) Unwrap() error {
	return e.Err
}
