// Package registry resolves logical model names to artifact paths.
package registry

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrModelNotFound is returned when no artifact is registered for a model name or version
var ErrModelNotFound = errors.New("model not found")

// SupportedExtensions lists the artifact file extensions the loader can deserialize
var SupportedExtensions = []string{".onnx", ".json"}

// Resolver maps a model name and optional version to a local artifact path.
// An empty version selects the latest registered version.
type Resolver interface {
	Resolve(ctx context.Context, name, version string) (string, error)
}

// ParseIdentifier splits "name" or "name:version" into its parts
func ParseIdentifier(identifier string) (name, version string, err error) {
	identifier = strings.TrimSpace(identifier)
	name, version, _ = strings.Cut(identifier, ":")
	if name == "" {
		return "", "", fmt.Errorf("%w: empty model identifier", ErrModelNotFound)
	}
	if version != "" {
		if _, err := parseVersion(version); err != nil {
			return "", "", fmt.Errorf("%w: invalid version %q for model %s", ErrModelNotFound, version, name)
		}
	}
	return name, version, nil
}

// IsSupported reports whether path has an extension the loader understands
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

func parseVersion(v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("version must be positive, got %d", n)
	}
	return n, nil
}

// latestVersion returns the highest numeric version in versions, ignoring non-numeric entries
func latestVersion(versions []string) (string, bool) {
	best, bestN := "", 0
	for _, v := range versions {
		n, err := parseVersion(v)
		if err != nil {
			continue
		}
		if n > bestN {
			best, bestN = v, n
		}
	}
	return best, bestN > 0
}
