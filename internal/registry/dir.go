package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// DirRegistry resolves models stored on the local filesystem as
// <root>/<name>/<version>/<artifact>.
type DirRegistry struct {
	Root string
}

// NewDirRegistry creates a registry rooted at root
func NewDirRegistry(root string) *DirRegistry {
	return &DirRegistry{Root: root}
}

// Resolve returns the artifact path for name at version, or at the highest version when version is empty
func (r *DirRegistry) Resolve(ctx context.Context, name, version string) (string, error) {
	modelDir := filepath.Join(r.Root, name)
	entries, err := os.ReadDir(modelDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s (registry %s)", ErrModelNotFound, name, r.Root)
		}
		return "", fmt.Errorf("failed to list versions of %s: %w", name, err)
	}

	if version == "" {
		var versions []string
		for _, e := range entries {
			if e.IsDir() {
				versions = append(versions, e.Name())
			}
		}
		latest, ok := latestVersion(versions)
		if !ok {
			return "", fmt.Errorf("%w: %s has no registered versions", ErrModelNotFound, name)
		}
		version = latest
	}

	versionDir := filepath.Join(modelDir, version)
	files, err := os.ReadDir(versionDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s version %s", ErrModelNotFound, name, version)
		}
		return "", fmt.Errorf("failed to list artifacts of %s:%s: %w", name, version, err)
	}

	var artifacts []string
	for _, f := range files {
		if f.Type().IsRegular() && IsSupported(f.Name()) {
			artifacts = append(artifacts, f.Name())
		}
	}
	if len(artifacts) == 0 {
		return "", fmt.Errorf("%w: %s version %s has no supported artifact", ErrModelNotFound, name, version)
	}
	sort.Strings(artifacts)

	return filepath.Join(versionDir, artifacts[0]), nil
}

var _ Resolver = (*DirRegistry)(nil)
