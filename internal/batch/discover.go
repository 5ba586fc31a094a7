package batch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// ErrNoInputs is returned when an input specification matches no files
var ErrNoInputs = errors.New("no input files")

// Discover expands input into a sorted list of files. A directory is walked
// recursively; anything else is treated as a glob pattern.
func Discover(input string) ([]string, error) {
	if input == "" {
		return nil, fmt.Errorf("%w: input is empty", ErrNoInputs)
	}

	var paths []string
	info, err := os.Stat(input)
	if err == nil && info.IsDir() {
		err = filepath.WalkDir(input, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.Type().IsRegular() {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", input, err)
		}
	} else {
		matches, err := filepath.Glob(input)
		if err != nil {
			return nil, fmt.Errorf("invalid input pattern %q: %w", input, err)
		}
		for _, m := range matches {
			if fi, err := os.Stat(m); err == nil && fi.Mode().IsRegular() {
				paths = append(paths, m)
			}
		}
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoInputs, input)
	}
	sort.Strings(paths)
	return paths, nil
}

// Split cuts paths into contiguous mini-batches of at most size entries
func Split(paths []string, size int) [][]string {
	if size <= 0 {
		size = 1
	}
	batches := make([][]string, 0, (len(paths)+size-1)/size)
	for start := 0; start < len(paths); start += size {
		end := min(start+size, len(paths))
		batches = append(batches, paths[start:end])
	}
	return batches
}
