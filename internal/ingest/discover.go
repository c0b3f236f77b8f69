package ingest

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// DiscoverStationFiles walks root recursively and returns every file
// matching the glob pattern (default *.txt). Matching is case-insensitive
// on both the pattern and the file name. Order is whatever the walk
// yields; callers must not rely on it.
func DiscoverStationFiles(root, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*.txt"
	}
	pattern = strings.ToLower(pattern)

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		matched, matchErr := filepath.Match(pattern, strings.ToLower(d.Name()))
		if matchErr != nil {
			return fmt.Errorf("bad file pattern %q: %w", pattern, matchErr)
		}
		if matched {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover station files under %s: %w", root, err)
	}
	return paths, nil
}
