package ingestion

import (
	"os"
	"path/filepath"
	"sort"

	analyzererrors "log-analyzer/internal/errors"

	"github.com/bmatcuk/doublestar/v4"
)

// ResolvePattern lists the regular files under dir that match pattern, in
// lexical order. The pattern uses doublestar syntax, so "**/*.log" descends
// into subdirectories.
func ResolvePattern(dir, pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, analyzererrors.NewConfigValidationError("pattern", pattern, "invalid glob pattern")
	}

	matches, err := doublestar.Glob(os.DirFS(dir), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, analyzererrors.NewIngestReadError("dir:"+dir, err)
	}
	if len(matches) == 0 {
		return nil, analyzererrors.NewIngestNoFilesMatchedError(dir, pattern)
	}

	sort.Strings(matches)
	paths := make([]string, len(matches))
	for i, m := range matches {
		paths[i] = filepath.Join(dir, filepath.FromSlash(m))
	}
	return paths, nil
}
