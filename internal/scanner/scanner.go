package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fjglira/GoE2E-ScenarioRunner/internal/domain"
)

// Scanner discovers scenario source files.
type Scanner interface {
	Scan(root string, patterns []string, excludes []string) ([]string, error)
}

// FileScanner implements Scanner using filepath.WalkDir.
type FileScanner struct {
	Recursive bool
}

// NewScanner creates a new FileScanner.
func NewScanner(recursive bool) *FileScanner {
	return &FileScanner{Recursive: recursive}
}

// Scan returns sorted file paths under root matching any include pattern and
// no exclude pattern. Hidden directories are never entered. When root is a
// regular file it is returned as-is, so explicit paths bypass the patterns.
func (s *FileScanner) Scan(root string, patterns []string, excludes []string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, domain.NewErrorWithSuggestion("scan", root, 0, "failed to scan path",
			"check input.directories in scenario-runner.yaml or the paths passed on the command line", err)
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel == "." {
				return nil
			}
			if !s.Recursive || strings.HasPrefix(d.Name(), ".") || matchAny(rel, excludes) {
				return filepath.SkipDir
			}
			return nil
		}

		if matchAny(rel, excludes) {
			return nil
		}
		if matchAny(rel, patterns) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, domain.NewError("scan", root, 0, "failed to scan directory", err)
	}

	sort.Strings(files)
	return files, nil
}

func matchAny(rel string, patterns []string) bool {
	for _, p := range patterns {
		if matchGlob(rel, p) {
			return true
		}
	}
	return false
}

// matchGlob matches a slash-separated relative path against a glob pattern.
// "**" matches any number of path segments; patterns without a slash are
// also tried against the base name.
func matchGlob(rel, pattern string) bool {
	pattern = filepath.ToSlash(pattern)

	if prefix, suffix, ok := strings.Cut(pattern, "**"); ok {
		prefix = strings.TrimSuffix(prefix, "/")
		suffix = strings.TrimPrefix(suffix, "/")

		if prefix != "" {
			if rel != prefix && !strings.HasPrefix(rel, prefix+"/") {
				return false
			}
			rel = strings.TrimPrefix(strings.TrimPrefix(rel, prefix), "/")
		}
		if suffix == "" {
			return true
		}

		segments := strings.Split(rel, "/")
		for i := range segments {
			if ok, _ := filepath.Match(suffix, strings.Join(segments[i:], "/")); ok {
				return true
			}
		}
		return false
	}

	if !strings.Contains(pattern, "/") {
		if ok, _ := filepath.Match(pattern, filepath.Base(rel)); ok {
			return true
		}
	}
	ok, _ := filepath.Match(pattern, rel)
	return ok
}
