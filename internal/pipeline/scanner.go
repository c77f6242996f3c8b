package pipeline

import (
	"io/fs"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/puremark/internal/config"
	"github.com/standardbeagle/puremark/internal/transform"
)

// Scanner discovers annotatable source files under a project root.
type Scanner struct {
	root string
	// Pattern strings, matched with doublestar (compiles internally).
	exclusions []string
	inclusions []string
	supported  func(string) bool
}

func NewScanner(cfg *config.Config) *Scanner {
	tr := transform.New()
	return &Scanner{
		root:       cfg.Project.Root,
		exclusions: append([]string{}, cfg.Exclude...),
		inclusions: append([]string{}, cfg.Include...),
		supported:  tr.Supported,
	}
}

// Scan walks the project root and returns relative paths of every file that
// passes the extension, inclusion and exclusion filters, in walk order.
func (s *Scanner) Scan() ([]string, error) {
	var files []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, not fatal.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(s.root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if s.shouldExclude(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if !s.supported(rel) || s.shouldExclude(rel) || !s.shouldInclude(rel) {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// Matches reports whether a root-relative path passes the extension,
// inclusion and exclusion filters. Used by the watcher to vet event paths
// with the same rules as a full scan.
func (s *Scanner) Matches(rel string) bool {
	rel = filepath.ToSlash(rel)
	return s.supported(rel) && !s.shouldExclude(rel) && s.shouldInclude(rel)
}

// Excluded applies only the exclusion patterns, without the extension and
// inclusion filters. Suitable for directory pruning.
func (s *Scanner) Excluded(rel string) bool {
	return s.shouldExclude(filepath.ToSlash(rel))
}

// shouldExclude checks if a path matches any exclusion pattern.
func (s *Scanner) shouldExclude(path string) bool {
	for _, pattern := range s.exclusions {
		matched, err := doublestar.Match(pattern, path)
		if err != nil {
			// Bad pattern shouldn't break scanning.
			continue
		}
		if matched {
			return true
		}
	}
	return false
}

// shouldInclude checks if a path matches any inclusion pattern. No patterns
// means include everything.
func (s *Scanner) shouldInclude(path string) bool {
	if len(s.inclusions) == 0 {
		return true
	}
	for _, pattern := range s.inclusions {
		matched, err := doublestar.Match(pattern, path)
		if err != nil {
			continue
		}
		if matched {
			return true
		}
	}
	return false
}
