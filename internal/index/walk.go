package index

import (
	"context"
	"fmt"
	"runtime"

	"github.com/swift-index/core/internal/scanner"
)

// walk discovers every code or markdown file under root, respecting the
// scanner's default excludes (.git, .build, DerivedData, node_modules,
// vendor, and friends) plus the caller's include/exclude globs. When
// submodules is non-nil and enabled, discovered git submodules are
// walked too, with their files reported under their repo-relative path.
// Results come back as repo-relative, forward-slash paths.
func walk(ctx context.Context, s *scanner.Scanner, root string, includeGlobs, excludeGlobs []string, submodules *scanner.SubmoduleConfig) ([]string, error) {
	results, err := s.Scan(ctx, &scanner.ScanOptions{
		RootDir:          root,
		IncludePatterns:  includeGlobs,
		ExcludePatterns:  excludeGlobs,
		RespectGitignore: true,
		Workers:          runtime.NumCPU(),
		Submodules:       submodules,
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	var paths []string
	for result := range results {
		if result.Error != nil {
			continue
		}
		if result.File == nil {
			continue
		}
		ct := result.File.ContentType
		if ct != scanner.ContentTypeCode && ct != scanner.ContentTypeMarkdown {
			continue
		}
		paths = append(paths, result.File.Path)
	}
	return paths, nil
}
