// Package globmatch translates shell-style glob patterns into regular
// expressions for path filtering, with a bounded LRU of compiled patterns
// shared across callers (the keyword and vector retrievers, primarily).
package globmatch

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the maximum number of compiled patterns retained.
const DefaultCacheSize = 100

// Matcher compiles glob patterns to regexes lazily and caches the result.
// Safe for concurrent use; a single process-wide Matcher is the norm.
type Matcher struct {
	mu    sync.Mutex
	cache *lru.Cache[string, *regexp.Regexp]
}

// New creates a Matcher with the default cache capacity.
func New() *Matcher {
	cache, _ := lru.New[string, *regexp.Regexp](DefaultCacheSize)
	return &Matcher{cache: cache}
}

// Match reports whether path satisfies pattern. Result depends only on
// (pattern, path); the cache is purely an optimization and never affects
// the outcome.
func (m *Matcher) Match(pattern, path string) (bool, error) {
	re, err := m.compile(pattern)
	if err != nil {
		return false, err
	}
	return re.MatchString(path), nil
}

func (m *Matcher) compile(pattern string) (*regexp.Regexp, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if re, ok := m.cache.Get(pattern); ok {
		return re, nil
	}

	re, err := regexp.Compile(translate(pattern))
	if err != nil {
		return nil, fmt.Errorf("globmatch: invalid pattern %q: %w", pattern, err)
	}
	m.cache.Add(pattern, re)
	return re, nil
}

// translate converts a glob pattern into an anchored regex. Order matters:
// "**/" and "**" must be substituted before the single-star and dot rules
// so a bare "*" doesn't eat the expanded "**" text.
func translate(pattern string) string {
	var b strings.Builder
	b.WriteByte('^')

	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		switch {
		case strings.HasPrefix(string(runes[i:]), "**/"):
			b.WriteString("(.*/)?")
			i += 2
		case strings.HasPrefix(string(runes[i:]), "**"):
			b.WriteString(".*")
			i++
		case runes[i] == '*':
			b.WriteString("[^/]*")
		case runes[i] == '?':
			b.WriteString(".")
		case runes[i] == '.':
			b.WriteString(`\.`)
		default:
			b.WriteString(regexp.QuoteMeta(string(runes[i])))
		}
	}
	b.WriteByte('$')
	return b.String()
}
