package globmatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcher_Match_Basic(t *testing.T) {
	m := New()

	ok, err := m.Match("*.go", "main.go")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.Match("*.go", "pkg/main.go")
	require.NoError(t, err)
	assert.False(t, ok, "bare * must not cross a path separator")
}

func TestMatcher_Match_DoubleStarSlash(t *testing.T) {
	m := New()

	ok, err := m.Match("**/Sources/**", "App/Sources/Foo.swift")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.Match("**/Sources/**", "Sources/Foo.swift")
	require.NoError(t, err)
	assert.True(t, ok, "**/ must also match zero leading segments")
}

func TestMatcher_Match_QuestionMark(t *testing.T) {
	m := New()

	ok, err := m.Match("file?.go", "file1.go")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.Match("file?.go", "file12.go")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMatcher_Match_DotIsLiteral(t *testing.T) {
	m := New()

	ok, err := m.Match("*.go", "main_go")
	require.NoError(t, err)
	assert.False(t, ok, "the pattern's dot must not match an arbitrary character")
}

func TestMatcher_Match_DependsOnlyOnPatternAndPath(t *testing.T) {
	m := New()

	first, err := m.Match("**/*.swift", "a/b/c.swift")
	require.NoError(t, err)

	// Prime the cache with unrelated patterns, then re-check the same pair.
	for i := 0; i < DefaultCacheSize+10; i++ {
		_, _ = m.Match("pattern_filler_*", "noise")
	}

	second, err := m.Match("**/*.swift", "a/b/c.swift")
	require.NoError(t, err)
	assert.Equal(t, first, second, "cache eviction must never change the match result")
}

func TestMatcher_Match_InvalidPattern(t *testing.T) {
	m := New()
	_, err := m.Match("[", "anything")
	assert.Error(t, err)
}
