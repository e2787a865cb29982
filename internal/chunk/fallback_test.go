package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineWindowFallback_EmptyFile(t *testing.T) {
	result := lineWindowFallback("empty.txt", []byte("   \n  "))
	assert.Equal(t, "empty file", result.Skipped)
	assert.Nil(t, result.Chunks)
}

func TestLineWindowFallback_SingleWindow(t *testing.T) {
	content := strings.Repeat("line\n", 50)
	result := lineWindowFallback("small.rs", []byte(content))

	require.Empty(t, result.Skipped)
	require.Len(t, result.Chunks, 1)
	assert.Equal(t, KindFreeCode, result.Chunks[0].Kind)
	assert.Equal(t, "unknown", result.Chunks[0].Language)
	assert.Equal(t, 1, result.Chunks[0].StartLine)
}

func TestLineWindowFallback_SplitsAcrossMultipleWindows(t *testing.T) {
	content := strings.Repeat("line\n", 450)
	result := lineWindowFallback("big.rs", []byte(content))

	require.Len(t, result.Chunks, 3)
	assert.Equal(t, 1, result.Chunks[0].StartLine)
	assert.Equal(t, lineWindowSize, result.Chunks[0].EndLine)
	assert.Equal(t, lineWindowSize+1, result.Chunks[1].StartLine)
}

func TestLineWindowFallback_DetectsLanguageFromExtension(t *testing.T) {
	result := lineWindowFallback("main.swift", []byte("let x = 1\n"))
	require.Len(t, result.Chunks, 1)
	assert.Equal(t, "swift", result.Chunks[0].Language)
}
