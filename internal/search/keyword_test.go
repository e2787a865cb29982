package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swift-index/core/internal/chunk"
	"github.com/swift-index/core/internal/store"
)

func TestKeyword_Retrieve_EmptyQueryReturnsNothing(t *testing.T) {
	lex := newFakeLexicalStore()
	k := NewKeyword(lex)

	hits, err := k.Retrieve(context.Background(), "   ", Options{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestKeyword_Retrieve_NormalizesScoresToNonNegative(t *testing.T) {
	lex := newFakeLexicalStore()
	a := newChunk("a", "a.swift", chunk.KindFunction, []string{"add"})
	b := newChunk("b", "b.swift", chunk.KindFunction, []string{"sub"})
	lex.ftsResults = []store.FTSResult{
		{Chunk: a, Score: -1.2},
		{Chunk: b, Score: -3.4},
	}

	k := NewKeyword(lex)
	hits, err := k.Retrieve(context.Background(), "add", Options{Limit: 10})
	require.NoError(t, err)
	require.Len(t, hits, 2)

	for _, h := range hits {
		assert.GreaterOrEqual(t, h.Score, 0.0)
	}
	assert.Equal(t, "a", hits[0].Chunk.ID, "order from the store is preserved")
	assert.Equal(t, 0.0, hits[1].Score, "the lowest-scoring hit in the set anchors at zero")
}

func TestKeyword_Retrieve_AppliesPathFilter(t *testing.T) {
	lex := newFakeLexicalStore()
	inScope := newChunk("in", "src/app/a.swift", chunk.KindFunction, nil)
	outOfScope := newChunk("out", "vendor/b.swift", chunk.KindFunction, nil)
	lex.ftsResults = []store.FTSResult{
		{Chunk: inScope, Score: -1},
		{Chunk: outOfScope, Score: -1},
	}

	k := NewKeyword(lex)
	hits, err := k.Retrieve(context.Background(), "x", Options{Limit: 10, PathFilter: "src/**"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "in", hits[0].Chunk.ID)
}

func TestKeyword_Retrieve_AppliesExtensionFilter(t *testing.T) {
	lex := newFakeLexicalStore()
	swiftChunk := newChunk("sw", "a.swift", chunk.KindFunction, nil)
	mdChunk := newChunk("md", "README.md", chunk.KindMarkdownSection, nil)
	lex.ftsResults = []store.FTSResult{
		{Chunk: swiftChunk, Score: -1},
		{Chunk: mdChunk, Score: -1},
	}

	k := NewKeyword(lex)
	hits, err := k.Retrieve(context.Background(), "x", Options{Limit: 10, Extensions: []string{"swift"}})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "sw", hits[0].Chunk.ID)
}

func TestKeyword_Retrieve_PropagatesStoreError(t *testing.T) {
	lex := newFakeLexicalStore()
	lex.ftsErr = assert.AnError

	k := NewKeyword(lex)
	_, err := k.Retrieve(context.Background(), "x", Options{Limit: 10})
	assert.ErrorIs(t, err, assert.AnError)
}
