package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/swift-index/core/internal/chunk"
)

func TestReranker_TypeDeclarationBoost(t *testing.T) {
	lex := newFakeLexicalStore()
	rr := NewReranker(lex, DefaultRerankOptions())

	decl := &chunk.Chunk{ID: "a", IsTypeDeclaration: true}
	plain := &chunk.Chunk{ID: "b"}
	results := []Result{{Chunk: decl, Score: 1.0}, {Chunk: plain, Score: 1.0}}

	ranked := rr.Rerank(context.Background(), "x", results, 0)
	assert.Equal(t, "a", ranked[0].Chunk.ID)
	assert.InDelta(t, 1.5, ranked[0].Score, 1e-9)
}

func TestReranker_ConformanceImplementationBoost(t *testing.T) {
	lex := newFakeLexicalStore()
	rr := NewReranker(lex, DefaultRerankOptions())

	impl := &chunk.Chunk{ID: "impl", IsTypeDeclaration: true, Conformances: []string{"ChunkStore"}}
	proto := &chunk.Chunk{ID: "proto", Kind: chunk.KindProtocol, Symbols: []string{"ChunkStore"}}
	results := []Result{{Chunk: proto, Score: 1.0}, {Chunk: impl, Score: 1.0}}

	ranked := rr.Rerank(context.Background(), "what implements ChunkStore", results, 0)
	assert.Equal(t, "impl", ranked[0].Chunk.ID, "conformance-implementation boost (x3.0) must outrank protocol-kind boost (x1.3)")
	assert.Equal(t, "proto", ranked[1].Chunk.ID)
}

func TestReranker_ConformanceMatchNonDeclarationBoost(t *testing.T) {
	lex := newFakeLexicalStore()
	rr := NewReranker(lex, DefaultRerankOptions())

	member := &chunk.Chunk{ID: "m", Conformances: []string{"ChunkStore"}, IsTypeDeclaration: false}
	other := &chunk.Chunk{ID: "o"}
	results := []Result{{Chunk: other, Score: 1.0}, {Chunk: member, Score: 1.0}}

	ranked := rr.Rerank(context.Background(), "what implements ChunkStore", results, 0)
	assert.Equal(t, "m", ranked[0].Chunk.ID)
	assert.InDelta(t, 1.5, ranked[0].Score, 1e-9)
}

func TestReranker_ExactSymbolRareTermBoost(t *testing.T) {
	lex := newFakeLexicalStore()
	lex.termCounts["USearchError"] = 2
	rr := NewReranker(lex, DefaultRerankOptions())

	rare := &chunk.Chunk{ID: "rare", Symbols: []string{"USearchError"}}
	common := &chunk.Chunk{ID: "common", Content: "references USearchError in prose"}
	results := []Result{{Chunk: common, Score: 1.0}, {Chunk: rare, Score: 1.0}}

	ranked := rr.Rerank(context.Background(), "USearchError", results, 0)
	assert.Equal(t, "rare", ranked[0].Chunk.ID, "only a literal symbol match earns the rare-term boost")
}

func TestReranker_CamelCaseExactBoost(t *testing.T) {
	lex := newFakeLexicalStore()
	rr := NewReranker(lex, DefaultRerankOptions())

	match := &chunk.Chunk{ID: "m", Content: "case capacityExhausted"}
	noMatch := &chunk.Chunk{ID: "n", Content: "case capacityExhaustedSomethingElse"}
	results := []Result{{Chunk: noMatch, Score: 1.0}, {Chunk: match, Score: 1.0}}

	ranked := rr.Rerank(context.Background(), "capacityExhausted", results, 0)
	assert.Equal(t, "m", ranked[0].Chunk.ID, "camelCase boost requires a whole-word match, not a substring")
}

func TestReranker_CamelCaseExactBoost_UpperFirstTypeName(t *testing.T) {
	lex := newFakeLexicalStore()
	rr := NewReranker(lex, DefaultRerankOptions())

	match := &chunk.Chunk{ID: "m", Content: "struct ChunkStore"}
	noMatch := &chunk.Chunk{ID: "n", Content: "struct ChunkStoreBackup"}
	results := []Result{{Chunk: noMatch, Score: 1.0}, {Chunk: match, Score: 1.0}}

	ranked := rr.Rerank(context.Background(), "ChunkStore", results, 0)
	assert.Equal(t, "m", ranked[0].Chunk.ID, "UpperCamelCase type names earn the boost the same as mixedCase")
}

func TestReranker_SourcePathAndPublicModifierBoosts(t *testing.T) {
	lex := newFakeLexicalStore()
	rr := NewReranker(lex, DefaultRerankOptions())

	boosted := &chunk.Chunk{ID: "b", Path: "App/Sources/Foo.swift", Signature: "public func foo()"}
	plain := &chunk.Chunk{ID: "p", Path: "App/Tests/Foo.swift", Signature: "func foo()"}
	results := []Result{{Chunk: plain, Score: 1.0}, {Chunk: boosted, Score: 1.0}}

	ranked := rr.Rerank(context.Background(), "foo", results, 0)
	assert.Equal(t, "b", ranked[0].Chunk.ID)
	assert.InDelta(t, 1.1*1.1, ranked[0].Score, 1e-9)
}

func TestReranker_StandardProtocolExtensionDemotion(t *testing.T) {
	lex := newFakeLexicalStore()
	rr := NewReranker(lex, DefaultRerankOptions())

	ext := &chunk.Chunk{ID: "ext", Kind: chunk.KindExtension, Conformances: []string{"Equatable"}}
	other := &chunk.Chunk{ID: "other"}
	results := []Result{{Chunk: ext, Score: 1.0}, {Chunk: other, Score: 1.0}}

	ranked := rr.Rerank(context.Background(), "how does equality work", results, 0)
	assert.Equal(t, "other", ranked[0].Chunk.ID, "a conceptual query demotes boilerplate protocol-conformance extensions")
	assert.InDelta(t, 0.5, ranked[1].Score, 1e-9)
}

func TestReranker_Truncation(t *testing.T) {
	lex := newFakeLexicalStore()
	rr := NewReranker(lex, DefaultRerankOptions())

	results := []Result{
		{Chunk: &chunk.Chunk{ID: "a"}, Score: 3},
		{Chunk: &chunk.Chunk{ID: "b"}, Score: 2},
		{Chunk: &chunk.Chunk{ID: "c"}, Score: 1},
	}
	ranked := rr.Rerank(context.Background(), "x", results, 2)
	assert.Len(t, ranked, 2)
}

func TestReranker_EmptyResultsIsNoOp(t *testing.T) {
	lex := newFakeLexicalStore()
	rr := NewReranker(lex, DefaultRerankOptions())
	assert.Empty(t, rr.Rerank(context.Background(), "x", nil, 10))
}
