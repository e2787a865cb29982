// Package search implements the retrieval and fusion core: a keyword
// retriever over the lexical store's full-text index, a vector retriever
// over the ANN store, hybrid RRF fusion of the two ranked lists, and a
// deterministic re-ranking pass of multiplicative relevance boosts.
package search

import (
	"context"

	"github.com/swift-index/core/internal/chunk"
	"github.com/swift-index/core/internal/store"
)

// Options configures a search query, shared by the keyword and vector
// retrievers and the fusion/re-rank stage.
type Options struct {
	// Limit is the maximum number of results to return.
	Limit int

	// SemanticWeight is the fusion weight given to the vector list
	// (w_sem); the keyword list gets 1 - SemanticWeight. The engine uses
	// the value as given, so zero means keyword-only fusion;
	// swiftindex.Index.Search replaces zero with the configured default.
	SemanticWeight float64

	// PathFilter is an optional glob restricting results to matching
	// repo-relative paths.
	PathFilter string

	// Extensions restricts results to files with one of these
	// (dot-less, lowercase) extensions. Empty means no restriction.
	Extensions []string

	// MinSimilarity drops vector hits below this cosine similarity
	// before fusion. Zero disables the floor.
	MinSimilarity float32
}

// Scored pairs a chunk with a single retriever's score, prior to fusion.
// Score is always oriented "higher is better".
type Scored struct {
	Chunk *chunk.Chunk
	Score float64
}

// KeywordRetriever is the lexical/BM25 half of retrieval.
type KeywordRetriever interface {
	Retrieve(ctx context.Context, query string, opts Options) ([]Scored, error)
}

// VectorRetriever is the ANN/semantic half of retrieval.
type VectorRetriever interface {
	Retrieve(ctx context.Context, query string, opts Options) ([]Scored, error)
}

// MatchKind reports which retriever(s) contributed to a fused result.
type MatchKind string

const (
	MatchBM25     MatchKind = "bm25"
	MatchSemantic MatchKind = "semantic"
	MatchHybrid   MatchKind = "hybrid"
)

// Result is a single search hit after fusion and re-ranking.
type Result struct {
	Chunk *chunk.Chunk

	// Score is the final, re-ranked fusion score.
	Score float64

	BM25Score     float64
	SemanticScore float64
	BM25Rank      int // 1-indexed; 0 if absent from the keyword list
	SemanticRank  int // 1-indexed; 0 if absent from the vector list

	MatchKind MatchKind
}

// EngineStats reports point-in-time counts for the underlying stores.
type EngineStats struct {
	VectorCount int
}

// Engine ties together the keyword retriever, vector retriever, fusion
// and re-ranking stages behind a single Search call.
type Engine struct {
	keyword  KeywordRetriever
	vector   VectorRetriever
	fusion   *Fusion
	lexical  store.LexicalStore
	vectors  store.VectorStore
}
