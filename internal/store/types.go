// Package store provides the two persistence layers behind the search
// core: a SQLite-backed lexical store (chunks, full-text index, file
// hashes) and a persistent HNSW vector store, both actor-serialized by
// an internal mutex so callers never need to coordinate locking.
package store

import (
	"context"
	"fmt"

	"github.com/swift-index/core/internal/chunk"
)

// FTSResult pairs a chunk with its BM25 score from search_fts, score
// already converted to "higher is better" (the FTS engine itself is
// lower-is-better; LexicalStore.SearchFTS negates before returning).
type FTSResult struct {
	Chunk *chunk.Chunk
	Score float64
}

// LexicalStore is the relational/lexical half of the persistence layer:
// chunk records, their full-text index, linked info snippets, and the
// per-path content-hash table used for reindex skip-decisions.
type LexicalStore interface {
	InsertChunks(ctx context.Context, chunks []*chunk.Chunk) error
	InsertSnippets(ctx context.Context, snippets []*chunk.InfoSnippet) error
	DeleteChunksForPath(ctx context.Context, path string) error

	GetChunksByIDs(ctx context.Context, ids []string) (map[string]*chunk.Chunk, error)
	GetChunksByContentHashes(ctx context.Context, hashes []string) (map[string]*chunk.Chunk, error)

	// GetChunkIDsForPath lists the ids of every chunk currently stored for
	// path, so the indexer can drop their vectors before DeleteChunksForPath
	// removes the rows themselves (the vector store is a separate actor and
	// isn't touched by that call).
	GetChunkIDsForPath(ctx context.Context, path string) ([]string, error)

	SearchFTS(ctx context.Context, preparedQuery string, limit int) ([]FTSResult, error)
	SearchSnippetsFTS(ctx context.Context, preparedQuery string, limit int) ([]*chunk.InfoSnippet, error)

	GetFileHash(ctx context.Context, path string) (string, bool, error)
	SetFileHash(ctx context.Context, rec chunk.FileRecord) error
	DeleteFile(ctx context.Context, path string) error

	// CountTerm returns an approximate document frequency for term,
	// used by the re-ranking pipeline's rare-term boost.
	CountTerm(ctx context.Context, term string) (int, error)

	Config() (chunk.IndexConfig, error)
	SetConfig(chunk.IndexConfig) error

	Close() error
}

// VectorResult is one nearest-neighbor hit. Similarity is raw cosine
// similarity, in [-1, 1] (1 = identical direction), not a rescaled
// 0..1 score — callers needing a 0..1 normalization do it themselves
// (the fusion stage in internal/search does exactly that).
type VectorResult struct {
	ID         string
	Similarity float32
}

// VectorStoreConfig configures the HNSW-backed vector store.
type VectorStoreConfig struct {
	M              int // max connections per layer (coder/hnsw default 16)
	EfSearch       int // query-time search width
	InitialCapacity int // starting reservation; grows via reserve-and-retry
}

// DefaultVectorStoreConfig returns sensible defaults.
func DefaultVectorStoreConfig() VectorStoreConfig {
	return VectorStoreConfig{M: 16, EfSearch: 64, InitialCapacity: 1024}
}

// VectorStore is the ANN half of the persistence layer. The dimension
// is fixed by the first Add call; every later call with a mismatched
// dimension fails fast with ErrDimensionMismatch. Capacity growth
// (reserve-and-retry) is handled internally and is never visible to
// callers as an error.
type VectorStore interface {
	Add(id string, vector []float32) error
	AddBatch(ids []string, vectors [][]float32) error
	Remove(id string) error
	RemoveMany(ids []string) error
	Get(id string) ([]float32, bool)
	GetBatch(ids []string) (map[string][]float32, error)
	Search(query []float32, k int) ([]VectorResult, error)
	Len() int
	Dimension() int

	Save(path string) error
	Load(path string, expectedDim int) error
	Close() error
}

// ErrDimensionMismatch indicates a vector's dimension doesn't match the
// store's fixed dimension. Unlike capacity exhaustion (handled
// internally via reserve-and-retry) this is always fatal to the call.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("vector dimension mismatch: index fixed at %d, got %d", e.Expected, e.Got)
}
