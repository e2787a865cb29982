package search

import (
	"context"

	"github.com/swift-index/core/internal/embed"
	"github.com/swift-index/core/internal/globmatch"
	"github.com/swift-index/core/internal/store"
)

// vectorOverFetch is the over_fetch factor applied to the caller's
// limit before the ANN search, so that path/extension filtering still
// leaves limit candidates to fuse.
const vectorOverFetch = 3

// Vector is the semantic half of retrieval. It embeds the query
// directly (bypassing the cross-caller batcher — a single query embed is
// allowed to go out immediately), searches the ANN store, resolves ids
// to chunks in one batch call, and applies the shared path/extension
// filters.
type Vector struct {
	embedder embed.Embedder
	vectors  store.VectorStore
	lexical  store.LexicalStore
	globs    *globmatch.Matcher
}

var _ VectorRetriever = (*Vector)(nil)

// NewVector builds a Vector retriever over embedder, vectors and lexical
// (the last used only to resolve ANN ids back to full chunks).
func NewVector(embedder embed.Embedder, vectors store.VectorStore, lexical store.LexicalStore) *Vector {
	return &Vector{embedder: embedder, vectors: vectors, lexical: lexical, globs: globmatch.New()}
}

// Retrieve embeds the query and searches the ANN store.
func (v *Vector) Retrieve(ctx context.Context, query string, opts Options) ([]Scored, error) {
	qvec, err := v.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	hits, err := v.vectors.Search(qvec, limit*vectorOverFetch)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, nil
	}

	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	chunks, err := v.lexical.GetChunksByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]Scored, 0, len(hits))
	for _, h := range hits {
		if float32(h.Similarity) < opts.MinSimilarity {
			continue
		}
		c, ok := chunks[h.ID]
		if !ok {
			continue
		}
		if !matchesFilters(c, opts, v.globs) {
			continue
		}
		out = append(out, Scored{Chunk: c, Score: float64(h.Similarity)})
	}
	return out, nil
}
