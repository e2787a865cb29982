package search

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/swift-index/core/internal/store"
)

// New builds an Engine wiring a keyword retriever, a vector retriever,
// and the fusion/re-rank stage over lexical and vectors.
func New(keyword KeywordRetriever, vector VectorRetriever, lexical store.LexicalStore, vectors store.VectorStore) *Engine {
	return &Engine{
		keyword: keyword,
		vector:  vector,
		fusion:  NewFusion(),
		lexical: lexical,
		vectors: vectors,
	}
}

// Search runs the keyword and vector retrievers concurrently, fuses
// their results, re-ranks, and truncates to opts.Limit. An empty query
// returns (nil, nil) without error.
func (e *Engine) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}

	var bm25Hits, vecHits []Scored
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hits, err := e.keyword.Retrieve(gctx, query, opts)
		if err != nil {
			return err
		}
		bm25Hits = hits
		return nil
	})
	g.Go(func() error {
		hits, err := e.vector.Retrieve(gctx, query, opts)
		if err != nil {
			return err
		}
		vecHits = hits
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fused := e.fusion.Fuse(bm25Hits, vecHits, opts.SemanticWeight)

	reranker := NewReranker(e.lexical, DefaultRerankOptions())
	ranked := reranker.Rerank(ctx, query, fused, opts.Limit)

	return ranked, nil
}

// Stats reports point-in-time counts from the underlying stores.
func (e *Engine) Stats() EngineStats {
	return EngineStats{VectorCount: e.vectors.Len()}
}
