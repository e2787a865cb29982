package search

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/swift-index/core/internal/chunk"
	"github.com/swift-index/core/internal/globmatch"
	"github.com/swift-index/core/internal/store"
)

// overFetchFactor is how many extra results the keyword retriever asks
// the lexical store for, so path/extension filtering still leaves
// opts.Limit candidates to fuse.
const overFetchFactor = 2

// Keyword is the lexical half of retrieval. It prepares the query
// with store.PrepareFTSQuery, over-fetches from the full-text index, and
// filters by path glob and extension before returning non-negatively
// scored hits.
type Keyword struct {
	lexical store.LexicalStore
	globs   *globmatch.Matcher
}

var _ KeywordRetriever = (*Keyword)(nil)

// NewKeyword builds a Keyword retriever over lexical.
func NewKeyword(lexical store.LexicalStore) *Keyword {
	return &Keyword{lexical: lexical, globs: globmatch.New()}
}

// Retrieve runs a prepared-query FTS search, over-fetched by
// overFetchFactor, filtered, then rescaled to a non-negative "higher is
// better" score within the returned set.
func (k *Keyword) Retrieve(ctx context.Context, query string, opts Options) ([]Scored, error) {
	prepared := store.PrepareFTSQuery(query)
	if prepared == "" {
		return nil, nil
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	hits, err := k.lexical.SearchFTS(ctx, prepared, limit*overFetchFactor)
	if err != nil {
		return nil, err
	}

	filtered := make([]store.FTSResult, 0, len(hits))
	for _, h := range hits {
		if h.Chunk == nil {
			continue
		}
		if !matchesFilters(h.Chunk, opts, k.globs) {
			continue
		}
		filtered = append(filtered, h)
	}
	if len(filtered) == 0 {
		return nil, nil
	}

	return positiveScores(filtered), nil
}

// positiveScores converts FTS5's lower-is-better bm25() values (already
// negated to higher-is-better by SearchFTS) into scores normalized to
// start at 0 within this result set, preserving relative order.
func positiveScores(hits []store.FTSResult) []Scored {
	min := hits[0].Score
	for _, h := range hits {
		if h.Score < min {
			min = h.Score
		}
	}

	out := make([]Scored, len(hits))
	for i, h := range hits {
		out[i] = Scored{Chunk: h.Chunk, Score: h.Score - min}
	}
	return out
}

// matchesFilters applies opts.PathFilter and opts.Extensions to c.
func matchesFilters(c *chunk.Chunk, opts Options, globs *globmatch.Matcher) bool {
	if opts.PathFilter != "" {
		ok, err := globs.Match(opts.PathFilter, c.Path)
		if err != nil || !ok {
			return false
		}
	}
	if len(opts.Extensions) > 0 {
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(c.Path)), ".")
		found := false
		for _, want := range opts.Extensions {
			if strings.TrimPrefix(strings.ToLower(want), ".") == ext {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
