package search

import (
	"context"
	"sort"
	"strings"

	"github.com/swift-index/core/internal/chunk"
	"github.com/swift-index/core/internal/store"
)

// Boost factors from the re-ranking table.
const (
	boostTypeDeclaration       = 1.5
	boostConformanceImpl       = 3.0
	boostConformanceMatch      = 1.5
	boostProtocolKind          = 1.3
	boostExactSymbolRareTerm   = 2.5
	boostCamelCaseExact        = 2.0
	boostSourcePath            = 1.1
	boostPublicModifier        = 1.1
	demoteStandardProtocolExt  = 0.5
)

// DefaultRareTermThreshold is the global-document-frequency ceiling
// below which a term counts as "rare" for the exact-symbol boost.
const DefaultRareTermThreshold = 10

// DefaultSourcePathMarker is the path substring identifying
// implementation (non-test, non-generated) source.
const DefaultSourcePathMarker = "/Sources/"

// standardProtocols are the Swift standard-library protocols whose sole
// conformance in an extension is usually boilerplate, not the
// information a conceptual query is after.
var standardProtocols = map[string]bool{
	"Comparable":                 true,
	"Equatable":                  true,
	"Hashable":                   true,
	"Codable":                    true,
	"Sendable":                   true,
	"CustomStringConvertible":    true,
	"CustomDebugStringConvertible": true,
}

// RerankOptions configures the Reranker's thresholds.
type RerankOptions struct {
	RareTermThreshold int
	SourcePathMarker  string
}

// DefaultRerankOptions returns the documented configuration defaults.
func DefaultRerankOptions() RerankOptions {
	return RerankOptions{
		RareTermThreshold: DefaultRareTermThreshold,
		SourcePathMarker:  DefaultSourcePathMarker,
	}
}

// Reranker applies the multiplicative boost table to a fused result
// list and re-sorts by the adjusted score.
type Reranker struct {
	lexical store.LexicalStore
	opts    RerankOptions
}

// NewReranker builds a Reranker. lexical is used only for the rare-term
// document-frequency lookup backing the exact-symbol boost.
func NewReranker(lexical store.LexicalStore, opts RerankOptions) *Reranker {
	if opts.RareTermThreshold <= 0 {
		opts.RareTermThreshold = DefaultRareTermThreshold
	}
	if opts.SourcePathMarker == "" {
		opts.SourcePathMarker = DefaultSourcePathMarker
	}
	return &Reranker{lexical: lexical, opts: opts}
}

// Rerank boosts results in place (scores only) according to query's
// detected intent, then returns them re-sorted descending by score and
// truncated to limit (limit <= 0 means unbounded).
func (rr *Reranker) Rerank(ctx context.Context, query string, results []Result, limit int) []Result {
	if len(results) == 0 {
		return results
	}

	it := detectIntent(query)
	rareTerms := rr.rareQueryTerms(ctx, query)

	for i := range results {
		results[i].Score *= rr.boostFor(results[i].Chunk, it, rareTerms)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// rareQueryTerms returns the query's whitespace-separated terms whose
// store-wide document frequency is below the configured threshold.
func (rr *Reranker) rareQueryTerms(ctx context.Context, query string) []string {
	var rare []string
	for _, term := range strings.Fields(query) {
		count, err := rr.lexical.CountTerm(ctx, term)
		if err == nil && count < rr.opts.RareTermThreshold {
			rare = append(rare, term)
		}
	}
	return rare
}

func (rr *Reranker) boostFor(c *chunk.Chunk, it intent, rareTerms []string) float64 {
	if c == nil {
		return 1
	}
	factor := 1.0

	if c.IsTypeDeclaration {
		factor *= boostTypeDeclaration
	}

	if it.ConformanceTarget != "" && conformsTo(c, it.ConformanceTarget) {
		if c.IsTypeDeclaration {
			factor *= boostConformanceImpl
		} else {
			factor *= boostConformanceMatch
		}
	}

	if it.ConformanceTarget != "" && c.Kind == chunk.KindProtocol && hasSymbol(c, it.ConformanceTarget) {
		factor *= boostProtocolKind
	}

	if containsRareSymbol(c, rareTerms) {
		factor *= boostExactSymbolRareTerm
	}

	if len(it.CamelCaseTokens) > 0 && camelCaseMatches(c, it.CamelCaseTokens) {
		factor *= boostCamelCaseExact
	}

	if strings.Contains(c.Path, rr.opts.SourcePathMarker) {
		factor *= boostSourcePath
	}

	if strings.HasPrefix(strings.TrimSpace(c.Signature), "public") {
		factor *= boostPublicModifier
	}

	if it.Conceptual && c.Kind == chunk.KindExtension && conformsToStandardProtocol(c) {
		factor *= demoteStandardProtocolExt
	}

	return factor
}

func conformsTo(c *chunk.Chunk, target string) bool {
	for _, name := range c.Conformances {
		if name == target {
			return true
		}
	}
	return false
}

func hasSymbol(c *chunk.Chunk, name string) bool {
	for _, s := range c.Symbols {
		if s == name {
			return true
		}
	}
	return false
}

func containsRareSymbol(c *chunk.Chunk, rareTerms []string) bool {
	if len(rareTerms) == 0 {
		return false
	}
	for _, term := range rareTerms {
		if hasSymbol(c, term) {
			return true
		}
	}
	return false
}

func camelCaseMatches(c *chunk.Chunk, tokens []string) bool {
	for _, tok := range tokens {
		if hasSymbol(c, tok) {
			return true
		}
		if containsWord(c.Content, tok) {
			return true
		}
	}
	return false
}

func conformsToStandardProtocol(c *chunk.Chunk) bool {
	for _, name := range c.Conformances {
		if standardProtocols[name] {
			return true
		}
	}
	return false
}

// containsWord reports whether word appears in text as a standalone
// identifier, not merely as a substring of a longer one.
func containsWord(text, word string) bool {
	idx := 0
	for {
		pos := strings.Index(text[idx:], word)
		if pos < 0 {
			return false
		}
		start := idx + pos
		end := start + len(word)
		beforeOK := start == 0 || !isIdentChar(rune(text[start-1]))
		afterOK := end == len(text) || !isIdentChar(rune(text[end]))
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
		if idx >= len(text) {
			return false
		}
	}
}

func isIdentChar(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
