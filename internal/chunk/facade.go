package chunk

import (
	"path/filepath"
	"strings"
)

// ParseResult is the outcome of routing a file through the parser façade.
// Chunks is meaningful unless Skipped is set; prose sources (Markdown)
// additionally fill Snippets alongside their Chunks.
type ParseResult struct {
	Chunks   []*Chunk
	Snippets []*InfoSnippet // only populated for prose sources (e.g. Markdown)
	Skipped  string         // non-empty reason when parsing produced nothing
}

// Router dispatches a file to the structured Swift parser, the generic
// AST chunker, or the line-window fallback, based on its extension.
type Router struct {
	swift   *SwiftParser
	generic *GenericChunker
	md      *MarkdownChunker
}

// NewRouter builds a Router with the default parser set.
func NewRouter() *Router {
	return &Router{
		swift:   NewSwiftParser(),
		generic: NewGenericChunker(),
		md:      NewMarkdownChunker(),
	}
}

// Close releases resources held by the underlying parsers.
func (r *Router) Close() {
	r.generic.Close()
}

var genericChunkerExtensions = map[string]bool{
	".m": true, ".mm": true, ".h": true,
	".c": true, ".cpp": true, ".cc": true, ".hpp": true,
	".json": true, ".yaml": true, ".yml": true,
}

// Parse routes path/bytes to the appropriate parser and returns its result.
// Parsing errors never fail the call; they degrade to a best-effort
// Skipped result or coarse fallback chunks.
func (r *Router) Parse(path string, content []byte) ParseResult {
	path = NormalizePath(path)
	ext := strings.ToLower(filepath.Ext(path))

	switch {
	case ext == ".swift":
		chunks, err := r.swift.Parse(path, content)
		if err != nil || len(chunks) == 0 {
			return lineWindowFallback(path, content)
		}
		return ParseResult{Chunks: chunks}

	case ext == ".md" || ext == ".markdown":
		chunks, snippets, err := r.md.Parse(path, content)
		if err != nil {
			return lineWindowFallback(path, content)
		}
		return ParseResult{Chunks: chunks, Snippets: snippets}

	case genericChunkerExtensions[ext]:
		chunks, err := r.generic.Parse(path, content, ext)
		if err != nil || len(chunks) == 0 {
			return lineWindowFallback(path, content)
		}
		return ParseResult{Chunks: chunks}

	default:
		return lineWindowFallback(path, content)
	}
}
