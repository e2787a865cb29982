// Package chunk defines the chunk/snippet domain model and the parser
// façade that routes source files to a language-specific chunker.
package chunk

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
)

// Kind enumerates the semantic category of a Chunk.
type Kind string

const (
	KindFunction        Kind = "function"
	KindMethod          Kind = "method"
	KindClass           Kind = "class"
	KindStruct          Kind = "struct"
	KindEnum            Kind = "enum"
	KindProtocol        Kind = "protocol"
	KindActor           Kind = "actor"
	KindExtension       Kind = "extension"
	KindMacro           Kind = "macro"
	KindProperty        Kind = "property"
	KindFreeCode        Kind = "free_code"
	KindMarkdownSection Kind = "markdown_section"
	KindOther           Kind = "other"
)

// typeKinds are the kinds that count as a type header for breadcrumb and
// is_type_declaration purposes.
var typeKinds = map[Kind]bool{
	KindClass:     true,
	KindStruct:    true,
	KindEnum:      true,
	KindActor:     true,
	KindProtocol:  true,
	KindExtension: true,
}

// IsTypeKind reports whether k is one of the type-header kinds.
func IsTypeKind(k Kind) bool { return typeKinds[k] }

// Chunk is a semantically bounded, immutable code unit. Equality is by ID.
type Chunk struct {
	ID        string // deterministic from Path + line range + Kind
	Path      string // repo-relative, forward-slash normalized
	StartLine int    // 1-indexed inclusive
	EndLine   int    // 1-indexed inclusive

	Kind Kind

	Symbols      []string // ordered; first entry is the primary name
	References   []string // identifiers textually referenced
	Imports      []string // import/include strings active in scope
	Conformances []string // inherited/adopted type names, ordered

	IsTypeDeclaration bool

	Signature  string
	DocComment string
	Breadcrumb string

	Language    string
	TokenCount  int
	ContentHash [32]byte
	Content     string

	GeneratedDescription string
}

// ComputeID derives the deterministic chunk id from path, 1-indexed line
// range and kind. Two chunks on different line ranges with identical
// content get different ids, and a chunk's id is stable across reindexes as
// long as its line range and kind don't change. Byte offsets are not part
// of the id: two chunks of the same kind spanning the same lines of a file
// get the same id.
func ComputeID(path string, startLine, endLine int, kind Kind) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d:%d:%s", path, startLine, endLine, kind)))
	return hex.EncodeToString(sum[:16])
}

// ComputeContentHash returns the SHA-256 digest of content, used both as a
// per-chunk fingerprint (content_hash) and, at the file level, for change
// detection (FileRecord.ContentHash).
func ComputeContentHash(content string) [32]byte {
	return sha256.Sum256([]byte(content))
}

// ContentHashHex renders ContentHash as a lowercase hex string (64 chars),
// the form persisted in the lexical store.
func (c *Chunk) ContentHashHex() string {
	return hex.EncodeToString(c.ContentHash[:])
}

// Finalize sets TokenCount and ContentHash from Content. Callers (parsers)
// must invoke this after populating Content and before the chunk leaves the parser.
func (c *Chunk) Finalize() {
	c.TokenCount = EstimateTokens(c.Content)
	c.ContentHash = ComputeContentHash(c.Content)
}

// EstimateTokens is the cheap token estimate used throughout the core:
// ceil(len(content) / 4).
func EstimateTokens(content string) int {
	n := len(content)
	if n == 0 {
		return 0
	}
	return (n + 3) / 4
}

// InfoSnippetKind enumerates the kind of a standalone documentation
// fragment.
type InfoSnippetKind string

const (
	InfoSnippetMarkdownSection InfoSnippetKind = "markdown_section"
	InfoSnippetDocumentation   InfoSnippetKind = "documentation"
	InfoSnippetExample         InfoSnippetKind = "example"
	InfoSnippetAnnotation      InfoSnippetKind = "annotation"
)

// InfoSnippet is standalone documentation extracted from a prose source
// (e.g. a Markdown section), optionally linked back to an owning chunk.
type InfoSnippet struct {
	ID         string
	Path       string
	StartLine  int
	EndLine    int
	Breadcrumb string
	Kind       InfoSnippetKind
	Content    string
	TokenCount int

	ChunkID string // optional; "" if not linked to a code chunk
}

// Finalize sets TokenCount from Content.
func (s *InfoSnippet) Finalize() {
	s.TokenCount = EstimateTokens(s.Content)
}

// FileRecord is per-path bookkeeping used for change detection.
type FileRecord struct {
	Path        string
	ContentHash string // 64-hex SHA-256 of the file's bytes
	IndexedAt   int64  // unix seconds
	ChunkCount  int
}

// IndexConfig is the snapshot written once at index creation and enforced
// on reopen: embedding dimension, provider tag, schema version, tokenizer
// tag.
type IndexConfig struct {
	SchemaVersion     int
	EmbeddingDim      int
	EmbedderTag       string
	TokenizerTag      string
}

// CurrentSchemaVersion is the schema version this binary writes. Opening
// an index with an older version triggers forward migration (I7); opening
// one with a newer version is a SchemaMismatch.
const CurrentSchemaVersion = 1

// extensionLanguages maps a lowercase file extension (including the dot)
// to a detected language tag. Unknown extensions map to "unknown".
var extensionLanguages = map[string]string{
	".swift": "swift",
	".m":     "objective-c",
	".mm":    "objective-c",
	".h":     "c",
	".c":     "c",
	".cpp":   "c++",
	".cc":    "c++",
	".hpp":   "c++",
	".json":  "json",
	".yaml":  "yaml",
	".yml":   "yaml",
	".md":    "markdown",
	".markdown": "markdown",
	".txt":   "text",
}

// DetectLanguage derives the language tag for path from its extension.
func DetectLanguage(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := extensionLanguages[ext]; ok {
		return lang
	}
	return "unknown"
}

// NormalizePath converts path separators to forward slashes, as required
// by the repo-relative path contract.
func NormalizePath(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}
