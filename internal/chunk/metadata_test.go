package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeForBraceCounting_StripsStringAndLineComment(t *testing.T) {
	lines := []string{
		`let s = "{not a brace}"`,
		`if x { // comment with { brace`,
		`}`,
	}
	out := sanitizeForBraceCounting(lines)

	assert.Equal(t, 0, braceDelta(out[0]))
	assert.Equal(t, 1, braceDelta(out[1]))
	assert.Equal(t, -1, braceDelta(out[2]))
}

func TestSanitizeForBraceCounting_StripsBlockComment(t *testing.T) {
	lines := []string{
		"/* block comment { with brace",
		"still inside } */",
		"real := 1",
	}
	out := sanitizeForBraceCounting(lines)

	assert.Equal(t, 0, braceDelta(out[0]))
	assert.Equal(t, 0, braceDelta(out[1]))
}

func TestBraceDelta(t *testing.T) {
	assert.Equal(t, 0, braceDelta("no braces here"))
	assert.Equal(t, 2, braceDelta("{{"))
	assert.Equal(t, -1, braceDelta("} x }{"))
}

func TestExtractDocComment_TripleSlashBlock(t *testing.T) {
	lines := []string{
		"/// Renders the frame.",
		"/// Returns true on success.",
		"func renderFrame() -> Bool {",
	}
	got := extractDocComment(lines, 2)
	assert.Equal(t, "Renders the frame.\nReturns true on success.", got)
}

func TestExtractDocComment_BlockStyle(t *testing.T) {
	lines := []string{
		"/**",
		" * Renders the frame.",
		" */",
		"func renderFrame() -> Bool {",
	}
	got := extractDocComment(lines, 3)
	assert.Contains(t, got, "Renders the frame.")
}

func TestExtractDocComment_NoneWhenNotImmediatelyPreceding(t *testing.T) {
	lines := []string{
		"/// stale comment",
		"",
		"",
		"func renderFrame() -> Bool {",
	}
	got := extractDocComment(lines, 3)
	assert.Empty(t, got)
}

func TestSplitConformances(t *testing.T) {
	assert.Equal(t, []string{"Codable", "Equatable"}, splitConformances("Codable, Equatable"))
	assert.Equal(t, []string{"Collection"}, splitConformances("Collection where Element == Int"))
	assert.Nil(t, splitConformances(""))
}

func TestSplitTopLevelComma_IgnoresNestedGenerics(t *testing.T) {
	parts := splitTopLevelComma("Dictionary<String, Int>, Codable")
	assert.Equal(t, []string{"Dictionary<String, Int>", " Codable"}, parts)
}

func TestExtractReferences_ExcludesKeywordsAndOwnName(t *testing.T) {
	refs := extractReferences(`func renderFrame() { if self.isVisible { drawFrame(context) } }`, "renderFrame")
	assert.Contains(t, refs, "drawFrame")
	assert.Contains(t, refs, "context")
	assert.NotContains(t, refs, "renderFrame")
	assert.NotContains(t, refs, "if")
	assert.NotContains(t, refs, "self")
}
