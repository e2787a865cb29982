package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func symbolOf(t *testing.T, c *Chunk) string {
	t.Helper()
	require.NotEmpty(t, c.Symbols)
	return c.Symbols[0]
}

func findChunk(chunks []*Chunk, kind Kind, symbol string) *Chunk {
	for _, c := range chunks {
		if c.Kind == kind && len(c.Symbols) > 0 && c.Symbols[0] == symbol {
			return c
		}
	}
	return nil
}

func TestSwiftParser_EmptyFileReturnsNoChunks(t *testing.T) {
	p := NewSwiftParser()
	chunks, err := p.Parse("Empty.swift", []byte("   \n\n  "))
	require.NoError(t, err)
	assert.Nil(t, chunks)
}

func TestSwiftParser_StructAndMethod(t *testing.T) {
	src := `import UIKit

/// Renders a single frame.
struct Widget {
    var title: String

    func renderFrame() -> Bool {
        return true
    }
}
`
	p := NewSwiftParser()
	chunks, err := p.Parse("Sources/Widget.swift", []byte(src))
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	structChunk := findChunk(chunks, KindStruct, "Widget")
	require.NotNil(t, structChunk)
	assert.True(t, structChunk.IsTypeDeclaration)
	assert.Equal(t, []string{"UIKit"}, structChunk.Imports)
	assert.Contains(t, structChunk.DocComment, "Renders a single frame.")

	methodChunk := findChunk(chunks, KindMethod, "renderFrame")
	require.NotNil(t, methodChunk)
	assert.Equal(t, "Widget > renderFrame", methodChunk.Breadcrumb)
	assert.Contains(t, methodChunk.Content, "return true")

	propChunk := findChunk(chunks, KindProperty, "title")
	require.NotNil(t, propChunk)
	assert.Equal(t, "Widget > title", propChunk.Breadcrumb)
}

func TestSwiftParser_ExtensionConformance(t *testing.T) {
	src := `extension Widget: Codable, Equatable {
    static func == (lhs: Widget, rhs: Widget) -> Bool {
        return lhs.title == rhs.title
    }
}
`
	p := NewSwiftParser()
	chunks, err := p.Parse("Widget+Codable.swift", []byte(src))
	require.NoError(t, err)

	ext := findChunk(chunks, KindExtension, "Widget")
	require.NotNil(t, ext)
	assert.Equal(t, []string{"Codable", "Equatable"}, ext.Conformances)
}

func TestSwiftParser_NestedTypesAccumulateBreadcrumb(t *testing.T) {
	src := `class Outer {
    struct Inner {
        func method() {
            doSomething()
        }
    }
}
`
	p := NewSwiftParser()
	chunks, err := p.Parse("Nested.swift", []byte(src))
	require.NoError(t, err)

	inner := findChunk(chunks, KindStruct, "Inner")
	require.NotNil(t, inner)
	assert.Equal(t, "Outer > Inner", inner.Breadcrumb)

	method := findChunk(chunks, KindMethod, "method")
	require.NotNil(t, method)
	assert.Equal(t, "Outer > Inner > method", method.Breadcrumb)
	assert.Contains(t, method.References, "doSomething")
}

func TestSwiftParser_BraceInsideStringIgnored(t *testing.T) {
	src := `struct Logger {
    func format() -> String {
        let template = "{value}"
        return template
    }
}
`
	p := NewSwiftParser()
	chunks, err := p.Parse("Logger.swift", []byte(src))
	require.NoError(t, err)

	method := findChunk(chunks, KindMethod, "format")
	require.NotNil(t, method)
	assert.Contains(t, method.Content, "return template")
}

func TestSwiftParser_MacroDeclaration(t *testing.T) {
	src := `public macro Traced() = #externalMacro(module: "Macros", type: "TracedMacro")
`
	p := NewSwiftParser()
	chunks, err := p.Parse("Macros.swift", []byte(src))
	require.NoError(t, err)

	macro := findChunk(chunks, KindMacro, "Traced")
	require.NotNil(t, macro)
	assert.Equal(t, 1, macro.StartLine)
	assert.Equal(t, macro.StartLine, macro.EndLine)
}

func TestSwiftParser_ProtocolRequirementHasNoBody(t *testing.T) {
	src := `protocol Renderer {
    func render() -> String
}
`
	p := NewSwiftParser()
	chunks, err := p.Parse("Renderer.swift", []byte(src))
	require.NoError(t, err)

	req := findChunk(chunks, KindMethod, "render")
	require.NotNil(t, req)
	assert.Equal(t, req.StartLine, req.EndLine)
}
