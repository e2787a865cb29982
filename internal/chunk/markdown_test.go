package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownChunker_EmptyContent(t *testing.T) {
	m := NewMarkdownChunker()
	chunks, snippets, err := m.Parse("README.md", []byte("   "))
	require.NoError(t, err)
	assert.Nil(t, chunks)
	assert.Nil(t, snippets)
}

func TestMarkdownChunker_HeaderBreadcrumbsAccumulate(t *testing.T) {
	src := `# Guide

Intro text.

## Installation

Run the installer.

### Requirements

Needs Xcode 16.
`
	m := NewMarkdownChunker()
	chunks, snippets, err := m.Parse("docs/GUIDE.md", []byte(src))
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	require.Len(t, snippets, 3)

	assert.Equal(t, "Guide", chunks[0].Breadcrumb)
	assert.Equal(t, "Guide > Installation", chunks[1].Breadcrumb)
	assert.Equal(t, "Guide > Installation > Requirements", chunks[2].Breadcrumb)

	for i, c := range chunks {
		assert.Equal(t, KindMarkdownSection, c.Kind)
		assert.Equal(t, c.ID, snippets[i].ChunkID)
		assert.Equal(t, InfoSnippetMarkdownSection, snippets[i].Kind)
	}
}

func TestMarkdownChunker_SkipsBlankPreamble(t *testing.T) {
	src := `

# Title

content here
`
	m := NewMarkdownChunker()
	chunks, snippets, err := m.Parse("doc.md", []byte(src))
	require.NoError(t, err)

	require.Len(t, chunks, 1)
	require.Len(t, snippets, 1)
	assert.Equal(t, "Title", chunks[0].Breadcrumb)
}
