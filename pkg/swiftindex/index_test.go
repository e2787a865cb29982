package swiftindex

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swift-index/core/internal/config"
	"github.com/swift-index/core/internal/search"
)

func writeSwiftFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func testOptions(root, indexDir string) Options {
	cfg := config.Default()
	return Options{
		RootPath:      root,
		IndexDir:      indexDir,
		Config:        cfg,
		EmbedProvider: "static",
	}
}

func TestOpenOrCreate_RequiresRootAndIndexDir(t *testing.T) {
	_, err := OpenOrCreate(context.Background(), Options{})
	require.Error(t, err)
}

func TestOpenOrCreate_SecondOpenOnSameDirFailsWhileFirstIsOpen(t *testing.T) {
	root := t.TempDir()
	indexDir := t.TempDir()

	first, err := OpenOrCreate(context.Background(), testOptions(root, indexDir))
	require.NoError(t, err)
	defer first.Close()

	_, err = OpenOrCreate(context.Background(), testOptions(root, indexDir))
	assert.Error(t, err)
}

func TestOpenOrCreate_ReopensAfterClose(t *testing.T) {
	root := t.TempDir()
	indexDir := t.TempDir()

	first, err := OpenOrCreate(context.Background(), testOptions(root, indexDir))
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := OpenOrCreate(context.Background(), testOptions(root, indexDir))
	require.NoError(t, err)
	defer second.Close()
}

func TestIndex_Search_FindsIndexedSwiftFunction(t *testing.T) {
	root := t.TempDir()
	indexDir := t.TempDir()

	writeSwiftFile(t, root, "Sources/Widget.swift", `
struct Widget {
    func renderFrame(at timestamp: Double) -> Bool {
        return timestamp > 0
    }
}
`)

	ix, err := OpenOrCreate(context.Background(), testOptions(root, indexDir))
	require.NoError(t, err)
	defer ix.Close()

	stats, err := ix.Index(context.Background(), false)
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, 1, stats.FilesWalked)
	assert.Greater(t, stats.ChunksIndexed, 0)

	results, err := ix.Search(context.Background(), "renderFrame", search.Options{Limit: 5})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Contains(t, results[0].Chunk.Content, "renderFrame")
}

func TestIndex_Index_SecondPassWithoutChangesReusesAllChunks(t *testing.T) {
	root := t.TempDir()
	indexDir := t.TempDir()

	writeSwiftFile(t, root, "Sources/Widget.swift", `
func identity(_ x: Int) -> Int { return x }
`)

	ix, err := OpenOrCreate(context.Background(), testOptions(root, indexDir))
	require.NoError(t, err)
	defer ix.Close()

	first, err := ix.Index(context.Background(), false)
	require.NoError(t, err)

	stats, err := ix.Index(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesProcessed)
	assert.Equal(t, first.ChunksIndexed, stats.ChunksReused)
	assert.Equal(t, 0, stats.EmbeddingCalls)
}

func TestIndex_SearchDocs_EmptyQueryReturnsNilWithoutError(t *testing.T) {
	root := t.TempDir()
	indexDir := t.TempDir()

	ix, err := OpenOrCreate(context.Background(), testOptions(root, indexDir))
	require.NoError(t, err)
	defer ix.Close()

	results, err := ix.SearchDocs(context.Background(), "   ", 5)
	require.NoError(t, err)
	assert.Nil(t, results)
}
