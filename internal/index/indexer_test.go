package index

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swift-index/core/internal/chunk"
	"github.com/swift-index/core/internal/embed"
	"github.com/swift-index/core/internal/scanner"
	"github.com/swift-index/core/internal/store"
)

// fakeLexicalStore is a minimal in-memory stand-in for store.LexicalStore,
// enough to exercise the indexer's reuse/partition logic without a real
// SQLite database.
type fakeLexicalStore struct {
	mu           sync.Mutex
	chunksByPath map[string][]*chunk.Chunk
	fileHashes   map[string]string
}

func newFakeLexicalStore() *fakeLexicalStore {
	return &fakeLexicalStore{
		chunksByPath: make(map[string][]*chunk.Chunk),
		fileHashes:   make(map[string]string),
	}
}

func (f *fakeLexicalStore) InsertChunks(_ context.Context, chunks []*chunk.Chunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range chunks {
		f.chunksByPath[c.Path] = append(f.chunksByPath[c.Path], c)
	}
	return nil
}

func (f *fakeLexicalStore) InsertSnippets(_ context.Context, _ []*chunk.InfoSnippet) error {
	return nil
}

func (f *fakeLexicalStore) DeleteChunksForPath(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.chunksByPath, path)
	return nil
}

func (f *fakeLexicalStore) GetChunksByIDs(_ context.Context, ids []string) (map[string]*chunk.Chunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make(map[string]*chunk.Chunk)
	for _, cs := range f.chunksByPath {
		for _, c := range cs {
			if want[c.ID] {
				out[c.ID] = c
			}
		}
	}
	return out, nil
}

func (f *fakeLexicalStore) GetChunksByContentHashes(_ context.Context, hashes []string) (map[string]*chunk.Chunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := make(map[string]bool, len(hashes))
	for _, h := range hashes {
		want[h] = true
	}
	out := make(map[string]*chunk.Chunk)
	for _, cs := range f.chunksByPath {
		for _, c := range cs {
			if want[c.ContentHashHex()] {
				out[c.ContentHashHex()] = c
			}
		}
	}
	return out, nil
}

func (f *fakeLexicalStore) GetChunkIDsForPath(_ context.Context, path string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for _, c := range f.chunksByPath[path] {
		ids = append(ids, c.ID)
	}
	return ids, nil
}

func (f *fakeLexicalStore) SearchFTS(_ context.Context, _ string, _ int) ([]store.FTSResult, error) {
	return nil, nil
}

func (f *fakeLexicalStore) SearchSnippetsFTS(_ context.Context, _ string, _ int) ([]*chunk.InfoSnippet, error) {
	return nil, nil
}

func (f *fakeLexicalStore) GetFileHash(_ context.Context, path string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.fileHashes[path]
	return h, ok, nil
}

func (f *fakeLexicalStore) SetFileHash(_ context.Context, rec chunk.FileRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fileHashes[rec.Path] = rec.ContentHash
	return nil
}

func (f *fakeLexicalStore) DeleteFile(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.fileHashes, path)
	return nil
}

func (f *fakeLexicalStore) CountTerm(_ context.Context, _ string) (int, error) { return 0, nil }

func (f *fakeLexicalStore) Config() (chunk.IndexConfig, error) { return chunk.IndexConfig{}, nil }

func (f *fakeLexicalStore) SetConfig(_ chunk.IndexConfig) error { return nil }

func (f *fakeLexicalStore) Close() error { return nil }

// fakeVectorStore is a minimal in-memory stand-in for store.VectorStore.
type fakeVectorStore struct {
	mu   sync.Mutex
	vecs map[string][]float32
	dim  int
}

func newFakeVectorStore() *fakeVectorStore {
	return &fakeVectorStore{vecs: make(map[string][]float32)}
}

func (f *fakeVectorStore) Add(id string, vector []float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vecs[id] = vector
	if f.dim == 0 {
		f.dim = len(vector)
	}
	return nil
}

func (f *fakeVectorStore) AddBatch(ids []string, vectors [][]float32) error {
	for i, id := range ids {
		if err := f.Add(id, vectors[i]); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeVectorStore) Remove(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.vecs, id)
	return nil
}

func (f *fakeVectorStore) RemoveMany(ids []string) error {
	for _, id := range ids {
		_ = f.Remove(id)
	}
	return nil
}

func (f *fakeVectorStore) Get(id string) ([]float32, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vecs[id]
	return v, ok
}

func (f *fakeVectorStore) GetBatch(ids []string) (map[string][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string][]float32)
	for _, id := range ids {
		if v, ok := f.vecs[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func (f *fakeVectorStore) Search(_ []float32, _ int) ([]store.VectorResult, error) { return nil, nil }

func (f *fakeVectorStore) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.vecs)
}

func (f *fakeVectorStore) Dimension() int { return f.dim }

func (f *fakeVectorStore) Save(_ string) error { return nil }

func (f *fakeVectorStore) Load(_ string, _ int) error { return nil }

func (f *fakeVectorStore) Close() error { return nil }

// fakeEmbedder is a deterministic stand-in for embed.Embedder: the vector
// is derived from the text length so equal content always embeds to an
// equal vector, and every call is counted.
type fakeEmbedder struct {
	mu    sync.Mutex
	calls int
	dim   int
}

func newFakeEmbedder(dim int) *fakeEmbedder {
	return &fakeEmbedder{dim: dim}
}

func (e *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	v := make([]float32, e.dim)
	for i := range v {
		v[i] = float32(len(text) + i)
	}
	return v, nil
}

func (e *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *fakeEmbedder) Dimensions() int { return e.dim }

func (e *fakeEmbedder) ModelName() string { return "fake" }

func (e *fakeEmbedder) Available(_ context.Context) bool { return true }

func (e *fakeEmbedder) Close() error { return nil }

func (e *fakeEmbedder) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// newTestIndexer wires an Indexer over fakes, returning it alongside the
// fakes so assertions can inspect store/embedder state directly.
func newTestIndexer(t *testing.T) (*Indexer, *fakeLexicalStore, *fakeVectorStore, *fakeEmbedder) {
	t.Helper()
	lexical := newFakeLexicalStore()
	vector := newFakeVectorStore()
	embedder := newFakeEmbedder(8)
	batcher := embed.NewBatcher(embedder, 32, 5*time.Millisecond)
	idx, err := New(lexical, vector, chunk.NewRouter(), batcher)
	require.NoError(t, err)
	return idx, lexical, vector, embedder
}

func writeTestFile(t *testing.T, root, relPath, content string) {
	t.Helper()
	full := filepath.Join(root, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestIndexer_Run_FirstPass_IndexesAllFiles(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "a.go", "package a\n\nfunc One() int { return 1 }\n")
	writeTestFile(t, root, "b.go", "package b\n\nfunc Two() int { return 2 }\n")

	idx, lexical, vector, embedder := newTestIndexer(t)
	defer func() { _ = idx.Close() }()

	stats, err := idx.Run(context.Background(), Options{RootPath: root})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.FilesProcessed)
	assert.True(t, stats.ChunksIndexed > 0)
	assert.Equal(t, stats.ChunksIndexed, stats.EmbeddingCalls, "first pass has nothing to reuse")
	assert.Equal(t, stats.ChunksIndexed, vector.Len())
	assert.Equal(t, stats.ChunksIndexed, embedder.callCount())

	_, ok, _ := lexical.GetFileHash(context.Background(), "a.go")
	assert.True(t, ok)
}

func TestIndexer_Run_SecondPass_ReusesUnchangedFiles(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "a.go", "package a\n\nfunc One() int { return 1 }\n")

	idx, _, _, embedder := newTestIndexer(t)
	defer func() { _ = idx.Close() }()

	firstStats, err := idx.Run(context.Background(), Options{RootPath: root})
	require.NoError(t, err)
	firstCalls := embedder.callCount()

	stats, err := idx.Run(context.Background(), Options{RootPath: root})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.FilesProcessed)
	assert.Equal(t, firstStats.ChunksIndexed, stats.ChunksReused, "unchanged file reuses every chunk")
	assert.Equal(t, 0, stats.EmbeddingCalls)
	assert.Equal(t, firstCalls, embedder.callCount(), "no new embedding calls on an unchanged pass")
}

func TestIndexer_Run_SubmodulesEnabled_IndexesSubmoduleFiles(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "src/main.go", "package main\n\nfunc Main() {}\n")

	gitmodules := "[submodule \"libs/utils\"]\n\tpath = libs/utils\n\turl = https://example.com/utils.git\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitmodules"), []byte(gitmodules), 0o644))
	writeTestFile(t, root, "libs/utils/utils.go", "package utils\n\nfunc Helper() int { return 1 }\n")

	idx, lexical, _, _ := newTestIndexer(t)
	defer func() { _ = idx.Close() }()

	_, err := idx.Run(context.Background(), Options{
		RootPath:   root,
		Submodules: &scanner.SubmoduleConfig{Enabled: true},
	})
	require.NoError(t, err)

	_, ok, _ := lexical.GetFileHash(context.Background(), "libs/utils/utils.go")
	assert.True(t, ok, "enabling submodule discovery reaches the submodule's files through Options.Submodules")
}

func TestIndexer_Run_SubmodulesNil_SkipsSubmoduleDiscovery(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "src/main.go", "package main\n\nfunc Main() {}\n")

	gitmodules := "[submodule \"libs/utils\"]\n\tpath = libs/utils\n\turl = https://example.com/utils.git\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitmodules"), []byte(gitmodules), 0o644))

	idx, _, _, _ := newTestIndexer(t)
	defer func() { _ = idx.Close() }()

	stats, err := idx.Run(context.Background(), Options{RootPath: root})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.FilesProcessed, "submodule discovery is opt-in; a nil Options.Submodules walks only the superproject")
}

func TestIndexer_Run_ForceReindex_ReusesUnchangedChunkVectors(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "a.go", "package a\n\nfunc One() int { return 1 }\n")

	idx, _, vector, embedder := newTestIndexer(t)
	defer func() { _ = idx.Close() }()

	_, err := idx.Run(context.Background(), Options{RootPath: root})
	require.NoError(t, err)
	firstCalls := embedder.callCount()
	firstVectorCount := vector.Len()

	stats, err := idx.Run(context.Background(), Options{RootPath: root, Force: true})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.FilesProcessed)
	assert.Equal(t, stats.ChunksIndexed, stats.ChunksReused, "unchanged content reuses every chunk's vector")
	assert.Equal(t, 0, stats.EmbeddingCalls)
	assert.Equal(t, firstCalls, embedder.callCount(), "no new embedder calls when every chunk is reused")
	assert.Equal(t, firstVectorCount, vector.Len())
}

func TestIndexer_Run_ModifiedFile_ReembedsChangedContent(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "a.go", "package a\n\nfunc One() int { return 1 }\n")

	idx, lexical, vector, _ := newTestIndexer(t)
	defer func() { _ = idx.Close() }()

	_, err := idx.Run(context.Background(), Options{RootPath: root})
	require.NoError(t, err)
	oldIDs, err := lexical.GetChunkIDsForPath(context.Background(), "a.go")
	require.NoError(t, err)
	require.NotEmpty(t, oldIDs)
	oldVec, ok := vector.Get(oldIDs[0])
	require.True(t, ok)

	// Same line range and kind, different content: the chunk id is stable
	// (it's a function of path+line range+kind only) but its content hash, and
	// therefore its vector, must change.
	writeTestFile(t, root, "a.go", "package a\n\nfunc OneChanged() int { return 100 }\n")

	stats, err := idx.Run(context.Background(), Options{RootPath: root})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesProcessed)
	assert.True(t, stats.EmbeddingCalls > 0, "changed content must not be served from reuse")
	assert.Equal(t, 0, stats.ChunksReused)

	newIDs, err := lexical.GetChunkIDsForPath(context.Background(), "a.go")
	require.NoError(t, err)
	assert.NotEmpty(t, newIDs)

	newVec, ok := vector.Get(newIDs[0])
	require.True(t, ok)
	assert.NotEqual(t, oldVec, newVec, "the replaced chunk's vector must reflect its new content")
}

func TestIndexer_Remove_DropsChunksAndVectors(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "a.go", "package a\n\nfunc One() int { return 1 }\n")

	idx, lexical, vector, _ := newTestIndexer(t)
	defer func() { _ = idx.Close() }()

	_, err := idx.Run(context.Background(), Options{RootPath: root})
	require.NoError(t, err)
	require.True(t, vector.Len() > 0)

	require.NoError(t, idx.Remove(context.Background(), "a.go"))

	ids, err := lexical.GetChunkIDsForPath(context.Background(), "a.go")
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Equal(t, 0, vector.Len())

	_, ok, _ := lexical.GetFileHash(context.Background(), "a.go")
	assert.False(t, ok)
}
