package search

import (
	"context"
	"sync"

	"github.com/swift-index/core/internal/chunk"
	"github.com/swift-index/core/internal/store"
)

// fakeLexicalStore is a minimal in-memory store.LexicalStore sufficient
// to drive the keyword retriever, the vector retriever's id resolution,
// and the reranker's rare-term lookup.
type fakeLexicalStore struct {
	mu         sync.Mutex
	chunks     map[string]*chunk.Chunk
	ftsResults []store.FTSResult
	ftsErr     error
	termCounts map[string]int
}

func newFakeLexicalStore() *fakeLexicalStore {
	return &fakeLexicalStore{
		chunks:     map[string]*chunk.Chunk{},
		termCounts: map[string]int{},
	}
}

func (s *fakeLexicalStore) addChunk(c *chunk.Chunk) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks[c.ID] = c
}

func (s *fakeLexicalStore) InsertChunks(_ context.Context, chunks []*chunk.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		s.chunks[c.ID] = c
	}
	return nil
}
func (s *fakeLexicalStore) InsertSnippets(_ context.Context, _ []*chunk.InfoSnippet) error { return nil }
func (s *fakeLexicalStore) DeleteChunksForPath(_ context.Context, _ string) error          { return nil }

func (s *fakeLexicalStore) GetChunksByIDs(_ context.Context, ids []string) (map[string]*chunk.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]*chunk.Chunk{}
	for _, id := range ids {
		if c, ok := s.chunks[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}
func (s *fakeLexicalStore) GetChunksByContentHashes(_ context.Context, _ []string) (map[string]*chunk.Chunk, error) {
	return nil, nil
}
func (s *fakeLexicalStore) GetChunkIDsForPath(_ context.Context, _ string) ([]string, error) {
	return nil, nil
}

func (s *fakeLexicalStore) SearchFTS(_ context.Context, _ string, limit int) ([]store.FTSResult, error) {
	if s.ftsErr != nil {
		return nil, s.ftsErr
	}
	if limit > 0 && limit < len(s.ftsResults) {
		return s.ftsResults[:limit], nil
	}
	return s.ftsResults, nil
}
func (s *fakeLexicalStore) SearchSnippetsFTS(_ context.Context, _ string, _ int) ([]*chunk.InfoSnippet, error) {
	return nil, nil
}

func (s *fakeLexicalStore) GetFileHash(_ context.Context, _ string) (string, bool, error) {
	return "", false, nil
}
func (s *fakeLexicalStore) SetFileHash(_ context.Context, _ chunk.FileRecord) error { return nil }
func (s *fakeLexicalStore) DeleteFile(_ context.Context, _ string) error           { return nil }

func (s *fakeLexicalStore) CountTerm(_ context.Context, term string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.termCounts[term]; ok {
		return c, nil
	}
	return 1000, nil
}

func (s *fakeLexicalStore) Config() (chunk.IndexConfig, error)     { return chunk.IndexConfig{}, nil }
func (s *fakeLexicalStore) SetConfig(_ chunk.IndexConfig) error    { return nil }
func (s *fakeLexicalStore) Close() error                          { return nil }

var _ store.LexicalStore = (*fakeLexicalStore)(nil)

// fakeVectorStore is a minimal in-memory store.VectorStore for the
// vector retriever's tests.
type fakeVectorStore struct {
	mu       sync.Mutex
	vecs     map[string][]float32
	dim      int
	searchFn func(query []float32, k int) ([]store.VectorResult, error)
}

func newFakeVectorStore(dim int) *fakeVectorStore {
	return &fakeVectorStore{vecs: map[string][]float32{}, dim: dim}
}

func (v *fakeVectorStore) Add(id string, vec []float32) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.vecs[id] = vec
	return nil
}
func (v *fakeVectorStore) AddBatch(ids []string, vecs [][]float32) error {
	for i, id := range ids {
		_ = v.Add(id, vecs[i])
	}
	return nil
}
func (v *fakeVectorStore) Remove(id string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.vecs, id)
	return nil
}
func (v *fakeVectorStore) RemoveMany(ids []string) error {
	for _, id := range ids {
		_ = v.Remove(id)
	}
	return nil
}
func (v *fakeVectorStore) Get(id string) ([]float32, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	vec, ok := v.vecs[id]
	return vec, ok
}
func (v *fakeVectorStore) GetBatch(ids []string) (map[string][]float32, error) {
	out := map[string][]float32{}
	for _, id := range ids {
		if vec, ok := v.Get(id); ok {
			out[id] = vec
		}
	}
	return out, nil
}
func (v *fakeVectorStore) Search(query []float32, k int) ([]store.VectorResult, error) {
	if v.searchFn != nil {
		return v.searchFn(query, k)
	}
	return nil, nil
}
func (v *fakeVectorStore) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.vecs)
}
func (v *fakeVectorStore) Dimension() int            { return v.dim }
func (v *fakeVectorStore) Save(_ string) error       { return nil }
func (v *fakeVectorStore) Load(_ string, _ int) error { return nil }
func (v *fakeVectorStore) Close() error              { return nil }

var _ store.VectorStore = (*fakeVectorStore)(nil)

// fakeEmbedder returns a deterministic, caller-supplied vector for the
// query retrieval tests.
type fakeEmbedder struct {
	dim    int
	vector []float32
	err    error
}

func (e *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	if e.vector != nil {
		return e.vector, nil
	}
	return make([]float32, e.dim), nil
}
func (e *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		v, err := e.Embed(ctx, texts[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
func (e *fakeEmbedder) Dimensions() int                   { return e.dim }
func (e *fakeEmbedder) ModelName() string                 { return "fake" }
func (e *fakeEmbedder) Available(_ context.Context) bool { return true }
func (e *fakeEmbedder) Close() error                      { return nil }

func newChunk(id, path string, kind chunk.Kind, symbols []string) *chunk.Chunk {
	return &chunk.Chunk{
		ID:      id,
		Path:    path,
		Kind:    kind,
		Symbols: symbols,
	}
}
