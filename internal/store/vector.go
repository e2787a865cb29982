package store

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/coder/hnsw"
)

// HNSWVectorStore implements VectorStore using coder/hnsw, a pure Go
// HNSW implementation (no CGO, unlike the usearch bindings this
// replaces). It tracks its own reserved capacity and grows it by
// reserve-and-retry rather than surfacing a capacity error to callers
// — only a genuine dimension mismatch is ever returned as an error.
//
// coder/hnsw's Graph has no by-key vector lookup, so normalized vectors
// are additionally kept in-process keyed by chunk ID; this is what
// backs Get/GetBatch.
type HNSWVectorStore struct {
	mu     sync.RWMutex
	graph  *hnsw.Graph[uint64]
	config VectorStoreConfig

	dimension int // fixed by the first Add/AddBatch call; 0 means unset

	idMap   map[string]uint64
	keyMap  map[uint64]string
	vectors map[string][]float32 // normalized, keyed by caller-visible ID
	nextKey uint64

	capacity int // current reservation; informational, grown on demand

	closed bool
}

type hnswVectorMetadata struct {
	IDMap     map[string]uint64
	Vectors   map[string][]float32
	NextKey   uint64
	Dimension int
	Capacity  int
	Config    VectorStoreConfig
}

// NewHNSWVectorStore constructs an empty vector store. The dimension is
// fixed by the first inserted vector.
func NewHNSWVectorStore(cfg VectorStoreConfig) *HNSWVectorStore {
	if cfg.M == 0 {
		cfg.M = 16
	}
	if cfg.EfSearch == 0 {
		cfg.EfSearch = 64
	}
	if cfg.InitialCapacity == 0 {
		cfg.InitialCapacity = 1024
	}

	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = cfg.M
	graph.EfSearch = cfg.EfSearch
	graph.Ml = 0.25

	return &HNSWVectorStore{
		graph:    graph,
		config:   cfg,
		idMap:    make(map[string]uint64),
		keyMap:   make(map[uint64]string),
		vectors:  make(map[string][]float32),
		capacity: cfg.InitialCapacity,
	}
}

var _ VectorStore = (*HNSWVectorStore)(nil)

// reserve grows capacity to at least length+incoming using a
// reserve-and-retry rule: max(2*capacity, length+incoming+1024).
// coder/hnsw's Graph grows its own backing storage on demand, so this
// is purely a bookkeeping adjustment that keeps capacity observable —
// the hook a backend with a real fixed-size arena would grow through.
func (s *HNSWVectorStore) reserve(incoming int) {
	length := len(s.idMap)
	if length+incoming <= s.capacity {
		return
	}
	grown := 2 * s.capacity
	if want := length + incoming + 1024; grown < want {
		grown = want
	}
	s.capacity = grown
}

func (s *HNSWVectorStore) fixOrCheckDimension(dim int) error {
	if s.dimension == 0 {
		s.dimension = dim
		return nil
	}
	if s.dimension != dim {
		return ErrDimensionMismatch{Expected: s.dimension, Got: dim}
	}
	return nil
}

// Add inserts (or replaces) a single vector.
func (s *HNSWVectorStore) Add(id string, vector []float32) error {
	return s.AddBatch([]string{id}, [][]float32{vector})
}

// AddBatch inserts (or replaces) vectors with their IDs in one call.
// Replacing an existing ID uses lazy deletion — the stale node is
// orphaned from the id/key maps rather than removed from the graph,
// since coder/hnsw's own Delete can destabilize the graph when the
// last node is removed.
func (s *HNSWVectorStore) AddBatch(ids []string, vectors [][]float32) error {
	if len(ids) == 0 {
		return nil
	}
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch: %d vs %d", len(ids), len(vectors))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("vector store is closed")
	}

	for _, v := range vectors {
		if err := s.fixOrCheckDimension(len(v)); err != nil {
			return err
		}
	}

	s.reserve(len(ids))

	for i, id := range ids {
		if existingKey, exists := s.idMap[id]; exists {
			delete(s.keyMap, existingKey)
			delete(s.idMap, id)
		}

		key := s.nextKey
		s.nextKey++

		vec := make([]float32, len(vectors[i]))
		copy(vec, vectors[i])
		normalizeVectorInPlace(vec)

		s.graph.Add(hnsw.MakeNode(key, vec))
		s.idMap[id] = key
		s.keyMap[key] = id
		s.vectors[id] = vec
	}

	return nil
}

// Remove deletes a single vector by ID.
func (s *HNSWVectorStore) Remove(id string) error {
	return s.RemoveMany([]string{id})
}

// RemoveMany deletes vectors by ID via lazy deletion.
func (s *HNSWVectorStore) RemoveMany(ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("vector store is closed")
	}
	for _, id := range ids {
		if key, exists := s.idMap[id]; exists {
			delete(s.keyMap, key)
			delete(s.idMap, id)
		}
		delete(s.vectors, id)
	}
	return nil
}

// Get returns a single vector by ID.
func (s *HNSWVectorStore) Get(id string) ([]float32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false
	}
	v, ok := s.vectors[id]
	return v, ok
}

// GetBatch returns vectors for every found ID in one call — callers
// (notably the indexer's reindex change-detection step) must never
// fall back to N individual Get calls for a batch.
func (s *HNSWVectorStore) GetBatch(ids []string) (map[string][]float32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("vector store is closed")
	}
	out := make(map[string][]float32, len(ids))
	for _, id := range ids {
		if v, ok := s.vectors[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

// Search returns the k nearest neighbors to query by cosine similarity,
// highest similarity first.
func (s *HNSWVectorStore) Search(query []float32, k int) ([]VectorResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("vector store is closed")
	}
	if s.dimension != 0 && len(query) != s.dimension {
		return nil, ErrDimensionMismatch{Expected: s.dimension, Got: len(query)}
	}
	if s.graph.Len() == 0 {
		return nil, nil
	}

	normalized := make([]float32, len(query))
	copy(normalized, query)
	normalizeVectorInPlace(normalized)

	nodes := s.graph.Search(normalized, k)
	results := make([]VectorResult, 0, len(nodes))
	for _, node := range nodes {
		id, exists := s.keyMap[node.Key]
		if !exists {
			continue // lazily-deleted orphan
		}
		distance := s.graph.Distance(normalized, node.Value)
		// Cosine distance is 1 - cosine similarity for unit vectors, so
		// similarity = 1 - distance, landing in [-1, 1] as required.
		results = append(results, VectorResult{ID: id, Similarity: 1 - distance})
	}
	return results, nil
}

// Len returns the number of live (non-orphaned) vectors.
func (s *HNSWVectorStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.idMap)
}

// Dimension returns the fixed dimension, or 0 if unset.
func (s *HNSWVectorStore) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimension
}

// Save persists the graph and its ID-mapping side file atomically
// (write to a temp path, then rename).
func (s *HNSWVectorStore) Save(path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return fmt.Errorf("vector store is closed")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	if err := s.graph.Export(file); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("export graph: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close index file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename index file: %w", err)
	}

	return s.saveMetadata(path + ".meta")
}

func (s *HNSWVectorStore) saveMetadata(path string) error {
	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp metadata file: %w", err)
	}

	meta := hnswVectorMetadata{
		IDMap: s.idMap, Vectors: s.vectors, NextKey: s.nextKey, Dimension: s.dimension,
		Capacity: s.capacity, Config: s.config,
	}
	if err := gob.NewEncoder(file).Encode(meta); err != nil {
		if closeErr := file.Close(); closeErr != nil {
			slog.Warn("close temp metadata file during cleanup failed", slog.String("error", closeErr.Error()))
		}
		os.Remove(tmpPath)
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close metadata file: %w", err)
	}
	return os.Rename(tmpPath, path)
}

// Load loads the graph and ID mapping from path, failing if the stored
// dimension doesn't match expectedDim (pass 0 to skip the check).
func (s *HNSWVectorStore) Load(path string, expectedDim int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("vector store is closed")
	}

	if err := s.loadMetadata(path + ".meta"); err != nil {
		return fmt.Errorf("load metadata: %w", err)
	}
	if expectedDim != 0 && s.dimension != 0 && s.dimension != expectedDim {
		return ErrDimensionMismatch{Expected: expectedDim, Got: s.dimension}
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open index file: %w", err)
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	if err := s.graph.Import(reader); err != nil {
		return fmt.Errorf("import graph: %w", err)
	}
	return nil
}

func (s *HNSWVectorStore) loadMetadata(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open metadata file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			slog.Warn("close metadata file failed", slog.String("error", err.Error()))
		}
	}()

	var meta hnswVectorMetadata
	if err := gob.NewDecoder(file).Decode(&meta); err != nil {
		return fmt.Errorf("decode metadata: %w", err)
	}

	s.idMap = meta.IDMap
	s.vectors = meta.Vectors
	if s.vectors == nil {
		s.vectors = make(map[string][]float32)
	}
	s.keyMap = make(map[uint64]string, len(meta.IDMap))
	s.nextKey = meta.NextKey
	s.dimension = meta.Dimension
	s.capacity = meta.Capacity
	s.config = meta.Config
	for id, key := range s.idMap {
		s.keyMap[key] = id
	}
	return nil
}

// Close releases the store. The underlying graph is dropped; coder/hnsw
// needs no explicit teardown.
func (s *HNSWVectorStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.graph = nil
	return nil
}

func normalizeVectorInPlace(v []float32) {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return
	}
	invMagnitude := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= invMagnitude
	}
}
