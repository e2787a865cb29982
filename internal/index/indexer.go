// Package index implements the indexing pipeline: walking a project
// tree, detecting changed files by content hash, routing survivors through
// the parser façade, reusing embeddings for unchanged chunks, and writing
// the lexical and vector stores in a per-file critical section that stays
// consistent even when the pass is interrupted partway through.
package index

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/swift-index/core/internal/chunk"
	"github.com/swift-index/core/internal/embed"
	"github.com/swift-index/core/internal/scanner"
	"github.com/swift-index/core/internal/store"
)

// Options configures a single indexing pass.
type Options struct {
	// RootPath is the project root to walk.
	RootPath string

	// IncludeGlobs restricts the walk to matching paths (empty = all).
	IncludeGlobs []string

	// ExcludeGlobs are additional user-configured exclusions, layered on
	// top of the walker's built-in defaults (.git, .build, DerivedData,
	// node_modules, vendor, ...).
	ExcludeGlobs []string

	// Force re-parses and re-embeds every file regardless of content hash.
	Force bool

	// MaxConcurrentTasks bounds the sliding window of in-flight file
	// tasks. Zero defaults to runtime.NumCPU().
	MaxConcurrentTasks int

	// Submodules, when non-nil and Enabled, makes the walk also discover
	// and descend into git submodules, indexing them alongside the
	// superproject under their repo-relative path.
	Submodules *scanner.SubmoduleConfig
}

// FileError records a non-fatal, per-file failure.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// Stats summarizes one indexing pass. A file whose content hash is
// unchanged still counts as processed, with every one of its chunks
// reused and zero embedding calls.
type Stats struct {
	FilesWalked    int
	FilesProcessed int
	ChunksIndexed  int
	ChunksReused   int
	EmbeddingCalls int
	Duration       time.Duration
	Errors         []FileError
}

// statsAccumulator gathers Stats from concurrently running file tasks.
type statsAccumulator struct {
	mu    sync.Mutex
	stats Stats
}

func (a *statsAccumulator) processed(chunksIndexed, chunksReused, embeddingCalls int) {
	a.mu.Lock()
	a.stats.FilesProcessed++
	a.stats.ChunksIndexed += chunksIndexed
	a.stats.ChunksReused += chunksReused
	a.stats.EmbeddingCalls += embeddingCalls
	a.mu.Unlock()
}

func (a *statsAccumulator) fail(path string, err error) {
	a.mu.Lock()
	a.stats.Errors = append(a.stats.Errors, FileError{Path: path, Err: err})
	a.mu.Unlock()
}

// Indexer orchestrates one pass over a project tree. It holds no
// per-pass state itself so a single Indexer can run successive passes
// (full index, then incremental reindexes driven by the watcher).
type Indexer struct {
	lexical store.LexicalStore
	vector  store.VectorStore
	router  *chunk.Router
	batcher *embed.Batcher
	scanner *scanner.Scanner
}

// New builds an Indexer over the given stores, parser router and
// embedding batcher. The batcher is shared with any other caller that
// wants its Embed calls amortized into the same batches (e.g. a
// concurrently running watcher-driven reindex).
func New(lexical store.LexicalStore, vector store.VectorStore, router *chunk.Router, batcher *embed.Batcher) (*Indexer, error) {
	s, err := scanner.New()
	if err != nil {
		return nil, fmt.Errorf("create scanner: %w", err)
	}
	return &Indexer{
		lexical: lexical,
		vector:  vector,
		router:  router,
		batcher: batcher,
		scanner: s,
	}, nil
}

// Run executes one full pass over opts.RootPath, returning per-file stats.
// A nil error means the pass completed (individual file failures are still
// reported via Stats.Errors); a non-nil error means the pass was aborted,
// e.g. by cancellation or a fatal store error.
func (idx *Indexer) Run(ctx context.Context, opts Options) (*Stats, error) {
	runID := uuid.NewString()
	start := time.Now()

	paths, err := walk(ctx, idx.scanner, opts.RootPath, opts.IncludeGlobs, opts.ExcludeGlobs, opts.Submodules)
	if err != nil {
		return nil, err
	}

	slog.Info("index_pass_started",
		slog.String("run_id", runID),
		slog.String("root", opts.RootPath),
		slog.Int("files", len(paths)),
		slog.Bool("force", opts.Force))

	limit := opts.MaxConcurrentTasks
	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	acc := &statsAccumulator{stats: Stats{FilesWalked: len(paths)}}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, relPath := range paths {
		relPath := relPath
		g.Go(func() error {
			return idx.processFile(gctx, opts.RootPath, relPath, opts.Force, acc)
		})
	}

	runErr := g.Wait()

	// Flush whatever embedding requests are still pending so the last
	// partial batch doesn't wait out the batcher's idle window.
	idx.batcher.Flush()

	acc.mu.Lock()
	acc.stats.Duration = time.Since(start)
	stats := acc.stats
	acc.mu.Unlock()

	slog.Info("index_pass_complete",
		slog.String("run_id", runID),
		slog.Int("files_processed", stats.FilesProcessed),
		slog.Int("chunks_indexed", stats.ChunksIndexed),
		slog.Int("chunks_reused", stats.ChunksReused),
		slog.Int("embedding_calls", stats.EmbeddingCalls),
		slog.Int("file_errors", len(stats.Errors)),
		slog.String("duration", stats.Duration.String()))

	if runErr != nil {
		return &stats, fmt.Errorf("index pass %s aborted: %w", runID, runErr)
	}
	return &stats, nil
}

// processFile runs the per-file pipeline described below.
// Per-file errors are recorded on acc and never propagated: only a fatal
// condition (ctx cancellation) returns an error, which aborts the whole
// errgroup.
func (idx *Indexer) processFile(ctx context.Context, root, relPath string, force bool, acc *statsAccumulator) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	absPath := filepath.Join(root, relPath)
	content, err := os.ReadFile(absPath)
	if err != nil {
		acc.fail(relPath, fmt.Errorf("read file: %w", err))
		return nil
	}

	contentHash := sha256.Sum256(content)
	contentHashHex := hex.EncodeToString(contentHash[:])

	if !force {
		if existing, ok, err := idx.lexical.GetFileHash(ctx, relPath); err == nil && ok && existing == contentHashHex {
			ids, err := idx.lexical.GetChunkIDsForPath(ctx, relPath)
			if err != nil {
				acc.fail(relPath, fmt.Errorf("list chunk ids for %s: %w", relPath, err))
				return nil
			}
			acc.processed(len(ids), len(ids), 0)
			return nil
		}
	}

	result := idx.router.Parse(relPath, content)
	if result.Skipped != "" {
		slog.Debug("file_skipped", slog.String("path", relPath), slog.String("reason", result.Skipped))
	}

	if err := idx.reindexPath(ctx, relPath, contentHashHex, result, acc); err != nil {
		if ctx.Err() != nil {
			return err
		}
		acc.fail(relPath, err)
	}
	return nil
}

// reindexPath performs the reuse/embed/write stages for one path: partition new
// chunks into reusable/to_embed against what's already stored, embed the
// remainder, then delete-then-insert in a single lexical transaction with
// the vector store kept in step.
func (idx *Indexer) reindexPath(ctx context.Context, path, fileHash string, result chunk.ParseResult, acc *statsAccumulator) error {
	newChunks := result.Chunks

	hashes := make([]string, 0, len(newChunks))
	seenHash := make(map[string]bool, len(newChunks))
	for _, c := range newChunks {
		h := c.ContentHashHex()
		if !seenHash[h] {
			seenHash[h] = true
			hashes = append(hashes, h)
		}
	}

	var oldByHash map[string]*chunk.Chunk
	if len(hashes) > 0 {
		var err error
		oldByHash, err = idx.lexical.GetChunksByContentHashes(ctx, hashes)
		if err != nil {
			return fmt.Errorf("look up reusable chunks: %w", err)
		}
	}

	candidateIDs := make([]string, 0, len(newChunks))
	seenID := make(map[string]bool, len(newChunks))
	for _, c := range newChunks {
		if old, ok := oldByHash[c.ContentHashHex()]; ok && !seenID[old.ID] {
			seenID[old.ID] = true
			candidateIDs = append(candidateIDs, old.ID)
		}
	}

	var oldVectors map[string][]float32
	if len(candidateIDs) > 0 {
		var err error
		oldVectors, err = idx.vector.GetBatch(candidateIDs)
		if err != nil {
			return fmt.Errorf("fetch reusable vectors: %w", err)
		}
	}

	vectors := make(map[string][]float32, len(newChunks))
	var toEmbed []*chunk.Chunk
	var reusedCount int
	for _, c := range newChunks {
		if old, ok := oldByHash[c.ContentHashHex()]; ok {
			if vec, ok2 := oldVectors[old.ID]; ok2 {
				vectors[c.ID] = vec
				reusedCount++
				continue
			}
		}
		toEmbed = append(toEmbed, c)
	}

	for _, c := range toEmbed {
		vec, err := idx.batcher.Submit(ctx, c.Content)
		if err != nil {
			return fmt.Errorf("embed chunk %s: %w", c.ID, err)
		}
		vectors[c.ID] = vec
	}

	// Critical section: from the reader's point of view this path's old
	// chunks and new chunks never coexist and never appear half-written.
	oldIDs, err := idx.lexical.GetChunkIDsForPath(ctx, path)
	if err != nil {
		return fmt.Errorf("list existing chunk ids: %w", err)
	}
	if len(oldIDs) > 0 {
		if err := idx.vector.RemoveMany(oldIDs); err != nil {
			return fmt.Errorf("remove old vectors: %w", err)
		}
	}
	if err := idx.lexical.DeleteChunksForPath(ctx, path); err != nil {
		return fmt.Errorf("delete old chunks: %w", err)
	}

	if len(newChunks) > 0 {
		if err := idx.lexical.InsertChunks(ctx, newChunks); err != nil {
			return fmt.Errorf("insert chunks: %w", err)
		}

		ids := make([]string, 0, len(newChunks))
		vecs := make([][]float32, 0, len(newChunks))
		for _, c := range newChunks {
			if vec, ok := vectors[c.ID]; ok {
				ids = append(ids, c.ID)
				vecs = append(vecs, vec)
			}
		}
		if len(ids) > 0 {
			if err := idx.vector.AddBatch(ids, vecs); err != nil {
				return fmt.Errorf("add vectors: %w", err)
			}
		}
	}

	if len(result.Snippets) > 0 {
		if err := idx.lexical.InsertSnippets(ctx, result.Snippets); err != nil {
			return fmt.Errorf("insert snippets: %w", err)
		}
	}

	if err := idx.lexical.SetFileHash(ctx, chunk.FileRecord{
		Path:        path,
		ContentHash: fileHash,
		IndexedAt:   time.Now().Unix(),
		ChunkCount:  len(newChunks),
	}); err != nil {
		return fmt.Errorf("update file record: %w", err)
	}

	acc.processed(len(newChunks), reusedCount, len(toEmbed))
	return nil
}

// ReindexFile runs the single-file pipeline (walk-times 2-5) for exactly
// one path under root, without walking the rest of the tree. Used by the
// watcher's incremental indexer to react to a single Created/Modified
// event rather than re-scanning the whole project.
func (idx *Indexer) ReindexFile(ctx context.Context, root, relPath string) (*Stats, error) {
	acc := &statsAccumulator{}
	if err := idx.processFile(ctx, root, relPath, false, acc); err != nil {
		return nil, err
	}
	idx.batcher.Flush()

	acc.mu.Lock()
	stats := acc.stats
	acc.mu.Unlock()

	if len(stats.Errors) > 0 {
		return &stats, stats.Errors[0]
	}
	return &stats, nil
}

// Remove deletes everything indexed for path from both stores, used by
// the watcher on a Deleted event.
func (idx *Indexer) Remove(ctx context.Context, path string) error {
	ids, err := idx.lexical.GetChunkIDsForPath(ctx, path)
	if err != nil {
		return fmt.Errorf("list chunk ids for %s: %w", path, err)
	}
	if len(ids) > 0 {
		if err := idx.vector.RemoveMany(ids); err != nil {
			return fmt.Errorf("remove vectors for %s: %w", path, err)
		}
	}
	if err := idx.lexical.DeleteChunksForPath(ctx, path); err != nil {
		return fmt.Errorf("delete chunks for %s: %w", path, err)
	}
	if err := idx.lexical.DeleteFile(ctx, path); err != nil {
		return fmt.Errorf("delete file record for %s: %w", path, err)
	}
	return nil
}

// Close releases resources held by the indexer (parser router, batcher).
func (idx *Indexer) Close() error {
	idx.router.Close()
	return idx.batcher.Close()
}
