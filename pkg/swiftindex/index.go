// Package swiftindex is the public entry point for the indexing core: a
// thin façade that wires the chunk router, lexical and vector stores,
// embedder and search engine into the handful of calls a host process
// actually needs (open, index, search, watch, close), and owns the
// single-writer lock that makes those safe to call from one process at a
// time against a given index directory.
package swiftindex

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/swift-index/core/internal/chunk"
	"github.com/swift-index/core/internal/config"
	"github.com/swift-index/core/internal/embed"
	"github.com/swift-index/core/internal/errors"
	"github.com/swift-index/core/internal/index"
	"github.com/swift-index/core/internal/logging"
	"github.com/swift-index/core/internal/scanner"
	"github.com/swift-index/core/internal/search"
	"github.com/swift-index/core/internal/store"
	"github.com/swift-index/core/internal/watcher"
)

const (
	lexicalFileName = "lexical.db"
	vectorFileName  = "vectors.hnsw"
	lockFileName    = ".lock"
)

// Options configures OpenOrCreate. RootPath and IndexDir are required;
// everything else falls back to config.Default() when left zero.
type Options struct {
	// RootPath is the project tree this index covers.
	RootPath string

	// IndexDir holds the lexical database, vector index and lock file.
	// Created if it doesn't exist.
	IndexDir string

	// Config overrides config.Default(). Nil uses the defaults.
	Config *config.Config

	// EmbedProvider selects the embedder backend ("ollama" or "static").
	// Empty defaults to embed.ParseProvider("").
	EmbedProvider string

	// EmbedModel and EmbedHost are passed through to embed.NewEmbedder.
	EmbedModel string
	EmbedHost  string

	// Logging, if non-nil, switches the core to file-based rotating logs
	// for the lifetime of this Index and installs it as slog's default.
	// Nil leaves whatever handler the host process already configured.
	Logging *logging.Config
}

// Index is an open handle on one project's lexical store, vector store,
// embedder and search engine. The zero value is not usable; construct
// one with OpenOrCreate.
type Index struct {
	cfg     *config.Config
	rootDir string
	lock    *flock.Flock

	lexical store.LexicalStore
	vector  store.VectorStore
	router  *chunk.Router
	embed   embed.Embedder
	batcher *embed.Batcher
	engine  *search.Engine
	indexer *index.Indexer

	watcher *watcher.HybridWatcher
	incr    *watcher.IncrementalIndexer

	logCleanup func()
}

// OpenOrCreate acquires the index directory's writer lock and opens (or
// initializes) its lexical and vector stores. It returns
// errors.StoreIO-wrapped errors for a directory that can't be
// created and a retryable error if another process already holds the
// lock.
func OpenOrCreate(ctx context.Context, opts Options) (*Index, error) {
	if opts.RootPath == "" || opts.IndexDir == "" {
		return nil, errors.InvalidArgument("swiftindex: RootPath and IndexDir are required", nil)
	}

	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var logCleanup func()
	if opts.Logging != nil {
		logger, cleanup, err := logging.Setup(*opts.Logging)
		if err != nil {
			return nil, errors.StoreIO("swiftindex: set up logging", err)
		}
		slog.SetDefault(logger)
		logCleanup = cleanup
	}

	if err := os.MkdirAll(opts.IndexDir, 0755); err != nil {
		return nil, errors.StoreIO(fmt.Sprintf("swiftindex: create index directory %s", opts.IndexDir), err)
	}

	lock := flock.New(filepath.Join(opts.IndexDir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, errors.StoreIO(fmt.Sprintf("swiftindex: acquire lock %s", lock.Path()), err)
	}
	if !locked {
		return nil, errors.CapacityExhausted("swiftindex: index directory is locked by another process", nil).
			WithSuggestion("close any other process indexing or searching this project before retrying")
	}

	lexical, err := store.NewSQLiteLexicalStore(filepath.Join(opts.IndexDir, lexicalFileName))
	if err != nil {
		_ = lock.Unlock()
		return nil, errors.StoreIO("swiftindex: open lexical store", err)
	}

	vectorPath := filepath.Join(opts.IndexDir, vectorFileName)
	vector := store.NewHNSWVectorStore(store.DefaultVectorStoreConfig())
	if _, statErr := os.Stat(vectorPath); statErr == nil {
		if err := vector.Load(vectorPath, cfg.Embedding.Dimension); err != nil {
			if _, ok := err.(store.ErrDimensionMismatch); ok {
				_ = lexical.Close()
				_ = lock.Unlock()
				return nil, errors.New(errors.ErrCodeDimensionMismatch, err.Error(), err)
			}
			slog.Warn("swiftindex_vector_load_failed", slog.String("path", vectorPath), slog.String("error", err.Error()))
		}
	}

	provider := embed.ParseProvider(opts.EmbedProvider)
	embedder, err := embed.NewEmbedder(ctx, provider, opts.EmbedModel, opts.EmbedHost, true)
	if err != nil {
		_ = lexical.Close()
		_ = vector.Close()
		_ = lock.Unlock()
		return nil, errors.EmbedderUnavailable("swiftindex: construct embedder", err)
	}

	batcher := embed.NewBatcher(embedder, cfg.Indexing.BatchSize, time.Duration(cfg.Indexing.IdleFlushMS)*time.Millisecond)
	router := chunk.NewRouter()

	idx, err := index.New(lexical, vector, router, batcher)
	if err != nil {
		_ = lexical.Close()
		_ = vector.Close()
		router.Close()
		_ = lock.Unlock()
		return nil, errors.Internal("swiftindex: construct indexer", err)
	}

	engine := search.New(search.NewKeyword(lexical), search.NewVector(embedder, vector, lexical), lexical, vector)

	return &Index{
		cfg:        cfg,
		rootDir:    opts.RootPath,
		lock:       lock,
		lexical:    lexical,
		vector:     vector,
		router:     router,
		embed:      embedder,
		batcher:    batcher,
		engine:     engine,
		indexer:    idx,
		logCleanup: logCleanup,
	}, nil
}

// Index runs one full indexing pass over the project root, then
// persists the vector store to disk so the next OpenOrCreate picks up
// where this pass left off. force re-parses and re-embeds every file
// regardless of content hash.
func (ix *Index) Index(ctx context.Context, force bool) (*index.Stats, error) {
	var submodules *scanner.SubmoduleConfig
	if sm := ix.cfg.Indexing.Submodules; sm.Enabled {
		submodules = &scanner.SubmoduleConfig{
			Enabled:   sm.Enabled,
			Recursive: sm.Recursive,
			Include:   sm.Include,
			Exclude:   sm.Exclude,
		}
	}
	stats, err := ix.indexer.Run(ctx, index.Options{
		RootPath:           ix.rootDir,
		ExcludeGlobs:       ix.cfg.Indexing.ExcludeGlobs,
		Force:              force,
		MaxConcurrentTasks: ix.cfg.Indexing.MaxConcurrentTasks,
		Submodules:         submodules,
	})
	if err != nil {
		return stats, err
	}
	if saveErr := ix.vector.Save(filepath.Join(filepath.Dir(ix.lock.Path()), vectorFileName)); saveErr != nil {
		return stats, errors.StoreIO("swiftindex: persist vector store", saveErr)
	}
	return stats, nil
}

// Search runs a hybrid BM25 + semantic query over indexed code chunks.
// Zero-valued fields in opts fall back to the index's configured
// defaults (search.limit, search.semantic_weight).
func (ix *Index) Search(ctx context.Context, query string, opts search.Options) ([]search.Result, error) {
	if opts.Limit <= 0 {
		opts.Limit = ix.cfg.Search.Limit
	}
	if opts.SemanticWeight <= 0 {
		opts.SemanticWeight = ix.cfg.Search.SemanticWeight
	}
	return ix.engine.Search(ctx, query, opts)
}

// SearchDocs runs a full-text search over prose snippets (README
// sections, doc comments extracted as standalone blocks, ...) rather
// than code chunks.
func (ix *Index) SearchDocs(ctx context.Context, query string, limit int) ([]*chunk.InfoSnippet, error) {
	if limit <= 0 {
		limit = ix.cfg.Search.Limit
	}
	prepared := store.PrepareFTSQuery(query)
	if prepared == "" {
		return nil, nil
	}
	return ix.lexical.SearchSnippetsFTS(ctx, prepared, limit)
}

// Watch starts the filesystem watcher and incremental reindexer and
// blocks until ctx is cancelled or the watcher fails to start. It
// flushes any in-flight reindex before returning.
func (ix *Index) Watch(ctx context.Context) error {
	w, err := watcher.NewHybridWatcher(watcher.Options{
		DebounceWindow: time.Duration(ix.cfg.Watch.DebounceMS) * time.Millisecond,
		ExcludeGlobs:   ix.cfg.Indexing.ExcludeGlobs,
	})
	if err != nil {
		return errors.Internal("swiftindex: construct watcher", err)
	}
	ix.watcher = w
	ix.incr = watcher.NewIncrementalIndexer(ix.indexer, ix.rootDir)

	done := make(chan struct{})
	go func() {
		defer close(done)
		ix.incr.Run(ctx, w.Events())
	}()

	err = w.Start(ctx, ix.rootDir)
	_ = w.Stop()
	<-done
	if err != nil && ctx.Err() == nil {
		return errors.StoreIO("swiftindex: start watcher", err)
	}
	return ctx.Err()
}

// Close releases the embedder cache, parser router, stores and the
// writer lock, in that order. Safe to call once; a second call is a
// no-op beyond whatever the underlying Close calls themselves tolerate.
func (ix *Index) Close() error {
	ix.batcher.Flush()
	if err := ix.batcher.Close(); err != nil {
		slog.Warn("swiftindex_batcher_close_failed", slog.String("error", err.Error()))
	}
	ix.router.Close()

	var firstErr error
	if err := ix.lexical.Close(); err != nil && firstErr == nil {
		firstErr = errors.StoreIO("swiftindex: close lexical store", err)
	}
	if err := ix.vector.Close(); err != nil && firstErr == nil {
		firstErr = errors.StoreIO("swiftindex: close vector store", err)
	}
	if err := ix.lock.Unlock(); err != nil && firstErr == nil {
		firstErr = errors.StoreIO("swiftindex: release lock", err)
	}
	if ix.logCleanup != nil {
		ix.logCleanup()
	}
	return firstErr
}

