package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/swift-index/core/internal/gitignore"
	"github.com/swift-index/core/internal/scanner"
)

// HybridWatcher implements Watcher using fsnotify as the primary source,
// falling back to polling when an fsnotify watcher can't be created (for
// example when the inotify instance limit is reached). A failure to add
// directory watches during Start is returned as an error instead.
type HybridWatcher struct {
	fsWatcher      *fsnotify.Watcher
	pollWatcher    *PollingWatcher
	useFsnotify    bool
	debouncer      *Debouncer
	gitignore      *gitignore.Matcher
	events         chan Event
	errors         chan error
	stopCh         chan struct{}
	rootPath       string
	opts           Options
	mu             sync.RWMutex
	stopped        bool
	droppedBatches atomic.Uint64
}

var _ Watcher = (*HybridWatcher)(nil)

// NewHybridWatcher creates a watcher with the given options, preferring
// fsnotify and falling back to polling if it can't be initialized.
func NewHybridWatcher(opts Options) (*HybridWatcher, error) {
	opts = opts.WithDefaults()

	h := &HybridWatcher{
		debouncer: NewDebouncer(opts.DebounceWindow),
		gitignore: gitignore.New(),
		events:    make(chan Event, opts.EventBufferSize),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
		opts:      opts,
	}
	for _, pattern := range opts.ExcludeGlobs {
		h.gitignore.AddPattern(pattern)
	}

	if fsw, err := fsnotify.NewWatcher(); err == nil {
		h.fsWatcher = fsw
		h.useFsnotify = true
	} else {
		h.useFsnotify = false
		h.pollWatcher = NewPollingWatcher(opts.PollInterval)
	}

	return h, nil
}

// Start begins watching root.
func (h *HybridWatcher) Start(ctx context.Context, root string) error {
	absPath, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve absolute path: %w", err)
	}
	h.rootPath = absPath

	h.loadGitignore()
	go h.forwardDebouncedEvents(ctx)

	if h.useFsnotify {
		return h.startFsnotify(ctx)
	}
	return h.startPolling(ctx)
}

func (h *HybridWatcher) startFsnotify(ctx context.Context) error {
	if err := h.addRecursive(h.rootPath); err != nil {
		return fmt.Errorf("add directories to watcher: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			_ = h.Stop()
			return ctx.Err()
		case <-h.stopCh:
			return nil
		case event, ok := <-h.fsWatcher.Events:
			if !ok {
				return nil
			}
			h.handleFsnotifyEvent(event)
		case err, ok := <-h.fsWatcher.Errors:
			if !ok {
				return nil
			}
			h.emitError(err)
		}
	}
}

func (h *HybridWatcher) startPolling(ctx context.Context) error {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-h.stopCh:
				return
			case ev, ok := <-h.pollWatcher.Events():
				if !ok {
					return
				}
				if h.shouldIgnore(ev.Path) || h.shouldIgnoreContentType(ev.Path) {
					continue
				}
				h.debouncer.Add(ev)
			case err, ok := <-h.pollWatcher.Errors():
				if !ok {
					return
				}
				h.emitError(err)
			}
		}
	}()

	return h.pollWatcher.Start(ctx, h.rootPath)
}

// handleFsnotifyEvent converts, filters, and (for Rename) decomposes a raw
// fsnotify event by checking whether the path still exists.
func (h *HybridWatcher) handleFsnotifyEvent(event fsnotify.Event) {
	relPath, err := filepath.Rel(h.rootPath, event.Name)
	if err != nil {
		relPath = event.Name
	}

	info, statErr := os.Stat(event.Name)
	exists := statErr == nil
	isDir := exists && info.IsDir()

	if h.shouldIgnore(relPath) {
		return
	}

	if isDir {
		// Newly created directories need their own watch; directories
		// otherwise carry no content-type and aren't paths the indexer
		// tracks, so they never become Events.
		if event.Op&fsnotify.Create != 0 {
			_ = h.fsWatcher.Add(event.Name)
		}
		return
	}

	var kind Kind
	switch {
	case event.Op&fsnotify.Create != 0:
		kind = Created
	case event.Op&fsnotify.Write != 0:
		kind = Modified
	case event.Op&fsnotify.Remove != 0:
		kind = Deleted
	case event.Op&fsnotify.Rename != 0:
		// The rename's source no longer resolves to anything under this
		// name; the destination name (if any) surfaces through its own
		// Create event from fsnotify, so the source side is a Deleted.
		if exists {
			return
		}
		kind = Deleted
	case event.Op&fsnotify.Chmod != 0:
		return
	default:
		return
	}

	if h.shouldIgnoreContentType(relPath) {
		return
	}

	h.debouncer.Add(Event{Path: relPath, Kind: kind, Timestamp: time.Now()})
}

func (h *HybridWatcher) forwardDebouncedEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.stopCh:
			return
		case ev, ok := <-h.debouncer.Output():
			if !ok {
				return
			}
			h.emitEvent(ev)
		}
	}
}

func (h *HybridWatcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		relPath, _ := filepath.Rel(h.rootPath, path)
		if relPath == "." {
			return h.fsWatcher.Add(path)
		}
		if h.shouldIgnoreDir(relPath) {
			return filepath.SkipDir
		}
		return h.fsWatcher.Add(path)
	})
}

func (h *HybridWatcher) shouldIgnoreDir(relPath string) bool {
	if strings.HasPrefix(relPath, ".git") || relPath == ".git" {
		return true
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.gitignore.Match(relPath, true)
}

// shouldIgnore reports whether relPath should never generate an event,
// independent of its content type (directories included).
func (h *HybridWatcher) shouldIgnore(relPath string) bool {
	if relPath == "." || relPath == "" {
		return true
	}
	if strings.HasPrefix(relPath, ".git/") || relPath == ".git" {
		return true
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.gitignore.Match(relPath, false)
}

// shouldIgnoreContentType reports whether a non-directory path falls
// outside the code/markdown content types the indexer consumes (walk-time
// 1's same filter, applied here per-path instead of via a tree walk).
func (h *HybridWatcher) shouldIgnoreContentType(relPath string) bool {
	ct := scanner.DetectContentType(scanner.DetectLanguage(relPath))
	return ct != scanner.ContentTypeCode && ct != scanner.ContentTypeMarkdown
}

func (h *HybridWatcher) loadGitignore() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.gitignore = gitignore.New()
	for _, pattern := range h.opts.ExcludeGlobs {
		h.gitignore.AddPattern(pattern)
	}

	gitignorePath := filepath.Join(h.rootPath, ".gitignore")
	if err := h.gitignore.AddFromFile(gitignorePath, ""); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load root .gitignore", slog.String("path", gitignorePath), slog.String("error", err.Error()))
	}

	_ = filepath.WalkDir(h.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if d.Name() == ".gitignore" && path != gitignorePath {
			base, _ := filepath.Rel(h.rootPath, filepath.Dir(path))
			if err := h.gitignore.AddFromFile(path, base); err != nil {
				slog.Warn("failed to read nested .gitignore", slog.String("path", path), slog.String("error", err.Error()))
			}
		}
		return nil
	})
}

func (h *HybridWatcher) emitEvent(ev Event) {
	h.mu.RLock()
	stopped := h.stopped
	h.mu.RUnlock()
	if stopped {
		return
	}

	select {
	case h.events <- ev:
	default:
		count := h.droppedBatches.Add(1)
		slog.Warn("event buffer full, dropping event",
			slog.String("path", ev.Path), slog.Uint64("total_dropped", count))
	}
}

func (h *HybridWatcher) emitError(err error) {
	h.mu.RLock()
	stopped := h.stopped
	h.mu.RUnlock()
	if stopped {
		return
	}
	select {
	case h.errors <- err:
	default:
	}
}

// Stop stops the watcher and releases resources. Safe to call more than
// once.
func (h *HybridWatcher) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return nil
	}
	h.stopped = true
	close(h.stopCh)

	h.debouncer.Stop()

	if h.useFsnotify && h.fsWatcher != nil {
		_ = h.fsWatcher.Close()
	}
	if h.pollWatcher != nil {
		_ = h.pollWatcher.Stop()
	}

	close(h.events)
	close(h.errors)
	return nil
}

// Events returns the debounced event channel.
func (h *HybridWatcher) Events() <-chan Event { return h.events }

// Errors returns the non-fatal error channel.
func (h *HybridWatcher) Errors() <-chan error { return h.errors }

// DroppedEvents returns the number of events dropped due to buffer
// overflow.
func (h *HybridWatcher) DroppedEvents() uint64 { return h.droppedBatches.Load() }

// WatcherType returns "fsnotify" or "polling", whichever backend is live.
func (h *HybridWatcher) WatcherType() string {
	if h.useFsnotify {
		return "fsnotify"
	}
	return "polling"
}
