package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"time"
)

// PollingWatcher detects changes by periodically rescanning the tree.
// Used as a fallback when fsnotify isn't available.
type PollingWatcher struct {
	interval  time.Duration
	fileState map[string]fileSnapshot
	events    chan Event
	errors    chan error
	stopCh    chan struct{}
	mu        sync.RWMutex
	stopped   bool
	rootPath  string
}

type fileSnapshot struct {
	modTime time.Time
	size    int64
	isDir   bool
}

// NewPollingWatcher creates a polling watcher that rescans every interval.
func NewPollingWatcher(interval time.Duration) *PollingWatcher {
	return &PollingWatcher{
		interval:  interval,
		fileState: make(map[string]fileSnapshot),
		events:    make(chan Event, 256),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
	}
}

// Start begins polling root.
func (p *PollingWatcher) Start(ctx context.Context, root string) error {
	absPath, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve absolute path: %w", err)
	}
	p.rootPath = absPath

	if err := p.scan(); err != nil {
		return fmt.Errorf("perform initial scan: %w", err)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = p.Stop()
			return ctx.Err()
		case <-p.stopCh:
			return nil
		case <-ticker.C:
			if err := p.detectChanges(); err != nil {
				select {
				case p.errors <- err:
				default:
				}
			}
		}
	}
}

// Stop stops the polling watcher. Safe to call more than once.
func (p *PollingWatcher) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return nil
	}
	p.stopped = true
	close(p.stopCh)
	close(p.events)
	close(p.errors)
	return nil
}

// Events returns the raw (non-debounced) event channel.
func (p *PollingWatcher) Events() <-chan Event { return p.events }

// Errors returns the error channel.
func (p *PollingWatcher) Errors() <-chan error { return p.errors }

func (p *PollingWatcher) scan() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return filepath.WalkDir(p.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		relPath, err := filepath.Rel(p.rootPath, path)
		if err != nil || relPath == "." {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		p.fileState[relPath] = fileSnapshot{modTime: info.ModTime(), size: info.Size(), isDir: d.IsDir()}
		return nil
	})
}

func (p *PollingWatcher) detectChanges() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	current := make(map[string]fileSnapshot)

	err := filepath.WalkDir(p.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		relPath, err := filepath.Rel(p.rootPath, path)
		if err != nil || relPath == "." {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		snap := fileSnapshot{modTime: info.ModTime(), size: info.Size(), isDir: d.IsDir()}
		current[relPath] = snap

		if prev, exists := p.fileState[relPath]; !exists {
			p.emitEvent(Event{Path: relPath, Kind: Created, Timestamp: time.Now()})
		} else if prev.modTime != snap.modTime || prev.size != snap.size {
			p.emitEvent(Event{Path: relPath, Kind: Modified, Timestamp: time.Now()})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk directory for changes: %w", err)
	}

	for path := range p.fileState {
		if _, exists := current[path]; !exists {
			p.emitEvent(Event{Path: path, Kind: Deleted, Timestamp: time.Now()})
		}
	}

	p.fileState = current
	return nil
}

// emitEvent sends an event to the events channel. Must be called with the
// lock held.
func (p *PollingWatcher) emitEvent(ev Event) {
	if p.stopped {
		return
	}
	select {
	case p.events <- ev:
	default:
		slog.Warn("polling watcher buffer full, dropping event",
			slog.String("path", ev.Path), slog.String("kind", ev.Kind.String()))
	}
}
