// Package watcher turns OS filesystem events for an indexed root into a
// debounced stream the incremental indexer can consume one path at a time
// . fsnotify is the primary source; a polling fallback covers
// filesystems fsnotify can't watch.
package watcher

import (
	"context"
	"time"
)

// Kind identifies what happened to a path. Rename is never reported as
// such: the watcher decomposes it based on whether the path still exists
// after the event, so callers only ever see Created, Modified or Deleted.
type Kind int

const (
	Created Kind = iota
	Modified
	Deleted
)

// String returns a human-readable representation of the event kind.
func (k Kind) String() string {
	switch k {
	case Created:
		return "CREATED"
	case Modified:
		return "MODIFIED"
	case Deleted:
		return "DELETED"
	default:
		return "UNKNOWN"
	}
}

// Event is one debounced filesystem change for a single path.
type Event struct {
	Path      string
	Kind      Kind
	Timestamp time.Time
}

// Watcher watches a directory tree and emits a debounced event stream.
type Watcher interface {
	// Start begins watching root recursively. Runs until Stop is called
	// or ctx is cancelled.
	Start(ctx context.Context, root string) error

	// Stop stops the watcher and releases resources. Safe to call more
	// than once.
	Stop() error

	// Events returns the debounced event channel, closed when the
	// watcher stops.
	Events() <-chan Event

	// Errors returns non-fatal watcher errors; the watcher keeps running
	// after sending one. Closed when the watcher stops.
	Errors() <-chan error
}

// Options configures watcher behavior.
type Options struct {
	// DebounceWindow coalesces rapid events for the same path.
	DebounceWindow time.Duration

	// PollInterval is the scan interval used by the polling fallback.
	PollInterval time.Duration

	// EventBufferSize bounds the output event channel.
	EventBufferSize int

	// ExcludeGlobs are additional gitignore-syntax patterns to ignore
	// beyond .gitignore itself.
	ExcludeGlobs []string
}

// DefaultOptions returns spec-default watcher options.
func DefaultOptions() Options {
	return Options{
		DebounceWindow:  500 * time.Millisecond,
		PollInterval:    5 * time.Second,
		EventBufferSize: 1000,
	}
}

// WithDefaults fills zero-valued fields with their defaults.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.DebounceWindow == 0 {
		o.DebounceWindow = d.DebounceWindow
	}
	if o.PollInterval == 0 {
		o.PollInterval = d.PollInterval
	}
	if o.EventBufferSize == 0 {
		o.EventBufferSize = d.EventBufferSize
	}
	return o
}
