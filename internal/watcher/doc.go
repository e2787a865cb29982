// Package watcher provides real-time file system watching with automatic
// debouncing and gitignore-aware filtering.
//
// The package implements a hybrid watching strategy:
//   - Primary: fsnotify for efficient event-based watching
//   - Fallback: Polling, used when an fsnotify watcher cannot be created
//
// Events are debounced to coalesce rapid changes from IDEs and git operations,
// and filtered against .gitignore patterns to skip irrelevant files.
//
// Usage:
//
//	opts := watcher.DefaultOptions()
//	w, err := watcher.NewHybridWatcher(opts)
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//
//	// Start blocks until Stop is called or ctx is cancelled.
//	go func() { _ = w.Start(ctx, "/path/to/project") }()
//
//	for event := range w.Events() {
//	    switch event.Kind {
//	    case watcher.Created:
//	        // Handle file creation
//	    case watcher.Modified:
//	        // Handle file modification
//	    case watcher.Deleted:
//	        // Handle file deletion
//	    }
//	}
package watcher
