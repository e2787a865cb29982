package watcher

import (
	"context"
	"log/slog"
	"sync"

	"github.com/swift-index/core/internal/index"
)

// pathState tracks one path's in-flight reindex, so a second event arriving
// mid-reindex doesn't race it: it's recorded as pending and replayed once
// the in-flight run finishes, collapsing any further events that arrive
// before that replay starts into a single follow-up.
type pathState struct {
	mu      sync.Mutex
	running bool
	pending *Event
}

// IncrementalIndexer drives the indexer from a Watcher's event stream: at most one
// outstanding reindex per path, with later events for a busy path
// coalescing into one follow-up run.
type IncrementalIndexer struct {
	indexer *index.Indexer
	root    string

	mu     sync.Mutex
	states map[string]*pathState

	wg sync.WaitGroup
}

// NewIncrementalIndexer builds an IncrementalIndexer over idx, applying
// events relative to root.
func NewIncrementalIndexer(idx *index.Indexer, root string) *IncrementalIndexer {
	return &IncrementalIndexer{
		indexer: idx,
		root:    root,
		states:  make(map[string]*pathState),
	}
}

// Run consumes events until the channel closes or ctx is cancelled,
// dispatching each to its path's goroutine. It returns once every
// in-flight reindex it started has completed, so cancellation flushes
// rather than abandons in-progress work.
func (ii *IncrementalIndexer) Run(ctx context.Context, events <-chan Event) {
	defer ii.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			ii.dispatch(ctx, ev)
		}
	}
}

// dispatch records ev against its path's state, starting a new worker
// goroutine only if none is already running for that path.
func (ii *IncrementalIndexer) dispatch(ctx context.Context, ev Event) {
	state := ii.stateFor(ev.Path)

	state.mu.Lock()
	if state.running {
		state.pending = &ev
		state.mu.Unlock()
		return
	}
	state.running = true
	state.mu.Unlock()

	ii.wg.Add(1)
	go ii.process(ctx, state, ev)
}

func (ii *IncrementalIndexer) stateFor(path string) *pathState {
	ii.mu.Lock()
	defer ii.mu.Unlock()

	s, ok := ii.states[path]
	if !ok {
		s = &pathState{}
		ii.states[path] = s
	}
	return s
}

// process applies ev, then checks whether a follow-up event arrived while
// it ran; if so it loops to apply that one too, so the path never sits
// with a stale pending reindex once this goroutine exits.
func (ii *IncrementalIndexer) process(ctx context.Context, state *pathState, ev Event) {
	defer ii.wg.Done()

	for {
		ii.apply(ctx, ev)

		state.mu.Lock()
		if state.pending == nil {
			state.running = false
			state.mu.Unlock()
			return
		}
		next := *state.pending
		state.pending = nil
		state.mu.Unlock()

		ev = next
	}
}

func (ii *IncrementalIndexer) apply(ctx context.Context, ev Event) {
	switch ev.Kind {
	case Deleted:
		if err := ii.indexer.Remove(ctx, ev.Path); err != nil {
			slog.Warn("incremental_remove_failed", slog.String("path", ev.Path), slog.String("error", err.Error()))
		}
	case Created, Modified:
		if _, err := ii.indexer.ReindexFile(ctx, ii.root, ev.Path); err != nil {
			slog.Warn("incremental_reindex_failed", slog.String("path", ev.Path), slog.String("error", err.Error()))
		}
	}
}
