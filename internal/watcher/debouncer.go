package watcher

import (
	"log/slog"
	"sync"
	"time"
)

// Debouncer coalesces rapid events for the same path: the last kind
// observed wins. All pending paths share one timer, so they are emitted
// together once the window has elapsed with no new event for any path (a
// busy stream keeps pushing the flush back rather than firing mid-burst).
type Debouncer struct {
	window  time.Duration
	mu      sync.Mutex
	pending map[string]Event
	timer   *time.Timer
	output  chan Event
	stopped bool
}

// NewDebouncer creates a debouncer that coalesces within window.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{
		window:  window,
		pending: make(map[string]Event),
		output:  make(chan Event, 256),
	}
}

// Add records an event, overwriting any pending event for the same path.
func (d *Debouncer) Add(ev Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.pending[ev.Path] = ev
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

// flush emits every pending event, one at a time, non-blocking.
func (d *Debouncer) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || len(d.pending) == 0 {
		return
	}

	for path, ev := range d.pending {
		select {
		case d.output <- ev:
		default:
			slog.Warn("watcher event buffer full, dropping event",
				slog.String("path", path), slog.String("kind", ev.Kind.String()))
		}
	}
	d.pending = make(map[string]Event)
}

// Output returns the channel of debounced, individually-emitted events.
func (d *Debouncer) Output() <-chan Event {
	return d.output
}

// Stop flushes any pending events immediately and closes the output
// channel. Safe to call more than once.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	pending := d.pending
	d.pending = make(map[string]Event)
	d.stopped = true
	d.mu.Unlock()

	for _, ev := range pending {
		select {
		case d.output <- ev:
		default:
		}
	}
	close(d.output)
}
