package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncer_CoalescesRepeatedEventsForSamePath(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	d.Add(Event{Path: "a.go", Kind: Created, Timestamp: time.Now()})
	d.Add(Event{Path: "a.go", Kind: Modified, Timestamp: time.Now()})
	d.Add(Event{Path: "a.go", Kind: Modified, Timestamp: time.Now()})

	select {
	case ev := <-d.Output():
		assert.Equal(t, "a.go", ev.Path)
		assert.Equal(t, Modified, ev.Kind, "last kind observed wins")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for debounced event")
	}

	select {
	case ev := <-d.Output():
		t.Fatalf("unexpected second event: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDebouncer_DistinctPathsEmitSeparately(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)
	defer d.Stop()

	d.Add(Event{Path: "a.go", Kind: Created})
	d.Add(Event{Path: "b.go", Kind: Created})

	seen := make(map[string]bool)
	for i := 0; i < 2; i++ {
		select {
		case ev := <-d.Output():
			seen[ev.Path] = true
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for events")
		}
	}
	assert.True(t, seen["a.go"])
	assert.True(t, seen["b.go"])
}

func TestDebouncer_Stop_FlushesPendingEvents(t *testing.T) {
	d := NewDebouncer(time.Hour) // long enough that only Stop can flush it
	d.Add(Event{Path: "a.go", Kind: Modified})

	d.Stop()

	ev, ok := <-d.Output()
	require.True(t, ok)
	assert.Equal(t, "a.go", ev.Path)

	_, ok = <-d.Output()
	assert.False(t, ok, "output channel must be closed after Stop")
}

func TestDebouncer_Stop_IsIdempotent(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)
	d.Stop()
	assert.NotPanics(t, func() { d.Stop() })
}

func TestDebouncer_AddAfterStop_IsIgnored(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)
	d.Stop()
	assert.NotPanics(t, func() { d.Add(Event{Path: "a.go", Kind: Created}) })
}
