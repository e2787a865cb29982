package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPollingWatcher_DetectsCreateModifyDelete(t *testing.T) {
	root := t.TempDir()
	p := NewPollingWatcher(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = p.Start(ctx, root) }()

	target := filepath.Join(root, "main.go")
	require.NoError(t, os.WriteFile(target, []byte("package main\n"), 0o644))

	ev := nextEvent(t, p)
	require.Equal(t, "main.go", ev.Path)
	require.Equal(t, Created, ev.Kind)

	time.Sleep(30 * time.Millisecond) // ensure the modify lands in a later scan tick
	require.NoError(t, os.WriteFile(target, []byte("package main\n\nfunc main() {}\n"), 0o644))
	ev = nextEvent(t, p)
	require.Equal(t, "main.go", ev.Path)
	require.Equal(t, Modified, ev.Kind)

	require.NoError(t, os.Remove(target))
	ev = nextEvent(t, p)
	require.Equal(t, "main.go", ev.Path)
	require.Equal(t, Deleted, ev.Kind)

	require.NoError(t, p.Stop())
}

func nextEvent(t *testing.T, p *PollingWatcher) Event {
	t.Helper()
	select {
	case ev := <-p.Events():
		return ev
	case err := <-p.Errors():
		t.Fatalf("polling watcher error: %v", err)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for a polling event")
	}
	return Event{}
}

func TestPollingWatcher_Stop_IsIdempotent(t *testing.T) {
	p := NewPollingWatcher(time.Second)
	require.NoError(t, p.Stop())
	require.NoError(t, p.Stop())
}
