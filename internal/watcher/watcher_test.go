package watcher

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func startWatch(t *testing.T, root string, run RunFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = Watch(ctx, root, 50*time.Millisecond, testLogger(), run)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	time.Sleep(100 * time.Millisecond)
}

func TestWatch_NewNoteTriggersRun(t *testing.T) {
	root := t.TempDir()
	var runs atomic.Int32
	startWatch(t, root, func(context.Context) error {
		runs.Add(1)
		return nil
	})

	_ = os.WriteFile(filepath.Join(root, "new.md"), []byte("# New"), 0o644)

	eventually(t, 5*time.Second, 25*time.Millisecond, func() bool {
		return runs.Load() >= 1
	}, "new note did not trigger a run")
}

func TestWatch_BurstIsDebounced(t *testing.T) {
	root := t.TempDir()
	var runs atomic.Int32
	startWatch(t, root, func(context.Context) error {
		runs.Add(1)
		return nil
	})

	for i := range 5 {
		_ = os.WriteFile(filepath.Join(root, "burst.md"), []byte{byte('a' + i)}, 0o644)
	}

	eventually(t, 5*time.Second, 25*time.Millisecond, func() bool {
		return runs.Load() >= 1
	}, "burst did not trigger a run")
	time.Sleep(200 * time.Millisecond)
	if n := runs.Load(); n > 2 {
		t.Errorf("runs = %d, want burst coalesced", n)
	}
}

func TestWatch_IgnoresNonMarkdown(t *testing.T) {
	root := t.TempDir()
	var runs atomic.Int32
	startWatch(t, root, func(context.Context) error {
		runs.Add(1)
		return nil
	})

	_ = os.WriteFile(filepath.Join(root, "image.png"), []byte("png"), 0o644)
	time.Sleep(300 * time.Millisecond)
	if n := runs.Load(); n != 0 {
		t.Errorf("runs = %d, want 0 for non-markdown change", n)
	}
}

func TestWatch_NewDirWatched(t *testing.T) {
	root := t.TempDir()
	var runs atomic.Int32
	startWatch(t, root, func(context.Context) error {
		runs.Add(1)
		return nil
	})

	sub := filepath.Join(root, "subdir")
	_ = os.MkdirAll(sub, 0o755)
	eventually(t, 5*time.Second, 25*time.Millisecond, func() bool {
		return runs.Load() >= 1
	}, "new dir did not trigger a run")

	before := runs.Load()
	time.Sleep(100 * time.Millisecond)
	_ = os.WriteFile(filepath.Join(sub, "deep.md"), []byte("# Deep"), 0o644)

	eventually(t, 5*time.Second, 25*time.Millisecond, func() bool {
		return runs.Load() > before
	}, "note in new subdir did not trigger a run")
}

func TestWatch_RunErrorKeepsWatching(t *testing.T) {
	root := t.TempDir()
	var runs atomic.Int32
	startWatch(t, root, func(context.Context) error {
		runs.Add(1)
		return errors.New("boom")
	})

	_ = os.WriteFile(filepath.Join(root, "a.md"), []byte("a"), 0o644)
	eventually(t, 5*time.Second, 25*time.Millisecond, func() bool {
		return runs.Load() >= 1
	}, "first change did not trigger a run")

	time.Sleep(100 * time.Millisecond)
	_ = os.WriteFile(filepath.Join(root, "b.md"), []byte("b"), 0o644)
	eventually(t, 5*time.Second, 25*time.Millisecond, func() bool {
		return runs.Load() >= 2
	}, "watcher stopped after a failed run")
}

func TestWatch_MissingRoot(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "missing"), 0, testLogger(), func(context.Context) error { return nil })
	if err == nil {
		t.Error("expected error for missing root")
	}
}
