package internal

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/kenaz-jekyll/internal/apperr"
	"github.com/starford/kenaz-jekyll/internal/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T, files map[string]string) *Config {
	t.Helper()
	vaultDir, _ := testutil.TestVault(t, files)
	cfg := NewDefaultConfig()
	cfg.Vault.Path = vaultDir
	cfg.Site.Root = filepath.Join(t.TempDir(), "site")
	return cfg
}

func TestConvert_WritesPostsAndCache(t *testing.T) {
	cfg := testConfig(t, map[string]string{
		"hello.md": "---\ntitle: Hello\ndate: 2025-03-19\n---\nbody",
	})

	if err := Convert(context.Background(), WithConfig(cfg), WithLogger(quietLogger())); err != nil {
		t.Fatalf("Convert: %v", err)
	}

	post := testutil.ReadFile(t, filepath.Join(cfg.Site.PostsDir(), "2025-03-19-Hello.md"))
	if !strings.Contains(post, "categories:\n  - 옵시디언\n") {
		t.Errorf("post = %q", post)
	}
	if _, err := os.Stat(cfg.Site.CachePath()); err != nil {
		t.Errorf("cache not written: %v", err)
	}
}

func TestConvert_MissingVault(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Vault.Path = filepath.Join(t.TempDir(), "missing")
	cfg.Site.Root = t.TempDir()

	err := Convert(context.Background(), WithConfig(cfg), WithLogger(quietLogger()))
	if err == nil {
		t.Fatal("expected startup error for missing vault")
	}
}

func TestConvert_VaultIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "vault.md")
	testutil.WriteFile(t, file, "x")
	cfg := NewDefaultConfig()
	cfg.Vault.Path = file
	cfg.Site.Root = t.TempDir()

	err := Convert(context.Background(), WithConfig(cfg), WithLogger(quietLogger()))
	if !errors.Is(err, apperr.ErrNotDirectory) {
		t.Errorf("err = %v, want ErrNotDirectory", err)
	}
}

func TestConvert_UnwritableSite(t *testing.T) {
	cfg := testConfig(t, map[string]string{"a.md": "a"})
	// A regular file where the site root should be.
	cfg.Site.Root = filepath.Join(t.TempDir(), "site")
	testutil.WriteFile(t, cfg.Site.Root, "not a dir")

	if err := Convert(context.Background(), WithConfig(cfg), WithLogger(quietLogger())); err == nil {
		t.Fatal("expected startup error for unusable site root")
	}
}

func TestConvert_RequiresConfig(t *testing.T) {
	if err := Convert(context.Background()); err == nil {
		t.Fatal("expected error without config")
	}
}

func TestConvert_InvalidConfig(t *testing.T) {
	cfg := testConfig(t, map[string]string{"a.md": "a"})
	cfg.Convert.DefaultCategory = ""

	err := Convert(context.Background(), WithConfig(cfg), WithLogger(quietLogger()))
	if err == nil || !strings.Contains(err.Error(), "config validation failed") {
		t.Errorf("err = %v, want config validation failure", err)
	}
	if _, statErr := os.Stat(cfg.Site.PostsDir()); statErr == nil {
		t.Error("posts dir created despite invalid config")
	}
}

func TestPreview_PrintsPost(t *testing.T) {
	cfg := testConfig(t, map[string]string{
		"a.md": "---\ntitle: A\ndate: 2025-01-01\n---\nlink [[B]]",
		"b.md": "---\ntitle: B\ndate: 2025-01-02\n---\nb",
	})
	var out bytes.Buffer

	err := Preview(context.Background(), "a.md", WithConfig(cfg), WithLogger(quietLogger()), WithOutput(&out))
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	got := out.String()
	if !strings.HasPrefix(got, "# 2025-01-01-A.md\n---\ntitle: A\n") {
		t.Errorf("preview = %q", got)
	}
	if !strings.Contains(got, "link [B](2025-01-02-B)") {
		t.Errorf("preview missing link: %q", got)
	}
	if _, err := os.Stat(filepath.Join(cfg.Site.PostsDir(), "2025-01-01-A.md")); err == nil {
		t.Error("preview wrote a post")
	}
}

func TestPreview_MissingNote(t *testing.T) {
	cfg := testConfig(t, map[string]string{"a.md": "a"})
	err := Preview(context.Background(), "nope.md", WithConfig(cfg), WithLogger(quietLogger()), WithOutput(io.Discard))
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestLinks_IndexDisabled(t *testing.T) {
	cfg := testConfig(t, map[string]string{"a.md": "a"})
	err := Links(context.Background(), WithConfig(cfg), WithLogger(quietLogger()), WithOutput(io.Discard))
	if !errors.Is(err, apperr.ErrIndexDisabled) {
		t.Errorf("err = %v, want ErrIndexDisabled", err)
	}
}

func TestLinks_ReportsUnresolved(t *testing.T) {
	cfg := testConfig(t, map[string]string{
		"notes/a.md": "---\ntitle: A\ndate: 2025-01-01\n---\n[[Ghost]] and [[B]]",
		"b.md":       "---\ntitle: B\ndate: 2025-01-02\n---\nb",
	})
	cfg.Index.Path = filepath.Join(t.TempDir(), "db", "posts.db")
	opts := []Option{WithConfig(cfg), WithLogger(quietLogger())}

	if err := Convert(context.Background(), opts...); err != nil {
		t.Fatalf("Convert: %v", err)
	}

	var out bytes.Buffer
	if err := Links(context.Background(), append(opts, WithOutput(&out))...); err != nil {
		t.Fatalf("Links: %v", err)
	}
	if got, want := out.String(), "notes/a.md\t[[Ghost]]\n"; got != want {
		t.Errorf("links = %q, want %q", got, want)
	}
}

func TestWatch_ConvertsNewNotes(t *testing.T) {
	cfg := testConfig(t, map[string]string{
		"first.md": "---\ntitle: First\ndate: 2025-01-01\n---\n1",
	})
	cfg.Watch.Debounce = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, WithConfig(cfg), WithLogger(quietLogger()))
	}()

	first := filepath.Join(cfg.Site.PostsDir(), "2025-01-01-First.md")
	second := filepath.Join(cfg.Site.PostsDir(), "2025-01-02-Second.md")

	waitFor(t, func() bool {
		_, err := os.Stat(first)
		return err == nil
	}, "initial conversion did not run")

	time.Sleep(100 * time.Millisecond)
	testutil.WriteFile(t, filepath.Join(cfg.Vault.Path, "second.md"), "---\ntitle: Second\ndate: 2025-01-02\n---\n2")

	waitFor(t, func() bool {
		_, err := os.Stat(second)
		return err == nil
	}, "new note was not converted")

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not stop after cancel")
	}
}

func waitFor(t *testing.T, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(25 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestNewLogger_Formats(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, ApplicationConfig{LogLevel: slog.LevelInfo, LogFormat: LogFormatJSON}).Info("hello")
	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("json log = %q", buf.String())
	}

	buf.Reset()
	NewLogger(&buf, ApplicationConfig{LogLevel: slog.LevelInfo, LogFormat: LogFormatText}).Info("hello")
	if !strings.Contains(buf.String(), "msg=hello") {
		t.Errorf("text log = %q", buf.String())
	}

	buf.Reset()
	NewLogger(&buf, ApplicationConfig{LogLevel: slog.LevelWarn}).Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("info logged at warn level: %q", buf.String())
	}
}
