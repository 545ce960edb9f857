// Package testutil provides shared test helpers for vaults, sites and indexes.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/kenaz-jekyll/internal/index"
	"github.com/starford/kenaz-jekyll/internal/storage"
)

// TestDB creates a temporary SQLite index that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "kenaz-jekyll-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault holding files (relative path → content).
func TestVault(t *testing.T, files map[string]string) (string, storage.Provider) {
	t.Helper()
	vaultDir := t.TempDir()
	for rel, content := range files {
		WriteFile(t, filepath.Join(vaultDir, rel), content)
	}
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// TestSite creates a temporary Jekyll root and returns the posts provider and
// the cache file path inside it.
func TestSite(t *testing.T) (string, storage.Provider, string) {
	t.Helper()
	siteDir := t.TempDir()
	postsDir := filepath.Join(siteDir, "_posts")
	if err := os.MkdirAll(postsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	posts, err := storage.NewFS(postsDir)
	if err != nil {
		t.Fatal(err)
	}
	return siteDir, posts, filepath.Join(siteDir, ".cache", "obsidian_jekyll_cache.yaml")
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// ReadFile returns the content of path or fails the test.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
