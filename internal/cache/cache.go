// Package cache persists change-detection state between converter runs.
package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/kenaz-jekyll/internal/storage"
)

// Cache is the on-disk state of the previous run.
type Cache struct {
	// FileHash maps absolute source paths to content digests.
	FileHash map[string]string `yaml:"file_hash"`
	// TitleMapping maps note titles to post filename stems.
	TitleMapping map[string]string `yaml:"title_mapping"`
	// LastUpdate is an RFC 3339 timestamp of the last save.
	LastUpdate string `yaml:"last_update,omitempty"`
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{
		FileHash:     map[string]string{},
		TitleMapping: map[string]string{},
	}
}

// Unchanged reports whether path was recorded with exactly hash.
func (c *Cache) Unchanged(path, hash string) bool {
	prev, ok := c.FileHash[path]
	return ok && prev == hash
}

// Load reads the cache at path. The returned cache is always usable: a
// missing file yields an empty cache and a nil error, an unreadable or
// malformed file yields an empty cache and the error for the caller to log.
func Load(path string) (*Cache, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(), nil
		}
		return New(), fmt.Errorf("cache: read %s: %w", path, err)
	}

	var c Cache
	if err := yaml.Unmarshal(data, &c); err != nil {
		return New(), fmt.Errorf("cache: parse %s: %w", path, err)
	}
	if c.FileHash == nil {
		c.FileHash = map[string]string{}
	}
	if c.TitleMapping == nil {
		c.TitleMapping = map[string]string{}
	}
	return &c, nil
}

// Save writes c to path, replacing any previous file atomically. LastUpdate
// is set from now.
func Save(path string, c *Cache, now time.Time) error {
	c.LastUpdate = now.Format(time.RFC3339)

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("cache: encode: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cache: mkdir: %w", err)
	}
	store, err := storage.NewFS(dir)
	if err != nil {
		return fmt.Errorf("cache: open dir: %w", err)
	}
	if err := store.Write(filepath.Base(path), data); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	return nil
}
