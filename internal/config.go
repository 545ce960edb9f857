package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Log formats.
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// DefaultCategory is assigned to posts whose note names no category.
const DefaultCategory = "옵시디언"

// Site layout relative to the Jekyll root.
const (
	PostsDirName  = "_posts"
	CacheDirName  = ".cache"
	CacheFileName = "obsidian_jekyll_cache.yaml"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Vault   VaultConfig       `yaml:"vault"`
	Site    SiteConfig        `yaml:"site"`
	Convert ConvertConfig     `yaml:"convert"`
	Index   IndexConfig       `yaml:"index"`
	Watch   WatchConfig       `yaml:"watch"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Vault.Validate(); err != nil {
		return fmt.Errorf("vault: %w", err)
	}
	if err := c.Site.Validate(); err != nil {
		return fmt.Errorf("site: %w", err)
	}
	if err := c.Convert.Validate(); err != nil {
		return fmt.Errorf("convert: %w", err)
	}
	if err := c.Watch.Validate(); err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	// Posts written inside the vault would be read back as notes.
	if within(c.Vault.Path, c.Site.PostsDir()) {
		return fmt.Errorf("site: posts dir %s is inside the vault %s", c.Site.PostsDir(), c.Vault.Path)
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level"`
	LogFormat string     `yaml:"log_format"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if c.LogFormat == "" {
		c.LogFormat = LogFormatJSON
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.In(LogFormatJSON, LogFormatText)),
	)
}

// VaultConfig describes the Obsidian vault that is read.
type VaultConfig struct {
	Path       string `yaml:"path"`
	SkipHidden bool   `yaml:"skip_hidden"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required.Error("obsidian vault path is required")),
	)
}

// SiteConfig describes the Jekyll site that receives posts.
type SiteConfig struct {
	Root     string `yaml:"root"`
	LinkBase string `yaml:"link_base"`
}

// PostsDir returns the directory posts are written to.
func (c *SiteConfig) PostsDir() string {
	return filepath.Join(c.Root, PostsDirName)
}

// CachePath returns the change cache file path.
func (c *SiteConfig) CachePath() string {
	return filepath.Join(c.Root, CacheDirName, CacheFileName)
}

// Validate validates the site configuration.
func (c *SiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required.Error("jekyll root is required")),
	)
}

// ConvertConfig holds conversion behaviour.
type ConvertConfig struct {
	DefaultCategory string `yaml:"default_category"`
	Force           bool   `yaml:"force"`
}

// Validate validates the conversion configuration.
func (c *ConvertConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DefaultCategory, validation.Required),
	)
}

// IndexConfig holds the optional SQLite post index. An empty path disables it.
type IndexConfig struct {
	Path string `yaml:"path"`
}

// Enabled reports whether a post index is configured.
func (c *IndexConfig) Enabled() bool {
	return c.Path != ""
}

// WatchConfig holds watch mode settings.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Validate validates the watch configuration.
func (c *WatchConfig) Validate() error {
	if c.Debounce < 0 {
		return errors.New("debounce must not be negative")
	}
	return nil
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: LogFormatJSON,
		},
		Convert: ConvertConfig{
			DefaultCategory: DefaultCategory,
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
	}
}

// within reports whether path lies inside dir.
func within(dir, path string) bool {
	if dir == "" || path == "" {
		return false
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
