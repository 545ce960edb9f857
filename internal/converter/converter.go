// Package converter turns an Obsidian vault into Jekyll posts.
//
// A run is a two-phase pipeline. Phase one reads every note and builds the
// title → filename mapping; phase two receives that mapping explicitly,
// skips unchanged notes and writes the rest. The change cache is loaded once
// at the start and written once at the end.
//
// Runs are not safe to execute concurrently against the same site.
package converter

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/starford/kenaz-jekyll/internal/apperr"
	"github.com/starford/kenaz-jekyll/internal/cache"
	"github.com/starford/kenaz-jekyll/internal/checksum"
	"github.com/starford/kenaz-jekyll/internal/index"
	"github.com/starford/kenaz-jekyll/internal/links"
	"github.com/starford/kenaz-jekyll/internal/models"
	"github.com/starford/kenaz-jekyll/internal/slug"
	"github.com/starford/kenaz-jekyll/internal/storage"
	"github.com/starford/kenaz-jekyll/internal/titlemap"
)

// State names a step of a run.
type State string

const (
	StateScanningForMapping   State = "scanning_for_mapping"
	StateBuildingCache        State = "building_cache"
	StateConvertingOrSkipping State = "converting_or_skipping"
	StatePersistingCache      State = "persisting_cache"
	StateDone                 State = "done"
)

// Stats summarises a run.
type Stats struct {
	Converted int `json:"converted"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// Converter converts vault notes into posts.
type Converter struct {
	vault           storage.Provider
	posts           storage.Provider
	cachePath       string
	defaultCategory string
	force           bool
	linkBase        string
	index           index.PostIndex
	logger          *slog.Logger
	now             func() time.Time
}

// Option configures a Converter.
type Option func(*Converter)

// WithDefaultCategory sets the category used when a note names none.
func WithDefaultCategory(category string) Option {
	return func(c *Converter) {
		c.defaultCategory = category
	}
}

// WithForce makes every run reconvert all notes regardless of the cache.
func WithForce(force bool) Option {
	return func(c *Converter) {
		c.force = force
	}
}

// WithLinkBase prefixes every rewritten note link destination.
func WithLinkBase(base string) Option {
	return func(c *Converter) {
		c.linkBase = base
	}
}

// WithIndex records converted posts and their links.
func WithIndex(idx index.PostIndex) Option {
	return func(c *Converter) {
		c.index = idx
	}
}

// WithLogger sets the logger. slog.Default is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Converter) {
		c.logger = logger
	}
}

// WithClock overrides the processing time source.
func WithClock(now func() time.Time) Option {
	return func(c *Converter) {
		c.now = now
	}
}

// New returns a Converter reading notes from vault, writing posts to posts
// and persisting change detection state at cachePath.
func New(vault, posts storage.Provider, cachePath string, opts ...Option) *Converter {
	c := &Converter{
		vault:     vault,
		posts:     posts,
		cachePath: cachePath,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run performs one full conversion. Per-file failures are logged and
// counted; the returned error is non-nil only when the vault root cannot be
// listed or ctx is cancelled, in which case the cache is left untouched.
func (c *Converter) Run(ctx context.Context) (Stats, error) {
	var stats Stats
	now := c.now()

	c.enter(StateScanningForMapping)
	files, err := c.list()
	if err != nil {
		return stats, err
	}
	scanned, err := c.scan(ctx, files, now)
	if err != nil {
		return stats, err
	}

	c.enter(StateBuildingCache)
	prev := c.loadCache()
	mapping := scanned.titles.Merge(prev.TitleMapping)

	c.enter(StateConvertingOrSkipping)
	next, stats, err := c.convertAll(ctx, files, mapping, scanned.owners, prev, now)
	if err != nil {
		return stats, err
	}

	c.enter(StatePersistingCache)
	next.TitleMapping = mapping.Entries()
	if err := cache.Save(c.cachePath, next, c.now()); err != nil {
		c.logger.Error("cache save failed", slog.String("path", c.cachePath), slog.String("error", err.Error()))
	}

	c.enter(StateDone)
	c.logger.Info("conversion finished",
		slog.Int("converted", stats.Converted),
		slog.Int("skipped", stats.Skipped),
		slog.Int("failed", stats.Failed))
	return stats, nil
}

// BuildTitleMap reads every note and derives its post filename. When two
// notes share a title the first in traversal order wins.
func (c *Converter) BuildTitleMap(ctx context.Context, now time.Time) (titlemap.Map, error) {
	files, err := c.list()
	if err != nil {
		return titlemap.Map{}, err
	}
	scanned, err := c.scan(ctx, files, now)
	if err != nil {
		return titlemap.Map{}, err
	}
	return scanned.titles, nil
}

// mappingScan is the outcome of phase one.
type mappingScan struct {
	titles titlemap.Map
	// owners maps each post filename stem to the note (vault-relative path)
	// allowed to write it.
	owners map[string]string
}

func (c *Converter) list() ([]models.SourceFile, error) {
	listing, err := c.vault.List()
	if err != nil {
		return nil, fmt.Errorf("converter: scan vault: %w", err)
	}
	for _, sk := range listing.Skipped {
		c.logger.Warn("scan: unreadable entry skipped", slog.String("path", sk.Path), slog.String("error", sk.Err.Error()))
	}
	return listing.Files, nil
}

func (c *Converter) scan(ctx context.Context, files []models.SourceFile, now time.Time) (mappingScan, error) {
	b := titlemap.NewBuilder()
	owners := make(map[string]string, len(files))
	for _, src := range files {
		if err := ctx.Err(); err != nil {
			return mappingScan{}, err
		}
		data, err := c.vault.Read(src.Rel)
		if err != nil {
			c.logger.Warn("mapping: read failed", slog.String("path", src.Rel), slog.String("error", err.Error()))
			continue
		}
		title, date := identityFromContent(src, string(data), now)
		stem := slug.Filename(title, date)
		existing, added := b.Add(title, stem)
		if !added {
			c.logger.Warn("mapping: duplicate title, keeping first",
				slog.String("title", title),
				slog.String("path", src.Rel),
				slog.String("kept", existing))
		}
		if owner, taken := owners[stem]; taken {
			if added {
				c.logger.Warn("mapping: titles share a post filename, keeping first",
					slog.String("post", stem),
					slog.String("path", src.Rel),
					slog.String("kept", owner))
			}
			continue
		}
		owners[stem] = src.Rel
	}
	return mappingScan{titles: b.Map(), owners: owners}, nil
}

func (c *Converter) convertAll(ctx context.Context, files []models.SourceFile, mapping titlemap.Map, owners map[string]string, prev *cache.Cache, now time.Time) (*cache.Cache, Stats, error) {
	var stats Stats
	next := cache.New()

	rewriter := links.NewRewriter(mapping, links.WithBase(c.linkBase))
	seen := make(map[string]struct{}, len(files))

	for _, src := range files {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		seen[src.Path] = struct{}{}

		data, err := c.vault.Read(src.Rel)
		if err != nil {
			stats.Failed++
			c.logger.Error("read failed", slog.String("path", src.Rel), slog.String("error", err.Error()))
			continue
		}
		hash := checksum.Sum(data)

		if !c.force && prev.Unchanged(src.Path, hash) {
			next.FileHash[src.Path] = hash
			stats.Skipped++
			c.logger.Debug("skipped", slog.String("path", src.Rel))
			continue
		}

		post, note, found, err := c.render(src, data, rewriter, now)
		if err != nil {
			// No hash recorded: the next run retries this note.
			stats.Failed++
			c.logger.Error("convert failed", slog.String("path", src.Rel), slog.String("error", err.Error()))
			continue
		}

		owner, taken := owners[post.Filename]
		if !taken {
			owners[post.Filename] = src.Rel
		} else if owner != src.Rel {
			stats.Failed++
			c.logger.Warn("duplicate post filename, not written",
				slog.String("path", src.Rel),
				slog.String("post", post.Filename+storage.MarkdownExt),
				slog.String("kept", owner))
			continue
		}

		if err := c.posts.Write(post.Filename+storage.MarkdownExt, post.Content); err != nil {
			stats.Failed++
			c.logger.Error("write failed", slog.String("path", src.Rel), slog.String("error", err.Error()))
			continue
		}
		next.FileHash[src.Path] = hash
		stats.Converted++
		c.logger.Info("converted", slog.String("source", src.Rel), slog.String("post", post.Filename+storage.MarkdownExt))

		c.record(note, post, hash, found)
	}

	c.prune(seen)
	return next, stats, nil
}

func (c *Converter) render(src models.SourceFile, data []byte, rewriter *links.Rewriter, now time.Time) (models.Post, models.Note, []links.Link, error) {
	note := BuildNote(src, string(data), c.defaultCategory, now, c.logger)
	body, found := rewriter.Rewrite(note.Body)
	content, err := RenderPost(note, body)
	if err != nil {
		return models.Post{}, note, nil, err
	}
	return models.Post{
		Filename: slug.Filename(note.Title, note.Date),
		Title:    note.Title,
		Content:  content,
	}, note, found, nil
}

// Preview renders the note at rel (relative to the vault root) without
// writing anything. Links resolve against the current vault and the cache.
func (c *Converter) Preview(ctx context.Context, rel string) (models.Post, error) {
	now := c.now()
	files, err := c.list()
	if err != nil {
		return models.Post{}, err
	}
	scanned, err := c.scan(ctx, files, now)
	if err != nil {
		return models.Post{}, err
	}
	mapping := scanned.titles.Merge(c.loadCache().TitleMapping)

	rel = filepath.ToSlash(filepath.Clean(rel))
	for _, src := range files {
		if src.Rel != rel {
			continue
		}
		data, err := c.vault.Read(src.Rel)
		if err != nil {
			return models.Post{}, err
		}
		post, _, _, err := c.render(src, data, links.NewRewriter(mapping, links.WithBase(c.linkBase)), now)
		return post, err
	}
	return models.Post{}, fmt.Errorf("converter: preview %s: %w", rel, apperr.ErrNotFound)
}

func (c *Converter) loadCache() *cache.Cache {
	prev, err := cache.Load(c.cachePath)
	if err != nil {
		c.logger.Warn("cache ignored", slog.String("path", c.cachePath), slog.String("error", err.Error()))
	}
	return prev
}

func (c *Converter) record(note models.Note, post models.Post, hash string, found []links.Link) {
	if c.index == nil {
		return
	}
	rows := make([]index.LinkRow, 0, len(found))
	for _, l := range found {
		if l.Image {
			continue
		}
		rows = append(rows, index.LinkRow{
			Target:      l.Target,
			Destination: l.Destination,
			Embed:       l.Embed,
			Resolved:    l.Resolved,
		})
	}
	err := c.index.RecordPost(index.PostRow{
		Source:      note.Source.Path,
		Filename:    post.Filename,
		Title:       post.Title,
		Date:        note.Date.Format(slug.DateLayout),
		Tags:        note.Tags,
		Checksum:    hash,
		ConvertedAt: c.now(),
	}, rows)
	if err != nil {
		c.logger.Warn("index record failed", slog.String("path", note.Source.Rel), slog.String("error", err.Error()))
	}
}

func (c *Converter) prune(seen map[string]struct{}) {
	if c.index == nil {
		return
	}
	n, err := c.index.Prune(seen)
	if err != nil {
		c.logger.Warn("index prune failed", slog.String("error", err.Error()))
		return
	}
	if n > 0 {
		c.logger.Debug("index pruned", slog.Int("removed", n))
	}
}

func (c *Converter) enter(s State) {
	c.logger.Debug("converter: state", slog.String("state", string(s)))
}
