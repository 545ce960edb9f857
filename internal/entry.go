// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/starford/kenaz-jekyll/internal/apperr"
	"github.com/starford/kenaz-jekyll/internal/converter"
	"github.com/starford/kenaz-jekyll/internal/index"
	"github.com/starford/kenaz-jekyll/internal/mcpserver"
	"github.com/starford/kenaz-jekyll/internal/storage"
	"github.com/starford/kenaz-jekyll/internal/watcher"
	pkgconfig "github.com/starford/kenaz-jekyll/pkg/config"
)

// runtime holds everything a command needs after startup checks passed.
type runtime struct {
	config    *Config
	logger    *slog.Logger
	out       io.Writer
	vault     *storage.FS
	converter *converter.Converter
	index     index.PostIndex
}

func (r *runtime) Close() {
	if r.index != nil {
		if err := r.index.Close(); err != nil {
			r.logger.Warn("index close failed", slog.String("error", err.Error()))
		}
	}
}

// NewLogger builds the process logger. Logs go to stderr because stdout
// carries previews and the MCP stdio transport.
func NewLogger(w io.Writer, cfg ApplicationConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == LogFormatText {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// start validates the configuration, checks both roots and wires the
// converter. Any error here is a startup failure.
func start(opts ...Option) (*runtime, error) {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	if err := pkgconfig.Check(cfg); err != nil {
		return nil, err
	}

	logger := app.logger
	if logger == nil {
		logger = NewLogger(os.Stderr, cfg.App)
		slog.SetDefault(logger)
	}
	out := app.out
	if out == nil {
		out = os.Stdout
	}

	logger.Info("Configuration loaded",
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("site_root", cfg.Site.Root),
		slog.String("default_category", cfg.Convert.DefaultCategory),
		slog.Bool("force", cfg.Convert.Force),
		slog.String("index_path", cfg.Index.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	vault, err := storage.NewFS(cfg.Vault.Path, storage.SkipHidden(cfg.Vault.SkipHidden))
	if err != nil {
		return nil, fmt.Errorf("open vault: %w", err)
	}

	// Both output directories must be creatable before any work starts.
	if err := os.MkdirAll(cfg.Site.PostsDir(), 0o755); err != nil {
		return nil, fmt.Errorf("create posts dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Site.CachePath()), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	posts, err := storage.NewFS(cfg.Site.PostsDir())
	if err != nil {
		return nil, fmt.Errorf("open posts dir: %w", err)
	}

	rt := &runtime{config: cfg, logger: logger, out: out, vault: vault}

	convOpts := []converter.Option{
		converter.WithDefaultCategory(cfg.Convert.DefaultCategory),
		converter.WithForce(cfg.Convert.Force),
		converter.WithLinkBase(cfg.Site.LinkBase),
		converter.WithLogger(logger),
	}

	if cfg.Index.Enabled() {
		if err := os.MkdirAll(filepath.Dir(cfg.Index.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create index dir: %w", err)
		}
		db, err := index.Open(cfg.Index.Path)
		if err != nil {
			return nil, fmt.Errorf("init index: %w", err)
		}
		rt.index = db
		convOpts = append(convOpts, converter.WithIndex(db))
	}

	rt.converter = converter.New(vault, posts, cfg.Site.CachePath(), convOpts...)
	return rt, nil
}

// Convert performs one conversion run. SIGINT and SIGTERM stop the run
// between notes and leave the previous cache in place.
func Convert(ctx context.Context, opts ...Option) error {
	rt, err := start(opts...)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return rt.convert(ctx)
}

func (r *runtime) convert(ctx context.Context) error {
	_, err := r.converter.Run(ctx)
	if errors.Is(err, context.Canceled) {
		r.logger.Warn("conversion interrupted, cache not updated")
		return nil
	}
	return err
}

// Watch converts once, then re-runs the conversion whenever notes change
// until a shutdown signal arrives or ctx is cancelled.
func Watch(ctx context.Context, opts ...Option) error {
	rt, err := start(opts...)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := rt.convert(ctx); err != nil {
		rt.logger.Error("initial conversion failed", slog.String("error", err.Error()))
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return watcher.Watch(gCtx, rt.vault.Root(), rt.config.Watch.Debounce, rt.logger, rt.convert)
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			rt.logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			rt.logger.Info("Context cancelled, initiating shutdown")
		}
		cancel()
		return nil
	})

	if err := g.Wait(); err != nil {
		rt.logger.Error("Watch error", slog.String("error", err.Error()))
		return err
	}

	rt.logger.Info("Watch stopped")
	return nil
}

// Preview prints the post that the note at rel would become.
func Preview(ctx context.Context, rel string, opts ...Option) error {
	rt, err := start(opts...)
	if err != nil {
		return err
	}
	defer rt.Close()

	post, err := rt.converter.Preview(ctx, rel)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(rt.out, "# %s%s\n%s", post.Filename, storage.MarkdownExt, post.Content)
	return err
}

// Links prints the wiki links that resolved to no note, one per line as
// "<note>\t[[<target>]]". Requires the post index.
func Links(_ context.Context, opts ...Option) error {
	rt, err := start(opts...)
	if err != nil {
		return err
	}
	defer rt.Close()

	if rt.index == nil {
		return fmt.Errorf("links: %w (set index.path)", apperr.ErrIndexDisabled)
	}
	rows, err := rt.index.UnresolvedLinks()
	if err != nil {
		return err
	}
	for _, row := range rows {
		source := row.Source
		if rel, relErr := filepath.Rel(rt.vault.Root(), row.Source); relErr == nil {
			source = filepath.ToSlash(rel)
		}
		if _, err := fmt.Fprintf(rt.out, "%s\t[[%s]]\n", source, row.Target); err != nil {
			return err
		}
	}
	rt.logger.Info("unresolved links", slog.Int("count", len(rows)))
	return nil
}

// ServeMCP serves the conversion tools over stdio until stdin closes.
func ServeMCP(_ context.Context, opts ...Option) error {
	rt, err := start(opts...)
	if err != nil {
		return err
	}
	defer rt.Close()

	rt.logger.Info("MCP server starting on stdio")
	return mcpserver.New(rt.converter, rt.index, rt.logger).ServeStdio()
}
