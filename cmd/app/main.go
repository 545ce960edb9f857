package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/kenaz-jekyll/internal"
	pkgconfig "github.com/starford/kenaz-jekyll/pkg/config"
)

const defaultConfigPath = "config/config.yaml"

// loadConfig builds the configuration from defaults, the optional YAML file
// and finally command-line flags, in increasing priority.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()

	configPath := cmd.String("config")
	if cmd.IsSet("config") {
		// An explicitly named file must exist.
		if err := pkgconfig.Decode(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if _, err := pkgconfig.DecodeOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cmd.IsSet("obsidian") {
		cfg.Vault.Path = cmd.String("obsidian")
	}
	if cmd.IsSet("jekyll") {
		cfg.Site.Root = cmd.String("jekyll")
	}
	if cmd.IsSet("category") {
		cfg.Convert.DefaultCategory = cmd.String("category")
	}
	if cmd.IsSet("force") {
		cfg.Convert.Force = cmd.Bool("force")
	}
	if cmd.IsSet("skip-hidden") {
		cfg.Vault.SkipHidden = cmd.Bool("skip-hidden")
	}
	if cmd.IsSet("index") {
		cfg.Index.Path = cmd.String("index")
	}
	if cmd.IsSet("log-level") {
		if err := cfg.App.LogLevel.UnmarshalText([]byte(cmd.String("log-level"))); err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
	}
	if cmd.IsSet("log-format") {
		cfg.App.LogFormat = cmd.String("log-format")
	}
	if cmd.IsSet("debounce") {
		cfg.Watch.Debounce = cmd.Duration("debounce")
	}

	return cfg, nil
}

// action adapts an entry function to a cli action.
func action(fn func(ctx context.Context, opts ...internal.Option) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := fn(ctx, internal.WithConfig(cfg)); err != nil {
			return fmt.Errorf("app run error: %w", err)
		}
		return nil
	}
}

func preview(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.Preview(ctx, cmd.String("note"), internal.WithConfig(cfg))
}

func main() {
	cmd := &cli.Command{
		Name:   "kenaz-jekyll",
		Usage:  "Convert an Obsidian vault into Jekyll blog posts",
		Action: action(internal.Convert),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "obsidian",
				Aliases: []string{"o"},
				Usage:   "Path to the Obsidian vault",
				Sources: cli.EnvVars("OBSIDIAN_VAULT"),
			},
			&cli.StringFlag{
				Name:    "jekyll",
				Aliases: []string{"j"},
				Usage:   "Path to the Jekyll site root",
				Sources: cli.EnvVars("JEKYLL_ROOT"),
			},
			&cli.StringFlag{
				Name:        "category",
				Usage:       "Category for notes that name none",
				Value:       internal.DefaultCategory,
				DefaultText: internal.DefaultCategory,
				Sources:     cli.EnvVars("JEKYLL_CATEGORY"),
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Reconvert every note regardless of the change cache",
			},
			&cli.BoolFlag{
				Name:  "skip-hidden",
				Usage: "Ignore dot-directories such as .obsidian and .trash",
			},
			&cli.StringFlag{
				Name:    "index",
				Usage:   "Path to the SQLite post index (disabled when empty)",
				Sources: cli.EnvVars("POST_INDEX_PATH"),
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: defaultConfigPath,
				Value:       defaultConfigPath,
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "debug, info, warn or error",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "json or text",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "convert",
				Usage:  "Convert changed notes once (default)",
				Action: action(internal.Convert),
			},
			{
				Name:   "watch",
				Usage:  "Convert, then reconvert whenever the vault changes",
				Action: action(internal.Watch),
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "debounce",
						Usage: "Quiet period after the last change before converting",
					},
				},
			},
			{
				Name:   "preview",
				Usage:  "Print the post a single note would become",
				Action: preview,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "note",
						Aliases:  []string{"n"},
						Usage:    "Note path relative to the vault",
						Required: true,
					},
				},
			},
			{
				Name:   "links",
				Usage:  "List wiki links that matched no note (needs --index)",
				Action: action(internal.Links),
			},
			{
				Name:   "mcp",
				Usage:  "Serve conversion tools over MCP stdio",
				Action: action(internal.ServeMCP),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
