package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal"
	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/models"
	pkgconfig "github.com/GorkaAbad/Daily-Backdoor-Papers/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	return buildConfig(cmd.String("config"), cmd.String("source"), cmd.String("schema"))
}

// buildConfig layers defaults, the optional config file and the flag
// overrides, then validates the result once.
func buildConfig(configPath, source, schema string) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	found, err := pkgconfig.LoadOptional(configPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if !found {
		slog.Warn("config file not found, using defaults", slog.String("path", configPath))
	}

	if source != "" {
		cfg.Catalog.Source = source
	}
	if schema != "" {
		cfg.Catalog.Schema = models.Schema(schema)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithLogOutput(os.Stderr),
	}
	if err := internal.RunMCP(ctx, opts...); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}
	return nil
}

func runCheck(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.Check(ctx, os.Stdout, internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
}

func main() {
	cmd := &cli.Command{
		Name:   "papershelf",
		Usage:  "Searchable, filterable list of research papers from a static catalog",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "source",
				Usage:   "Catalog file path or URL (overrides catalog.source)",
				Sources: cli.EnvVars("PAPERSHELF_SOURCE"),
			},
			&cli.StringFlag{
				Name:    "schema",
				Usage:   "Catalog record schema: proceedings or preprint (overrides catalog.schema)",
				Sources: cli.EnvVars("PAPERSHELF_SCHEMA"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "mcp",
				Usage:  "Serve the catalog as MCP tools on stdio",
				Action: runMCP,
			},
			{
				Name:   "check",
				Usage:  "Load the catalog once and print a summary",
				Action: runCheck,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
