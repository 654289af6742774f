package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/roundup/internal"
	"github.com/starford/roundup/internal/models"
	"github.com/starford/roundup/internal/normalize"
	"github.com/starford/roundup/internal/rounds"
	"github.com/starford/roundup/internal/workflow"
	pkgconfig "github.com/starford/roundup/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithVersion(version)); err != nil {
		return fmt.Errorf("mcp run error: %w", err)
	}
	return nil
}

// readInput reads the file named by the first argument, or stdin for "-".
func readInput(cmd *cli.Command) (string, []byte, error) {
	name := cmd.Args().First()
	if name == "" {
		return "", nil, fmt.Errorf("%s: file argument is required", cmd.Name)
	}
	if name == "-" {
		data, err := io.ReadAll(os.Stdin)
		return name, data, err
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", cmd.Name, err)
	}
	return name, data, nil
}

func canonicalize(name string, data []byte, rules normalize.Rules) string {
	raw := string(data)
	if workflow.DetectContentType(name, "") == models.ContentTypeMarkdown {
		raw, _ = normalize.StripFrontMatter(data)
	}
	return rules.Apply(raw)
}

func cleanFile(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	name, data, err := readInput(cmd)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, canonicalize(name, data, cfg.Normalize.Rules()))
	return err
}

func parseFile(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	name, data, err := readInput(cmd)
	if err != nil {
		return err
	}

	text := string(data)
	if cmd.Bool("raw") {
		text = canonicalize(name, data, cfg.Normalize.Rules())
	}

	res := rounds.New(rounds.WithLegacyFallback(cfg.Parser.LegacyFallback)).Parse(text)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(workflow.NewParseResult(res.Rounds, res.Strategy))
}

func main() {
	cmd := &cli.Command{
		Name:    "roundup",
		Usage:   "Chat transcript normalizer and round segmenter with HTTP, MCP and inbox front ends",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API and inbox watcher",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: serveMCP,
			},
			{
				Name:      "clean",
				Usage:     "Print the canonical form of a transcript",
				ArgsUsage: "FILE",
				Action:    cleanFile,
			},
			{
				Name:      "rounds",
				Usage:     "Print the rounds of a canonical transcript as JSON",
				ArgsUsage: "FILE",
				Action:    parseFile,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "raw",
						Usage: "Normalize the input before segmenting",
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
