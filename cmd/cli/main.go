package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/pi-tools/report-forge/pkg/runtime/terminal"
	"github.com/pi-tools/report-forge/pkg/services/archive"
	"github.com/pi-tools/report-forge/pkg/services/assets"
	"github.com/pi-tools/report-forge/pkg/services/compress"
	"github.com/pi-tools/report-forge/pkg/services/config"
	"github.com/pi-tools/report-forge/pkg/services/insights"
	"github.com/pi-tools/report-forge/pkg/services/render"
	"github.com/pi-tools/report-forge/pkg/services/report"
)

func main() {
	_ = godotenv.Load()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().Level(zerolog.WarnLevel)
	ctx := logger.WithContext(context.Background())

	cfg, err := config.Load(os.Getenv("REPORT_FORGE_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var profiles config.Registry = config.EmptyRegistry{}
	if cfg.Profiles != "" {
		profiles, err = config.NewRegistry(cfg.Profiles)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	var analyzer insights.Analyzer = insights.Noop{}
	if cfg.Gemini.APIKey != "" {
		analyzer = insights.NewGemini(cfg.Gemini.APIKey, cfg.Gemini.Model)
	}

	archiver, err := archive.NewS3Archive(ctx, cfg.Archive)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	opts := assets.DefaultOptions()
	if cfg.Fetch.MaxInFlight > 0 {
		opts.MaxInFlight = cfg.Fetch.MaxInFlight
	}

	ctrl := report.NewController(cfg,
		render.DefaultRegistry(),
		assets.NewFetcher(opts),
		compress.NewCompressor(),
		analyzer,
		archiver,
		profiles,
	)

	cli := terminal.NewCLI(terminal.Options{
		Config:     cfg,
		Controller: ctrl,
		Output:     os.Stdout,
	})

	if err := cli.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
