package main

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pi-tools/report-forge/pkg/server"
	"github.com/pi-tools/report-forge/pkg/services/archive"
	"github.com/pi-tools/report-forge/pkg/services/assets"
	"github.com/pi-tools/report-forge/pkg/services/compress"
	"github.com/pi-tools/report-forge/pkg/services/config"
	"github.com/pi-tools/report-forge/pkg/services/insights"
	"github.com/pi-tools/report-forge/pkg/services/render"
	"github.com/pi-tools/report-forge/pkg/services/report"
)

var cfgPath string

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the report generation web server",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "",
		"Path to the configuration file (defaults apply when omitted)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	profiles, err := loadProfiles(cfg)
	if err != nil {
		return err
	}

	analyzer := buildAnalyzer(cfg)
	if analyzer.Enabled() {
		logger.Info().Str("model", cfg.Gemini.Model).Msg("AI analysis enabled")
	} else {
		logger.Info().Msg("AI analysis disabled, no API key configured")
	}

	archiver, err := archive.NewS3Archive(ctx, cfg.Archive)
	if err != nil {
		return fmt.Errorf("failed to set up report archive: %w", err)
	}

	ctrl := report.NewController(cfg,
		render.DefaultRegistry(),
		assets.NewFetcher(fetchOptions(cfg)),
		compress.NewCompressor(),
		analyzer,
		archiver,
		profiles,
	)

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	api := server.NewWebAPI(logger, server.Config{
		Addr:            addr,
		ShutdownTimeout: 10 * time.Second,
		Dependencies:    server.Dependencies{Generator: ctrl},
	})

	return api.Start()
}

func loadProfiles(cfg *config.Config) (config.Registry, error) {
	if cfg.Profiles == "" {
		return config.EmptyRegistry{}, nil
	}
	registry, err := config.NewRegistry(cfg.Profiles)
	if err != nil {
		return nil, fmt.Errorf("failed to load inspector profiles: %w", err)
	}
	return registry, nil
}

func buildAnalyzer(cfg *config.Config) insights.Analyzer {
	if cfg.Gemini.APIKey == "" {
		return insights.Noop{}
	}
	return insights.NewGemini(cfg.Gemini.APIKey, cfg.Gemini.Model)
}

func fetchOptions(cfg *config.Config) assets.Options {
	opts := assets.DefaultOptions()
	if cfg.Fetch.MaxInFlight > 0 {
		opts.MaxInFlight = cfg.Fetch.MaxInFlight
	}
	if cfg.Fetch.TotalTimeout > 0 {
		opts.TotalTimeout = cfg.Fetch.TotalTimeout
	}
	if cfg.Fetch.ConnectTimeout > 0 {
		opts.ConnectTimeout = cfg.Fetch.ConnectTimeout
	}
	if cfg.Fetch.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.Fetch.ReadTimeout
	}
	if cfg.Fetch.MaxDim > 0 {
		opts.MaxDim = cfg.Fetch.MaxDim
	}
	if cfg.Fetch.JPEGQuality > 0 {
		opts.JPEGQuality = cfg.Fetch.JPEGQuality
	}
	return opts
}
