// Package report orchestrates one generation run end to end: parse,
// fetch, render, compress, archive, clean up.
package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pi-tools/report-forge/pkg/models/api"
	"github.com/pi-tools/report-forge/pkg/models/domain"
	"github.com/pi-tools/report-forge/pkg/services/archive"
	"github.com/pi-tools/report-forge/pkg/services/assets"
	"github.com/pi-tools/report-forge/pkg/services/compress"
	"github.com/pi-tools/report-forge/pkg/services/config"
	"github.com/pi-tools/report-forge/pkg/services/insights"
	"github.com/pi-tools/report-forge/pkg/services/render"
)

// imagesSubdir holds fetched photos inside the run directory.
const imagesSubdir = "images"

type Controller struct {
	cfg        *config.Config
	registry   render.Registry
	fetcher    *assets.Fetcher
	compressor *compress.Compressor
	analyzer   insights.Analyzer
	archiver   archive.Archiver
	profiles   config.Registry
}

func NewController(
	cfg *config.Config,
	registry render.Registry,
	fetcher *assets.Fetcher,
	compressor *compress.Compressor,
	analyzer insights.Analyzer,
	archiver archive.Archiver,
	profiles config.Registry,
) *Controller {
	return &Controller{
		cfg:        cfg,
		registry:   registry,
		fetcher:    fetcher,
		compressor: compressor,
		analyzer:   analyzer,
		archiver:   archiver,
		profiles:   profiles,
	}
}

// Generate runs the full pipeline for one uploaded inspection document.
// The returned cleanup func removes fetched images and render
// intermediates from the run directory; callers invoke it after the
// artifact has been delivered. It never fails.
func (c *Controller) Generate(ctx context.Context, raw []byte) (*domain.RunResult, func(), error) {
	log := zerolog.Ctx(ctx)
	start := time.Now()

	ins, err := domain.ParseInspection(raw)
	if err != nil {
		return nil, nil, err
	}

	runID := uuid.NewString()[:8]
	runDir := filepath.Join(c.cfg.Render.OutputDir,
		fmt.Sprintf("%s_%s", start.Format("20060102_150405"), runID))
	if err := os.MkdirAll(filepath.Join(runDir, imagesSubdir), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	staticAssets, err := c.copyStaticAssets(runDir)
	if err != nil {
		return nil, nil, err
	}

	urls := assets.CollectURLs(ins)
	log.Info().
		Str("run_id", runID).
		Int("sections", len(ins.Sections)).
		Int("images", len(urls)).
		Msg("starting report generation")

	cache := c.fetcher.FetchAll(ctx, urls, filepath.Join(runDir, imagesSubdir))

	renderer, err := c.registry.Create(c.cfg.Render.Strategy, c.cfg.Render)
	if err != nil {
		return nil, nil, err
	}

	// Rendering is CPU and subprocess heavy; run it on its own goroutine
	// so a cancelled caller is released immediately.
	type renderOutcome struct {
		res *render.Result
		err error
	}
	done := make(chan renderOutcome, 1)
	go func() {
		res, err := renderer.Render(ctx, render.Request{
			Inspection: ins,
			Cache:      cache,
			RunDir:     runDir,
			Profile:    c.lookupProfile(ctx, ins),
		})
		done <- renderOutcome{res: res, err: err}
	}()

	var res *render.Result
	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case out := <-done:
		if out.err != nil {
			return nil, nil, out.err
		}
		res = out.res
	}

	artifact := res.ArtifactPath
	if c.cfg.Render.Compress {
		artifact = c.compressor.Compress(ctx, artifact)
	}

	if c.archiver.Enabled() {
		if err := c.archiver.Store(ctx, runID, artifact); err != nil {
			log.Warn().Err(err).Msg("report archival failed")
		}
	}

	fetched, failed := cache.Stats()
	result := &domain.RunResult{
		RunID:         runID,
		ArtifactPath:  artifact,
		Strategy:      c.cfg.Render.Strategy,
		PageCount:     res.PageCount,
		ImagesFetched: fetched,
		ImagesFailed:  failed,
		Elapsed:       time.Since(start),
	}

	log.Info().
		Str("run_id", runID).
		Str("artifact", artifact).
		Int("pages", res.PageCount).
		Dur("elapsed", result.Elapsed).
		Msg("report generation complete")

	return result, cleanupFunc(runDir, staticAssets), nil
}

// Analyze runs both AI exchanges and merges the results. A partial
// outcome is fine; only a fully failed run surfaces an error.
func (c *Controller) Analyze(ctx context.Context, raw []byte) (*api.Insights, error) {
	if !c.analyzer.Enabled() {
		return nil, insights.ErrDisabled
	}

	ins, err := domain.ParseInspection(raw)
	if err != nil {
		return nil, err
	}

	log := zerolog.Ctx(ctx)

	summary, sumErr := c.analyzer.ExecutiveSummary(ctx, ins)
	if sumErr != nil {
		log.Warn().Err(sumErr).Msg("executive summary failed")
	}
	categories, catErr := c.analyzer.CategorizeDeficiencies(ctx, ins)
	if catErr != nil {
		log.Warn().Err(catErr).Msg("deficiency categorization failed")
	}

	if sumErr != nil && catErr != nil {
		return nil, fmt.Errorf("ai analysis failed: %w", catErr)
	}

	return insights.Combine(summary, categories), nil
}

// AIEnabled reports whether the analyze surface is available.
func (c *Controller) AIEnabled() bool { return c.analyzer.Enabled() }

func (c *Controller) lookupProfile(ctx context.Context, ins *domain.Inspection) *domain.InspectorProfile {
	profile, err := c.profiles.GetProfile(ctx, ins.Inspector.Name)
	if err != nil {
		zerolog.Ctx(ctx).Debug().
			Str("inspector", ins.Inspector.Name).
			Msg("no inspector profile configured")
		return nil
	}
	return profile
}

// copyStaticAssets places the template's image assets next to the
// markup document so the compiler resolves them from its working
// directory. Returns the copied file names for cleanup.
func (c *Controller) copyStaticAssets(runDir string) ([]string, error) {
	entries, err := os.ReadDir(c.cfg.Render.TemplateDir)
	if err != nil {
		// The direct strategy needs no template directory at all.
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read template directory: %w", err)
	}

	var copied []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".png") {
			continue
		}
		src := filepath.Join(c.cfg.Render.TemplateDir, entry.Name())
		dst := filepath.Join(runDir, entry.Name())
		if err := copyFile(src, dst); err != nil {
			return nil, fmt.Errorf("failed to copy template asset %s: %w", entry.Name(), err)
		}
		copied = append(copied, entry.Name())
	}
	return copied, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// cleanupFunc removes everything from the run directory except the
// final artifact. Errors are swallowed; leftover intermediates are a
// disk-space nuisance, not a failure.
func cleanupFunc(runDir string, staticAssets []string) func() {
	return func() {
		_ = os.RemoveAll(filepath.Join(runDir, imagesSubdir))
		for _, name := range staticAssets {
			_ = os.Remove(filepath.Join(runDir, name))
		}
		for _, ext := range []string{".tex", ".log", ".out", ".aux", ".fls"} {
			_ = os.Remove(filepath.Join(runDir, "final_report"+ext))
		}
	}
}
