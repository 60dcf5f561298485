package render

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/pi-tools/report-forge/pkg/services/config"
	"github.com/pi-tools/report-forge/pkg/services/layout"
)

const StrategyDirect = "direct"

// directRenderer draws the report onto the PDF canvas in-process, with
// no external toolchain.
type directRenderer struct {
	layout *layout.DirectLayout
}

func NewDirectRenderer(_ config.RenderConfig) (Renderer, error) {
	return &directRenderer{layout: layout.NewDirectLayout()}, nil
}

func (r *directRenderer) Render(ctx context.Context, req Request) (*Result, error) {
	out := filepath.Join(req.RunDir, pdfFileName)

	res, err := r.layout.Render(req.Inspection, req.Cache, out)
	if err != nil {
		return nil, fmt.Errorf("failed to draw report: %w", err)
	}

	zerolog.Ctx(ctx).Debug().
		Int("pages", res.PageCount).
		Int("fields", len(res.FieldNames)).
		Msg("direct render complete")

	return &Result{ArtifactPath: out, PageCount: res.PageCount}, nil
}
