// Package compress shrinks finished PDFs. Ghostscript does the heavy
// lifting when it is installed; without it, or when both Ghostscript
// attempts fail, the artifact is rewritten in-process instead.
// Compression is best-effort: every failure path hands back the
// original artifact.
package compress

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rs/zerolog"
)

const gsTimeout = 30 * time.Second

type Compressor struct {
	// binary is the Ghostscript executable name, overridable in tests.
	binary string
}

func NewCompressor() *Compressor {
	return &Compressor{binary: "gs"}
}

// Compress rewrites pdfPath with ebook-quality downsampling and returns
// the path to use. Fallback order: Ghostscript /ebook, Ghostscript
// /default, in-process rewrite, original artifact. The original path
// also comes back whenever the winning output is not smaller.
func (c *Compressor) Compress(ctx context.Context, pdfPath string) string {
	log := zerolog.Ctx(ctx)
	out := compressedPath(pdfPath)

	if _, err := exec.LookPath(c.binary); err != nil {
		log.Debug().Msg("ghostscript not installed, rewriting in-process")
		return c.rewrite(ctx, pdfPath, out)
	}

	if err := c.run(ctx, pdfPath, out, "/ebook"); err != nil {
		log.Warn().Err(err).Msg("ebook compression failed, retrying with defaults")
		if err := c.run(ctx, pdfPath, out, "/default"); err != nil {
			log.Warn().Err(err).Msg("ghostscript failed, rewriting in-process")
			_ = os.Remove(out)
			return c.rewrite(ctx, pdfPath, out)
		}
	}

	return pickSmaller(ctx, pdfPath, out)
}

// rewrite is the Ghostscript-less fallback: a lossless restructure of
// the document. It never downsamples, so the win is modest, but it
// still dedupes objects and recompresses streams.
func (c *Compressor) rewrite(ctx context.Context, pdfPath, out string) string {
	log := zerolog.Ctx(ctx)

	if err := api.OptimizeFile(pdfPath, out, nil); err != nil {
		log.Warn().Err(err).Msg("pdf rewrite failed, delivering uncompressed pdf")
		_ = os.Remove(out)
		return pdfPath
	}
	return pickSmaller(ctx, pdfPath, out)
}

// pickSmaller keeps out only when it is a real shrink; otherwise it is
// removed and the original path wins.
func pickSmaller(ctx context.Context, pdfPath, out string) string {
	log := zerolog.Ctx(ctx)

	origInfo, err := os.Stat(pdfPath)
	if err != nil {
		return pdfPath
	}
	outInfo, err := os.Stat(out)
	if err != nil || outInfo.Size() == 0 {
		_ = os.Remove(out)
		return pdfPath
	}
	if outInfo.Size() >= origInfo.Size() {
		log.Debug().
			Int64("original", origInfo.Size()).
			Int64("compressed", outInfo.Size()).
			Msg("compression did not shrink the artifact")
		_ = os.Remove(out)
		return pdfPath
	}

	log.Info().
		Int64("original", origInfo.Size()).
		Int64("compressed", outInfo.Size()).
		Msg("compressed report artifact")
	return out
}

func (c *Compressor) run(ctx context.Context, in, out, settings string) error {
	ctx, cancel := context.WithTimeout(ctx, gsTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.binary,
		"-sDEVICE=pdfwrite",
		"-dCompatibilityLevel=1.4",
		"-dPDFSETTINGS="+settings,
		"-dNOPAUSE", "-dQUIET", "-dBATCH",
		"-sOutputFile="+out,
		in,
	)
	return cmd.Run()
}

func compressedPath(pdfPath string) string {
	ext := filepath.Ext(pdfPath)
	return strings.TrimSuffix(pdfPath, ext) + "_compressed" + ext
}
