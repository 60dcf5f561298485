package render

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pi-tools/report-forge/pkg/services/config"
	"github.com/pi-tools/report-forge/pkg/services/layout"
)

const (
	StrategyLaTeX = "latex"

	texFileName = "final_report.tex"
	pdfFileName = "final_report.pdf"
	logFileName = "final_report.log"
)

// CompileError carries the first engine error found in the compile log.
type CompileError struct {
	Line    string
	Excerpt []string
}

func (e *CompileError) Error() string {
	if e.Line == "" {
		return "latex compilation produced no artifact"
	}
	return fmt.Sprintf("latex compilation failed: %s", e.Line)
}

// laTeXRenderer emits markup for the whole report, splices it into the
// document template, and shells out to pdflatex. Two runs are required
// for the total-page reference to settle.
type laTeXRenderer struct {
	templatePath string
	markup       *layout.MarkupLayout
}

func NewLaTeXRenderer(cfg config.RenderConfig) (Renderer, error) {
	path := filepath.Join(cfg.TemplateDir, "report.tex")
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("report template not found at %s: %w", path, err)
	}
	return &laTeXRenderer{templatePath: path, markup: layout.NewMarkupLayout()}, nil
}

func (r *laTeXRenderer) Render(ctx context.Context, req Request) (*Result, error) {
	log := zerolog.Ctx(ctx)

	tpl, err := os.ReadFile(r.templatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}

	body := r.markup.Generate(req.Inspection, req.Cache)
	doc := layout.PopulateTemplate(string(tpl), body, req.Inspection, req.Profile)

	texPath := filepath.Join(req.RunDir, texFileName)
	if err := os.WriteFile(texPath, []byte(doc), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write markup document: %w", err)
	}

	// Run the engine twice so LastPage references resolve. The engine
	// exits non-zero for recoverable warnings too, so exit codes are
	// ignored and the artifact's existence decides success.
	for i := 0; i < 2; i++ {
		cmd := exec.CommandContext(ctx, "pdflatex", "-interaction=nonstopmode", texFileName)
		cmd.Dir = req.RunDir
		if out, runErr := cmd.CombinedOutput(); runErr != nil {
			log.Debug().Err(runErr).Int("run", i+1).
				Str("tail", tail(string(out), 500)).
				Msg("pdflatex exited non-zero")
		}
	}

	artifact := filepath.Join(req.RunDir, pdfFileName)
	if _, err := os.Stat(artifact); err != nil {
		cerr := scanCompileLog(filepath.Join(req.RunDir, logFileName))
		log.Error().Str("error_line", cerr.Line).Msg("latex compilation produced no pdf")
		return nil, cerr
	}

	return &Result{ArtifactPath: artifact}, nil
}

// scanCompileLog finds the first engine error line (leading "!") and a
// short excerpt after it.
func scanCompileLog(path string) *CompileError {
	f, err := os.Open(path)
	if err != nil {
		return &CompileError{}
	}
	defer f.Close()

	cerr := &CompileError{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	remaining := 0
	for scanner.Scan() {
		line := scanner.Text()
		if cerr.Line == "" && strings.HasPrefix(line, "!") {
			cerr.Line = line
			remaining = 3
			continue
		}
		if remaining > 0 {
			cerr.Excerpt = append(cerr.Excerpt, line)
			remaining--
			if remaining == 0 {
				break
			}
		}
	}
	return cerr
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
