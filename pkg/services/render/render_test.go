package render

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pi-tools/report-forge/pkg/models/domain"
	"github.com/pi-tools/report-forge/pkg/services/assets"
	"github.com/pi-tools/report-forge/pkg/services/config"
)

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	factory := func(config.RenderConfig) (Renderer, error) { return nil, nil }

	require.NoError(t, r.Register("latex", factory))
	assert.Error(t, r.Register("latex", factory), "duplicate registration must fail")
	assert.Error(t, r.Register("", factory))
	assert.Error(t, r.Register("direct", nil))
}

func TestRegistry_CreateUnknownStrategy(t *testing.T) {
	_, err := NewRegistry().Create("qr-code", config.RenderConfig{})
	assert.ErrorContains(t, err, "not registered")
}

func TestDefaultRegistry_ListStrategies(t *testing.T) {
	strategies := DefaultRegistry().ListStrategies()
	assert.ElementsMatch(t, []string{StrategyLaTeX, StrategyDirect}, strategies)
}

func TestNewLaTeXRenderer_MissingTemplate(t *testing.T) {
	_, err := NewLaTeXRenderer(config.RenderConfig{TemplateDir: t.TempDir()})
	assert.ErrorContains(t, err, "report template not found")
}

func TestDirectRenderer_Render(t *testing.T) {
	r, err := NewDirectRenderer(config.RenderConfig{})
	require.NoError(t, err)

	runDir := t.TempDir()
	ins := &domain.Inspection{
		Address:    domain.Address{FullAddress: "42 Oak Ln"},
		ClientInfo: domain.ClientInfo{Name: "Casey Client"},
		Inspector:  domain.Inspector{Name: "Robin Inspector"},
		Schedule:   domain.Schedule{Date: 1614611045000},
		Sections: []domain.Section{{
			Name: "Electrical Systems",
			LineItems: []domain.LineItem{{
				Title:            "Service Panel",
				InspectionStatus: strPtr("I"),
			}},
		}},
	}

	res, err := r.Render(context.Background(), Request{
		Inspection: ins,
		Cache:      assets.NewCache(),
		RunDir:     runDir,
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(runDir, pdfFileName), res.ArtifactPath)
	assert.GreaterOrEqual(t, res.PageCount, 3)

	data, err := os.ReadFile(res.ArtifactPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestScanCompileLog(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "final_report.log")
	content := "This is pdfTeX\n" +
		"(./final_report.tex\n" +
		"! Undefined control sequence.\n" +
		"l.42 \\badmacro\n" +
		"               {oops}\n" +
		"?\n" +
		"! Emergency stop.\n"
	require.NoError(t, os.WriteFile(logPath, []byte(content), 0o644))

	cerr := scanCompileLog(logPath)
	assert.Equal(t, "! Undefined control sequence.", cerr.Line)
	require.Len(t, cerr.Excerpt, 3)
	assert.Equal(t, "l.42 \\badmacro", cerr.Excerpt[0])
	assert.ErrorContains(t, cerr, "Undefined control sequence")
}

func TestScanCompileLog_MissingFile(t *testing.T) {
	cerr := scanCompileLog(filepath.Join(t.TempDir(), "absent.log"))
	assert.Empty(t, cerr.Line)
	assert.EqualError(t, cerr, "latex compilation produced no artifact")
}

func strPtr(s string) *string { return &s }
