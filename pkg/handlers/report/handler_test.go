package report

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pi-tools/report-forge/pkg/models/api"
	"github.com/pi-tools/report-forge/pkg/models/domain"
	"github.com/pi-tools/report-forge/pkg/services/insights"
	"github.com/pi-tools/report-forge/pkg/services/render"
)

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, raw []byte) (*domain.RunResult, func(), error) {
	args := m.Called(ctx, raw)
	var cleanup func()
	if fn := args.Get(1); fn != nil {
		cleanup = fn.(func())
	}
	if res := args.Get(0); res != nil {
		return res.(*domain.RunResult), cleanup, args.Error(2)
	}
	return nil, cleanup, args.Error(2)
}

func (m *mockGenerator) Analyze(ctx context.Context, raw []byte) (*api.Insights, error) {
	args := m.Called(ctx, raw)
	if res := args.Get(0); res != nil {
		return res.(*api.Insights), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGenerator) AIEnabled() bool {
	return m.Called().Bool(0)
}

func writeArtifact(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "final_report.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 artifact"), 0o644))
	return path
}

func TestCreateReport_RawJSONBody(t *testing.T) {
	artifact := writeArtifact(t)
	cleaned := false

	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, []byte(`{"inspection": {}}`)).
		Return(&domain.RunResult{RunID: "abc12345", ArtifactPath: artifact},
			func() { cleaned = true }, nil)

	h := NewHandler(gen)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", bytes.NewBufferString(`{"inspection": {}}`))
	rec := httptest.NewRecorder()
	h.CreateReport(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="inspection_report_abc12345.pdf"`,
		rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.4 artifact", rec.Body.String())
	assert.True(t, cleaned, "cleanup must run after the artifact is streamed")
}

func TestCreateReport_MultipartUpload(t *testing.T) {
	artifact := writeArtifact(t)

	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, []byte(`{"inspection": {}}`)).
		Return(&domain.RunResult{RunID: "run1", ArtifactPath: artifact}, func() {}, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "inspection.json")
	require.NoError(t, err)
	_, err = part.Write([]byte(`{"inspection": {}}`))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	NewHandler(gen).CreateReport(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "%PDF-1.4 artifact", rec.Body.String())
}

func TestCreateReport_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", nil)
	rec := httptest.NewRecorder()
	NewHandler(&mockGenerator{}).CreateReport(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateReport_InvalidDocument(t *testing.T) {
	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything).
		Return(nil, nil, domain.ErrInvalidDocument)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	NewHandler(gen).CreateReport(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp api.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "invalid inspection document")
}

func TestCreateReport_CompileFailure(t *testing.T) {
	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything).
		Return(nil, nil, &render.CompileError{Line: "! Undefined control sequence."})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", bytes.NewBufferString(`{"inspection": {}}`))
	rec := httptest.NewRecorder()
	NewHandler(gen).CreateReport(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp api.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "Undefined control sequence")
}

func TestAnalyzeReport_Success(t *testing.T) {
	gen := &mockGenerator{}
	gen.On("Analyze", mock.Anything, mock.Anything).
		Return(&api.Insights{HasAIAnalysis: true, ExecutiveSummary: "Fine."}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/analyze", bytes.NewBufferString(`{"inspection": {}}`))
	rec := httptest.NewRecorder()
	NewHandler(gen).AnalyzeReport(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp api.AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Fine.", resp.Analysis.ExecutiveSummary)
}

func TestAnalyzeReport_Disabled(t *testing.T) {
	gen := &mockGenerator{}
	gen.On("Analyze", mock.Anything, mock.Anything).Return(nil, insights.ErrDisabled)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/analyze", bytes.NewBufferString(`{"inspection": {}}`))
	rec := httptest.NewRecorder()
	NewHandler(gen).AnalyzeReport(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealth(t *testing.T) {
	gen := &mockGenerator{}
	gen.On("AIEnabled").Return(true)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	NewHandler(gen).Health(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp api.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.True(t, resp.AIEnabled)
	assert.False(t, resp.Timestamp.IsZero())
}
