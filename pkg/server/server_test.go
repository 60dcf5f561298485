package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pi-tools/report-forge/pkg/models/api"
	"github.com/pi-tools/report-forge/pkg/models/domain"
	"github.com/pi-tools/report-forge/pkg/services/insights"
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

func TestNewWebAPI_ShutdownTimeout(t *testing.T) {
	logger := zerolog.New(zerolog.NewTestWriter(t))

	web := NewWebAPI(logger, Config{Addr: ":0", ShutdownTimeout: 3 * time.Second})
	assert.Equal(t, 3*time.Second, web.shutdownTimeout)

	web = NewWebAPI(logger, Config{Addr: ":0"})
	assert.Equal(t, defaultShutdownTimeout, web.shutdownTimeout)
}

func TestWebAPI_Routes(t *testing.T) {
	logger := zerolog.New(zerolog.NewTestWriter(t))

	artifact := filepath.Join(t.TempDir(), "final_report.pdf")
	require.NoError(t, os.WriteFile(artifact, []byte("%PDF-1.4 data"), 0o644))

	gen := new(mockGenerator)
	gen.On("AIEnabled").Return(false)
	gen.On("Generate", mock.Anything, mock.Anything).
		Return(&domain.RunResult{RunID: "r1", ArtifactPath: artifact}, func() {}, nil)
	gen.On("Analyze", mock.Anything, mock.Anything).Return(nil, insights.ErrDisabled)

	router := ConfigureRouter(&logger, Config{
		Addr:            ":8080",
		ShutdownTimeout: 10 * time.Second,
		Dependencies:    Dependencies{Generator: gen},
	})
	testServer := httptest.NewServer(router)
	defer testServer.Close()

	t.Run("Health", func(t *testing.T) {
		resp, err := http.Get(testServer.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var health api.HealthResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
		assert.Equal(t, "healthy", health.Status)
		assert.False(t, health.AIEnabled)
	})

	t.Run("CreateReport", func(t *testing.T) {
		resp, err := http.Post(testServer.URL+"/api/v1/reports",
			"application/json", strings.NewReader(`{"inspection": {}}`))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	})

	t.Run("AnalyzeDisabled", func(t *testing.T) {
		resp, err := http.Post(testServer.URL+"/api/v1/reports/analyze",
			"application/json", strings.NewReader(`{"inspection": {}}`))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("UnknownRoute", func(t *testing.T) {
		resp, err := http.Get(testServer.URL + "/api/v1/nope")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
