package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "latex", cfg.Render.Strategy)
	assert.Equal(t, 30, cfg.Fetch.MaxInFlight)
	assert.Equal(t, 20*time.Second, cfg.Fetch.TotalTimeout)
	assert.Equal(t, 70, cfg.Fetch.JPEGQuality)
	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.Model)
}

func TestLoad_FileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
server:
  port: 9999
render:
  strategy: direct
  compress: false
fetch:
  max_in_flight: 5
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "direct", cfg.Render.Strategy)
	assert.False(t, cfg.Render.Compress)
	assert.Equal(t, 5, cfg.Fetch.MaxInFlight)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("REPORT_FORGE_RENDER_STRATEGY", "direct")
	t.Setenv("REPORT_FORGE_SERVER_PORT", "9090")
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "direct", cfg.Render.Strategy)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "test-key", cfg.Gemini.APIKey)
}

func TestLoad_EnvOverridesBeatFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("render:\n  strategy: latex\n"), 0o644))
	t.Setenv("REPORT_FORGE_RENDER_STRATEGY", "direct")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "direct", cfg.Render.Strategy)
}

func TestLoad_MissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestRegistry_Profiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.ini")
	body := `
[jdoe]
name = J. Doe
license_number = TREC-12345
sponsor_name = Acme Inspections
sponsor_license = TREC-00001
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	reg, err := NewRegistry(path)
	require.NoError(t, err)

	profiles, err := reg.GetProfiles(context.Background())
	require.NoError(t, err)
	assert.Contains(t, profiles, "jdoe")

	p, err := reg.GetProfile(context.Background(), "jdoe")
	require.NoError(t, err)
	assert.Equal(t, "J. Doe", p.Name)
	assert.Equal(t, "TREC-12345", p.LicenseNumber)
	assert.Equal(t, "Acme Inspections", p.SponsorName)

	_, err = reg.GetProfile(context.Background(), "missing")
	assert.Error(t, err)
}

func TestEmptyRegistry(t *testing.T) {
	p, err := EmptyRegistry{}.GetProfile(context.Background(), "anyone")
	require.NoError(t, err)
	assert.Empty(t, p.LicenseNumber)
}
