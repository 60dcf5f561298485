package export

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pi-tools/report-forge/pkg/models/api"
	"github.com/pi-tools/report-forge/pkg/models/domain"
)

func TestReporter_Handle(t *testing.T) {
	var sb strings.Builder
	r := NewReporter(&sb)

	err := r.Handle(&domain.RunResult{
		RunID:         "a1b2c3d4",
		ArtifactPath:  "outputs/20260830_101500_a1b2c3d4/final_report.pdf",
		Strategy:      "direct",
		PageCount:     12,
		ImagesFetched: 9,
		ImagesFailed:  1,
		Elapsed:       3200 * time.Millisecond,
	})
	require.NoError(t, err)

	out := sb.String()
	assert.Contains(t, out, "Report generated (direct strategy)")
	assert.Contains(t, out, "Run ID:         a1b2c3d4")
	assert.Contains(t, out, "Pages:          12")
	assert.Contains(t, out, "Images fetched: 9 (1 failed)")
	assert.Contains(t, out, "Elapsed:        3.2s")
}

func TestReporter_HandleOmitsUnknownPageCount(t *testing.T) {
	var sb strings.Builder
	r := NewReporter(&sb)

	require.NoError(t, r.Handle(&domain.RunResult{RunID: "x", Strategy: "latex"}))
	assert.NotContains(t, sb.String(), "Pages:")
}

func TestReporter_HandleInsights(t *testing.T) {
	var sb strings.Builder
	r := NewReporter(&sb)

	err := r.HandleInsights(&api.Insights{
		HasAIAnalysis:    true,
		ExecutiveSummary: "Property is in good shape.",
		PrioritySummary:  "• 1 Safety Concern",
		DeficiencyCategories: api.DeficiencyCategories{
			Safety:  []string{"Electrical Systems - Service Panel"},
			Routine: []string{"Interior - Paint"},
		},
	})
	require.NoError(t, err)

	out := sb.String()
	assert.Contains(t, out, "=== Executive Summary ===")
	assert.Contains(t, out, "Property is in good shape.")
	assert.Contains(t, out, "Safety:\n  - Electrical Systems - Service Panel")
	assert.Contains(t, out, "Routine:\n  - Interior - Paint")
	assert.NotContains(t, out, "Urgent:")
}

func TestReporter_HandleInsightsDisabled(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, NewReporter(&sb).HandleInsights(&api.Insights{}))
	assert.Contains(t, sb.String(), "No AI analysis available.")
}
