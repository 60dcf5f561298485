// Package insights adds optional AI analysis of an inspection. The
// analyzer is consulted at most twice per report, once for a summary and
// once for deficiency triage.
package insights

import (
	"context"
	"errors"
	"fmt"

	"github.com/pi-tools/report-forge/pkg/models/api"
	"github.com/pi-tools/report-forge/pkg/models/domain"
)

// ErrDisabled is returned by every Noop call; callers map it to an
// explicit "analysis unavailable" state rather than an empty result.
var ErrDisabled = errors.New("ai analysis is not configured")

type Analyzer interface {
	Enabled() bool
	// ExecutiveSummary produces a short condition assessment of the
	// whole inspection.
	ExecutiveSummary(ctx context.Context, ins *domain.Inspection) (string, error)
	// CategorizeDeficiencies sorts deficient items into safety, urgent
	// and routine buckets.
	CategorizeDeficiencies(ctx context.Context, ins *domain.Inspection) (*api.DeficiencyCategories, error)
}

// Noop satisfies Analyzer when no API key is configured.
type Noop struct{}

func (Noop) Enabled() bool { return false }

func (Noop) ExecutiveSummary(context.Context, *domain.Inspection) (string, error) {
	return "", ErrDisabled
}

func (Noop) CategorizeDeficiencies(context.Context, *domain.Inspection) (*api.DeficiencyCategories, error) {
	return nil, ErrDisabled
}

// Combine merges the two analysis results into the API shape. Either
// input may be absent; the priority bullets are derived locally with no
// further API calls.
func Combine(summary string, categories *api.DeficiencyCategories) *api.Insights {
	out := &api.Insights{
		HasAIAnalysis:    summary != "" || categories != nil,
		ExecutiveSummary: summary,
	}
	if categories == nil {
		return out
	}
	out.DeficiencyCategories = *categories
	out.PrioritySummary = fmt.Sprintf(
		"• %d Safety Concern%s\n• %d Urgent Issue%s\n• %d Routine Maintenance Item%s",
		len(categories.Safety), plural(len(categories.Safety)),
		len(categories.Urgent), plural(len(categories.Urgent)),
		len(categories.Routine), plural(len(categories.Routine)),
	)
	return out
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
