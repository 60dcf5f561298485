package export

import (
	"fmt"
	"io"
	"os"
	"text/template"

	"github.com/pi-tools/report-forge/pkg/models/api"
	"github.com/pi-tools/report-forge/pkg/models/domain"
)

type Reporter struct {
	writer io.Writer
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{writer: writer}
}

// Handle prints the run summary for a finished report.
func (c *Reporter) Handle(result *domain.RunResult) error {
	tmpl := `
Report generated ({{.Strategy}} strategy)

Run ID:         {{.RunID}}
Artifact:       {{.ArtifactPath}}
{{if .PageCount}}Pages:          {{.PageCount}}
{{end}}Images fetched: {{.ImagesFetched}}{{if .ImagesFailed}} ({{.ImagesFailed}} failed){{end}}
Elapsed:        {{printf "%.1fs" .Elapsed.Seconds}}
`
	t, err := template.New("run").Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, result)
}

// HandleInsights prints the AI analysis of an inspection.
func (c *Reporter) HandleInsights(insights *api.Insights) error {
	if !insights.HasAIAnalysis {
		_, err := fmt.Fprintln(c.writer, "No AI analysis available.")
		return err
	}

	tmpl := `
=== Executive Summary ===

{{.ExecutiveSummary}}
{{if .PrioritySummary}}
=== Priorities ===

{{.PrioritySummary}}
{{end}}{{if .DeficiencyCategories.Safety}}
Safety:
{{range .DeficiencyCategories.Safety}}  - {{.}}
{{end}}{{end}}{{if .DeficiencyCategories.Urgent}}
Urgent:
{{range .DeficiencyCategories.Urgent}}  - {{.}}
{{end}}{{end}}{{if .DeficiencyCategories.Routine}}
Routine:
{{range .DeficiencyCategories.Routine}}  - {{.}}
{{end}}{{end}}`
	t, err := template.New("insights").Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, insights)
}
