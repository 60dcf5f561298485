package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pi-tools/report-forge/pkg/runtime/terminal/export"
	"github.com/pi-tools/report-forge/pkg/services/report"
)

// NewAnalyzeCmd builds the analyze command, printing AI insights for an
// inspection document without producing a PDF.
func NewAnalyzeCmd(ctrl *report.Controller, reporter *export.Reporter) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run AI analysis on an inspection document",
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := os.ReadFile(input)
			if err != nil {
				return fmt.Errorf("failed to read input document: %w", err)
			}

			insights, err := ctrl.Analyze(cmd.Context(), raw)
			if err != nil {
				return err
			}

			return reporter.HandleInsights(insights)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "path to the inspection JSON document")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}
