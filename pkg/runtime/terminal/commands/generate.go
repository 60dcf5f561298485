package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pi-tools/report-forge/pkg/runtime/terminal/export"
	"github.com/pi-tools/report-forge/pkg/services/config"
	"github.com/pi-tools/report-forge/pkg/services/report"
)

// NewGenerateCmd builds the generate command. Strategy and output flags
// override the loaded configuration for this invocation.
func NewGenerateCmd(ctrl *report.Controller, cfg *config.Config, reporter *export.Reporter) *cobra.Command {
	var (
		input    string
		strategy string
		outDir   string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an inspection report PDF",
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := os.ReadFile(input)
			if err != nil {
				return fmt.Errorf("failed to read input document: %w", err)
			}

			if strategy != "" {
				cfg.Render.Strategy = strategy
			}
			if outDir != "" {
				cfg.Render.OutputDir = outDir
			}

			result, cleanup, err := ctrl.Generate(cmd.Context(), raw)
			if err != nil {
				return err
			}
			defer cleanup()

			return reporter.Handle(result)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "path to the inspection JSON document")
	_ = cmd.MarkFlagRequired("input")
	cmd.Flags().StringVarP(&strategy, "strategy", "s", "", `render strategy ("latex" or "direct")`)
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "directory for run output")

	return cmd
}
