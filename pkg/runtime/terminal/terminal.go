package terminal

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pi-tools/report-forge/pkg/runtime/terminal/commands"
	"github.com/pi-tools/report-forge/pkg/runtime/terminal/export"
	"github.com/pi-tools/report-forge/pkg/services/config"
	"github.com/pi-tools/report-forge/pkg/services/report"
)

// CLI represents the command-line interface
type CLI struct {
	controller *report.Controller
	reporter   *export.Reporter
	rootCmd    *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Config     *config.Config
	Controller *report.Controller
	Output     io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	cli := &CLI{
		controller: opts.Controller,
		reporter:   export.NewReporter(opts.Output),
	}

	cli.rootCmd = cli.newRootCmd(opts.Config)
	return cli
}

func (cli *CLI) Execute() error {
	return cli.rootCmd.Execute()
}

// ExecuteContext runs the CLI with ctx flowing into command handlers.
func (cli *CLI) ExecuteContext(ctx context.Context) error {
	return cli.rootCmd.ExecuteContext(ctx)
}

func (cli *CLI) newRootCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report-forge",
		Short: "Inspection report generation tool",
	}

	cmd.AddCommand(commands.NewGenerateCmd(cli.controller, cfg, cli.reporter))
	cmd.AddCommand(commands.NewAnalyzeCmd(cli.controller, cli.reporter))

	return cmd
}
