package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zjrosen/dispatchy/internal/dispatch"
	"github.com/zjrosen/dispatchy/internal/presentation"
)

var parseJSON bool

var parseCmd = &cobra.Command{
	Use:   "parse <types>...",
	Short: "Show how event strings split into types and namespaces",
	Long: `Parse each argument the way the registry does and print the resulting
event specifications.

Whitespace separates event types; within a type, dots separate the type from
its namespaces. An empty argument parses to a single no-op specification.

Examples:
  dispatchy parse "click.ui.menu keydown"
  dispatchy parse ".ui"
  dispatchy parse --json "a b.c"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	f := newFormatter(cmd, parseJSON)
	for _, arg := range args {
		if err := f.FormatSpecs(arg, presentation.FromSpecs(dispatch.ParseAll(arg))); err != nil {
			return err
		}
	}
	return nil
}

func newFormatter(cmd *cobra.Command, asJSON bool) *presentation.Formatter {
	if asJSON {
		return presentation.NewJSONFormatter(cmd.OutOrStdout())
	}
	return presentation.NewFormatter(cmd.OutOrStdout())
}
