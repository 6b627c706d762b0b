package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/dispatchy/internal/scenario"
)

var (
	examplesList bool
	examplesJSON bool
)

var examplesCmd = &cobra.Command{
	Use:   "examples [name]...",
	Short: "Run the built-in example scenarios",
	Long: `Run the scenarios bundled with dispatchy. They cover namespaces, fire-once
listeners, lifecycle hooks, persistent events, the disabled flag and
registering several listeners at once.

Built-in scenarios run with default registry behavior: feature flags from the
config file are not applied, since the mapping example expects an invalid
listener to reject the whole mapping.

Examples:
  dispatchy examples
  dispatchy examples --list
  dispatchy examples persistent once`,
	RunE: runExamples,
}

func init() {
	examplesCmd.Flags().BoolVarP(&examplesList, "list", "l", false, "list the built-in scenarios without running them")
	examplesCmd.Flags().BoolVar(&examplesJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(examplesCmd)
}

func runExamples(cmd *cobra.Command, args []string) error {
	all, err := scenario.Builtin()
	if err != nil {
		return fmt.Errorf("loading built-in scenarios: %w", err)
	}
	selected, err := selectScenarios(all, args)
	if err != nil {
		return err
	}

	if examplesList {
		for _, sc := range selected {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%-12s %d steps\n", sc.DisplayName(), len(sc.Steps)); err != nil {
				return err
			}
		}
		return nil
	}

	e, err := newEnv(cfg)
	if err != nil {
		return err
	}
	defer e.close()

	summary, err := runBatch(cmd.Context(), e, newFormatter(cmd, examplesJSON), selected, false)
	if err != nil {
		return err
	}
	return summary.err()
}

// selectScenarios keeps the scenarios named in names, in the order given.
// No names selects all.
func selectScenarios(all []*scenario.Scenario, names []string) ([]*scenario.Scenario, error) {
	if len(names) == 0 {
		return all, nil
	}
	byName := make(map[string]*scenario.Scenario, len(all))
	for _, sc := range all {
		byName[sc.DisplayName()] = sc
	}
	selected := make([]*scenario.Scenario, 0, len(names))
	for _, name := range names {
		sc, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown example %q (see 'dispatchy examples --list')", name)
		}
		selected = append(selected, sc)
	}
	return selected, nil
}
