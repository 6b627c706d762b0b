package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/dispatchy/internal/config"
	"github.com/zjrosen/dispatchy/internal/flags"
)

var flagCmd = &cobra.Command{
	Use:   "flag",
	Short: "Inspect and change feature flags",
}

var flagListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known feature flags and their state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg := flags.New(cfg.Flags)
		for _, name := range flags.Known() {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%-16s %t\n", name, reg.Enabled(name)); err != nil {
				return err
			}
		}
		return nil
	},
}

var flagSetCmd = &cobra.Command{
	Use:   "set <name> <true|false>",
	Short: "Turn a feature flag on or off in the config file",
	Long: `Set a feature flag in the config file in use, keeping the rest of the file
and its comments as they are.

Examples:
  dispatchy flag set partial-mapping true
  dispatchy flag set listener-spans false -c ./dispatchy.yaml`,
	Args: cobra.ExactArgs(2),
	RunE: runFlagSet,
}

func init() {
	flagCmd.AddCommand(flagListCmd, flagSetCmd)
	rootCmd.AddCommand(flagCmd)
}

func runFlagSet(cmd *cobra.Command, args []string) error {
	name := args[0]
	if !flags.IsKnown(name) {
		return fmt.Errorf("unknown flag %q (known: %s)", name, strings.Join(flags.Known(), ", "))
	}
	value, err := strconv.ParseBool(args[1])
	if err != nil {
		return fmt.Errorf("invalid value %q for %s: %w", args[1], name, err)
	}

	path := configPath()
	if err := config.SaveFlag(path, name, value); err != nil {
		return fmt.Errorf("saving flag: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s=%t in %s\n", name, value, path)
	return err
}
