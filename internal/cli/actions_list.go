package cli

import (
	"fmt"
	"io"

	"repomender/internal/actions"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var actionsListQuiet bool
var actionsCmd = &cobra.Command{
	Use:   "actions",
	Short: "Manage and list actions",
	Long: `Manage Repomender actions.

This command group helps you discover which actions exist, what each action
changes, and which options it accepts. Actions are applied during runs
(see "repomender apply --help").

Examples:
  # List all available actions
  repomender actions list
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var actionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available actions",
	Long: `List all actions currently registered in this build.

Actions are sorted by action ID.

Examples:
  repomender actions list

Output:
  A vertical list of actions:
    ----------------------------------------
    ACTION: {ID}
    ----------------------------------------
    {TITLE}
    {DESCRIPTION}
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		aList := actions.List()

		for _, a := range aList {
			if actionsListQuiet {
				fmt.Fprintln(cmd.OutOrStdout(), a.ID())
			} else {
				printAction(cmd.OutOrStdout(), a)
			}
		}
		return nil
	},
}

var actionsShowCmd = &cobra.Command{
	Use:   "show [action-id]",
	Short: "Show details of a specific action",
	Long: `Show details of a specific action by its ID.

Examples:
  repomender actions show branch-ensure
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		aList, err := actions.Resolve(args[0])
		if err != nil {
			return err
		}
		if len(aList) == 0 {
			return fmt.Errorf("action not found: %s", args[0])
		}
		printAction(cmd.OutOrStdout(), aList[0])
		return nil
	},
}

func printAction(w io.Writer, a actions.Action) {
	bold := color.New(color.Bold)
	fmt.Fprintln(w, "----------------------------------------")
	bold.Fprintf(w, "ACTION: %s\n", a.ID())
	fmt.Fprintln(w, "----------------------------------------")
	fmt.Fprintln(w, a.Title())
	fmt.Fprintln(w, a.Description())

	if ca, ok := a.(actions.ConfigurableAction); ok {
		opts := ca.Options()
		if len(opts) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Options:")
			for _, opt := range opts {
				def := opt.Default
				if def == "" {
					def = "\"\""
				}
				fmt.Fprintf(w, "  %s\n", opt.Name)
				fmt.Fprintf(w, "    Description: %s\n", opt.Description)
				fmt.Fprintf(w, "    Default:     %s\n", def)
			}
		}
	}
	fmt.Fprintln(w)
}

func init() {
	rootCmd.AddCommand(actionsCmd)
	actionsCmd.AddCommand(actionsListCmd)
	actionsListCmd.Flags().BoolVarP(&actionsListQuiet, "quiet", "q", false, "Only print action IDs")
	actionsCmd.AddCommand(actionsShowCmd)
}
