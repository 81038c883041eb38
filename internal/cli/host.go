package cli

import (
	"fmt"
	"path/filepath"

	"repomender/internal/host"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Local machine maintenance commands",
	Long: `Maintenance commands for the machine Repomender runs on.

These commands operate on the local filesystem and local services, not on
GitHub. Like repository actions, they are best-effort: each item's failure is
reported and the command continues with the rest.

Examples:
  # Pull every git checkout under ~/src
  repomender host pull ~/src

  # Rename project directories in bulk
  repomender host rename-dirs ~/src old-prefix new-prefix
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var hostPullCmd = &cobra.Command{
	Use:   "pull [dir]",
	Short: "Pull every git checkout under a directory",
	Long: `Fast-forward every git checkout directly under the given directory
(default: the current directory) by pulling from origin.

Checkouts that fail to pull are reported and do not stop the rest.

Examples:
  repomender host pull
  repomender host pull ~/src
`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) == 1 {
			root = args[0]
		}

		results, err := host.PullAll(cmd.Context(), root)
		if err != nil {
			return err
		}

		failed := 0
		for _, r := range results {
			printHostStatus(cmd, string(r.Status), filepath.Base(r.Dir), r.Err)
			if r.Status == host.PullError {
				failed++
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d checkouts, %d failed\n", len(results), failed)
		if failed > 0 {
			return fmt.Errorf("%d of %d checkouts failed to pull", failed, len(results))
		}
		return nil
	},
}

var hostRenameDirsCmd = &cobra.Command{
	Use:   "rename-dirs [dir] [from] [to]",
	Short: "Rename directories in bulk",
	Long: `Rename every immediate subdirectory of dir whose name contains the
substring from, replacing all occurrences of from with to.

Renames whose target already exists are skipped.

Examples:
  repomender host rename-dirs ~/src acme- internal-
`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		results, err := host.RenameDirs(args[0], args[1], args[2])
		if err != nil {
			return err
		}

		failed := 0
		for _, r := range results {
			printHostStatus(cmd, string(r.Status), fmt.Sprintf("%s -> %s", filepath.Base(r.From), filepath.Base(r.To)), r.Err)
			if r.Status == host.RenameError {
				failed++
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d matches, %d failed\n", len(results), failed)
		if failed > 0 {
			return fmt.Errorf("%d of %d renames failed", failed, len(results))
		}
		return nil
	},
}

var (
	dockerPruneAll     bool
	dockerPruneVolumes bool
)

var hostDockerPruneCmd = &cobra.Command{
	Use:   "docker-prune",
	Short: "Prune unused Docker state",
	Long: `Reclaim disk space by pruning unused Docker state via the docker CLI.

Runs 'docker system prune -f', optionally with --all, and optionally
'docker volume prune -f'.

Examples:
  repomender host docker-prune
  repomender host docker-prune --all --volumes
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := host.DockerPrune(cmd.Context(), host.DockerPruneOptions{
			All:     dockerPruneAll,
			Volumes: dockerPruneVolumes,
		})
		if out != "" {
			fmt.Fprintln(cmd.OutOrStdout(), out)
		}
		return err
	},
}

var hostDisableServiceCmd = &cobra.Command{
	Use:   "disable-service [name]",
	Short: "Stop and disable a systemd service",
	Long: `Stop a systemd unit and disable it from starting at boot, via systemctl.

A stop failure (e.g. the unit is not running) does not prevent the disable.

Examples:
  repomender host disable-service bluetooth
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := host.DisableService(cmd.Context(), args[0])
		if out != "" {
			fmt.Fprintln(cmd.OutOrStdout(), out)
		}
		return err
	},
}

func printHostStatus(cmd *cobra.Command, status, subject string, err error) {
	tag := fmt.Sprintf("[%s]", status)
	if status == "ERROR" {
		tag = color.New(color.FgRed, color.Bold).Sprint(tag)
	}
	if err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s - %v\n", tag, subject, err)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", tag, subject)
}

func init() {
	rootCmd.AddCommand(hostCmd)
	hostCmd.AddCommand(hostPullCmd)
	hostCmd.AddCommand(hostRenameDirsCmd)
	hostDockerPruneCmd.Flags().BoolVar(&dockerPruneAll, "all", false, "Also remove unused (not just dangling) images")
	hostDockerPruneCmd.Flags().BoolVar(&dockerPruneVolumes, "volumes", false, "Also prune unused volumes")
	hostCmd.AddCommand(hostDockerPruneCmd)
	hostCmd.AddCommand(hostDisableServiceCmd)
}
