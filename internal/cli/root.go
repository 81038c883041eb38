package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "repomender",
	Short: "Apply idempotent administration actions to GitHub repositories",
	Long: `Repomender applies idempotent administration actions to a set of GitHub
repositories: ensuring branches exist, replacing branch-protection rulesets,
and toggling security features (secret scanning, push protection, Advanced
Security, Dependabot, CodeQL default setup).

Every action plans against fetched repository state before mutating, so
re-running a command converges instead of piling up changes. Use --dry-run to
see the pending changes without applying them.

Examples:
	# Show available commands and global flags
	repomender --help

	# Apply an action to one repository
	repomender apply --repos org/repo --actions secret-scanning

	# List actions
	repomender actions list

	# Print build info
	repomender version

Output:
	By default, commands write human-readable output to stdout.
	Some commands support structured output via emitter flags (see each command's --help).`,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&cfg.Runtime.Verbose, "verbose", false, "Enable verbose logging (prints every GitHub API call and full error details)")
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	// A .env in the working directory supplies OWNER/REPOS style defaults for
	// script-era invocations. Absence is not an error.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
