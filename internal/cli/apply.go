package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"repomender/internal/config"
	"repomender/internal/engine"
	"repomender/internal/flags"
	gh "repomender/internal/github"

	"github.com/spf13/cobra"
)

var cfg = config.New()

const applyHelpTemplate = `{{with (or .Long .Short)}}{{. | trimTrailingWhitespaces}}

{{end}}Usage:
  {{.UseLine}}

{{if .HasAvailableLocalFlags}}Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if .HasAvailableInheritedFlags}}Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}Environment:
	Repomender authenticates to GitHub using an access token.

	Sources (in order):
	1) GITHUB_TOKEN environment variable
	2) GitHub CLI (gh) authentication via gh auth token (if gh is installed and logged in)

	Targeting fallbacks read when the matching flag is omitted (a .env file in
	the working directory is loaded first, when present):
	  OWNER                  account to target (equivalent to --org)
	  REPOS                  repositories to target; bare names resolve against OWNER
	  INCLUDE_PRIVATE_REPOS  true widens --visibility to all, false narrows to public

  Token guidance (brief):
  - PAT (classic): needs repo and admin rights on the targeted repositories;
    enumerating an org additionally needs read:org.
  - Fine-grained PAT: grant access to the target repositories with
    Administration: Read and write.

  Examples:
    # macOS/Linux
    export GITHUB_TOKEN="<your_token>"
    repomender apply --org my-org --actions secret-scanning

		# GitHub CLI auth
		gh auth login
		repomender apply --org my-org --actions secret-scanning

    # Windows PowerShell
    $env:GITHUB_TOKEN = "<your_token>"
    repomender apply --org my-org --actions secret-scanning

{{if .HasAvailableSubCommands}}Available Commands:
{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

{{end}}{{if .HasHelpSubCommands}}Additional help topics:
{{range .Commands}}{{if .IsAdditionalHelpTopicCommand}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

{{end}}{{if .HasAvailableSubCommands}}Use "{{.CommandPath}} [command] --help" for more information about a command.
{{end}}`

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply selected actions to a set of GitHub repositories",
	Long: `Apply selected administration actions to a set of GitHub repositories.

Actions must be opted into explicitly with --actions; there is no default
action set. Each action first plans against fetched repository state, then
applies only the changes that are actually needed. Repository state is fetched
concurrently, but mutations are applied one at a time.

Authentication:
  Repomender uses a GitHub access token. It prefers GITHUB_TOKEN, but can also
  reuse GitHub CLI authentication if the gh CLI is installed and logged in.

Output:
	Console output is controlled by --console-format (default: text).
	Structured outputs can be written via:
	- --out / --out-format: write an aggregate JSON array or NDJSON stream to a file
	- --emit: write an additional structured stream to stdout (json or ndjson)
	- --report: write a Markdown summary of the run
	- --no-console: suppress the console sink (use with --emit/--out for machine output)

	NDJSON mode emits one JSON object per line. Objects are lifecycle Events with a
	"type" field (run.started, repo.started, action.result, repo.finished,
	run.finished) and the run ID. Action results are represented as an Event with
	type "action.result" carrying the result fields (status, action_id, message,
	evidence) inline on the event object.

Exit codes:
	0 = clean run, everything applied or already in the desired state
	1 = dry run found pending changes
	2 = partial failure (some actions/repos errored)
	3 = fatal error (run did not execute)

Examples:
  # Enable secret scanning across an org
  export GITHUB_TOKEN="<your_token>"
  repomender apply --org my-org --actions secret-scanning

  # Replace the baseline branch protection ruleset on two repos
  repomender apply --repos acme/api,acme/web --actions ruleset-ensure \
    --set ruleset-ensure.approvals=2

  # See what would change without mutating anything
  repomender apply --org my-org --actions dependabot-alerts,dependabot-fixes --dry-run

	# AI Agent: stream machine-readable events to stdout
	repomender apply --org my-org --actions secret-scanning --no-console --emit ndjson
`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 && cmd.Flags().NFlag() == 0 && !envTargetingPresent() {
			_ = cmd.Help()
			return
		}

		if err := cfg.ApplyEnvDefaults(nil); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(3)
		}
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(3)
		}

		applyImplicitDefaults(cmd, cfg)

		ctx := context.Background()
		token, _, err := gh.ResolveAuthToken(ctx, "")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to resolve GitHub auth token: %v\n", err)
			os.Exit(3)
		}
		if strings.TrimSpace(token) == "" {
			fmt.Fprintln(os.Stderr, "Error: GitHub auth token is required (set GITHUB_TOKEN or run 'gh auth login')")
			os.Exit(3)
		}

		client, err := gh.NewClient(ctx, token, gh.WithVerbose(cfg.Runtime.Verbose, nil))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to create GitHub client: %v\n", err)
			os.Exit(3)
		}
		eng := engine.NewEngine(client)
		os.Exit(eng.Run(ctx, cfg))
	},
}

func envTargetingPresent() bool {
	return os.Getenv("OWNER") != "" || os.Getenv("REPOS") != ""
}

func applyImplicitDefaults(cmd *cobra.Command, cfg *config.Config) {
	// When targeting a user account, include forks by default. Many GitHub users
	// have a significant portion of their repos as forks, and excluding them by
	// default is surprising.
	if cfg.Targeting.User != "" && cmd != nil {
		if !cmd.Flags().Changed(flags.FlagForks) {
			cfg.Targeting.Forks = "include"
		}
	}
}

func init() {
	rootCmd.AddCommand(applyCmd)
	applyCmd.SetHelpTemplate(applyHelpTemplate)

	// MAINTAINER NOTE: If you add/change/remove any apply-affecting flags here,
	// keep internal/config/config.go's field docs in sync.

	// Targeting
	applyCmd.Flags().StringVar(&cfg.Targeting.Org, flags.FlagOrg, "", "GitHub organization account to target (name or URL; env fallback: OWNER)")
	applyCmd.Flags().StringVar(&cfg.Targeting.User, flags.FlagUser, "", "GitHub user account to target (name or URL)")
	applyCmd.Flags().StringSliceVar(&cfg.Targeting.Repos, flags.FlagRepos, nil, "Repositories to target as OWNER/REPO (repeatable; comma-separated accepted; env fallback: REPOS)")
	applyCmd.Flags().StringSliceVar(&cfg.Targeting.Include, flags.FlagInclude, nil, "Include pattern(s) (repeatable; comma-separated accepted). Go path.Match style; if pattern contains '/', matches OWNER/REPO, else matches repo name")
	applyCmd.Flags().StringSliceVar(&cfg.Targeting.Exclude, flags.FlagExclude, nil, "Exclude pattern(s) (repeatable; comma-separated accepted). Same matching rules as --include")
	applyCmd.Flags().StringSliceVar(&cfg.Targeting.Topic, flags.FlagTopic, nil, "Require at least one topic match (repeatable; comma-separated accepted; exact match)")
	applyCmd.Flags().StringVar(&cfg.Targeting.Visibility, flags.FlagVisibility, "", "Visibility filter: public|private|internal|all (default: all; env fallback: INCLUDE_PRIVATE_REPOS)")
	applyCmd.Flags().StringVar(&cfg.Targeting.Archived, flags.FlagArchived, "exclude", "Archived repos policy: include|exclude|only (default: exclude; archived repos reject most mutations)")
	applyCmd.Flags().StringVar(&cfg.Targeting.Forks, flags.FlagForks, "exclude", "Forks policy: include|exclude|only (default: exclude). If --user is set and this flag is omitted, forks default to include")
	applyCmd.Flags().IntVar(&cfg.Targeting.MaxRepos, flags.FlagMaxRepos, 0, "Maximum number of repositories to target (0 = unlimited)")

	// Actions
	applyCmd.Flags().StringVar(&cfg.Actions.Selector, flags.FlagActions, "", "Comma-separated action IDs to apply (required; see 'repomender actions list')")
	applyCmd.Flags().StringArrayVar(&cfg.Actions.Set, flags.FlagSet, nil, "Per-action options as actionID.option=value (repeatable; values may contain commas, e.g. --set codeql-default-setup.languages=go,python)")

	// Output
	applyCmd.Flags().StringVar(&cfg.Output.ConsoleFormat, flags.FlagConsoleFormat, "text", "Console output format: text|json|ndjson (default: text)")
	applyCmd.Flags().StringSliceVar(&cfg.Output.ConsoleFilterStatus, flags.FlagConsoleFilterStatus, nil, "Filter console output by status (APPLIED, UNCHANGED, PLANNED, SKIPPED, ERROR). Comma-separated.")
	applyCmd.Flags().StringVar(&cfg.Output.Report, flags.FlagReport, "", "Write a Markdown report to this path")
	applyCmd.Flags().StringVar(&cfg.Output.Out, flags.FlagOut, "", "Write structured output to this path")
	applyCmd.Flags().StringVar(&cfg.Output.OutFormat, flags.FlagOutFormat, "", "Structured output format for --out: json|ndjson (default: inferred from file extension)")
	applyCmd.Flags().StringSliceVar(&cfg.Output.Emit, flags.FlagEmit, nil, "Emit additional structured stream to stdout: json|ndjson (repeatable; comma-separated accepted)")
	applyCmd.Flags().BoolVar(&cfg.Output.NoConsole, flags.FlagNoConsole, false, "Suppress console output (use with --emit/--out/--report)")

	// Runtime
	applyCmd.Flags().IntVar(&cfg.Runtime.Concurrency, flags.FlagConcurrency, 5, "Concurrent workers for state fetches (default: 5; mutations are always sequential)")
	applyCmd.Flags().DurationVar(&cfg.Runtime.Timeout, flags.FlagTimeout, cfg.Runtime.Timeout, "Global timeout (default: 30m)")
	applyCmd.Flags().BoolVar(&cfg.Runtime.FailFast, flags.FlagFailFast, false, "Stop on first action error (default: report and continue)")
	applyCmd.Flags().BoolVar(&cfg.Runtime.DryRun, flags.FlagDryRun, false, "Plan every action and report pending changes without mutating")
}
