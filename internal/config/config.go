package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// MAINTAINER NOTE: If you add/change/remove config fields that affect apply
	// behavior, keep the CLI flags in internal/cli/apply.go in sync.
	Targeting Targeting
	Actions   Actions
	Output    Output
	Runtime   Runtime
}

type Targeting struct {
	// Org is the GitHub organization account to target (name or URL; see --org).
	Org string

	// User is the GitHub user account to target (name or URL; see --user).
	User string

	// Repos is an explicit list of repositories to target as OWNER/REPO (see --repos).
	// Values may be provided as repeated flags and/or comma-separated lists.
	Repos []string

	// Include filters repositories by name using Go path.Match style (see --include).
	// If a pattern contains '/', it matches OWNER/REPO; otherwise it matches repo name.
	Include []string

	// Exclude filters repositories by name using Go path.Match style (see --exclude).
	// Same matching rules as Include.
	Exclude []string

	// Topic requires repositories to have at least one matching topic (exact match; see --topic).
	Topic []string

	// Visibility filters repositories by visibility (see --visibility).
	// Allowed values: public, private, internal, all.
	Visibility string

	// Archived controls how archived repos are handled (see --archived).
	// Allowed values: include, exclude, only. Archived repos reject most
	// mutations, so the default excludes them.
	Archived string

	// Forks controls how forked repos are handled (see --forks).
	// Allowed values: include, exclude, only.
	Forks string

	// MaxRepos limits how many repositories to target (see --max-repos). 0 means unlimited.
	MaxRepos int
}

type Actions struct {
	// Selector selects which actions to run.
	// Empty means no actions (apply requires an explicit selection); otherwise
	// it is a comma-separated list of action IDs (see --actions).
	Selector string

	// Set provides per-action option overrides from the CLI.
	// Entries are of the form actionID.option=value (repeatable; see --set).
	// Entries are never comma-split: values of list-valued options (for example
	// skip.repos or codeql-default-setup.languages) contain commas.
	Set []string
}

type Output struct {
	// ConsoleFormat controls the human-facing console sink format (see --console-format).
	// Allowed values: text, json, ndjson.
	ConsoleFormat string

	// ConsoleFilterStatus filters console output by result status (see --console-filter-status).
	// Allowed values: APPLIED, UNCHANGED, PLANNED, SKIPPED, ERROR.
	ConsoleFilterStatus []string

	// Report writes a Markdown report to this path (see --report).
	Report string

	// Out writes structured output to this path (see --out).
	Out string

	// OutFormat selects the format for --out (see --out-format).
	// Allowed values: json, ndjson. If empty, it is inferred from the --out file extension.
	OutFormat string

	// Emit writes an additional structured event stream to stdout (see --emit).
	// Allowed values: json, ndjson.
	Emit []string

	// NoConsole suppresses the console sink (see --no-console).
	NoConsole bool
}

type Runtime struct {
	// Concurrency controls parallelism for repository state fetches (see --concurrency).
	// Mutations are always applied sequentially. Must be >= 1.
	Concurrency int

	// Timeout is the global timeout for the run (see --timeout).
	// Must be > 0.
	Timeout time.Duration

	// FailFast stops the run on the first action error (see --fail-fast).
	// The default is best-effort: report the error and continue.
	FailFast bool

	// DryRun plans every action and reports pending changes without mutating (see --dry-run).
	DryRun bool

	// Verbose enables more detailed diagnostics (prints every GitHub API call).
	Verbose bool
}

func New() *Config {
	return &Config{
		Targeting: Targeting{
			// Visibility is left empty so env defaults can tell "flag omitted"
			// apart from an explicit value; Validate defaults empty to "all".
			Archived: "exclude",
			Forks:    "exclude",
		},
		Output: Output{
			ConsoleFormat: "text",
		},
		Runtime: Runtime{
			Concurrency: 5,
			Timeout:     30 * time.Minute,
		},
	}
}

// ApplyEnvDefaults fills targeting fields from the environment when the
// corresponding flag was not provided. This keeps the original script-era
// invocation surface working:
//
//	OWNER                 account to target (org or user)
//	REPOS                 explicit repo list (comma or whitespace separated;
//	                      bare names are resolved against OWNER)
//	INCLUDE_PRIVATE_REPOS "true" widens visibility to all, "false" narrows to public
func (c *Config) ApplyEnvDefaults(lookup func(string) string) error {
	if lookup == nil {
		lookup = os.Getenv
	}

	owner := strings.TrimSpace(lookup("OWNER"))
	if c.Targeting.Org == "" && c.Targeting.User == "" && owner != "" {
		c.Targeting.Org = owner
	}

	if len(c.Targeting.Repos) == 0 {
		if raw := strings.TrimSpace(lookup("REPOS")); raw != "" {
			for _, part := range strings.FieldsFunc(raw, func(r rune) bool {
				return r == ',' || r == ' ' || r == '\t' || r == '\n'
			}) {
				part = strings.TrimSpace(part)
				if part == "" {
					continue
				}
				if !strings.Contains(part, "/") {
					if owner == "" {
						return fmt.Errorf("REPOS entry %q has no owner and OWNER is not set", part)
					}
					part = owner + "/" + part
				}
				c.Targeting.Repos = append(c.Targeting.Repos, part)
			}
			// An explicit REPOS list overrides account-wide discovery.
			if owner != "" && c.Targeting.Org == owner {
				c.Targeting.Org = ""
			}
		}
	}

	if c.Targeting.Visibility == "" {
		if raw := strings.TrimSpace(lookup("INCLUDE_PRIVATE_REPOS")); raw != "" {
			include, err := strconv.ParseBool(raw)
			if err != nil {
				return fmt.Errorf("invalid INCLUDE_PRIVATE_REPOS value %q: %w", raw, err)
			}
			if include {
				c.Targeting.Visibility = "all"
			} else {
				c.Targeting.Visibility = "public"
			}
		}
	}

	return nil
}

func (c *Config) Validate() error {
	// Normalize comma-delimited list inputs. Actions.Set is deliberately not
	// comma-split: option values may themselves be comma-separated lists.
	c.Targeting.Repos = splitCommaList(c.Targeting.Repos)
	c.Targeting.Topic = splitCommaList(c.Targeting.Topic)

	// Normalize account selectors.
	if c.Targeting.Org != "" {
		org, err := normalizeAccountSelector(c.Targeting.Org)
		if err != nil {
			return fmt.Errorf("invalid --org value: %w", err)
		}
		c.Targeting.Org = org
	}
	if c.Targeting.User != "" {
		user, err := normalizeAccountSelector(c.Targeting.User)
		if err != nil {
			return fmt.Errorf("invalid --user value: %w", err)
		}
		c.Targeting.User = user
	}

	// Targeting validation
	if c.Targeting.Org == "" && c.Targeting.User == "" && len(c.Targeting.Repos) == 0 {
		return errors.New("at least one of --org, --user, or --repos must be provided (or set OWNER/REPOS)")
	}
	if c.Targeting.Org != "" && c.Targeting.User != "" {
		return errors.New("--org and --user are mutually exclusive")
	}

	// Output validation
	c.Output.ConsoleFormat = normalizeEnumValue(c.Output.ConsoleFormat)
	if c.Output.ConsoleFormat == "" {
		return errors.New("--console-format must be one of: text, json, ndjson")
	}
	if c.Output.ConsoleFormat != "text" && c.Output.ConsoleFormat != "json" && c.Output.ConsoleFormat != "ndjson" {
		return fmt.Errorf("unsupported --console-format: %s (must be one of: text, json, ndjson)", c.Output.ConsoleFormat)
	}

	for _, emit := range c.Output.Emit {
		v := normalizeEnumValue(emit)
		if v == "" {
			return errors.New("--emit must be one of: json, ndjson")
		}
		if v != "json" && v != "ndjson" {
			return fmt.Errorf("unsupported --emit value: %s (must be one of: json, ndjson)", v)
		}
	}

	// A typo here would otherwise silently filter out every result.
	c.Output.ConsoleFilterStatus = splitCommaList(c.Output.ConsoleFilterStatus)
	for i, st := range c.Output.ConsoleFilterStatus {
		v := strings.ToUpper(strings.TrimSpace(st))
		switch v {
		case "APPLIED", "UNCHANGED", "PLANNED", "SKIPPED", "ERROR":
			c.Output.ConsoleFilterStatus[i] = v
		default:
			return fmt.Errorf("unsupported --console-filter-status: %s (must be one of: APPLIED, UNCHANGED, PLANNED, SKIPPED, ERROR)", st)
		}
	}

	// Targeting enum validation
	c.Targeting.Visibility = normalizeEnumValue(c.Targeting.Visibility)
	if c.Targeting.Visibility == "" {
		c.Targeting.Visibility = "all"
	}
	if c.Targeting.Visibility != "public" && c.Targeting.Visibility != "private" && c.Targeting.Visibility != "internal" && c.Targeting.Visibility != "all" {
		return fmt.Errorf("unsupported --visibility: %s (must be one of: public, private, internal, all)", c.Targeting.Visibility)
	}

	c.Targeting.Archived = normalizeEnumValue(c.Targeting.Archived)
	if c.Targeting.Archived == "" {
		c.Targeting.Archived = "exclude"
	}
	if c.Targeting.Archived != "include" && c.Targeting.Archived != "exclude" && c.Targeting.Archived != "only" {
		return fmt.Errorf("unsupported --archived: %s (must be one of: include, exclude, only)", c.Targeting.Archived)
	}

	c.Targeting.Forks = normalizeEnumValue(c.Targeting.Forks)
	if c.Targeting.Forks == "" {
		c.Targeting.Forks = "exclude"
	}
	if c.Targeting.Forks != "include" && c.Targeting.Forks != "exclude" && c.Targeting.Forks != "only" {
		return fmt.Errorf("unsupported --forks: %s (must be one of: include, exclude, only)", c.Targeting.Forks)
	}

	// Runtime validation
	if c.Targeting.MaxRepos < 0 {
		return errors.New("--max-repos must be >= 0")
	}
	if c.Runtime.Concurrency <= 0 {
		return errors.New("--concurrency must be >= 1")
	}
	if c.Runtime.Timeout <= 0 {
		return errors.New("--timeout must be > 0")
	}

	if c.Output.Out != "" {
		c.Output.OutFormat = normalizeEnumValue(c.Output.OutFormat)
		if c.Output.OutFormat == "" {
			ext := strings.ToLower(filepath.Ext(c.Output.Out))
			switch ext {
			case ".json":
				c.Output.OutFormat = "json"
			case ".ndjson":
				c.Output.OutFormat = "ndjson"
			default:
				if ext == "" {
					return errors.New("cannot infer output format from file extension (missing extension); use --out-format")
				}
				return fmt.Errorf("cannot infer output format from file extension %q; use --out-format", ext)
			}
		} else {
			if c.Output.OutFormat != "json" && c.Output.OutFormat != "ndjson" {
				return fmt.Errorf("unsupported output format: %s", c.Output.OutFormat)
			}
		}
	}

	// Action option syntax validation (action.option=value)
	if len(c.Actions.Set) > 0 {
		if _, err := ParseActionOptionAssignments(c.Actions.Set); err != nil {
			return err
		}
	}

	return nil
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func normalizeAccountSelector(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}

	// Accept a raw account name, or a GitHub URL like:
	//   https://github.com/<name>
	//   https://github.com/orgs/<name>
	//   https://github.com/users/<name>
	//   github.com/<name>
	if strings.HasPrefix(raw, "github.com/") || strings.HasPrefix(raw, "www.github.com/") {
		raw = "https://" + raw
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", fmt.Errorf("%q", raw)
		}
		host := strings.ToLower(u.Hostname())
		if host == "www.github.com" {
			host = "github.com"
		}
		if host != "github.com" {
			return "", fmt.Errorf("%q", raw)
		}
		parts := strings.FieldsFunc(strings.Trim(u.Path, "/"), func(r rune) bool { return r == '/' })
		if len(parts) == 0 {
			return "", fmt.Errorf("%q", raw)
		}
		if parts[0] == "orgs" || parts[0] == "users" {
			if len(parts) < 2 {
				return "", fmt.Errorf("%q", raw)
			}
			return parts[1], nil
		}
		return parts[0], nil
	}

	// Basic sanity: reject obvious repo-like inputs.
	if strings.Contains(raw, "/") {
		return "", fmt.Errorf("%q", raw)
	}
	return raw, nil
}

// ParseActionOptionAssignments parses values of the form "actionID.option=value".
//
// Notes:
// - Entries may be provided via repeated flags. Entries are not comma-split,
//   so list-valued options take their whole comma-separated list as one value
//   (e.g. "skip.repos=acme/a,acme/b").
// - This validates syntax only (no validation of action IDs or option names).
// - Empty values are allowed ("action.option=").
func ParseActionOptionAssignments(values []string) (map[string]map[string]string, error) {
	out := make(map[string]map[string]string)
	for _, raw := range values {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		left, value, ok := strings.Cut(raw, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --set entry %q: expected action.option=value", raw)
		}
		left = strings.TrimSpace(left)
		value = strings.TrimSpace(value)
		actionID, opt, ok := strings.Cut(left, ".")
		if !ok {
			return nil, fmt.Errorf("invalid --set entry %q: expected action.option=value", raw)
		}
		actionID = strings.TrimSpace(actionID)
		opt = strings.TrimSpace(opt)
		if actionID == "" || opt == "" {
			return nil, fmt.Errorf("invalid --set entry %q: expected non-empty action and option", raw)
		}
		if _, ok := out[actionID]; !ok {
			out[actionID] = make(map[string]string)
		}
		out[actionID][opt] = value
	}
	return out, nil
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
