package tasks

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"repomender/internal/actions"
	"repomender/internal/data"
	gh "repomender/internal/github"

	"github.com/google/go-github/v81/github"
)

const codeqlPollInterval = 10 * time.Second

// CodeQLDefaultSetupAction enables or disables CodeQL default setup code
// scanning. Enabling kicks off an asynchronous configuration on GitHub's
// side; with wait=true the action polls the setup state at a fixed interval
// until it reports configured or the wait timeout elapses.
type CodeQLDefaultSetupAction struct {
	enabled     bool
	languages   []string
	querySuite  string
	wait        bool
	waitTimeout time.Duration
}

func init() {
	actions.Register(&CodeQLDefaultSetupAction{
		enabled:     true,
		querySuite:  "default",
		wait:        true,
		waitTimeout: 5 * time.Minute,
	})
}

func (a *CodeQLDefaultSetupAction) ID() string {
	return "codeql-default-setup"
}

func (a *CodeQLDefaultSetupAction) Title() string {
	return "Set CodeQL Default Setup"
}

func (a *CodeQLDefaultSetupAction) Description() string {
	return "Enables or disables CodeQL default setup code scanning.\n\n" +
		"Enabling is asynchronous on GitHub's side. With wait enabled the action\n" +
		"polls the configuration state until it is configured or the wait timeout\n" +
		"elapses; a timeout is reported as an error even though the setup may\n" +
		"still complete later. Repositories where default setup is unavailable\n" +
		"(code scanning not licensed, or no supported languages) are skipped."
}

func (a *CodeQLDefaultSetupAction) Options() []actions.Option {
	return []actions.Option{
		{Name: "enabled", Description: "Desired state (true/false).", Default: "true"},
		{Name: "languages", Description: "Comma-separated CodeQL languages (empty = let GitHub detect).", Default: ""},
		{Name: "query_suite", Description: "Query suite: default|extended.", Default: "default"},
		{Name: "wait", Description: "Poll until the setup reports configured (true/false).", Default: "true"},
		{Name: "wait_timeout", Description: "Maximum time to poll, as a Go duration.", Default: "5m"},
	}
}

func (a *CodeQLDefaultSetupAction) Configure(opts map[string]string) error {
	if v, ok := opts["enabled"]; ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid enabled value %q", v)
		}
		a.enabled = b
	}
	if v, ok := opts["languages"]; ok {
		a.languages = nil
		for _, lang := range strings.Split(v, ",") {
			lang = strings.ToLower(strings.TrimSpace(lang))
			if lang != "" {
				a.languages = append(a.languages, lang)
			}
		}
	}
	if v, ok := opts["query_suite"]; ok {
		v = strings.ToLower(strings.TrimSpace(v))
		switch v {
		case "default", "extended":
			a.querySuite = v
		default:
			return fmt.Errorf("unsupported query_suite %q (must be default or extended)", v)
		}
	}
	if v, ok := opts["wait"]; ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid wait value %q", v)
		}
		a.wait = b
	}
	if v, ok := opts["wait_timeout"]; ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid wait_timeout value %q", v)
		}
		a.waitTimeout = d
	}
	return nil
}

func (a *CodeQLDefaultSetupAction) Dependencies(ctx context.Context, repo *github.Repository) ([]data.DependencyKey, error) {
	return []data.DependencyKey{
		data.DepRepoCodeQLDefaultSetup,
	}, nil
}

func (a *CodeQLDefaultSetupAction) Plan(ctx context.Context, repo *github.Repository, dc data.DataContext) (actions.Change, error) {
	val, ok := dc.Get(data.DepRepoCodeQLDefaultSetup)
	if !ok {
		return actions.Change{}, fmt.Errorf("dependency %s not available", data.DepRepoCodeQLDefaultSetup)
	}
	setup, ok := val.(*github.DefaultSetupConfiguration)
	if !ok {
		return actions.Change{}, fmt.Errorf("unexpected type %T for %s", val, data.DepRepoCodeQLDefaultSetup)
	}

	if setup == nil {
		return actions.Change{
			Skipped: true,
			Summary: "CodeQL default setup is not available for this repository",
		}, nil
	}

	state := setup.GetState()
	desired := "configured"
	if !a.enabled {
		desired = "not-configured"
	}
	if state == desired {
		return actions.Change{
			Summary: fmt.Sprintf("CodeQL default setup already %s", state),
		}, nil
	}

	details := map[string]string{
		"current_state": state,
		"desired_state": desired,
	}
	if a.enabled {
		details["query_suite"] = a.querySuite
		if len(a.languages) > 0 {
			details["languages"] = strings.Join(a.languages, ",")
		}
	}
	return actions.Change{
		Needed:  true,
		Summary: fmt.Sprintf("Set CodeQL default setup from %s to %s", state, desired),
		Details: details,
	}, nil
}

func (a *CodeQLDefaultSetupAction) Apply(ctx context.Context, repo *github.Repository, change actions.Change, client *gh.Client) (actions.Result, error) {
	owner := repo.GetOwner().GetLogin()
	name := repo.GetName()

	opts := github.UpdateDefaultSetupConfigurationOptions{}
	if a.enabled {
		opts.State = "configured"
		opts.QuerySuite = github.Ptr(a.querySuite)
		if len(a.languages) > 0 {
			opts.Languages = a.languages
		}
	} else {
		opts.State = "not-configured"
	}

	if _, _, err := client.Client.CodeScanning.UpdateDefaultSetupConfiguration(ctx, owner, name, &opts); err != nil {
		return actions.Result{}, fmt.Errorf("update CodeQL default setup: %w", err)
	}

	if !a.enabled || !a.wait {
		return actions.AppliedResult(repo, a.ID(),
			fmt.Sprintf("CodeQL default setup set to %s", opts.State)), nil
	}

	final, err := a.waitConfigured(ctx, client, owner, name)
	if err != nil {
		return actions.Result{}, err
	}
	return actions.AppliedResultWithEvidence(repo, a.ID(),
		"CodeQL default setup configured",
		map[string]string{"state": final}), nil
}

// waitConfigured polls the default setup state at a fixed interval until it
// reports configured or the wait timeout elapses.
func (a *CodeQLDefaultSetupAction) waitConfigured(ctx context.Context, client *gh.Client, owner, name string) (string, error) {
	deadline := time.Now().Add(a.waitTimeout)
	ticker := time.NewTicker(codeqlPollInterval)
	defer ticker.Stop()

	last := "unknown"
	for {
		setup, _, err := client.Client.CodeScanning.GetDefaultSetupConfiguration(ctx, owner, name)
		if err != nil {
			return "", fmt.Errorf("poll CodeQL default setup: %w", err)
		}
		last = setup.GetState()
		if last == "configured" {
			return last, nil
		}
		if time.Now().After(deadline) {
			return "", fmt.Errorf("CodeQL default setup not configured after %s (last state: %s)", a.waitTimeout, last)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}
