package tasks

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"repomender/internal/actions"
	"repomender/internal/data"
	gh "repomender/internal/github"

	"github.com/google/go-github/v81/github"
)

// DependabotFixesAction toggles Dependabot automated security fixes
// (security updates). Fixes require vulnerability alerts, so enabling them on
// a repo with alerts off will fail on the API side; the action surfaces that
// error rather than silently flipping alerts on.
type DependabotFixesAction struct {
	enabled bool
}

func init() {
	actions.Register(&DependabotFixesAction{enabled: true})
}

func (a *DependabotFixesAction) ID() string {
	return "dependabot-fixes"
}

func (a *DependabotFixesAction) Title() string {
	return "Set Dependabot Security Updates"
}

func (a *DependabotFixesAction) Description() string {
	return "Enables or disables Dependabot automated security fixes.\n\n" +
		"Dependabot security updates require vulnerability alerts to be on; run\n" +
		"this together with dependabot-alerts when enabling from scratch."
}

func (a *DependabotFixesAction) Options() []actions.Option {
	return []actions.Option{
		{Name: "enabled", Description: "Desired state (true/false).", Default: "true"},
	}
}

func (a *DependabotFixesAction) Configure(opts map[string]string) error {
	if v, ok := opts["enabled"]; ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid enabled value %q", v)
		}
		a.enabled = b
	}
	return nil
}

func (a *DependabotFixesAction) Dependencies(ctx context.Context, repo *github.Repository) ([]data.DependencyKey, error) {
	return []data.DependencyKey{
		data.DepRepoAutomatedSecurityFixes,
	}, nil
}

func (a *DependabotFixesAction) Plan(ctx context.Context, repo *github.Repository, dc data.DataContext) (actions.Change, error) {
	val, ok := dc.Get(data.DepRepoAutomatedSecurityFixes)
	if !ok {
		return actions.Change{}, fmt.Errorf("dependency %s not available", data.DepRepoAutomatedSecurityFixes)
	}
	fixes, ok := val.(*github.AutomatedSecurityFixes)
	if !ok {
		return actions.Change{}, fmt.Errorf("unexpected type %T for %s", val, data.DepRepoAutomatedSecurityFixes)
	}

	current := fixes != nil && fixes.GetEnabled()
	if current == a.enabled {
		return actions.Change{
			Summary: fmt.Sprintf("Automated security fixes already %s", statusWord(a.enabled)),
		}, nil
	}

	details := map[string]string{}
	if fixes != nil {
		details["paused"] = strconv.FormatBool(fixes.GetPaused())
	}
	return actions.Change{
		Needed:  true,
		Summary: fmt.Sprintf("Set automated security fixes from %s to %s", statusWord(current), statusWord(a.enabled)),
		Details: details,
	}, nil
}

func (a *DependabotFixesAction) Apply(ctx context.Context, repo *github.Repository, change actions.Change, client *gh.Client) (actions.Result, error) {
	owner := repo.GetOwner().GetLogin()
	name := repo.GetName()

	var err error
	if a.enabled {
		_, err = client.Client.Repositories.EnableAutomatedSecurityFixes(ctx, owner, name)
	} else {
		_, err = client.Client.Repositories.DisableAutomatedSecurityFixes(ctx, owner, name)
	}
	if err != nil {
		return actions.Result{}, fmt.Errorf("set automated security fixes: %w", err)
	}

	return actions.AppliedResult(repo, a.ID(),
		fmt.Sprintf("Automated security fixes %s", statusWord(a.enabled))), nil
}
