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

// DependabotAlertsAction toggles Dependabot vulnerability alerts.
type DependabotAlertsAction struct {
	enabled bool
}

func init() {
	actions.Register(&DependabotAlertsAction{enabled: true})
}

func (a *DependabotAlertsAction) ID() string {
	return "dependabot-alerts"
}

func (a *DependabotAlertsAction) Title() string {
	return "Set Dependabot Vulnerability Alerts"
}

func (a *DependabotAlertsAction) Description() string {
	return "Enables or disables Dependabot vulnerability alerts for the repository.\n\n" +
		"Location in the UI: Settings > Security > Code security and analysis."
}

func (a *DependabotAlertsAction) Options() []actions.Option {
	return []actions.Option{
		{Name: "enabled", Description: "Desired state (true/false).", Default: "true"},
	}
}

func (a *DependabotAlertsAction) Configure(opts map[string]string) error {
	if v, ok := opts["enabled"]; ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid enabled value %q", v)
		}
		a.enabled = b
	}
	return nil
}

func (a *DependabotAlertsAction) Dependencies(ctx context.Context, repo *github.Repository) ([]data.DependencyKey, error) {
	return []data.DependencyKey{
		data.DepRepoVulnerabilityAlerts,
	}, nil
}

func (a *DependabotAlertsAction) Plan(ctx context.Context, repo *github.Repository, dc data.DataContext) (actions.Change, error) {
	val, ok := dc.Get(data.DepRepoVulnerabilityAlerts)
	if !ok {
		return actions.Change{}, fmt.Errorf("dependency %s not available", data.DepRepoVulnerabilityAlerts)
	}
	current, ok := val.(bool)
	if !ok {
		return actions.Change{}, fmt.Errorf("unexpected type %T for %s", val, data.DepRepoVulnerabilityAlerts)
	}

	if current == a.enabled {
		return actions.Change{
			Summary: fmt.Sprintf("Vulnerability alerts already %s", statusWord(a.enabled)),
		}, nil
	}
	return actions.Change{
		Needed:  true,
		Summary: fmt.Sprintf("Set vulnerability alerts from %s to %s", statusWord(current), statusWord(a.enabled)),
	}, nil
}

func (a *DependabotAlertsAction) Apply(ctx context.Context, repo *github.Repository, change actions.Change, client *gh.Client) (actions.Result, error) {
	owner := repo.GetOwner().GetLogin()
	name := repo.GetName()

	var err error
	if a.enabled {
		_, err = client.Client.Repositories.EnableVulnerabilityAlerts(ctx, owner, name)
	} else {
		_, err = client.Client.Repositories.DisableVulnerabilityAlerts(ctx, owner, name)
	}
	if err != nil {
		return actions.Result{}, fmt.Errorf("set vulnerability alerts: %w", err)
	}

	return actions.AppliedResult(repo, a.ID(),
		fmt.Sprintf("Vulnerability alerts %s", statusWord(a.enabled))), nil
}
