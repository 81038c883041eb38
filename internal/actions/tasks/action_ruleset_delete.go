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

// RulesetDeleteAction removes every repo ruleset matching the configured name.
// Inherited org rulesets are out of reach of the repo endpoint, so a repo whose
// only match is inherited comes back SKIPPED rather than ERROR.
type RulesetDeleteAction struct {
	name string
}

func init() {
	actions.Register(&RulesetDeleteAction{})
}

func (a *RulesetDeleteAction) ID() string {
	return "ruleset-delete"
}

func (a *RulesetDeleteAction) Title() string {
	return "Delete Repository Rulesets By Name"
}

func (a *RulesetDeleteAction) Description() string {
	return "Deletes all repo-owned rulesets whose name matches the configured name.\n\n" +
		"Requires the name option; there is no default because deleting rulesets\n" +
		"is destructive. Org-inherited rulesets with a matching name are reported\n" +
		"but left in place."
}

func (a *RulesetDeleteAction) Options() []actions.Option {
	return []actions.Option{
		{Name: "name", Description: "Name of the ruleset(s) to delete. Required.", Default: ""},
	}
}

func (a *RulesetDeleteAction) Configure(opts map[string]string) error {
	if v, ok := opts["name"]; ok {
		a.name = strings.TrimSpace(v)
	}
	if a.name == "" {
		return fmt.Errorf("ruleset-delete requires the name option (--set ruleset-delete.name=...)")
	}
	return nil
}

func (a *RulesetDeleteAction) Dependencies(ctx context.Context, repo *github.Repository) ([]data.DependencyKey, error) {
	return []data.DependencyKey{
		data.DepRepoRulesets,
	}, nil
}

func (a *RulesetDeleteAction) Plan(ctx context.Context, repo *github.Repository, dc data.DataContext) (actions.Change, error) {
	if a.name == "" {
		return actions.Change{}, fmt.Errorf("ruleset-delete is not configured with a name")
	}

	rulesets, err := rulesetsFromContext(dc)
	if err != nil {
		return actions.Change{}, err
	}

	var deleteIDs []int64
	inherited := 0
	for _, rs := range rulesets {
		if rs.Name != a.name {
			continue
		}
		if repoOwnedRuleset(rs) {
			deleteIDs = append(deleteIDs, rs.GetID())
		} else {
			inherited++
		}
	}

	if len(deleteIDs) == 0 {
		if inherited > 0 {
			return actions.Change{
				Skipped: true,
				Summary: fmt.Sprintf("Ruleset %s is inherited from the organization and cannot be deleted here", a.name),
			}, nil
		}
		return actions.Change{
			Summary: fmt.Sprintf("No ruleset named %s", a.name),
		}, nil
	}

	details := map[string]string{"name": a.name}
	if inherited > 0 {
		details["inherited_same_name"] = strconv.Itoa(inherited)
	}
	return actions.Change{
		Needed:  true,
		Summary: fmt.Sprintf("Delete %d ruleset(s) named %s", len(deleteIDs), a.name),
		Details: details,
		Payload: deleteIDs,
	}, nil
}

func (a *RulesetDeleteAction) Apply(ctx context.Context, repo *github.Repository, change actions.Change, client *gh.Client) (actions.Result, error) {
	owner := repo.GetOwner().GetLogin()
	name := repo.GetName()

	deleteIDs, _ := change.Payload.([]int64)
	for _, id := range deleteIDs {
		if _, err := client.Client.Repositories.DeleteRuleset(ctx, owner, name, id); err != nil {
			return actions.Result{}, fmt.Errorf("delete ruleset %d: %w", id, err)
		}
	}

	return actions.AppliedResultWithEvidence(repo, a.ID(),
		fmt.Sprintf("Deleted %d ruleset(s) named %s", len(deleteIDs), a.name),
		map[string]string{"deleted": strconv.Itoa(len(deleteIDs))}), nil
}
