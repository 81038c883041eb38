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

// RulesetEnsureAction replaces a repository ruleset with a known-good shape.
//
// Replacement is deliberate: any same-named repo ruleset is deleted and the
// ruleset is created fresh, so a drifted ruleset never survives by name alone.
// This also keeps the "at most one ruleset per name" invariant without diffing.
type RulesetEnsureAction struct {
	name            string
	pattern         string
	enforcement     string
	approvals       int
	codeOwnerReview bool
	dismissStale    bool
	bypassAppID     int64
}

func init() {
	actions.Register(&RulesetEnsureAction{
		name:         "baseline-branch-protection",
		pattern:      "~DEFAULT_BRANCH",
		enforcement:  "active",
		approvals:    1,
		dismissStale: true,
	})
}

func (a *RulesetEnsureAction) ID() string {
	return "ruleset-ensure"
}

func (a *RulesetEnsureAction) Title() string {
	return "Replace A Branch Protection Ruleset"
}

func (a *RulesetEnsureAction) Description() string {
	return "Deletes any repo ruleset with the configured name and creates it fresh.\n\n" +
		"The created ruleset targets branches matching the configured pattern and\n" +
		"blocks deletion, blocks non-fast-forward pushes, and requires pull\n" +
		"requests with the configured review policy. Inherited org rulesets with\n" +
		"the same name are left alone (they cannot be deleted through the repo\n" +
		"endpoint) but are reported in the evidence."
}

func (a *RulesetEnsureAction) Options() []actions.Option {
	return []actions.Option{
		{Name: "name", Description: "Ruleset name.", Default: "baseline-branch-protection"},
		{Name: "pattern", Description: "Ref name include pattern.", Default: "~DEFAULT_BRANCH"},
		{Name: "enforcement", Description: "Enforcement: active|evaluate|disabled.", Default: "active"},
		{Name: "approvals", Description: "Required approving review count.", Default: "1"},
		{Name: "code_owner_review", Description: "Require code owner review (true/false).", Default: "false"},
		{Name: "dismiss_stale", Description: "Dismiss stale reviews on push (true/false).", Default: "true"},
		{Name: "bypass_app_id", Description: "GitHub App ID allowed to bypass the ruleset (0 = none).", Default: "0"},
	}
}

func (a *RulesetEnsureAction) Configure(opts map[string]string) error {
	if v, ok := opts["name"]; ok {
		v = strings.TrimSpace(v)
		if v == "" {
			return fmt.Errorf("name must not be empty")
		}
		a.name = v
	}
	if v, ok := opts["pattern"]; ok {
		v = strings.TrimSpace(v)
		if v == "" {
			return fmt.Errorf("pattern must not be empty")
		}
		a.pattern = v
	}
	if v, ok := opts["enforcement"]; ok {
		v = strings.ToLower(strings.TrimSpace(v))
		switch v {
		case "active", "evaluate", "disabled":
			a.enforcement = v
		default:
			return fmt.Errorf("unsupported enforcement %q (must be one of: active, evaluate, disabled)", v)
		}
	}
	if v, ok := opts["approvals"]; ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 0 {
			return fmt.Errorf("invalid approvals value %q", v)
		}
		a.approvals = n
	}
	if v, ok := opts["code_owner_review"]; ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid code_owner_review value %q", v)
		}
		a.codeOwnerReview = b
	}
	if v, ok := opts["dismiss_stale"]; ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid dismiss_stale value %q", v)
		}
		a.dismissStale = b
	}
	if v, ok := opts["bypass_app_id"]; ok {
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil || id < 0 {
			return fmt.Errorf("invalid bypass_app_id value %q", v)
		}
		a.bypassAppID = id
	}
	return nil
}

func (a *RulesetEnsureAction) Dependencies(ctx context.Context, repo *github.Repository) ([]data.DependencyKey, error) {
	return []data.DependencyKey{
		data.DepRepoRulesets,
	}, nil
}

func (a *RulesetEnsureAction) Plan(ctx context.Context, repo *github.Repository, dc data.DataContext) (actions.Change, error) {
	rulesets, err := rulesetsFromContext(dc)
	if err != nil {
		return actions.Change{}, err
	}

	var replaceIDs []int64
	inherited := 0
	for _, rs := range rulesets {
		if rs.Name != a.name {
			continue
		}
		if repoOwnedRuleset(rs) {
			replaceIDs = append(replaceIDs, rs.GetID())
		} else {
			inherited++
		}
	}

	details := map[string]string{
		"name":        a.name,
		"pattern":     a.pattern,
		"enforcement": a.enforcement,
	}
	if inherited > 0 {
		details["inherited_same_name"] = strconv.Itoa(inherited)
	}

	summary := fmt.Sprintf("Create ruleset %s", a.name)
	if len(replaceIDs) > 0 {
		summary = fmt.Sprintf("Replace ruleset %s (delete %d, then create)", a.name, len(replaceIDs))
	}

	return actions.Change{
		Needed:  true,
		Summary: summary,
		Details: details,
		Payload: replaceIDs,
	}, nil
}

func (a *RulesetEnsureAction) Apply(ctx context.Context, repo *github.Repository, change actions.Change, client *gh.Client) (actions.Result, error) {
	owner := repo.GetOwner().GetLogin()
	name := repo.GetName()

	replaceIDs, _ := change.Payload.([]int64)
	for _, id := range replaceIDs {
		if _, err := client.Client.Repositories.DeleteRuleset(ctx, owner, name, id); err != nil {
			return actions.Result{}, fmt.Errorf("delete ruleset %d: %w", id, err)
		}
	}

	created, _, err := client.Client.Repositories.CreateRuleset(ctx, owner, name, a.desiredRuleset())
	if err != nil {
		return actions.Result{}, fmt.Errorf("create ruleset %s: %w", a.name, err)
	}

	verb := "Created"
	if len(replaceIDs) > 0 {
		verb = "Replaced"
	}
	return actions.AppliedResultWithEvidence(repo, a.ID(),
		fmt.Sprintf("%s ruleset %s", verb, a.name),
		map[string]string{
			"ruleset_id": strconv.FormatInt(created.GetID(), 10),
			"deleted":    strconv.Itoa(len(replaceIDs)),
		}), nil
}

func (a *RulesetEnsureAction) desiredRuleset() github.RepositoryRuleset {
	target := github.RulesetTargetBranch

	var enforcement github.RulesetEnforcement
	switch a.enforcement {
	case "evaluate":
		enforcement = github.RulesetEnforcementEvaluate
	case "disabled":
		enforcement = github.RulesetEnforcementDisabled
	default:
		enforcement = github.RulesetEnforcementActive
	}

	rs := github.RepositoryRuleset{
		Name:        a.name,
		Target:      &target,
		Enforcement: enforcement,
		Conditions: &github.RepositoryRulesetConditions{
			RefName: &github.RepositoryRulesetRefConditionParameters{
				Include: []string{a.pattern},
				Exclude: []string{},
			},
		},
		Rules: &github.RepositoryRulesetRules{
			Deletion:       &github.EmptyRuleParameters{},
			NonFastForward: &github.EmptyRuleParameters{},
			PullRequest: &github.PullRequestRuleParameters{
				RequiredApprovingReviewCount: a.approvals,
				RequireCodeOwnerReview:       a.codeOwnerReview,
				DismissStaleReviewsOnPush:    a.dismissStale,
			},
		},
	}

	if a.bypassAppID > 0 {
		rs.BypassActors = []*github.BypassActor{
			{
				ActorID:    github.Ptr(a.bypassAppID),
				ActorType:  github.Ptr(github.BypassActorTypeIntegration),
				BypassMode: github.Ptr(github.BypassModeAlways),
			},
		}
	}

	return rs
}
