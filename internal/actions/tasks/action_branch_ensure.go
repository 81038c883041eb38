package tasks

import (
	"context"
	"fmt"
	"strings"

	"repomender/internal/actions"
	"repomender/internal/data"
	gh "repomender/internal/github"

	"github.com/google/go-github/v81/github"
)

// BranchEnsureAction creates a branch when it does not exist yet.
// Existing branches are never touched, whatever they point at.
type BranchEnsureAction struct {
	branch string
	from   string
}

func init() {
	actions.Register(&BranchEnsureAction{})
}

func (a *BranchEnsureAction) ID() string {
	return "branch-ensure"
}

func (a *BranchEnsureAction) Title() string {
	return "Ensure A Branch Exists"
}

func (a *BranchEnsureAction) Description() string {
	return "Creates the configured branch from a base branch when it does not exist.\n\n" +
		"The base defaults to the repository's default branch. The base commit is\n" +
		"resolved per repository at apply time, so every repository branches from\n" +
		"its own current tip. Repositories that already have the branch are\n" +
		"reported as UNCHANGED; the action never force-updates an existing branch."
}

func (a *BranchEnsureAction) Options() []actions.Option {
	return []actions.Option{
		{Name: "branch", Description: "Name of the branch to create (required)."},
		{Name: "from", Description: "Base branch to create from.", Default: "the repository default branch"},
	}
}

func (a *BranchEnsureAction) Configure(opts map[string]string) error {
	if v, ok := opts["branch"]; ok {
		v = strings.TrimSpace(v)
		if v == "" {
			return fmt.Errorf("branch must not be empty")
		}
		if strings.ContainsAny(v, " \t~^:?*[\\") {
			return fmt.Errorf("invalid branch name %q", v)
		}
		a.branch = v
	}
	if v, ok := opts["from"]; ok {
		a.from = strings.TrimSpace(v)
	}
	return nil
}

func (a *BranchEnsureAction) Dependencies(ctx context.Context, repo *github.Repository) ([]data.DependencyKey, error) {
	return []data.DependencyKey{
		data.DepRepoMetadata,
		data.DepRepoBranches,
	}, nil
}

func (a *BranchEnsureAction) Plan(ctx context.Context, repo *github.Repository, dc data.DataContext) (actions.Change, error) {
	if a.branch == "" {
		return actions.Change{}, fmt.Errorf("branch-ensure requires --set branch-ensure.branch=<name>")
	}

	branches, err := branchNamesFromContext(dc)
	if err != nil {
		return actions.Change{}, err
	}

	for _, name := range branches {
		if name == a.branch {
			return actions.Change{
				Summary: fmt.Sprintf("Branch %s already exists", a.branch),
			}, nil
		}
	}

	base := a.from
	if base == "" {
		base = metadataFromContext(dc, repo).GetDefaultBranch()
	}
	if base == "" {
		return actions.Change{
			Skipped: true,
			Summary: "Repository has no default branch (empty repository)",
		}, nil
	}

	return actions.Change{
		Needed:  true,
		Summary: fmt.Sprintf("Create branch %s from %s", a.branch, base),
		Details: map[string]string{"branch": a.branch, "from": base},
		Payload: base,
	}, nil
}

func (a *BranchEnsureAction) Apply(ctx context.Context, repo *github.Repository, change actions.Change, client *gh.Client) (actions.Result, error) {
	base, ok := change.Payload.(string)
	if !ok || base == "" {
		return actions.Result{}, fmt.Errorf("branch-ensure: missing base branch in planned change")
	}

	owner := repo.GetOwner().GetLogin()
	name := repo.GetName()

	baseRef, _, err := client.Client.Git.GetRef(ctx, owner, name, "heads/"+base)
	if err != nil {
		return actions.Result{}, fmt.Errorf("resolve base branch %s: %w", base, err)
	}
	sha := baseRef.GetObject().GetSHA()
	if sha == "" {
		return actions.Result{}, fmt.Errorf("base branch %s has no commit SHA", base)
	}

	_, _, err = client.Client.Git.CreateRef(ctx, owner, name, github.CreateRef{
		Ref: "refs/heads/" + a.branch,
		SHA: sha,
	})
	if err != nil {
		return actions.Result{}, fmt.Errorf("create branch %s: %w", a.branch, err)
	}

	return actions.AppliedResultWithEvidence(repo, a.ID(),
		fmt.Sprintf("Created branch %s from %s", a.branch, base),
		map[string]string{"branch": a.branch, "from": base, "sha": sha}), nil
}
