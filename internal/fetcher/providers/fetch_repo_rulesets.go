package providers

import (
	"context"

	"repomender/internal/data"
	"repomender/internal/fetcher"

	"github.com/google/go-github/v81/github"
)

// Keep GitHub calls bounded.
const repoRulesetsLimit = 100

type repoRulesetsFetcher struct{}

func (a *repoRulesetsFetcher) Key() data.DependencyKey {
	return data.DepRepoRulesets
}

func (a *repoRulesetsFetcher) Scope() data.FetchScope {
	return data.ScopeRepo
}

func (a *repoRulesetsFetcher) Fetch(ctx context.Context, repo *github.Repository, _ map[string]string, f *fetcher.Fetcher) (any, error) {
	owner := repo.GetOwner().GetLogin()
	repoName := repo.GetName()

	if err := f.Budget().Acquire(ctx, 1); err != nil {
		return nil, err
	}

	// includesParents=true so actions can tell repo-defined rulesets from
	// inherited org rulesets (only the former can be deleted here).
	rulesets, resp, err := f.Client().Client.Repositories.GetAllRulesets(ctx, owner, repoName, &github.RepositoryListRulesetsOptions{
		IncludesParents: github.Ptr(true),
	})
	if resp != nil {
		f.Budget().UpdateFromResponse(resp.Response)
	}
	if err != nil {
		if resp != nil && resp.StatusCode == 404 {
			return []*github.RepositoryRuleset{}, nil
		}
		return nil, err
	}

	if rulesets == nil {
		return []*github.RepositoryRuleset{}, nil
	}

	// Apply limit to keep bounded.
	if len(rulesets) > repoRulesetsLimit {
		return rulesets[:repoRulesetsLimit], nil
	}

	return rulesets, nil
}

func init() {
	fetcher.RegisterDataFetcher(&repoRulesetsFetcher{})
}
