package providers

import (
	"context"

	"repomender/internal/data"
	"repomender/internal/fetcher"

	"github.com/google/go-github/v81/github"
)

type automatedSecurityFixesFetcher struct{}

func (a *automatedSecurityFixesFetcher) Key() data.DependencyKey {
	return data.DepRepoAutomatedSecurityFixes
}

func (a *automatedSecurityFixesFetcher) Scope() data.FetchScope {
	return data.ScopeRepo
}

// Fetch returns *github.AutomatedSecurityFixes, or nil when the setting is
// not readable for the repository (e.g. alerts disabled entirely).
func (a *automatedSecurityFixesFetcher) Fetch(ctx context.Context, repo *github.Repository, _ map[string]string, f *fetcher.Fetcher) (any, error) {
	if err := f.Budget().Acquire(ctx, 1); err != nil {
		return nil, err
	}

	fixes, resp, err := f.Client().Client.Repositories.GetAutomatedSecurityFixes(ctx, repo.GetOwner().GetLogin(), repo.GetName())
	if resp != nil {
		f.Budget().UpdateFromResponse(resp.Response)
	}
	if err != nil {
		if resp != nil && resp.StatusCode == 404 {
			var none *github.AutomatedSecurityFixes
			return none, nil
		}
		return nil, err
	}
	return fixes, nil
}

func init() {
	fetcher.RegisterDataFetcher(&automatedSecurityFixesFetcher{})
}
