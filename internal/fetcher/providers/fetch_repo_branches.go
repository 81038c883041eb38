package providers

import (
	"context"

	"repomender/internal/data"
	"repomender/internal/fetcher"

	"github.com/google/go-github/v81/github"
)

// Existence checks only need names; keep the page count bounded for
// repositories with very large branch sets.
const repoBranchesLimit = 1000

type repoBranchesFetcher struct{}

func (b *repoBranchesFetcher) Key() data.DependencyKey {
	return data.DepRepoBranches
}

func (b *repoBranchesFetcher) Scope() data.FetchScope {
	return data.ScopeRepo
}

func (b *repoBranchesFetcher) Fetch(ctx context.Context, repo *github.Repository, _ map[string]string, f *fetcher.Fetcher) (any, error) {
	owner := repo.GetOwner().GetLogin()
	repoName := repo.GetName()

	names := make([]string, 0, 100)
	opts := &github.BranchListOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}
	for {
		if err := f.Budget().Acquire(ctx, 1); err != nil {
			return nil, err
		}
		branches, resp, err := f.Client().Client.Repositories.ListBranches(ctx, owner, repoName, opts)
		if resp != nil {
			f.Budget().UpdateFromResponse(resp.Response)
		}
		if err != nil {
			if resp != nil && resp.StatusCode == 404 {
				return []string{}, nil
			}
			return nil, err
		}
		for _, br := range branches {
			if len(names) >= repoBranchesLimit {
				return names, nil
			}
			names = append(names, br.GetName())
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return names, nil
}

func init() {
	fetcher.RegisterDataFetcher(&repoBranchesFetcher{})
}
