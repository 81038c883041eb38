package providers

import (
	"context"

	"repomender/internal/data"
	"repomender/internal/fetcher"

	"github.com/google/go-github/v81/github"
)

type codeqlDefaultSetupFetcher struct{}

func (c *codeqlDefaultSetupFetcher) Key() data.DependencyKey {
	return data.DepRepoCodeQLDefaultSetup
}

func (c *codeqlDefaultSetupFetcher) Scope() data.FetchScope {
	return data.ScopeRepo
}

// Fetch returns *github.DefaultSetupConfiguration, or nil when code scanning
// is not available for the repository (missing GHAS license, disabled
// advanced security, etc.). Actions treat nil as "feature unavailable".
func (c *codeqlDefaultSetupFetcher) Fetch(ctx context.Context, repo *github.Repository, _ map[string]string, f *fetcher.Fetcher) (any, error) {
	if err := f.Budget().Acquire(ctx, 1); err != nil {
		return nil, err
	}

	setup, resp, err := f.Client().Client.CodeScanning.GetDefaultSetupConfiguration(ctx, repo.GetOwner().GetLogin(), repo.GetName())
	if resp != nil {
		f.Budget().UpdateFromResponse(resp.Response)
	}
	if err != nil {
		if resp != nil && (resp.StatusCode == 404 || resp.StatusCode == 403) {
			var none *github.DefaultSetupConfiguration
			return none, nil
		}
		return nil, err
	}
	return setup, nil
}

func init() {
	fetcher.RegisterDataFetcher(&codeqlDefaultSetupFetcher{})
}
