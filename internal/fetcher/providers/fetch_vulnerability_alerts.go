package providers

import (
	"context"

	"repomender/internal/data"
	"repomender/internal/fetcher"

	"github.com/google/go-github/v81/github"
)

type vulnerabilityAlertsFetcher struct{}

func (v *vulnerabilityAlertsFetcher) Key() data.DependencyKey {
	return data.DepRepoVulnerabilityAlerts
}

func (v *vulnerabilityAlertsFetcher) Scope() data.FetchScope {
	return data.ScopeRepo
}

// Fetch returns a bool: whether Dependabot vulnerability alerts are enabled.
func (v *vulnerabilityAlertsFetcher) Fetch(ctx context.Context, repo *github.Repository, _ map[string]string, f *fetcher.Fetcher) (any, error) {
	if err := f.Budget().Acquire(ctx, 1); err != nil {
		return nil, err
	}

	enabled, resp, err := f.Client().Client.Repositories.GetVulnerabilityAlerts(ctx, repo.GetOwner().GetLogin(), repo.GetName())
	if resp != nil {
		f.Budget().UpdateFromResponse(resp.Response)
	}
	if err != nil {
		// 404 is the documented "disabled" signal for this endpoint.
		if resp != nil && resp.StatusCode == 404 {
			return false, nil
		}
		return nil, err
	}
	return enabled, nil
}

func init() {
	fetcher.RegisterDataFetcher(&vulnerabilityAlertsFetcher{})
}
