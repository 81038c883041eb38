package tasks

import (
	"fmt"

	"repomender/internal/data"

	"github.com/google/go-github/v81/github"
)

// metadataFromContext returns the freshest repository object available:
// the fetched metadata when present, otherwise the discovery-time repo.
func metadataFromContext(dc data.DataContext, fallback *github.Repository) *github.Repository {
	if val, ok := dc.Get(data.DepRepoMetadata); ok && val != nil {
		if meta, ok := val.(*github.Repository); ok && meta != nil {
			return meta
		}
	}
	return fallback
}

func branchNamesFromContext(dc data.DataContext) ([]string, error) {
	val, ok := dc.Get(data.DepRepoBranches)
	if !ok {
		return nil, fmt.Errorf("missing dependency %s", data.DepRepoBranches)
	}
	names, ok := val.([]string)
	if !ok {
		return nil, fmt.Errorf("unexpected type %T for %s", val, data.DepRepoBranches)
	}
	return names, nil
}

func rulesetsFromContext(dc data.DataContext) ([]*github.RepositoryRuleset, error) {
	val, ok := dc.Get(data.DepRepoRulesets)
	if !ok {
		return nil, fmt.Errorf("missing dependency %s", data.DepRepoRulesets)
	}
	rulesets, ok := val.([]*github.RepositoryRuleset)
	if !ok {
		return nil, fmt.Errorf("unexpected type %T for %s", val, data.DepRepoRulesets)
	}
	return rulesets, nil
}

// repoOwnedRuleset reports whether the ruleset is defined on the repository
// itself rather than inherited from the organization.
func repoOwnedRuleset(rs *github.RepositoryRuleset) bool {
	if rs == nil {
		return false
	}
	st := rs.GetSourceType()
	return st != nil && *st == github.RulesetSourceTypeRepository
}
