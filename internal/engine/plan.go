package engine

import (
	"context"
	"fmt"
	"sort"

	"repomender/internal/actions"
	"repomender/internal/data"
)

// ApplyPlan maps each targeted repository to the actions that will run on it
// and the union of the data dependencies those actions declared.
type ApplyPlan struct {
	RepoPlans map[int64]*RepoPlan
}

type RepoPlan struct {
	Repo         RepositoryRef
	Dependencies map[data.DependencyKey]data.DependencyRequest
	Actions      []actions.Action
}

func NewApplyPlan() *ApplyPlan {
	return &ApplyPlan{
		RepoPlans: make(map[int64]*RepoPlan),
	}
}

func (p *ApplyPlan) AddRepo(ctx context.Context, repo RepositoryRef, selected []actions.Action) error {
	if ctx == nil {
		return fmt.Errorf("context is nil")
	}
	if p == nil {
		return fmt.Errorf("apply plan is nil")
	}
	if p.RepoPlans == nil {
		return fmt.Errorf("apply plan is not initialized (RepoPlans is nil); use NewApplyPlan")
	}
	if repo.Repo == nil {
		return fmt.Errorf("repo object is nil for %s/%s (id=%d)", repo.Owner, repo.Name, repo.ID)
	}

	rp := &RepoPlan{
		Repo:         repo,
		Dependencies: make(map[data.DependencyKey]data.DependencyRequest),
		Actions:      selected,
	}

	for _, a := range selected {
		deps, err := a.Dependencies(ctx, repo.Repo)
		if err != nil {
			return fmt.Errorf("failed to get dependencies for action %s: %w", a.ID(), err)
		}

		for _, d := range deps {
			// Simple deduplication by key.
			if _, exists := rp.Dependencies[d]; !exists {
				rp.Dependencies[d] = data.DependencyRequest{Key: d}
			}
		}
	}

	p.RepoPlans[repo.ID] = rp
	return nil
}

// SortedDependencies returns the list of dependency keys sorted by priority (P0 first).
func (rp *RepoPlan) SortedDependencies() []data.DependencyKey {
	keys := make([]data.DependencyKey, 0, len(rp.Dependencies))
	for k := range rp.Dependencies {
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool {
		p1 := data.Priority(keys[i])
		p2 := data.Priority(keys[j])
		if p1 != p2 {
			return p1 < p2
		}
		return keys[i] < keys[j] // Stable sort for same priority
	})

	return keys
}
