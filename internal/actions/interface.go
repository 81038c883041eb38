package actions

import (
	"context"

	"repomender/internal/data"
	gh "repomender/internal/github"

	"github.com/google/go-github/v81/github"
)

// Action is an idempotent administration task applied per repository.
//
// The engine fetches the dependencies an action declares, asks the action to
// Plan against that snapshot, and only calls Apply when Plan reports a needed
// change (and the run is not a dry run).
type Action interface {
	ID() string
	Title() string
	Description() string

	// Dependencies declares required GitHub state for this repo.
	Dependencies(ctx context.Context, repo *github.Repository) ([]data.DependencyKey, error)

	// Plan decides whether a mutation is needed using only DataContext.
	// Plan MUST NOT call GitHub APIs.
	Plan(ctx context.Context, repo *github.Repository, dc data.DataContext) (Change, error)

	// Apply performs the planned mutation. It is only called when
	// Plan returned a needed, non-skipped Change.
	Apply(ctx context.Context, repo *github.Repository, change Change, client *gh.Client) (Result, error)
}

// Change is the outcome of planning one action against one repository.
type Change struct {
	// Needed reports whether the repository diverges from the desired state.
	Needed bool

	// Skipped marks the repository as out of scope for this action
	// (e.g. skip-listed, or the feature is not available on the repo).
	Skipped bool

	// Summary is a one-line human description of the pending mutation
	// (or of why nothing is needed).
	Summary string

	// Details contains simple key-value string pairs supporting the decision.
	Details map[string]string

	// Payload carries action-private data from Plan to Apply
	// (e.g. ruleset IDs to delete, the base branch for a new ref).
	Payload any
}

type Option struct {
	Name        string
	Description string
	Default     string
}

type ConfigurableAction interface {
	Action
	Options() []Option
	Configure(opts map[string]string) error
}
