package actions

import (
	"context"

	"repomender/internal/data"
	gh "repomender/internal/github"

	"github.com/google/go-github/v81/github"
)

// SkipListWrapper wraps an Action to provide automatic skip-list functionality.
type SkipListWrapper struct {
	Action
	skipList SkipList
}

// ID returns the inner action's ID.
func (w *SkipListWrapper) ID() string {
	return w.Action.ID()
}

// Title returns the inner action's Title.
func (w *SkipListWrapper) Title() string {
	return w.Action.Title()
}

// Description returns the inner action's Description.
func (w *SkipListWrapper) Description() string {
	return w.Action.Description()
}

// Dependencies returns the inner action's Dependencies.
func (w *SkipListWrapper) Dependencies(ctx context.Context, repo *github.Repository) ([]data.DependencyKey, error) {
	return w.Action.Dependencies(ctx, repo)
}

// Plan calls the inner action's Plan and then applies the skip-list logic.
func (w *SkipListWrapper) Plan(ctx context.Context, repo *github.Repository, dc data.DataContext) (Change, error) {
	change, err := w.Action.Plan(ctx, repo, dc)
	if err != nil {
		return change, err
	}
	return w.skipList.CheckChange(repo, change), nil
}

// Apply delegates to the inner action.
func (w *SkipListWrapper) Apply(ctx context.Context, repo *github.Repository, change Change, client *gh.Client) (Result, error) {
	return w.Action.Apply(ctx, repo, change, client)
}

// Options returns the combined options of the skip-list and the inner action (if configurable).
func (w *SkipListWrapper) Options() []Option {
	opts := w.skipList.Options()
	if ca, ok := w.Action.(ConfigurableAction); ok {
		opts = append(opts, ca.Options()...)
	}
	return opts
}

// Configure routes skip-list options to the skip-list and forwards everything
// else to the inner action (if configurable).
func (w *SkipListWrapper) Configure(opts map[string]string) error {
	w.skipList.Configure(opts)

	inner := make(map[string]string, len(opts))
	for k, v := range opts {
		switch k {
		case "skip.repos", "skip.patterns", "skip.topics":
			continue
		}
		inner[k] = v
	}
	if ca, ok := w.Action.(ConfigurableAction); ok {
		return ca.Configure(inner)
	}
	return nil
}
