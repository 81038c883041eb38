package engine

import "repomender/internal/data"

// RepoExecutionResult represents the outcome of fetching all planned
// dependencies for a single repository.
//
// It is emitted by the scheduler and consumed by the engine, which plans and
// applies actions from it. Fetches run concurrently across repos; the
// consuming side applies mutations one repo at a time.
type RepoExecutionResult struct {
	RepoID  int64
	Data    data.DataContext
	DepErrs map[data.DependencyKey]error
}
