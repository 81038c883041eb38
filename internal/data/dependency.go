package data

// DependencyKey uniquely identifies a piece of GitHub-derived repository state
// that actions plan against.
type DependencyKey string

// DependencyRequest represents a request for a specific dependency with optional parameters.
type DependencyRequest struct {
	Key    DependencyKey
	Params map[string]string
}

// FetchScope describes the cache scope of a dependency fetch.
//
// Repo-scoped fetches are keyed per repository; org-scoped fetches are shared
// by every repository of the same owner.
type FetchScope string

const (
	ScopeRepo FetchScope = "repo"
	ScopeOrg  FetchScope = "org"
)
