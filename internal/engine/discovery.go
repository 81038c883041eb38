package engine

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"repomender/internal/config"
	gh "repomender/internal/github"

	"github.com/google/go-github/v81/github"
)

const defaultDiscoveryRepoLimit = 1000

type RepositoryRef struct {
	Owner string
	Name  string
	ID    int64
	Repo  *github.Repository // Keep the full object if we have it
}

// ResolveRepos turns the targeting config into a concrete repository list.
//
// Scopes, checked in order:
//   - org: enumerate the organization's repositories, optionally filtered by
//     --repos selectors acting as include-filters
//   - user: enumerate the user's repositories (same --repos semantics)
//   - explicit repos: resolve each OWNER/REPO individually
//
// Account selectors are normalized by config.Validate before this runs.
func ResolveRepos(ctx context.Context, client *gh.Client, cfg *config.Config) ([]RepositoryRef, error) {
	if cfg.Targeting.Org != "" {
		refs, err := listOrgRepoRefs(ctx, client, cfg.Targeting.Org, computeRepoLimit(cfg))
		if err != nil {
			return nil, err
		}
		refs, err = filterRefsByRepoSelectors(refs, cfg.Targeting.Repos)
		if err != nil {
			return nil, err
		}
		return dedupeRefs(refs), nil
	}

	if cfg.Targeting.User != "" {
		refs, err := listUserRepoRefs(ctx, client, cfg.Targeting.User, computeRepoLimit(cfg))
		if err != nil {
			return nil, err
		}
		refs, err = filterRefsByRepoSelectors(refs, cfg.Targeting.Repos)
		if err != nil {
			return nil, err
		}
		return dedupeRefs(refs), nil
	}

	if len(cfg.Targeting.Repos) > 0 {
		refs, err := resolveExplicitRepoRefs(ctx, client, cfg.Targeting.Repos)
		if err != nil {
			return nil, err
		}
		return dedupeRefs(refs), nil
	}

	return nil, nil
}

func computeRepoLimit(cfg *config.Config) int {
	limit := defaultDiscoveryRepoLimit
	if cfg.Targeting.MaxRepos > 0 {
		limit = cfg.Targeting.MaxRepos
	}
	if limit < 1 {
		limit = 1
	}
	return limit
}

func listOrgRepoRefs(ctx context.Context, client *gh.Client, org string, limit int) ([]RepositoryRef, error) {
	refs := make([]RepositoryRef, 0, min(limit, 100))

	opts := &github.RepositoryListByOrgOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}
	for {
		repos, resp, err := client.Client.Repositories.ListByOrg(ctx, org, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list org repos: %w", err)
		}
		for _, repo := range repos {
			if len(refs) >= limit {
				break
			}
			refs = append(refs, RepositoryRef{
				Owner: repo.GetOwner().GetLogin(),
				Name:  repo.GetName(),
				ID:    repo.GetID(),
				Repo:  repo,
			})
		}
		if len(refs) >= limit {
			break
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return refs, nil
}

func listUserRepoRefs(ctx context.Context, client *gh.Client, user string, limit int) ([]RepositoryRef, error) {
	// If the requested user matches the authenticated token owner, use the
	// authenticated endpoint so private repos can be included.
	useAuthed := false
	if me, _, err := client.Client.Users.Get(ctx, ""); err == nil {
		if strings.EqualFold(me.GetLogin(), user) {
			useAuthed = true
		}
	}
	if useAuthed {
		return listAuthenticatedUserRepoRefs(ctx, client, limit)
	}
	return listPublicUserRepoRefs(ctx, client, user, limit)
}

func listAuthenticatedUserRepoRefs(ctx context.Context, client *gh.Client, limit int) ([]RepositoryRef, error) {
	refs := make([]RepositoryRef, 0, min(limit, 100))

	opts := &github.RepositoryListByAuthenticatedUserOptions{
		ListOptions: github.ListOptions{PerPage: 100},
		Visibility:  "all",
		Affiliation: "owner",
	}
	for {
		repos, resp, err := client.Client.Repositories.ListByAuthenticatedUser(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list authenticated user repos: %w", err)
		}
		for _, repo := range repos {
			if len(refs) >= limit {
				break
			}
			refs = append(refs, RepositoryRef{
				Owner: repo.GetOwner().GetLogin(),
				Name:  repo.GetName(),
				ID:    repo.GetID(),
				Repo:  repo,
			})
		}
		if len(refs) >= limit {
			break
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return refs, nil
}

func listPublicUserRepoRefs(ctx context.Context, client *gh.Client, user string, limit int) ([]RepositoryRef, error) {
	refs := make([]RepositoryRef, 0, min(limit, 100))

	opts := &github.RepositoryListByUserOptions{
		ListOptions: github.ListOptions{PerPage: 100},
		Type:        "all",
	}
	for {
		repos, resp, err := client.Client.Repositories.ListByUser(ctx, user, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list user repos: %w", err)
		}
		for _, repo := range repos {
			if len(refs) >= limit {
				break
			}
			refs = append(refs, RepositoryRef{
				Owner: repo.GetOwner().GetLogin(),
				Name:  repo.GetName(),
				ID:    repo.GetID(),
				Repo:  repo,
			})
		}
		if len(refs) >= limit {
			break
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return refs, nil
}

func filterRefsByRepoSelectors(refs []RepositoryRef, selectors []string) ([]RepositoryRef, error) {
	if len(selectors) == 0 {
		return refs, nil
	}

	patterns := make([]string, 0, len(selectors))
	for _, sel := range selectors {
		sel = strings.TrimSpace(sel)
		if sel == "" {
			continue
		}
		if !hasGlobChars(sel) {
			norm, err := normalizeRepoSelector(sel)
			if err != nil {
				return nil, err
			}
			sel = norm
		}
		patterns = append(patterns, sel)
	}
	if len(patterns) == 0 {
		return refs, nil
	}

	filtered := make([]RepositoryRef, 0, len(refs))
	for _, r := range refs {
		fullName := r.Repo.GetFullName()
		repoName := r.Repo.GetName()
		matched := false
		for _, p := range patterns {
			if matchPattern(p, fullName, repoName) {
				matched = true
				break
			}
		}
		if matched {
			filtered = append(filtered, r)
		}
	}

	return filtered, nil
}

func resolveExplicitRepoRefs(ctx context.Context, client *gh.Client, selectors []string) ([]RepositoryRef, error) {
	refs := make([]RepositoryRef, 0, len(selectors))

	for _, raw := range selectors {
		sel := strings.TrimSpace(raw)
		if sel == "" {
			continue
		}
		norm, err := normalizeRepoSelector(sel)
		if err != nil {
			return nil, err
		}
		sel = norm
		if hasGlobChars(sel) {
			return nil, fmt.Errorf("repo selector %q contains glob characters; use --org or --user to enumerate candidates", sel)
		}
		owner, name, err := splitOwnerRepo(sel)
		if err != nil {
			return nil, err
		}
		repo, _, err := client.Client.Repositories.Get(ctx, owner, name)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve repo %s: %w", sel, err)
		}
		refs = append(refs, RepositoryRef{
			Owner: repo.GetOwner().GetLogin(),
			Name:  repo.GetName(),
			ID:    repo.GetID(),
			Repo:  repo,
		})
	}

	return refs, nil
}

func splitOwnerRepo(sel string) (owner string, name string, err error) {
	parts := strings.Split(sel, "/")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid repo selector %q; expected owner/name", sel)
	}
	if parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo selector %q; expected owner/name", sel)
	}
	return parts[0], parts[1], nil
}

func hasGlobChars(s string) bool {
	return strings.ContainsAny(s, "*?[")
}

func normalizeRepoSelector(sel string) (string, error) {
	sel = strings.TrimSpace(sel)
	if sel == "" {
		return sel, nil
	}

	// Common URL forms:
	// - https://github.com/owner/repo
	// - https://github.com/owner/repo.git
	// - https://github.com/owner/repo/tree/main (we take owner/repo)
	// - github.com/owner/repo
	// - git@github.com:owner/repo.git

	if strings.HasPrefix(sel, "github.com/") || strings.HasPrefix(sel, "www.github.com/") {
		sel = "https://" + sel
	}

	if strings.HasPrefix(sel, "git@github.com:") {
		rest := strings.TrimPrefix(sel, "git@github.com:")
		rest = strings.Trim(rest, "/")
		parts := strings.Split(rest, "/")
		if len(parts) < 2 {
			return "", fmt.Errorf("invalid repo selector %q; expected owner/name", sel)
		}
		owner := parts[0]
		repo := strings.TrimSuffix(parts[1], ".git")
		if owner == "" || repo == "" {
			return "", fmt.Errorf("invalid repo selector %q; expected owner/name", sel)
		}
		return owner + "/" + repo, nil
	}

	if strings.HasPrefix(sel, "http://") || strings.HasPrefix(sel, "https://") || strings.HasPrefix(sel, "git://") {
		u, err := url.Parse(sel)
		if err != nil {
			return "", fmt.Errorf("invalid repo selector %q; expected owner/name", sel)
		}

		host := strings.ToLower(u.Hostname())
		if host == "www.github.com" {
			host = "github.com"
		}
		if host != "github.com" {
			// Only GitHub URLs are supported here; let non-GitHub URLs fail fast.
			return "", fmt.Errorf("invalid repo selector %q; expected owner/name", sel)
		}

		path := strings.Trim(u.Path, "/")
		parts := strings.Split(path, "/")
		if len(parts) < 2 {
			return "", fmt.Errorf("invalid repo selector %q; expected owner/name", sel)
		}

		owner := parts[0]
		repo := strings.TrimSuffix(parts[1], ".git")
		if owner == "" || repo == "" {
			return "", fmt.Errorf("invalid repo selector %q; expected owner/name", sel)
		}
		return owner + "/" + repo, nil
	}

	return sel, nil
}

func dedupeRefs(in []RepositoryRef) []RepositoryRef {
	if len(in) <= 1 {
		return in
	}

	seen := make(map[string]struct{}, len(in))
	out := make([]RepositoryRef, 0, len(in))
	for _, r := range in {
		key := ""
		if r.ID != 0 {
			key = "id:" + strconv.FormatInt(r.ID, 10)
		} else if r.Repo != nil {
			key = "full:" + r.Repo.GetFullName()
		} else if r.Owner != "" && r.Name != "" {
			key = "full:" + r.Owner + "/" + r.Name
		}
		if key == "" {
			// If we can't construct a stable key, keep the entry.
			out = append(out, r)
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}
