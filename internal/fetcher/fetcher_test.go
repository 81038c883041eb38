package fetcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"repomender/internal/data"
	gh "repomender/internal/github"

	"github.com/google/go-github/v81/github"
)

// fakeDataFetcher counts how often its Fetch runs; tests use it to observe
// caching and single-flight behavior without HTTP.
type fakeDataFetcher struct {
	key     data.DependencyKey
	scope   data.FetchScope
	calls   atomic.Int32
	fetchFn func(ctx context.Context, repo *github.Repository, params map[string]string, f *Fetcher) (any, error)
}

func (d *fakeDataFetcher) Key() data.DependencyKey { return d.key }
func (d *fakeDataFetcher) Scope() data.FetchScope  { return d.scope }

func (d *fakeDataFetcher) Fetch(ctx context.Context, repo *github.Repository, params map[string]string, f *Fetcher) (any, error) {
	d.calls.Add(1)
	if d.fetchFn != nil {
		return d.fetchFn(ctx, repo, params, f)
	}
	return "value", nil
}

// The fetcher registry is process global, so every test registers under a
// unique key.
func registerFakeFetcher(t *testing.T, scope data.FetchScope, fn func(ctx context.Context, repo *github.Repository, params map[string]string, f *Fetcher) (any, error)) *fakeDataFetcher {
	t.Helper()
	df := &fakeDataFetcher{
		key:     data.DependencyKey(fmt.Sprintf("test.%s", t.Name())),
		scope:   scope,
		fetchFn: fn,
	}
	RegisterDataFetcher(df)
	return df
}

func newFakeFetcher(t *testing.T) *Fetcher {
	t.Helper()
	client, err := gh.NewClient(context.Background(), "")
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return NewFetcher(client, NewRequestBudget())
}

func fetchTestRepo() *github.Repository {
	return &github.Repository{
		Name:     github.Ptr("repo"),
		FullName: github.Ptr("acme/repo"),
		Owner:    &github.User{Login: github.Ptr("acme")},
	}
}

func TestFetch_CachesPerFlightKey(t *testing.T) {
	df := registerFakeFetcher(t, data.ScopeRepo, nil)
	f := newFakeFetcher(t)
	repo := fetchTestRepo()

	for i := 0; i < 3; i++ {
		val, err := f.Fetch(context.Background(), repo, df.key, nil)
		if err != nil {
			t.Fatalf("Fetch %d failed: %v", i, err)
		}
		if val != "value" {
			t.Fatalf("Fetch %d: want value, got %v", i, val)
		}
	}
	if got := df.calls.Load(); got != 1 {
		t.Errorf("want 1 underlying fetch, got %d", got)
	}
}

func TestFetch_ErrorsAreNotCached(t *testing.T) {
	fail := true
	df := registerFakeFetcher(t, data.ScopeRepo, func(context.Context, *github.Repository, map[string]string, *Fetcher) (any, error) {
		if fail {
			return nil, errors.New("transient")
		}
		return "ok", nil
	})
	f := newFakeFetcher(t)
	repo := fetchTestRepo()

	if _, err := f.Fetch(context.Background(), repo, df.key, nil); err == nil {
		t.Fatal("expected error")
	}
	fail = false
	val, err := f.Fetch(context.Background(), repo, df.key, nil)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if val != "ok" {
		t.Errorf("want ok, got %v", val)
	}
	if got := df.calls.Load(); got != 2 {
		t.Errorf("want 2 underlying fetches, got %d", got)
	}
}

func TestFetch_SingleFlightDedupesConcurrentCalls(t *testing.T) {
	release := make(chan struct{})
	df := registerFakeFetcher(t, data.ScopeRepo, func(context.Context, *github.Repository, map[string]string, *Fetcher) (any, error) {
		<-release
		return "shared", nil
	})
	f := newFakeFetcher(t)
	repo := fetchTestRepo()

	const callers = 5
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.Fetch(context.Background(), repo, df.key, nil)
		}(i)
	}
	// Let every caller join the in-flight request before it completes.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("caller %d failed: %v", i, err)
		}
	}
	if got := df.calls.Load(); got != 1 {
		t.Errorf("want 1 underlying fetch for concurrent identical requests, got %d", got)
	}
}

func TestFetch_UnsupportedKey(t *testing.T) {
	f := newFakeFetcher(t)
	if _, err := f.Fetch(context.Background(), fetchTestRepo(), "no.such.key", nil); err == nil {
		t.Error("expected error for unregistered dependency key")
	}
}

func TestFetch_Validation(t *testing.T) {
	df := registerFakeFetcher(t, data.ScopeRepo, nil)
	f := newFakeFetcher(t)

	if _, err := f.Fetch(context.Background(), nil, df.key, nil); err == nil {
		t.Error("expected error for nil repo")
	}
	if _, err := f.Fetch(context.Background(), fetchTestRepo(), "", nil); err == nil {
		t.Error("expected error for empty key")
	}
	if _, err := f.Fetch(context.Background(), &github.Repository{}, df.key, nil); err == nil {
		t.Error("expected error for repo without owner/name")
	}
}

func TestFetch_DetectsDependencyCycle(t *testing.T) {
	var df *fakeDataFetcher
	df = registerFakeFetcher(t, data.ScopeRepo, func(ctx context.Context, repo *github.Repository, _ map[string]string, f *Fetcher) (any, error) {
		// A provider fetching its own key must fail instead of recursing.
		return f.Fetch(ctx, repo, df.key, nil)
	})
	f := newFakeFetcher(t)

	_, err := f.Fetch(context.Background(), fetchTestRepo(), df.key, nil)
	if err == nil {
		t.Fatal("expected cycle error")
	}
}

func TestMakeFlightKey(t *testing.T) {
	repo := fetchTestRepo()

	repoKey, err := makeFlightKey(repo, data.ScopeRepo, "dep", map[string]string{"b": "2", "a": "1"})
	if err != nil {
		t.Fatalf("makeFlightKey failed: %v", err)
	}
	if repoKey != "acme/repo:dep:a=1&b=2" {
		t.Errorf("unexpected repo-scoped key: %s", repoKey)
	}

	orgKey, err := makeFlightKey(repo, data.ScopeOrg, "dep", nil)
	if err != nil {
		t.Fatalf("makeFlightKey failed: %v", err)
	}
	if orgKey != "acme:dep:" {
		t.Errorf("unexpected org-scoped key: %s", orgKey)
	}

	// Full-name casing is normalized so the same repository never occupies
	// two cache slots.
	upper := fetchTestRepo()
	upper.FullName = github.Ptr("Acme/Repo")
	upperKey, err := makeFlightKey(upper, data.ScopeRepo, "dep", nil)
	if err != nil {
		t.Fatalf("makeFlightKey failed: %v", err)
	}
	lowerKey, _ := makeFlightKey(repo, data.ScopeRepo, "dep", nil)
	if upperKey != lowerKey {
		t.Errorf("casing should not change the key: %s vs %s", upperKey, lowerKey)
	}

	if _, err := makeFlightKey(repo, "bogus", "dep", nil); err == nil {
		t.Error("expected error for unknown scope")
	}
	if _, err := makeFlightKey(&github.Repository{}, data.ScopeOrg, "dep", nil); err == nil {
		t.Error("expected error for org scope without owner")
	}
}

func TestStableParamsKey(t *testing.T) {
	if got := stableParamsKey(nil); got != "" {
		t.Errorf("want empty for nil params, got %q", got)
	}
	a := stableParamsKey(map[string]string{"x": "1", "y": "2", "z": "3"})
	b := stableParamsKey(map[string]string{"z": "3", "x": "1", "y": "2"})
	if a != b {
		t.Errorf("params key must be order independent: %q vs %q", a, b)
	}
	if a != "x=1&y=2&z=3" {
		t.Errorf("unexpected params key: %q", a)
	}
}
