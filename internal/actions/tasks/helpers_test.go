package tasks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	gh "repomender/internal/github"

	"github.com/google/go-github/v81/github"
)

func testRepo() *github.Repository {
	return &github.Repository{
		ID:            github.Ptr(int64(1)),
		Name:          github.Ptr("repo"),
		FullName:      github.Ptr("acme/repo"),
		DefaultBranch: github.Ptr("main"),
		Owner:         &github.User{Login: github.Ptr("acme")},
	}
}

func newTestClient(t *testing.T) (*gh.Client, *http.ServeMux) {
	t.Helper()
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := gh.NewClient(context.Background(), "dummy")
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	base, err := url.Parse(server.URL + "/")
	if err != nil {
		t.Fatalf("url.Parse failed: %v", err)
	}
	client.Client.BaseURL = base
	client.Client.UploadURL = base
	return client, mux
}
