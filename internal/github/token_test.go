package github

import (
	"context"
	"testing"
)

func TestResolveAuthToken_ExplicitWins(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "env-token")

	tok, source, err := ResolveAuthToken(context.Background(), "  explicit-token  ")
	if err != nil {
		t.Fatalf("ResolveAuthToken failed: %v", err)
	}
	if tok != "explicit-token" {
		t.Errorf("want trimmed explicit token, got %q", tok)
	}
	if source != AuthTokenSourceExplicit {
		t.Errorf("want explicit source, got %s", source)
	}
}

func TestResolveAuthToken_EnvFallback(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "env-token")

	tok, source, err := ResolveAuthToken(context.Background(), "")
	if err != nil {
		t.Fatalf("ResolveAuthToken failed: %v", err)
	}
	if tok != "env-token" {
		t.Errorf("want env token, got %q", tok)
	}
	if source != AuthTokenSourceEnv {
		t.Errorf("want env source, got %s", source)
	}
}

func TestResolveAuthToken_BlankEnvIsIgnored(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "   ")
	t.Setenv("PATH", t.TempDir()) // no gh binary reachable

	tok, source, err := ResolveAuthToken(context.Background(), "")
	if err != nil {
		t.Fatalf("ResolveAuthToken failed: %v", err)
	}
	if tok != "" || source != "" {
		t.Errorf("want no token without any source, got %q from %q", tok, source)
	}
}
