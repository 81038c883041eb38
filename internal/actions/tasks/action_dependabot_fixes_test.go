package tasks

import (
	"context"
	"net/http"
	"testing"

	"repomender/internal/actions"
	"repomender/internal/data"

	"github.com/google/go-github/v81/github"
)

func TestDependabotFixesAction_Plan(t *testing.T) {
	repo := testRepo()

	tests := []struct {
		name       string
		enabled    bool
		fixes      *github.AutomatedSecurityFixes
		wantNeeded bool
		wantPaused string
	}{
		{
			name:    "already enabled",
			enabled: true,
			fixes:   &github.AutomatedSecurityFixes{Enabled: github.Ptr(true)},
		},
		{
			name:       "enable needed",
			enabled:    true,
			fixes:      &github.AutomatedSecurityFixes{Enabled: github.Ptr(false)},
			wantNeeded: true,
			wantPaused: "false",
		},
		{
			name:       "disable needed with paused detail",
			enabled:    false,
			fixes:      &github.AutomatedSecurityFixes{Enabled: github.Ptr(true), Paused: github.Ptr(true)},
			wantNeeded: true,
			wantPaused: "true",
		},
		{
			name:    "setting unreadable, nothing to disable",
			enabled: false,
			fixes:   nil,
		},
		{
			name:       "setting unreadable, enable still planned",
			enabled:    true,
			fixes:      nil,
			wantNeeded: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &DependabotFixesAction{enabled: tt.enabled}
			dc := data.NewMapDataContext(map[data.DependencyKey]any{
				data.DepRepoAutomatedSecurityFixes: tt.fixes,
			})
			change, err := a.Plan(context.Background(), repo, dc)
			if err != nil {
				t.Fatalf("Plan failed: %v", err)
			}
			if change.Needed != tt.wantNeeded {
				t.Fatalf("want needed=%v, got %+v", tt.wantNeeded, change)
			}
			if tt.wantPaused != "" && change.Details["paused"] != tt.wantPaused {
				t.Errorf("paused detail = %q, want %q", change.Details["paused"], tt.wantPaused)
			}
		})
	}
}

func TestDependabotFixesAction_Apply(t *testing.T) {
	client, mux := newTestClient(t)
	var method string
	mux.HandleFunc("/repos/acme/repo/automated-security-fixes", func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		w.WriteHeader(http.StatusNoContent)
	})

	a := &DependabotFixesAction{enabled: true}
	res, err := a.Apply(context.Background(), testRepo(), actions.Change{Needed: true}, client)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if res.Status != actions.StatusApplied {
		t.Errorf("want APPLIED, got %s", res.Status)
	}
	if method != http.MethodPut {
		t.Errorf("want PUT, got %s", method)
	}

	a = &DependabotFixesAction{enabled: false}
	if _, err := a.Apply(context.Background(), testRepo(), actions.Change{Needed: true}, client); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if method != http.MethodDelete {
		t.Errorf("want DELETE, got %s", method)
	}
}
