package tasks

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"

	"repomender/internal/actions"
	"repomender/internal/data"

	"github.com/google/go-github/v81/github"
)

func TestRulesetDeleteAction_ConfigureRequiresName(t *testing.T) {
	a := &RulesetDeleteAction{}
	if err := a.Configure(map[string]string{}); err == nil {
		t.Fatal("expected error without a name")
	}
	if err := a.Configure(map[string]string{"name": "  "}); err == nil {
		t.Fatal("expected error for a blank name")
	}
	if err := a.Configure(map[string]string{"name": "old-protection"}); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
}

func TestRulesetDeleteAction_Plan(t *testing.T) {
	repo := testRepo()

	tests := []struct {
		name        string
		rulesets    []*github.RepositoryRuleset
		wantNeeded  bool
		wantSkipped bool
		wantIDs     []int64
	}{
		{
			name:     "no matching ruleset",
			rulesets: []*github.RepositoryRuleset{repoRuleset(1, "other")},
		},
		{
			name: "repo-owned matches are deleted",
			rulesets: []*github.RepositoryRuleset{
				repoRuleset(1, "old-protection"),
				repoRuleset(2, "old-protection"),
				repoRuleset(3, "keep-me"),
			},
			wantNeeded: true,
			wantIDs:    []int64{1, 2},
		},
		{
			name: "only inherited match is skipped",
			rulesets: []*github.RepositoryRuleset{
				orgRuleset(9, "old-protection"),
			},
			wantSkipped: true,
		},
		{
			name: "mixed ownership deletes only repo-owned",
			rulesets: []*github.RepositoryRuleset{
				orgRuleset(9, "old-protection"),
				repoRuleset(1, "old-protection"),
			},
			wantNeeded: true,
			wantIDs:    []int64{1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &RulesetDeleteAction{name: "old-protection"}
			dc := data.NewMapDataContext(map[data.DependencyKey]any{
				data.DepRepoRulesets: tt.rulesets,
			})
			change, err := a.Plan(context.Background(), repo, dc)
			if err != nil {
				t.Fatalf("Plan failed: %v", err)
			}
			if change.Needed != tt.wantNeeded || change.Skipped != tt.wantSkipped {
				t.Fatalf("want needed=%v skipped=%v, got %+v", tt.wantNeeded, tt.wantSkipped, change)
			}
			if tt.wantNeeded {
				ids, _ := change.Payload.([]int64)
				if len(ids) != len(tt.wantIDs) {
					t.Fatalf("want IDs %v, got %v", tt.wantIDs, ids)
				}
				for i := range tt.wantIDs {
					if ids[i] != tt.wantIDs[i] {
						t.Errorf("ID %d: want %d, got %d", i, tt.wantIDs[i], ids[i])
					}
				}
			}
		})
	}
}

func TestRulesetDeleteAction_PlanUnconfigured(t *testing.T) {
	a := &RulesetDeleteAction{}
	dc := data.NewMapDataContext(map[data.DependencyKey]any{
		data.DepRepoRulesets: []*github.RepositoryRuleset{},
	})
	if _, err := a.Plan(context.Background(), testRepo(), dc); err == nil {
		t.Fatal("expected error for unconfigured action")
	}
}

func TestRulesetDeleteAction_Apply(t *testing.T) {
	client, mux := newTestClient(t)
	repo := testRepo()

	var deleted atomic.Int32
	for _, id := range []string{"1", "2"} {
		mux.HandleFunc("/repos/acme/repo/rulesets/"+id, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodDelete {
				t.Errorf("want DELETE, got %s", r.Method)
			}
			deleted.Add(1)
			w.WriteHeader(http.StatusNoContent)
		})
	}

	a := &RulesetDeleteAction{name: "old-protection"}
	change := actions.Change{Needed: true, Payload: []int64{1, 2}}
	res, err := a.Apply(context.Background(), repo, change, client)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if res.Status != actions.StatusApplied {
		t.Errorf("want APPLIED, got %s", res.Status)
	}
	if deleted.Load() != 2 {
		t.Errorf("want 2 deletes, got %d", deleted.Load())
	}
	if res.Evidence["deleted"] != "2" {
		t.Errorf("unexpected evidence: %v", res.Evidence)
	}
}
