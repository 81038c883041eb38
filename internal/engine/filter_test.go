package engine

import (
	"strings"
	"testing"

	"repomender/internal/config"

	"github.com/google/go-github/v81/github"
)

func makeRef(id int64, fullName string, mutate func(*github.Repository)) RepositoryRef {
	owner, name, ok := strings.Cut(fullName, "/")
	if !ok {
		owner, name = fullName, fullName
	}
	repo := &github.Repository{
		ID:       github.Ptr(id),
		Name:     github.Ptr(name),
		FullName: github.Ptr(fullName),
		Owner:    &github.User{Login: github.Ptr(owner)},
	}
	if mutate != nil {
		mutate(repo)
	}
	return RepositoryRef{Owner: owner, Name: name, ID: id, Repo: repo}
}

func refNames(refs []RepositoryRef) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.Repo.GetFullName())
	}
	return out
}

func TestFilterRepos(t *testing.T) {
	repos := []RepositoryRef{
		makeRef(1, "acme/api", func(r *github.Repository) {
			r.Visibility = github.Ptr("public")
			r.Topics = []string{"platform"}
		}),
		makeRef(2, "acme/internal-tool", func(r *github.Repository) {
			r.Visibility = github.Ptr("private")
		}),
		makeRef(3, "acme/archived-svc", func(r *github.Repository) {
			r.Visibility = github.Ptr("public")
			r.Archived = github.Ptr(true)
		}),
		makeRef(4, "acme/forked-lib", func(r *github.Repository) {
			r.Visibility = github.Ptr("public")
			r.Fork = github.Ptr(true)
		}),
	}

	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   []string
	}{
		{
			name:   "defaults exclude archived and forks",
			mutate: func(c *config.Config) {},
			want:   []string{"acme/api", "acme/internal-tool"},
		},
		{
			name: "visibility private",
			mutate: func(c *config.Config) {
				c.Targeting.Visibility = "private"
			},
			want: []string{"acme/internal-tool"},
		},
		{
			name: "archived only",
			mutate: func(c *config.Config) {
				c.Targeting.Archived = "only"
			},
			want: []string{"acme/archived-svc"},
		},
		{
			name: "forks include",
			mutate: func(c *config.Config) {
				c.Targeting.Forks = "include"
			},
			want: []string{"acme/api", "acme/internal-tool", "acme/forked-lib"},
		},
		{
			name: "topic filter",
			mutate: func(c *config.Config) {
				c.Targeting.Topic = []string{"platform"}
			},
			want: []string{"acme/api"},
		},
		{
			name: "include pattern on repo name",
			mutate: func(c *config.Config) {
				c.Targeting.Include = []string{"internal-*"}
			},
			want: []string{"acme/internal-tool"},
		},
		{
			name: "include pattern with owner matches full name",
			mutate: func(c *config.Config) {
				c.Targeting.Include = []string{"acme/a*"}
			},
			want: []string{"acme/api"},
		},
		{
			name: "exclude pattern",
			mutate: func(c *config.Config) {
				c.Targeting.Exclude = []string{"internal-*"}
			},
			want: []string{"acme/api"},
		},
		{
			name: "max repos truncates",
			mutate: func(c *config.Config) {
				c.Targeting.MaxRepos = 1
			},
			want: []string{"acme/api"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New()
			tt.mutate(cfg)
			got := refNames(FilterRepos(repos, cfg))
			if len(got) != len(tt.want) {
				t.Fatalf("want %v, got %v", tt.want, got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("repo %d: want %q, got %q", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestRepoVisibility_FallsBackToPrivateFlag(t *testing.T) {
	private := makeRef(1, "acme/a", func(r *github.Repository) { r.Private = github.Ptr(true) })
	public := makeRef(2, "acme/b", nil)
	if v := repoVisibility(private); v != "private" {
		t.Errorf("want private, got %q", v)
	}
	if v := repoVisibility(public); v != "public" {
		t.Errorf("want public, got %q", v)
	}
}

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		pattern  string
		fullName string
		repoName string
		want     bool
	}{
		{"*-service", "acme/pay-service", "pay-service", true},
		{"*-service", "acme/payd", "payd", false},
		{"acme/*", "acme/pay-service", "pay-service", true},
		{"other/*", "acme/pay-service", "pay-service", false},
		{"", "acme/pay-service", "pay-service", false},
	}
	for _, tt := range tests {
		if got := matchPattern(tt.pattern, tt.fullName, tt.repoName); got != tt.want {
			t.Errorf("matchPattern(%q, %q, %q) = %v, want %v", tt.pattern, tt.fullName, tt.repoName, got, tt.want)
		}
	}
}
