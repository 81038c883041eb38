package config

import (
	"strings"
	"testing"
)

func TestValidate_Targeting(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "no targeting at all",
			mutate:  func(c *Config) {},
			wantErr: "at least one of",
		},
		{
			name: "org only is valid",
			mutate: func(c *Config) {
				c.Targeting.Org = "acme"
			},
		},
		{
			name: "user only is valid",
			mutate: func(c *Config) {
				c.Targeting.User = "octocat"
			},
		},
		{
			name: "repos only is valid",
			mutate: func(c *Config) {
				c.Targeting.Repos = []string{"acme/foo"}
			},
		},
		{
			name: "org and user are mutually exclusive",
			mutate: func(c *Config) {
				c.Targeting.Org = "acme"
				c.Targeting.User = "octocat"
			},
			wantErr: "mutually exclusive",
		},
		{
			name: "org URL form is normalized",
			mutate: func(c *Config) {
				c.Targeting.Org = "https://github.com/orgs/acme"
			},
		},
		{
			name: "repo-like org value is rejected",
			mutate: func(c *Config) {
				c.Targeting.Org = "acme/foo"
			},
			wantErr: "invalid --org",
		},
		{
			name: "bad visibility",
			mutate: func(c *Config) {
				c.Targeting.Org = "acme"
				c.Targeting.Visibility = "secret"
			},
			wantErr: "unsupported --visibility",
		},
		{
			name: "bad archived policy",
			mutate: func(c *Config) {
				c.Targeting.Org = "acme"
				c.Targeting.Archived = "maybe"
			},
			wantErr: "unsupported --archived",
		},
		{
			name: "negative max repos",
			mutate: func(c *Config) {
				c.Targeting.Org = "acme"
				c.Targeting.MaxRepos = -1
			},
			wantErr: "--max-repos",
		},
		{
			name: "zero concurrency",
			mutate: func(c *Config) {
				c.Targeting.Org = "acme"
				c.Runtime.Concurrency = 0
			},
			wantErr: "--concurrency",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate failed: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidate_NormalizesAccountSelectors(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"acme", "acme"},
		{"https://github.com/acme", "acme"},
		{"https://github.com/orgs/acme", "acme"},
		{"https://github.com/users/octocat", "octocat"},
		{"github.com/acme", "acme"},
		{"www.github.com/acme", "acme"},
	}

	for _, tt := range tests {
		cfg := New()
		cfg.Targeting.Org = tt.in
		if err := cfg.Validate(); err != nil {
			t.Fatalf("Validate(%q) failed: %v", tt.in, err)
		}
		if cfg.Targeting.Org != tt.want {
			t.Errorf("org %q: want %q, got %q", tt.in, tt.want, cfg.Targeting.Org)
		}
	}
}

func TestValidate_SplitsCommaLists(t *testing.T) {
	cfg := New()
	cfg.Targeting.Repos = []string{"acme/foo,acme/bar", " acme/baz "}
	cfg.Targeting.Topic = []string{"infra, platform"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if len(cfg.Targeting.Repos) != 3 || cfg.Targeting.Repos[2] != "acme/baz" {
		t.Errorf("unexpected repos: %v", cfg.Targeting.Repos)
	}
	if len(cfg.Targeting.Topic) != 2 || cfg.Targeting.Topic[1] != "platform" {
		t.Errorf("unexpected topics: %v", cfg.Targeting.Topic)
	}
}

func TestValidate_KeepsSetEntriesWhole(t *testing.T) {
	cfg := New()
	cfg.Targeting.Org = "acme"
	cfg.Actions.Set = []string{"codeql-default-setup.languages=go,python"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if len(cfg.Actions.Set) != 1 || cfg.Actions.Set[0] != "codeql-default-setup.languages=go,python" {
		t.Errorf("--set entry was split: %v", cfg.Actions.Set)
	}
}

func TestValidate_ConsoleFilterStatus(t *testing.T) {
	t.Run("normalizes known statuses", func(t *testing.T) {
		cfg := New()
		cfg.Targeting.Org = "acme"
		cfg.Output.ConsoleFilterStatus = []string{"error, planned", "Applied"}
		if err := cfg.Validate(); err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		want := []string{"ERROR", "PLANNED", "APPLIED"}
		if len(cfg.Output.ConsoleFilterStatus) != len(want) {
			t.Fatalf("want %v, got %v", want, cfg.Output.ConsoleFilterStatus)
		}
		for i := range want {
			if cfg.Output.ConsoleFilterStatus[i] != want[i] {
				t.Errorf("status %d: want %q, got %q", i, want[i], cfg.Output.ConsoleFilterStatus[i])
			}
		}
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		cfg := New()
		cfg.Targeting.Org = "acme"
		cfg.Output.ConsoleFilterStatus = []string{"APLIED"}
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "--console-filter-status") {
			t.Fatalf("expected console-filter-status error, got %v", err)
		}
	})
}

func TestValidate_OutFormatInference(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		format  string
		want    string
		wantErr bool
	}{
		{name: "json extension", out: "results.json", want: "json"},
		{name: "ndjson extension", out: "results.ndjson", want: "ndjson"},
		{name: "explicit format wins", out: "results.dat", format: "ndjson", want: "ndjson"},
		{name: "unknown extension", out: "results.dat", wantErr: true},
		{name: "missing extension", out: "results", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			cfg.Targeting.Org = "acme"
			cfg.Output.Out = tt.out
			cfg.Output.OutFormat = tt.format
			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate failed: %v", err)
			}
			if cfg.Output.OutFormat != tt.want {
				t.Errorf("want out format %q, got %q", tt.want, cfg.Output.OutFormat)
			}
		})
	}
}

func TestApplyEnvDefaults(t *testing.T) {
	env := func(m map[string]string) func(string) string {
		return func(k string) string { return m[k] }
	}

	t.Run("OWNER sets org when no account given", func(t *testing.T) {
		cfg := New()
		if err := cfg.ApplyEnvDefaults(env(map[string]string{"OWNER": "acme"})); err != nil {
			t.Fatalf("ApplyEnvDefaults failed: %v", err)
		}
		if cfg.Targeting.Org != "acme" {
			t.Errorf("want org acme, got %q", cfg.Targeting.Org)
		}
	})

	t.Run("flags win over OWNER", func(t *testing.T) {
		cfg := New()
		cfg.Targeting.User = "octocat"
		if err := cfg.ApplyEnvDefaults(env(map[string]string{"OWNER": "acme"})); err != nil {
			t.Fatalf("ApplyEnvDefaults failed: %v", err)
		}
		if cfg.Targeting.Org != "" {
			t.Errorf("org should stay empty, got %q", cfg.Targeting.Org)
		}
	})

	t.Run("REPOS resolves bare names against OWNER", func(t *testing.T) {
		cfg := New()
		err := cfg.ApplyEnvDefaults(env(map[string]string{
			"OWNER": "acme",
			"REPOS": "foo bar,other/baz",
		}))
		if err != nil {
			t.Fatalf("ApplyEnvDefaults failed: %v", err)
		}
		want := []string{"acme/foo", "acme/bar", "other/baz"}
		if len(cfg.Targeting.Repos) != len(want) {
			t.Fatalf("want %v, got %v", want, cfg.Targeting.Repos)
		}
		for i := range want {
			if cfg.Targeting.Repos[i] != want[i] {
				t.Errorf("repo %d: want %q, got %q", i, want[i], cfg.Targeting.Repos[i])
			}
		}
		// An explicit repo list replaces whole-account discovery.
		if cfg.Targeting.Org != "" {
			t.Errorf("org should be cleared when REPOS is given, got %q", cfg.Targeting.Org)
		}
	})

	t.Run("bare REPOS entry without OWNER is an error", func(t *testing.T) {
		cfg := New()
		err := cfg.ApplyEnvDefaults(env(map[string]string{"REPOS": "foo"}))
		if err == nil {
			t.Fatal("expected error, got nil")
		}
	})

	t.Run("INCLUDE_PRIVATE_REPOS narrows visibility when false", func(t *testing.T) {
		cfg := New()
		err := cfg.ApplyEnvDefaults(env(map[string]string{
			"OWNER":                 "acme",
			"INCLUDE_PRIVATE_REPOS": "false",
		}))
		if err != nil {
			t.Fatalf("ApplyEnvDefaults failed: %v", err)
		}
		if cfg.Targeting.Visibility != "public" {
			t.Errorf("want visibility public, got %q", cfg.Targeting.Visibility)
		}
	})

	t.Run("explicit visibility wins over INCLUDE_PRIVATE_REPOS", func(t *testing.T) {
		cfg := New()
		cfg.Targeting.Visibility = "private"
		err := cfg.ApplyEnvDefaults(env(map[string]string{
			"OWNER":                 "acme",
			"INCLUDE_PRIVATE_REPOS": "true",
		}))
		if err != nil {
			t.Fatalf("ApplyEnvDefaults failed: %v", err)
		}
		if cfg.Targeting.Visibility != "private" {
			t.Errorf("explicit visibility was clobbered, got %q", cfg.Targeting.Visibility)
		}
	})

	t.Run("invalid INCLUDE_PRIVATE_REPOS", func(t *testing.T) {
		cfg := New()
		err := cfg.ApplyEnvDefaults(env(map[string]string{"INCLUDE_PRIVATE_REPOS": "sometimes"}))
		if err == nil {
			t.Fatal("expected error, got nil")
		}
	})
}

func TestParseActionOptionAssignments(t *testing.T) {
	t.Run("valid entries", func(t *testing.T) {
		got, err := ParseActionOptionAssignments([]string{
			"branch-ensure.branch=develop",
			"ruleset-ensure.approvals=2",
			"ruleset-ensure.name=protect",
			"branch-ensure.from=",
		})
		if err != nil {
			t.Fatalf("ParseActionOptionAssignments failed: %v", err)
		}
		if got["branch-ensure"]["branch"] != "develop" {
			t.Errorf("unexpected branch value: %v", got)
		}
		if got["ruleset-ensure"]["approvals"] != "2" || got["ruleset-ensure"]["name"] != "protect" {
			t.Errorf("unexpected ruleset-ensure options: %v", got)
		}
		if v, ok := got["branch-ensure"]["from"]; !ok || v != "" {
			t.Errorf("empty value should be preserved, got %v", got)
		}
	})

	t.Run("comma-separated list values stay whole", func(t *testing.T) {
		got, err := ParseActionOptionAssignments([]string{
			"codeql-default-setup.languages=go,python",
			"skip.repos=acme/api,acme/web",
		})
		if err != nil {
			t.Fatalf("ParseActionOptionAssignments failed: %v", err)
		}
		if got["codeql-default-setup"]["languages"] != "go,python" {
			t.Errorf("languages value was split: %v", got)
		}
		if got["skip"]["repos"] != "acme/api,acme/web" {
			t.Errorf("skip.repos value was split: %v", got)
		}
	})

	t.Run("blank entries are ignored", func(t *testing.T) {
		got, err := ParseActionOptionAssignments([]string{"", "  ", "branch-ensure.branch=develop"})
		if err != nil {
			t.Fatalf("ParseActionOptionAssignments failed: %v", err)
		}
		if len(got) != 1 {
			t.Errorf("want 1 action, got %v", got)
		}
	})

	invalid := []string{
		"no-equals",
		"missingdot=value",
		".option=value",
		"action.=value",
	}
	for _, raw := range invalid {
		if _, err := ParseActionOptionAssignments([]string{raw}); err == nil {
			t.Errorf("expected error for %q, got nil", raw)
		}
	}
}
