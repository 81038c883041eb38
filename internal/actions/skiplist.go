package actions

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/go-github/v81/github"
)

// SkipList handles common skip-listing logic for actions.
// It supports skipping by repository name (exact match), glob pattern, and topics.
// A matched repository is left untouched and reported as SKIPPED.
type SkipList struct {
	Repos    map[string]bool
	Patterns []string
	Topics   []string
}

// Options returns the standard configuration options for skip-listing.
func (s *SkipList) Options() []Option {
	return []Option{
		{
			Name:        "skip.repos",
			Description: "Comma-separated list of repositories to leave untouched (OWNER/REPO).",
		},
		{
			Name:        "skip.patterns",
			Description: "Comma-separated list of wildcard patterns for repositories to leave untouched (e.g. acme/legacy-*).",
		},
		{
			Name:        "skip.topics",
			Description: "Comma-separated list of topics. A repository with any of these topics is left untouched.",
		},
	}
}

// Configure parses the configuration options to populate the SkipList.
func (s *SkipList) Configure(opts map[string]string) {
	s.Repos = make(map[string]bool)
	s.Patterns = nil
	s.Topics = nil

	if val, ok := opts["skip.repos"]; ok && val != "" {
		for _, v := range strings.Split(val, ",") {
			v = strings.TrimSpace(v)
			if v != "" {
				s.Repos[strings.ToLower(v)] = true
			}
		}
	}

	if val, ok := opts["skip.patterns"]; ok && val != "" {
		for _, v := range strings.Split(val, ",") {
			v = strings.TrimSpace(v)
			if v != "" {
				// Patterns are lowercased to support case-insensitive matching.
				s.Patterns = append(s.Patterns, strings.ToLower(v))
			}
		}
	}

	if val, ok := opts["skip.topics"]; ok && val != "" {
		for _, v := range strings.Split(val, ",") {
			v = strings.TrimSpace(v)
			if v != "" {
				s.Topics = append(s.Topics, strings.ToLower(v))
			}
		}
	}
}

// Matches checks if the repository is matched by any of the configured rules.
// It returns true and a reason string if matched, otherwise false and empty string.
func (s *SkipList) Matches(repo *github.Repository) (bool, string) {
	if repo == nil {
		return false, ""
	}

	fullName := strings.ToLower(repo.GetFullName())

	if s.Repos[fullName] {
		return true, "skip.repos"
	}

	for _, pattern := range s.Patterns {
		if matched, _ := path.Match(pattern, fullName); matched {
			return true, "skip.patterns"
		}
	}

	if len(s.Topics) > 0 {
		for _, rt := range repo.Topics {
			rtLower := strings.ToLower(rt)
			for _, st := range s.Topics {
				if rtLower == st {
					return true, "skip.topics"
				}
			}
		}
	}

	return false, ""
}

// CheckChange applies the skip-list to a planned change.
// A needed change on a skip-listed repository is converted to a skip.
func (s *SkipList) CheckChange(repo *github.Repository, change Change) Change {
	if !change.Needed {
		return change
	}
	if matched, reason := s.Matches(repo); matched {
		return Change{
			Skipped: true,
			Summary: fmt.Sprintf("Pending change withheld: %s (matched by %s)", change.Summary, reason),
			Details: change.Details,
		}
	}
	return change
}
