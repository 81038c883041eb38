package output

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"repomender/internal/actions"
)

// ReportSink collects the whole run and writes a Markdown summary on Close.
type ReportSink struct {
	path         string
	file         *os.File
	mu           sync.Mutex
	results      []actions.Result
	repos        map[string]struct{}
	runID        string
	dryRun       bool
	exitCode     int
	haveExitCode bool
}

func NewReportSink(path string) (*ReportSink, error) {
	if path == "" {
		return nil, fmt.Errorf("report path required")
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}

	return &ReportSink{
		path:  path,
		file:  f,
		repos: make(map[string]struct{}),
	}, nil
}

func (s *ReportSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch t := v.(type) {
	case actions.Result:
		s.results = append(s.results, t)
		if t.Repo != "" {
			s.repos[t.Repo] = struct{}{}
		}
	case Event:
		if t.Repo != "" {
			s.repos[t.Repo] = struct{}{}
		}
		if t.RunID != "" {
			s.runID = t.RunID
		}
		if t.Type == "run.started" {
			s.dryRun = t.DryRun
		}
		if t.Type == "run.finished" {
			s.exitCode = t.ExitCode
			s.haveExitCode = true
		}
	}
	return nil
}

func (s *ReportSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var repos []string
	for repo := range s.repos {
		repos = append(repos, repo)
	}
	sort.Strings(repos)

	byRepo := make(map[string][]actions.Result, len(repos))
	counts := make(map[actions.Status]int)
	var errResults []actions.Result
	for _, r := range s.results {
		counts[r.Status]++
		if r.Repo != "" {
			byRepo[r.Repo] = append(byRepo[r.Repo], r)
		}
		if r.Status == actions.StatusError {
			errResults = append(errResults, r)
		}
	}

	var b strings.Builder
	b.WriteString("# Repomender Apply Report\n\n")
	if s.dryRun {
		b.WriteString("**Dry run: no changes were applied.**\n\n")
	}
	fmt.Fprintf(&b, "- Generated: %s\n", time.Now().UTC().Format(time.RFC3339))
	if s.runID != "" {
		fmt.Fprintf(&b, "- Run ID: `%s`\n", s.runID)
	}
	fmt.Fprintf(&b, "- Repositories: %d\n", len(repos))
	if s.haveExitCode {
		fmt.Fprintf(&b, "- Exit code: %d\n", s.exitCode)
	}
	b.WriteString("\n## Summary\n\n")
	b.WriteString("| Status | Count |\n|---|---|\n")
	for _, st := range []actions.Status{
		actions.StatusApplied,
		actions.StatusPlanned,
		actions.StatusUnchanged,
		actions.StatusSkipped,
		actions.StatusError,
	} {
		fmt.Fprintf(&b, "| %s | %d |\n", st, counts[st])
	}

	if len(errResults) > 0 {
		b.WriteString("\n## Errors\n\n")
		for _, r := range errResults {
			fmt.Fprintf(&b, "- `%s` %s: %s\n", r.Repo, r.ActionID, r.Message)
		}
	}

	b.WriteString("\n## Repositories\n")
	for _, repo := range repos {
		fmt.Fprintf(&b, "\n### %s\n\n", repo)
		rs := byRepo[repo]
		if len(rs) == 0 {
			b.WriteString("No action results recorded.\n")
			continue
		}
		sort.SliceStable(rs, func(i, j int) bool { return rs[i].ActionID < rs[j].ActionID })
		b.WriteString("| Action | Status | Message |\n|---|---|---|\n")
		for _, r := range rs {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", r.ActionID, r.Status, escapeTableCell(r.Message))
			for _, line := range evidenceLines(r.Evidence) {
				fmt.Fprintf(&b, "| | | %s |\n", escapeTableCell(line))
			}
		}
	}

	_, werr := s.file.WriteString(b.String())
	cerr := s.file.Close()
	if werr != nil {
		return werr
	}
	return cerr
}

func evidenceLines(evidence map[string]string) []string {
	if len(evidence) == 0 {
		return nil
	}
	keys := make([]string, 0, len(evidence))
	for k := range evidence {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("`%s=%s`", k, evidence[k]))
	}
	return lines
}

func escapeTableCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
