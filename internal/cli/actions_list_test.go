package cli

import (
	"bytes"
	"strings"
	"testing"

	_ "repomender/internal/actions/tasks"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestActionsList(t *testing.T) {
	out, err := runCommand(t, "actions", "list")
	if err != nil {
		t.Fatalf("actions list failed: %v", err)
	}

	for _, id := range []string{
		"branch-ensure",
		"ruleset-ensure",
		"ruleset-delete",
		"secret-scanning",
		"push-protection",
		"advanced-security",
		"dependabot-alerts",
		"dependabot-fixes",
		"codeql-default-setup",
	} {
		if !strings.Contains(out, "ACTION: "+id) {
			t.Errorf("listing missing action %s", id)
		}
	}
}

func TestActionsList_Quiet(t *testing.T) {
	out, err := runCommand(t, "actions", "list", "--quiet")
	if err != nil {
		t.Fatalf("actions list --quiet failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 2 {
		t.Fatalf("expected one ID per line, got %q", out)
	}
	// Quiet output is bare IDs, sorted.
	for i := 1; i < len(lines); i++ {
		if lines[i-1] >= lines[i] {
			t.Errorf("IDs not sorted: %s before %s", lines[i-1], lines[i])
		}
	}
	if strings.Contains(out, "----") {
		t.Errorf("quiet output should not contain separators: %q", out)
	}
}

func TestActionsShow(t *testing.T) {
	out, err := runCommand(t, "actions", "show", "branch-ensure")
	if err != nil {
		t.Fatalf("actions show failed: %v", err)
	}
	if !strings.Contains(out, "ACTION: branch-ensure") {
		t.Errorf("show output missing header: %q", out)
	}
	// Every registered action carries the skip list options through its wrapper.
	if !strings.Contains(out, "skip.repos") {
		t.Errorf("show output missing options: %q", out)
	}
}

func TestActionsShow_UnknownAction(t *testing.T) {
	if _, err := runCommand(t, "actions", "show", "no-such-action"); err == nil {
		t.Error("expected error for unknown action")
	}
}
