package host

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestDisableService(t *testing.T) {
	calls := stubCommands(t, []string{""}, []error{nil})

	out, err := DisableService(context.Background(), "nginx")
	if err != nil {
		t.Fatalf("DisableService failed: %v", err)
	}
	if out != "" {
		t.Errorf("unexpected output: %q", out)
	}
	if len(*calls) != 2 {
		t.Fatalf("want stop then disable, got %+v", *calls)
	}
	for i, want := range []string{"stop", "disable"} {
		call := (*calls)[i]
		if call.name != "systemctl" {
			t.Errorf("command %d: want systemctl, got %s", i, call.name)
		}
		if len(call.args) != 2 || call.args[0] != want || call.args[1] != "nginx" {
			t.Errorf("command %d args: want [%s nginx], got %v", i, want, call.args)
		}
	}
}

func TestDisableService_StopFailureStillDisables(t *testing.T) {
	calls := stubCommands(t,
		[]string{"Failed to stop nginx.service: Unit not loaded.", "Removed symlink."},
		[]error{errors.New("exit status 5"), nil})

	out, err := DisableService(context.Background(), "nginx")
	if err == nil {
		t.Fatal("expected error for failed stop")
	}
	if !strings.Contains(err.Error(), "systemctl stop nginx") {
		t.Errorf("error should name the stop command: %v", err)
	}
	if len(*calls) != 2 {
		t.Errorf("disable must still run after stop failure, got %d calls", len(*calls))
	}
	if !strings.Contains(out, "Removed symlink") {
		t.Errorf("combined output missing disable output: %q", out)
	}
}

func TestDisableService_DisableFailureTakesPrecedence(t *testing.T) {
	stubCommands(t,
		[]string{"stop failed", "disable failed"},
		[]error{errors.New("stop error"), errors.New("disable error")})

	_, err := DisableService(context.Background(), "nginx")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "systemctl disable nginx") {
		t.Errorf("disable failure should win when both fail: %v", err)
	}
}

func TestDisableService_RejectsEmptyName(t *testing.T) {
	calls := stubCommands(t, []string{""}, []error{nil})
	if _, err := DisableService(context.Background(), "  "); err == nil {
		t.Error("expected error for blank service name")
	}
	if len(*calls) != 0 {
		t.Errorf("no commands should run for invalid input, got %+v", *calls)
	}
}
