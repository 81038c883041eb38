package host

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// runCommand is a test seam; tests swap it to avoid executing real binaries.
var runCommand = func(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	return strings.TrimSpace(string(out)), err
}

type DockerPruneOptions struct {
	// All also removes unused (not just dangling) images.
	All bool

	// Volumes additionally prunes unused volumes.
	Volumes bool
}

// DockerPrune reclaims disk space by pruning unused Docker state.
//
// It runs `docker system prune -f` (with --all when requested) and, when
// Volumes is set, `docker volume prune -f`. Output of the executed commands is
// returned for display.
func DockerPrune(ctx context.Context, opts DockerPruneOptions) (string, error) {
	args := []string{"system", "prune", "-f"}
	if opts.All {
		args = append(args, "--all")
	}

	systemOut, err := runCommand(ctx, "docker", args...)
	if err != nil {
		return systemOut, fmt.Errorf("docker system prune: %w (%s)", err, firstLine(systemOut))
	}

	if !opts.Volumes {
		return systemOut, nil
	}

	volumeOut, err := runCommand(ctx, "docker", "volume", "prune", "-f")
	combined := strings.TrimSpace(systemOut + "\n" + volumeOut)
	if err != nil {
		return combined, fmt.Errorf("docker volume prune: %w (%s)", err, firstLine(volumeOut))
	}
	return combined, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
