package host

import (
	"context"
	"fmt"
	"strings"
)

// DisableService stops a systemd unit and disables it from starting at boot.
//
// The stop is attempted first; a stop failure does not prevent the disable
// (the unit may simply not be running). Combined command output is returned
// for display.
func DisableService(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("service name must not be empty")
	}

	stopOut, stopErr := runCommand(ctx, "systemctl", "stop", name)

	disableOut, disableErr := runCommand(ctx, "systemctl", "disable", name)
	combined := strings.TrimSpace(stopOut + "\n" + disableOut)
	if disableErr != nil {
		return combined, fmt.Errorf("systemctl disable %s: %w (%s)", name, disableErr, firstLine(disableOut))
	}
	if stopErr != nil {
		return combined, fmt.Errorf("systemctl stop %s: %w (%s)", name, stopErr, firstLine(stopOut))
	}
	return combined, nil
}
