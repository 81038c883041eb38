package host

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type RenameStatus string

const (
	RenameDone    RenameStatus = "RENAMED"
	RenameSkipped RenameStatus = "SKIPPED"
	RenameError   RenameStatus = "ERROR"
)

type RenameResult struct {
	From   string
	To     string
	Status RenameStatus
	Err    error
}

// RenameDirs renames every immediate subdirectory of root whose name contains
// from, replacing all occurrences of from with to.
//
// A rename whose target already exists is skipped rather than overwritten.
// Failures are recorded per directory and do not stop the remaining renames.
func RenameDirs(root, from, to string) ([]RenameResult, error) {
	if strings.TrimSpace(from) == "" {
		return nil, fmt.Errorf("rename substring must not be empty")
	}
	if from == to {
		return nil, fmt.Errorf("rename source and target are identical (%q)", from)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", root, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() && strings.Contains(entry.Name(), from) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	results := make([]RenameResult, 0, len(names))
	for _, name := range names {
		oldPath := filepath.Join(root, name)
		newPath := filepath.Join(root, strings.ReplaceAll(name, from, to))

		if _, err := os.Stat(newPath); err == nil {
			results = append(results, RenameResult{
				From:   oldPath,
				To:     newPath,
				Status: RenameSkipped,
				Err:    fmt.Errorf("target already exists"),
			})
			continue
		}

		if err := os.Rename(oldPath, newPath); err != nil {
			results = append(results, RenameResult{From: oldPath, To: newPath, Status: RenameError, Err: err})
			continue
		}
		results = append(results, RenameResult{From: oldPath, To: newPath, Status: RenameDone})
	}
	return results, nil
}
