// Package host implements the local machine maintenance commands: pulling a
// directory of git checkouts, renaming directories in bulk, pruning Docker
// state, and disabling system services.
//
// These commands share the run's best-effort error model: each item's failure
// is reported and the loop continues.
package host

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	git "github.com/go-git/go-git/v5"
)

type PullStatus string

const (
	PullUpdated  PullStatus = "UPDATED"
	PullUpToDate PullStatus = "UP-TO-DATE"
	PullError    PullStatus = "ERROR"
)

type PullResult struct {
	Dir    string
	Status PullStatus
	Err    error
}

// PullAll fast-forwards every git checkout directly under root.
//
// A subdirectory counts as a checkout when it contains a .git entry. Failures
// are recorded per directory and do not stop the remaining pulls. The only
// error returned by PullAll itself is a failure to read root.
func PullAll(ctx context.Context, root string) ([]PullResult, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", root, err)
	}

	var dirs []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, ".git")); err != nil {
			continue
		}
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	results := make([]PullResult, 0, len(dirs))
	for _, dir := range dirs {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
		results = append(results, pullOne(ctx, dir))
	}
	return results, nil
}

func pullOne(ctx context.Context, dir string) PullResult {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return PullResult{Dir: dir, Status: PullError, Err: fmt.Errorf("open repository: %w", err)}
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return PullResult{Dir: dir, Status: PullError, Err: fmt.Errorf("get worktree: %w", err)}
	}

	err = worktree.PullContext(ctx, &git.PullOptions{RemoteName: "origin"})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		return PullResult{Dir: dir, Status: PullUpToDate}
	}
	if err != nil {
		return PullResult{Dir: dir, Status: PullError, Err: fmt.Errorf("pull: %w", err)}
	}
	return PullResult{Dir: dir, Status: PullUpdated}
}
