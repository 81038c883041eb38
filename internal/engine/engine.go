package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"repomender/internal/actions"
	"repomender/internal/config"
	"repomender/internal/data"
	"repomender/internal/fetcher"
	gh "repomender/internal/github"
	"repomender/internal/output"
)

func exitCodeForRun(fatal, partial, pending bool) int {
	// Exit code contract:
	// 0 = clean run, everything applied or already in the desired state
	// 1 = dry run found pending changes
	// 2 = partial failure (some actions/repos errored)
	// 3 = fatal error (run did not complete)
	if fatal {
		return 3
	}
	if partial {
		return 2
	}
	if pending {
		return 1
	}
	return 0
}

func setupOutputManager(cfg *config.Config) (*output.Manager, error) {
	outMgr := output.NewManager()

	// Console Sink
	if !cfg.Output.NoConsole {
		if err := outMgr.AddSink(output.NewConsoleSink(nil, cfg.Output.ConsoleFormat, cfg.Output.ConsoleFilterStatus)); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// Emit Sinks (additional structured streams)
	for _, emit := range cfg.Output.Emit {
		es, err := output.NewEmitSink(os.Stdout, emit)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(es); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// File Sink
	if cfg.Output.Out != "" {
		fs, err := output.NewFileSink(cfg.Output.Out, cfg.Output.OutFormat)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(fs); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// Report Sink
	if cfg.Output.Report != "" {
		rs, err := output.NewReportSink(cfg.Output.Report)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(rs); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	return outMgr, nil
}

func applyActionOptionsIfAny(cfg *config.Config) error {
	// applyActionOptionsIfAny applies per-action configuration supplied via
	// repeated --set flags.
	//
	// --set values are parsed as "actionID.option=value" and routed to the
	// matching action's Configure method (only actions that implement
	// actions.ConfigurableAction; skip.* options are always available).
	//
	// Example:
	//   repomender apply --org my-org --actions branch-ensure --set branch-ensure.branch=develop

	if len(cfg.Actions.Set) == 0 {
		return nil
	}

	assignments, err := config.ParseActionOptionAssignments(cfg.Actions.Set)
	if err != nil {
		return err
	}

	all := actions.List()
	byID := make(map[string]actions.Action, len(all))
	for _, a := range all {
		byID[a.ID()] = a
	}

	for actionID, opts := range assignments {
		a, ok := byID[actionID]
		if !ok {
			return fmt.Errorf("unknown action ID %q", actionID)
		}
		ca, ok := a.(actions.ConfigurableAction)
		if !ok {
			return fmt.Errorf("action %q does not support options", actionID)
		}

		allowed := make(map[string]struct{})
		for _, opt := range ca.Options() {
			allowed[opt.Name] = struct{}{}
		}
		for name := range opts {
			if _, ok := allowed[name]; !ok {
				return fmt.Errorf("unknown option %q for action %q", name, actionID)
			}
		}

		if err := ca.Configure(opts); err != nil {
			return fmt.Errorf("configure action %q: %w", actionID, err)
		}
	}

	return nil
}

// actionResultIfDependenciesMissingOrFailed returns a synthetic action status/message
// when required dependencies are missing or failed.
//
// A "dependency" is a required piece of GitHub-derived state identified by a
// data.DependencyKey. Dependencies are fetched ahead of time and placed into the
// repo's data.DataContext; if a required key is missing (or failed to fetch), the
// action can't be planned safely and must not mutate anything.
func actionResultIfDependenciesMissingOrFailed(dc data.DataContext, deps []data.DependencyKey, repoDepErrs map[data.DependencyKey]error, verbose bool) (actions.Status, string, bool) {
	var missing []string
	var failedDepMessages []string
	hasSkippableFailure := false
	hasHardFailure := false

	for _, d := range deps {
		if _, ok := dc.Get(d); ok {
			continue
		}
		if repoDepErrs != nil {
			if depErr := repoDepErrs[d]; depErr != nil {
				pres := presentDependencyError(d, depErr, verbose)
				// If multiple deps fail, include the dependency key so the user can tell what failed.
				// If exactly one dep fails, emit only the message for a cleaner UX.
				failedDepMessages = append(failedDepMessages, fmt.Sprintf("%s: %s", d, pres.message))
				if pres.disposition == depErrDispositionSkip {
					hasSkippableFailure = true
				} else {
					hasHardFailure = true
				}
				continue
			}
		}
		missing = append(missing, string(d))
	}

	if len(failedDepMessages) > 0 {
		status := actions.StatusError
		if hasSkippableFailure && !hasHardFailure {
			status = actions.StatusSkipped
		}

		msg := strings.Join(failedDepMessages, "; ")
		if len(failedDepMessages) == 1 {
			if _, after, ok := strings.Cut(failedDepMessages[0], ": "); ok {
				msg = after
			}
		}
		return status, msg, true
	}

	if len(missing) > 0 {
		return actions.StatusError, fmt.Sprintf("Missing dependencies: %v", missing), true
	}

	return "", "", false
}

type Engine struct {
	Client *gh.Client

	// schedulerExecute is a test seam for streaming execution.
	// If nil, Engine uses the real fetcher + scheduler.
	schedulerExecute func(ctx context.Context, cfg *config.Config, plan *ApplyPlan) (<-chan RepoExecutionResult, <-chan error)
}

func NewEngine(client *gh.Client) *Engine {
	return &Engine{
		Client: client,
	}
}

func (e *Engine) executePlanStream(ctx context.Context, cfg *config.Config, plan *ApplyPlan) (<-chan RepoExecutionResult, <-chan error) {
	if e.schedulerExecute != nil {
		return e.schedulerExecute(ctx, cfg, plan)
	}

	budget := fetcher.NewRequestBudget()
	f := fetcher.NewFetcher(e.Client, budget)

	scheduler, err := NewScheduler(f, cfg.Runtime.Concurrency)
	if err != nil {
		resCh := make(chan RepoExecutionResult)
		errCh := make(chan error, 1)
		close(resCh)
		errCh <- err
		close(errCh)
		return resCh, errCh
	}
	return scheduler.Execute(ctx, plan)
}

// applyStreamingResults receives streamed per-repo execution results (fetched
// dependencies plus any fetch errors), plans each selected action against the
// snapshot, and applies needed changes one at a time.
//
// Fetches run concurrently upstream; this loop is the single writer. Mutations
// are never issued in parallel, so a run's write order is deterministic per
// repo and actions can assume no concurrent interference from their own run.
func (e *Engine) applyStreamingResults(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, plan *ApplyPlan, resCh <-chan RepoExecutionResult, outMgr *output.Manager) (hasErrors bool, hasPending bool) {
	for res := range resCh {
		rp := plan.RepoPlans[res.RepoID]
		if rp == nil {
			hasErrors = true
			continue
		}

		repoFullName := fmt.Sprintf("%s/%s", rp.Repo.Owner, rp.Repo.Name)
		_ = outMgr.Write(output.Event{Type: "repo.started", Repo: repoFullName})

		dc := res.Data
		if dc == nil {
			dc = data.NewMapDataContext(map[data.DependencyKey]any{})
		}

		for _, action := range rp.Actions {
			deps, err := action.Dependencies(ctx, rp.Repo.Repo)
			if err != nil {
				_ = outMgr.Write(actions.Result{
					Repo:     repoFullName,
					ActionID: action.ID(),
					Status:   actions.StatusError,
					Message:  fmt.Sprintf("Failed to determine dependencies: %v", err),
				})
				hasErrors = true
				continue
			}

			if status, msg, ok := actionResultIfDependenciesMissingOrFailed(dc, deps, res.DepErrs, cfg.Runtime.Verbose); ok {
				_ = outMgr.Write(actions.Result{
					Repo:     repoFullName,
					ActionID: action.ID(),
					Status:   status,
					Message:  msg,
				})
				if status == actions.StatusError {
					hasErrors = true
					if cfg.Runtime.FailFast {
						cancel()
						return hasErrors, hasPending
					}
				}
				continue
			}

			// Enforce the actions contract: an action must not read dependency keys
			// it did not declare in Dependencies(). This keeps the planned fetch set
			// honest and prevents actions from implicitly relying on other actions'
			// dependencies.
			tracked := data.NewTrackingDataContext(dc)
			change, err := action.Plan(ctx, rp.Repo.Repo, tracked)
			undeclared := undeclaredDependencyAccesses(tracked.AccessedKeys(), deps)
			if len(undeclared) > 0 {
				msg := fmt.Sprintf("Action accessed undeclared dependencies: %s. Declare them in Dependencies().", strings.Join(undeclared, ", "))
				if err != nil {
					msg = fmt.Sprintf("%s (planning error: %v)", msg, err)
				}
				_ = outMgr.Write(actions.Result{Repo: repoFullName, ActionID: action.ID(), Status: actions.StatusError, Message: msg})
				hasErrors = true
				continue
			}
			if err != nil {
				_ = outMgr.Write(actions.Result{
					Repo:     repoFullName,
					ActionID: action.ID(),
					Status:   actions.StatusError,
					Message:  fmt.Sprintf("Planning failed: %v", err),
				})
				hasErrors = true
				if cfg.Runtime.FailFast {
					cancel()
					return hasErrors, hasPending
				}
				continue
			}

			if change.Skipped {
				_ = outMgr.Write(actions.SkippedResult(rp.Repo.Repo, action.ID(), change.Summary))
				continue
			}
			if !change.Needed {
				_ = outMgr.Write(actions.UnchangedResult(rp.Repo.Repo, action.ID(), change.Summary))
				continue
			}
			if cfg.Runtime.DryRun {
				planned := actions.PlannedResult(rp.Repo.Repo, action.ID(), change.Summary)
				planned.Evidence = change.Details
				_ = outMgr.Write(planned)
				hasPending = true
				continue
			}

			actionRes, err := action.Apply(ctx, rp.Repo.Repo, change, e.Client)
			if err != nil {
				_ = outMgr.Write(actions.Result{
					Repo:     repoFullName,
					ActionID: action.ID(),
					Status:   actions.StatusError,
					Message:  fmt.Sprintf("Apply failed: %v", err),
				})
				hasErrors = true
				if cfg.Runtime.FailFast {
					cancel()
					return hasErrors, hasPending
				}
				continue
			}

			// Backfill identifiers so output stays consistent and well-formed.
			// Actions usually care about status + message/evidence; the engine already
			// knows the repo and action ID, so we stamp them here to keep sinks happy.
			if actionRes.Repo == "" {
				actionRes.Repo = repoFullName
			}
			if actionRes.ActionID == "" {
				actionRes.ActionID = action.ID()
			}

			if actionRes.Status == actions.StatusError {
				hasErrors = true
				if cfg.Runtime.FailFast {
					_ = outMgr.Write(actionRes)
					cancel()
					return hasErrors, hasPending
				}
			}

			_ = outMgr.Write(actionRes)
		}

		_ = outMgr.Write(output.Event{Type: "repo.finished", Repo: repoFullName})
	}

	return hasErrors, hasPending
}

func undeclaredDependencyAccesses(accessed []data.DependencyKey, declared []data.DependencyKey) []string {
	if len(accessed) == 0 {
		return nil
	}
	decl := make(map[data.DependencyKey]struct{}, len(declared))
	for _, d := range declared {
		decl[d] = struct{}{}
	}

	var out []string
	for _, k := range accessed {
		if _, ok := decl[k]; ok {
			continue
		}
		out = append(out, string(k))
	}
	sort.Strings(out)
	return out
}

func isExplicitReposOnly(cfg *config.Config) bool {
	return cfg.Targeting.Org == "" && cfg.Targeting.User == "" && len(cfg.Targeting.Repos) > 0
}

func (e *Engine) discoverRepos(ctx context.Context, cfg *config.Config, explicitReposOnly bool) ([]RepositoryRef, bool) {
	if !cfg.Output.NoConsole {
		if explicitReposOnly {
			fmt.Fprintln(os.Stderr, "Resolving repositories...")
		} else {
			fmt.Fprintln(os.Stderr, "Discovering repositories...")
		}
	}
	repos, err := ResolveRepos(ctx, e.Client, cfg)
	if err != nil {
		if explicitReposOnly {
			fmt.Fprintf(os.Stderr, "Error resolving repositories: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "Error discovering repositories: %v\n", err)
		}
		return nil, false
	}
	return repos, true
}

func filterReposIfNeeded(repos []RepositoryRef, cfg *config.Config, explicitReposOnly bool) []RepositoryRef {
	// If the user explicitly provided repos (and did not use org/user discovery),
	// treat the repo list as exact: do not filter out explicitly targeted repos.
	if explicitReposOnly {
		return repos
	}
	return FilterRepos(repos, cfg)
}

func resolveAndConfigureActions(cfg *config.Config) ([]actions.Action, bool) {
	if !cfg.Output.NoConsole {
		fmt.Fprintln(os.Stderr, "Resolving actions...")
	}
	selected, err := actions.Resolve(cfg.Actions.Selector)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving actions: %v\n", err)
		return nil, false
	}
	if len(selected) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no actions selected; pass --actions with a comma-separated list (see 'repomender actions list')")
		return nil, false
	}

	if err := applyActionOptionsIfAny(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring actions: %v\n", err)
		return nil, false
	}

	if !cfg.Output.NoConsole {
		fmt.Fprintf(os.Stderr, "Selected %d actions.\n", len(selected))
	}
	return selected, true
}

func buildPlanForRepos(ctx context.Context, cfg *config.Config, repos []RepositoryRef, selected []actions.Action) (*ApplyPlan, bool) {
	if !cfg.Output.NoConsole {
		fmt.Fprintln(os.Stderr, "Planning run...")
	}
	plan := NewApplyPlan()
	for _, repo := range repos {
		if err := plan.AddRepo(ctx, repo, selected); err != nil {
			fmt.Fprintf(os.Stderr, "Error adding repo %s to plan: %v\n", repo.Name, err)
			return nil, false
		}
	}
	return plan, true
}

func (e *Engine) Run(ctx context.Context, cfg *config.Config) int {
	runCtx, cancelRun := context.WithTimeout(ctx, cfg.Runtime.Timeout)
	defer cancelRun()

	explicitReposOnly := isExplicitReposOnly(cfg)

	repos, ok := e.discoverRepos(runCtx, cfg, explicitReposOnly)
	if !ok {
		return exitCodeForRun(true, false, false)
	}

	repos = filterReposIfNeeded(repos, cfg, explicitReposOnly)
	if !cfg.Output.NoConsole {
		fmt.Fprintf(os.Stderr, "Found %d repositories.\n", len(repos))
	}

	selected, ok := resolveAndConfigureActions(cfg)
	if !ok {
		return exitCodeForRun(true, false, false)
	}

	plan, ok := buildPlanForRepos(runCtx, cfg, repos, selected)
	if !ok {
		return exitCodeForRun(true, false, false)
	}

	outMgr, err := setupOutputManager(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output sinks: %v\n", err)
		return exitCodeForRun(true, false, false)
	}
	defer outMgr.Close()

	_ = outMgr.Write(output.Event{
		Type:    "run.started",
		Repos:   len(plan.RepoPlans),
		Actions: len(selected),
		DryRun:  cfg.Runtime.DryRun,
	})

	streamCtx, cancelStream := context.WithCancel(runCtx)
	defer cancelStream()

	resCh, errCh := e.executePlanStream(streamCtx, cfg, plan)

	hasErrors, hasPending := e.applyStreamingResults(streamCtx, cancelStream, cfg, plan, resCh, outMgr)

	var schedErr error
	// Drain scheduler errors; we only need to know whether any fatal error occurred (keep one non-nil error).
	for err := range errCh {
		if err != nil {
			schedErr = err
		}
	}
	if hasErrors && cfg.Runtime.FailFast && errors.Is(schedErr, context.Canceled) {
		// Cancellation noise from fail-fast is not a fatal scheduler error.
		schedErr = nil
	}

	fatal := schedErr != nil
	code := exitCodeForRun(fatal, hasErrors, hasPending)
	_ = outMgr.Write(output.Event{Type: "run.finished", ExitCode: code})
	return code
}
