package output

import "repomender/internal/actions"

// Event is a lifecycle record for NDJSON streaming output.
//
// In NDJSON mode, sinks emit Events (one JSON object per line), including:
// - run.started
// - repo.started
// - action.result
// - repo.finished
// - run.finished
//
// Every event carries the run ID stamped by the Manager, so streams from
// concurrent or repeated runs can be told apart downstream.
// JSON mode remains an aggregate of actions.Result values.
type Event struct {
	Type  string `json:"type"`
	RunID string `json:"run_id,omitempty"`
	Repo  string `json:"repo,omitempty"`
	*actions.Result
	Repos    int  `json:"repos,omitempty"`
	Actions  int  `json:"actions,omitempty"`
	DryRun   bool `json:"dry_run,omitempty"`
	ExitCode int  `json:"exit_code,omitempty"`
}

func eventFromResult(r actions.Result) Event {
	return Event{Type: "action.result", Repo: r.Repo, Result: &r}
}
