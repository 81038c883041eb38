package actions

type Status string

const (
	StatusApplied   Status = "APPLIED"
	StatusUnchanged Status = "UNCHANGED"
	StatusPlanned   Status = "PLANNED"
	StatusSkipped   Status = "SKIPPED"
	StatusError     Status = "ERROR"
)

type Result struct {
	ActionID string `json:"action_id"`
	Repo     string `json:"repo"`
	Status   Status `json:"status"`
	Message  string `json:"message,omitempty"`
	// Evidence contains simple key-value string pairs supporting the result.
	Evidence map[string]string `json:"evidence,omitempty"`
	// Metadata contains structured data supporting the result (e.g. lists, counts).
	Metadata map[string]any `json:"metadata,omitempty"`
}
