package actions

import "github.com/google/go-github/v81/github"

func RepoFullName(repo *github.Repository) string {
	if repo == nil {
		return ""
	}
	return repo.GetFullName()
}

func NewResult(repo *github.Repository, actionID string, status Status, message string) Result {
	res := Result{
		Status:   status,
		Repo:     RepoFullName(repo),
		ActionID: actionID,
	}
	if message != "" {
		res.Message = message
	}
	return res
}

func AppliedResult(repo *github.Repository, actionID string, message string) Result {
	return NewResult(repo, actionID, StatusApplied, message)
}

func UnchangedResult(repo *github.Repository, actionID string, message string) Result {
	return NewResult(repo, actionID, StatusUnchanged, message)
}

func PlannedResult(repo *github.Repository, actionID string, message string) Result {
	return NewResult(repo, actionID, StatusPlanned, message)
}

func SkippedResult(repo *github.Repository, actionID string, message string) Result {
	return NewResult(repo, actionID, StatusSkipped, message)
}

func ErrorResult(repo *github.Repository, actionID string, message string) Result {
	return NewResult(repo, actionID, StatusError, message)
}

func AppliedResultWithEvidence(repo *github.Repository, actionID string, message string, evidence map[string]string) Result {
	res := NewResult(repo, actionID, StatusApplied, message)
	res.Evidence = evidence
	return res
}
