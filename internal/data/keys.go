package data

const (
	// DepRepoMetadata represents the repository metadata, refreshed at plan time
	// so actions see current security_and_analysis settings and the default branch.
	DepRepoMetadata DependencyKey = "repo.metadata"

	// DepRepoRulesets represents the rulesets visible on the repository,
	// including inherited org rulesets (actions must distinguish the two:
	// only repo-defined rulesets can be deleted through the repo endpoint).
	DepRepoRulesets DependencyKey = "repo.rulesets"

	// DepRepoBranches represents a bounded list of branch names defined on the
	// repository.
	DepRepoBranches DependencyKey = "repo.branches"

	// DepRepoVulnerabilityAlerts represents whether Dependabot vulnerability
	// alerts are enabled for the repository.
	DepRepoVulnerabilityAlerts DependencyKey = "repo.vulnerability_alerts"

	// DepRepoAutomatedSecurityFixes represents the automated security fixes
	// (Dependabot security updates) setting for the repository.
	DepRepoAutomatedSecurityFixes DependencyKey = "repo.automated_security_fixes"

	// DepRepoCodeQLDefaultSetup represents the CodeQL default setup
	// configuration state for the repository.
	DepRepoCodeQLDefaultSetup DependencyKey = "repo.codeql_default_setup"
)

// Priority returns the fetch priority for a dependency key (lower is higher priority).
func Priority(key DependencyKey) int {
	switch key {
	case DepRepoMetadata:
		return 0 // Highest priority (P0)
	case DepRepoRulesets, DepRepoBranches:
		return 1 // Mutation targets (P1)
	default:
		return 2 // Everything else (P2)
	}
}
