package tasks

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"repomender/internal/actions"
	"repomender/internal/data"
	gh "repomender/internal/github"

	"github.com/google/go-github/v81/github"
)

// securityFeature identifies one toggle inside the repository's
// security_and_analysis block.
type securityFeature string

const (
	featureSecretScanning   securityFeature = "secret_scanning"
	featurePushProtection   securityFeature = "secret_scanning_push_protection"
	featureAdvancedSecurity securityFeature = "advanced_security"
)

// SecurityFeatureAction toggles a single security_and_analysis feature through
// a partial repository edit. Each feature gets its own registered instance so
// they can be selected and configured independently.
//
// The edit sends only the one feature being changed. Sending the full block
// would clobber settings this run never looked at.
type SecurityFeatureAction struct {
	id      string
	title   string
	label   string
	feature securityFeature
	enabled bool
}

func init() {
	actions.Register(&SecurityFeatureAction{
		id:      "secret-scanning",
		title:   "Set Secret Scanning",
		label:   "Secret scanning",
		feature: featureSecretScanning,
		enabled: true,
	})
	actions.Register(&SecurityFeatureAction{
		id:      "push-protection",
		title:   "Set Secret Scanning Push Protection",
		label:   "Push protection",
		feature: featurePushProtection,
		enabled: true,
	})
	actions.Register(&SecurityFeatureAction{
		id:      "advanced-security",
		title:   "Set GitHub Advanced Security",
		label:   "Advanced Security",
		feature: featureAdvancedSecurity,
		enabled: true,
	})
}

func (a *SecurityFeatureAction) ID() string {
	return a.id
}

func (a *SecurityFeatureAction) Title() string {
	return a.title
}

func (a *SecurityFeatureAction) Description() string {
	return fmt.Sprintf("Sets the %s feature to the configured state.\n\n", strings.ToLower(a.label)) +
		"Repositories where the feature block is not reported at all (no GHAS\n" +
		"license, or public repo where the toggle does not apply) are skipped.\n" +
		"Location in the UI: Settings > Security > Advanced Security."
}

func (a *SecurityFeatureAction) Options() []actions.Option {
	return []actions.Option{
		{Name: "enabled", Description: "Desired state (true/false).", Default: "true"},
	}
}

func (a *SecurityFeatureAction) Configure(opts map[string]string) error {
	if v, ok := opts["enabled"]; ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid enabled value %q", v)
		}
		a.enabled = b
	}
	return nil
}

func (a *SecurityFeatureAction) Dependencies(ctx context.Context, repo *github.Repository) ([]data.DependencyKey, error) {
	return []data.DependencyKey{
		data.DepRepoMetadata,
	}, nil
}

func (a *SecurityFeatureAction) Plan(ctx context.Context, repo *github.Repository, dc data.DataContext) (actions.Change, error) {
	meta := metadataFromContext(dc, repo)

	if meta.SecurityAndAnalysis == nil {
		return actions.Change{
			Skipped: true,
			Summary: "Security and analysis settings not reported for this repository",
		}, nil
	}

	current, known := a.currentStatus(meta.SecurityAndAnalysis)
	if !known {
		return actions.Change{
			Skipped: true,
			Summary: fmt.Sprintf("%s is not available for this repository", a.label),
		}, nil
	}

	desired := statusWord(a.enabled)
	if current == desired {
		return actions.Change{
			Summary: fmt.Sprintf("%s is already %s", a.label, desired),
		}, nil
	}

	return actions.Change{
		Needed:  true,
		Summary: fmt.Sprintf("Set %s from %s to %s", strings.ToLower(a.label), current, desired),
		Details: map[string]string{
			"feature": string(a.feature),
			"current": current,
			"desired": desired,
		},
	}, nil
}

func (a *SecurityFeatureAction) Apply(ctx context.Context, repo *github.Repository, change actions.Change, client *gh.Client) (actions.Result, error) {
	owner := repo.GetOwner().GetLogin()
	name := repo.GetName()

	edit := &github.Repository{
		SecurityAndAnalysis: a.desiredBlock(),
	}
	if _, _, err := client.Client.Repositories.Edit(ctx, owner, name, edit); err != nil {
		return actions.Result{}, fmt.Errorf("update %s: %w", a.feature, err)
	}

	return actions.AppliedResultWithEvidence(repo, a.ID(),
		fmt.Sprintf("%s set to %s", a.label, statusWord(a.enabled)),
		map[string]string{
			"feature": string(a.feature),
			"status":  statusWord(a.enabled),
		}), nil
}

func (a *SecurityFeatureAction) currentStatus(saa *github.SecurityAndAnalysis) (string, bool) {
	switch a.feature {
	case featureSecretScanning:
		if saa.SecretScanning == nil {
			return "", false
		}
		return saa.SecretScanning.GetStatus(), true
	case featurePushProtection:
		if saa.SecretScanningPushProtection == nil {
			return "", false
		}
		return saa.SecretScanningPushProtection.GetStatus(), true
	case featureAdvancedSecurity:
		if saa.AdvancedSecurity == nil {
			return "", false
		}
		return saa.AdvancedSecurity.GetStatus(), true
	}
	return "", false
}

func (a *SecurityFeatureAction) desiredBlock() *github.SecurityAndAnalysis {
	status := github.Ptr(statusWord(a.enabled))
	switch a.feature {
	case featurePushProtection:
		return &github.SecurityAndAnalysis{
			SecretScanningPushProtection: &github.SecretScanningPushProtection{Status: status},
		}
	case featureAdvancedSecurity:
		return &github.SecurityAndAnalysis{
			AdvancedSecurity: &github.AdvancedSecurity{Status: status},
		}
	default:
		return &github.SecurityAndAnalysis{
			SecretScanning: &github.SecretScanning{Status: status},
		}
	}
}

func statusWord(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}
