package domain

import "time"

// ProviderType identifies which external tracker an integration talks to.
type ProviderType string

const (
	ProviderJira   ProviderType = "JIRA"
	ProviderLinear ProviderType = "LINEAR"
	ProviderGitHub ProviderType = "GITHUB"
)

// Integration is a workspace's connection to one external issue tracker.
// Read-only from the aggregation pipeline's perspective.
type Integration struct {
	ID          string
	WorkspaceID string
	Provider    ProviderType
	BaseURL     string
	FilterQuery *string
	CreatedAt   time.Time
}
