// Package cloudsec presents a unified read-only view of cloud security
// providers and findings across the legacy integration tables and the
// integration platform tables.
package cloudsec

import "time"

const (
	FindingStatusPassed = "passed"
	FindingStatusFailed = "failed"

	// UnknownProviderSlug is reported when a finding cannot be traced back to
	// its connection.
	UnknownProviderSlug = "unknown"

	// LegacyFindingWindow bounds how far before an integration's last run a
	// legacy result may complete and still count as part of that run.
	LegacyFindingWindow = 10 * time.Minute
)

// CloudProvider is a configured cloud provider from either schema.
type CloudProvider struct {
	ID                          string     `json:"id"`
	IntegrationID               string     `json:"integrationId"`
	Name                        string     `json:"name"`
	OrganizationID              string     `json:"organizationId"`
	Status                      string     `json:"status"`
	AccountID                   string     `json:"accountId,omitempty"`
	Regions                     []string   `json:"regions"`
	LastRunAt                   *time.Time `json:"lastRunAt"`
	CreatedAt                   time.Time  `json:"createdAt"`
	UpdatedAt                   time.Time  `json:"updatedAt"`
	IsLegacy                    bool       `json:"isLegacy"`
	TimestampsSynthetic         bool       `json:"timestampsSynthetic"`
	RequiredVariables           []string   `json:"requiredVariables"`
	SupportsMultipleConnections bool       `json:"supportsMultipleConnections"`
}

// CloudFinding is a single check result from either schema.
type CloudFinding struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Remediation   string     `json:"remediation,omitempty"`
	Status        string     `json:"status"`
	Severity      string     `json:"severity"`
	ResourceType  string     `json:"resourceType"`
	ResourceID    string     `json:"resourceId"`
	CompletedAt   *time.Time `json:"completedAt"`
	IntegrationID string     `json:"integrationId"`
	ProviderSlug  string     `json:"providerSlug"`
	IsLegacy      bool       `json:"isLegacy"`
}
