package cloudsec

import (
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/open-sspm/open-grc/internal/db/gen"
	"github.com/open-sspm/open-grc/internal/manifest"
)

// providerSource is one row from either schema. Each kind maps itself into
// the unified CloudProvider shape.
type providerSource interface {
	provider(m manifest.Manifest, now time.Time) CloudProvider
}

type platformSource struct {
	row gen.ListActiveConnectionsByCategoryRow
}

type legacySource struct {
	row gen.Integration
}

// connectionDetails is the shape shared by connection metadata and legacy
// integration settings.
type connectionDetails struct {
	ConnectionName string   `json:"connectionName"`
	AccountID      string   `json:"accountId"`
	Regions        []string `json:"regions"`
}

func decodeDetails(raw []byte) connectionDetails {
	var d connectionDetails
	if len(raw) == 0 {
		return d
	}
	// Malformed blobs are treated as empty; the provider is still listed.
	_ = json.Unmarshal(raw, &d)
	return d
}

func (s platformSource) provider(m manifest.Manifest, _ time.Time) CloudProvider {
	d := decodeDetails(s.row.Metadata)
	name := d.ConnectionName
	if name == "" {
		name = s.row.ProviderName
	}
	return CloudProvider{
		ID:                          s.row.ID,
		IntegrationID:               s.row.ProviderSlug,
		Name:                        name,
		OrganizationID:              s.row.OrganizationID,
		Status:                      s.row.Status,
		AccountID:                   d.AccountID,
		Regions:                     nonNilStrings(d.Regions),
		LastRunAt:                   timePtr(s.row.LastSyncAt),
		CreatedAt:                   timeValue(s.row.CreatedAt),
		UpdatedAt:                   timeValue(s.row.UpdatedAt),
		RequiredVariables:           nonNilStrings(manifest.RequiredVariables(m)),
		SupportsMultipleConnections: m.SupportsMultipleConnections,
	}
}

// Legacy integrations have no status or timestamp columns: status is always
// active and the timestamps are stamped with now.
func (s legacySource) provider(m manifest.Manifest, now time.Time) CloudProvider {
	d := decodeDetails(s.row.Settings)
	name := d.ConnectionName
	if name == "" {
		name = s.row.Name
	}
	if name == "" {
		name = m.Name
	}
	return CloudProvider{
		ID:                          s.row.ID,
		IntegrationID:               s.row.IntegrationID,
		Name:                        name,
		OrganizationID:              s.row.OrganizationID,
		Status:                      "active",
		AccountID:                   d.AccountID,
		Regions:                     nonNilStrings(d.Regions),
		LastRunAt:                   timePtr(s.row.LastRunAt),
		CreatedAt:                   now,
		UpdatedAt:                   now,
		IsLegacy:                    true,
		TimestampsSynthetic:         true,
		RequiredVariables:           nonNilStrings(manifest.RequiredVariables(m)),
		SupportsMultipleConnections: m.SupportsMultipleConnections,
	}
}

// findingSource is one result row from either schema.
type findingSource interface {
	finding() CloudFinding
}

type platformFinding struct {
	row          gen.IntegrationCheckResult
	run          gen.ListLatestCheckRunsByOrganizationRow
	providerSlug string
}

type legacyFinding struct {
	row         gen.IntegrationResult
	integration gen.Integration
}

func (f platformFinding) finding() CloudFinding {
	status := FindingStatusFailed
	if f.row.Passed {
		status = FindingStatusPassed
	}
	completedAt := timePtr(f.run.CompletedAt)
	if completedAt == nil {
		completedAt = timePtr(f.row.CollectedAt)
	}
	slug := f.providerSlug
	if slug == "" {
		slug = UnknownProviderSlug
	}
	return CloudFinding{
		ID:            f.row.ID,
		Title:         f.row.Title,
		Description:   f.row.Description,
		Remediation:   f.row.Remediation.String,
		Status:        status,
		Severity:      f.row.Severity,
		ResourceType:  f.row.ResourceType,
		ResourceID:    f.row.ResourceID,
		CompletedAt:   completedAt,
		IntegrationID: f.run.ConnectionID,
		ProviderSlug:  slug,
	}
}

func (f legacyFinding) finding() CloudFinding {
	slug := f.integration.IntegrationID
	if slug == "" {
		slug = UnknownProviderSlug
	}
	return CloudFinding{
		ID:            f.row.ID,
		Title:         f.row.Title,
		Description:   f.row.Description,
		Remediation:   f.row.Remediation,
		Status:        f.row.Status,
		Severity:      f.row.Severity,
		ResourceType:  f.row.ResourceType,
		ResourceID:    f.row.ResourceID,
		CompletedAt:   timePtr(f.row.CompletedAt),
		IntegrationID: f.row.IntegrationID,
		ProviderSlug:  slug,
		IsLegacy:      true,
	}
}

func timePtr(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time
	return &t
}

func timeValue(ts pgtype.Timestamptz) time.Time {
	if !ts.Valid {
		return time.Time{}
	}
	return ts.Time
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
