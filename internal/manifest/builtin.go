package manifest

// Builtin returns the manifests shipped with the platform.
func Builtin() []Manifest {
	return []Manifest{
		{
			Slug:     "aws",
			Name:     "Amazon Web Services",
			Category: CategoryCloud,
			Auth:     Auth{Type: AuthTypeCustom},
			Variables: []Variable{
				{ID: "region", Label: "Region", Required: true},
				{ID: "account_id", Label: "Account ID"},
			},
			Checks: []Check{
				{
					ID:          "aws-identity-center-enabled",
					Name:        "IAM Identity Center enabled",
					Description: "An IAM Identity Center instance exists in the configured region.",
				},
				{
					ID:          "aws-identity-center-user-emails",
					Name:        "Identity Center users have an email",
					Description: "Every Identity Center user has a primary email address for attribution.",
					Variables: []Variable{
						{ID: "identity_store_id", Label: "Identity store ID"},
					},
				},
				{
					ID:          "aws-permission-set-session-duration",
					Name:        "Permission set session duration",
					Description: "Permission sets limit session duration to 12 hours or less.",
					Variables: []Variable{
						{ID: "instance_arn", Label: "Identity Center instance ARN"},
					},
				},
			},
			Capabilities:                []string{CapabilityChecks},
			SupportsMultipleConnections: true,
		},
		{
			Slug:     "gcp",
			Name:     "Google Cloud Platform",
			Category: CategoryCloud,
			Auth:     Auth{Type: AuthTypeOAuth2},
			Variables: []Variable{
				{ID: "organization_id", Label: "Organization ID", Required: true},
			},
			Checks: []Check{
				{
					ID:          "gcp-security-command-center",
					Name:        "Security Command Center findings",
					Description: "Active Security Command Center findings for the organization.",
					Variables: []Variable{
						{ID: "project_ids", Label: "Project IDs"},
					},
				},
			},
			Capabilities:                []string{CapabilityChecks},
			SupportsMultipleConnections: true,
		},
		{
			Slug:     "azure",
			Name:     "Microsoft Azure",
			Category: CategoryCloud,
			Auth:     Auth{Type: AuthTypeCustom},
			Variables: []Variable{
				{ID: "tenant_id", Label: "Tenant ID", Required: true},
			},
			Checks: []Check{
				{
					ID:          "azure-defender-recommendations",
					Name:        "Defender for Cloud recommendations",
					Description: "Unhealthy Microsoft Defender for Cloud assessments.",
					Variables: []Variable{
						{ID: "subscription_id", Label: "Subscription ID", Required: true},
					},
				},
			},
			Capabilities: []string{CapabilityChecks},
		},
		{
			Slug:     "google-workspace",
			Name:     "Google Workspace",
			Category: CategoryIdentity,
			Auth:     Auth{Type: AuthTypeOAuth2},
			Checks: []Check{
				{
					ID:          "google-workspace-2sv-enforced",
					Name:        "2-Step Verification enforced",
					Description: "Users are enrolled in and enforced for 2-Step Verification.",
					Variables: []Variable{
						{ID: "customer_id", Label: "Customer ID"},
					},
				},
			},
			Capabilities: []string{CapabilityChecks, CapabilityEmployeeSync},
		},
		{
			Slug:         "rippling",
			Name:         "Rippling",
			Category:     CategoryHR,
			Auth:         Auth{Type: AuthTypeOAuth2},
			Capabilities: []string{CapabilityEmployeeSync},
		},
		{
			Slug:     "jumpcloud",
			Name:     "JumpCloud",
			Category: CategoryIdentity,
			Auth:     Auth{Type: AuthTypeCustom},
			Variables: []Variable{
				{ID: "org_id", Label: "Organization ID"},
			},
			Capabilities: []string{CapabilityEmployeeSync},
		},
	}
}

// NewBuiltinRegistry returns a registry populated with Builtin manifests.
func NewBuiltinRegistry() (*Registry, error) {
	reg := NewRegistry()
	for _, m := range Builtin() {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
