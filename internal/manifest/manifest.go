// Package manifest holds the static per-provider metadata that describes how an
// integration is configured and which checks it exposes.
package manifest

const (
	CategoryCloud    = "Cloud"
	CategoryIdentity = "Identity"
	CategoryHR       = "HR"
)

type AuthType string

const (
	AuthTypeOAuth2 AuthType = "oauth2"
	AuthTypeCustom AuthType = "custom"
)

const (
	CapabilityChecks       = "checks"
	CapabilityEmployeeSync = "employee_sync"
)

// Manifest describes a single integration provider.
type Manifest struct {
	Slug                        string
	Name                        string
	Category                    string
	Auth                        Auth
	Variables                   []Variable
	Checks                      []Check
	Capabilities                []string
	SupportsMultipleConnections bool
}

type Auth struct {
	Type AuthType
}

// Variable is a user-supplied configuration value saved on a connection.
type Variable struct {
	ID       string
	Label    string
	Required bool
}

// Check is a single automated check declared by a provider.
type Check struct {
	ID          string
	Name        string
	Description string
	Variables   []Variable
}

func (m Manifest) HasCapability(capability string) bool {
	for _, c := range m.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

// Lookup resolves a manifest by provider slug.
type Lookup interface {
	Lookup(slug string) (Manifest, bool)
}
