// Package credentials obtains validated provider credentials for a
// connection.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/open-sspm/open-grc/internal/manifest"
)

// Credentials is the flat key/value credential set for one connection.
type Credentials map[string]string

// AccessToken returns the trimmed access_token value.
func (c Credentials) AccessToken() string {
	return strings.TrimSpace(c["access_token"])
}

// Target identifies the connection whose credentials are requested.
type Target struct {
	ConnectionID   string
	OrganizationID string
	ProviderSlug   string
	AuthType       manifest.AuthType
}

// Source returns credentials that are valid for immediate use, refreshing
// them first when the backing store supports it.
type Source interface {
	EnsureValid(ctx context.Context, target Target) (Credentials, error)
}

// Error is a credential retrieval failure.
type Error struct {
	Message    string
	StatusCode int
	Retryable  bool
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("credentials: %s (status %d)", e.Message, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("credentials: %s: %v", e.Message, e.Err)
	default:
		return "credentials: " + e.Message
	}
}

func (e *Error) Unwrap() error { return e.Err }

// IsRetryable reports whether err is a transient credential failure.
func IsRetryable(err error) bool {
	var credErr *Error
	if errors.As(err, &credErr) {
		return credErr.Retryable
	}
	return false
}

// ValidateShape checks that creds carry what the auth type needs: oauth2
// requires a non-empty access_token, every other type at least one key.
func ValidateShape(authType manifest.AuthType, creds Credentials) error {
	switch authType {
	case manifest.AuthTypeOAuth2:
		if creds.AccessToken() == "" {
			return errors.New("OAuth credentials are missing access_token")
		}
	default:
		if len(creds) == 0 {
			return errors.New("credentials are empty")
		}
	}
	return nil
}

// ByAuthType routes oauth2 connections and all other auth types to
// different sources. A nil Custom falls back to OAuth2.
type ByAuthType struct {
	OAuth2 Source
	Custom Source
}

func (s ByAuthType) EnsureValid(ctx context.Context, target Target) (Credentials, error) {
	src := s.OAuth2
	if target.AuthType != manifest.AuthTypeOAuth2 && s.Custom != nil {
		src = s.Custom
	}
	if src == nil {
		return nil, &Error{Message: "no credential source configured"}
	}
	return src.EnsureValid(ctx, target)
}
