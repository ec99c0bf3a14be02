// Package googlecheck implements the Google Workspace checks.
package googlecheck

import (
	"context"
	"fmt"

	"github.com/open-sspm/open-grc/internal/checks"
)

const (
	CheckTwoStepVerification = "google-workspace-2sv-enforced"

	resourceTypeUser = "GoogleWorkspace::User"
)

// ClientFactory builds a client for one check request.
type ClientFactory func(ctx context.Context, opts Options) (*Client, error)

// Register binds the Google Workspace checks to r. A nil factory uses New.
func Register(r *checks.Runner, factory ClientFactory) error {
	if factory == nil {
		factory = New
	}
	pack := &pack{factory: factory}
	return r.Register(CheckTwoStepVerification, checks.CheckFunc(pack.twoStepVerification))
}

type pack struct {
	factory ClientFactory
}

// twoStepVerification reports active users that are not enrolled in 2SV, or
// whose enrollment is not enforced by policy.
func (p *pack) twoStepVerification(ctx context.Context, req checks.Request) (checks.Outcome, error) {
	client, err := p.factory(ctx, Options{AccessToken: req.AccessToken})
	if err != nil {
		return checks.Outcome{}, fmt.Errorf("google workspace client: %w", err)
	}
	users, err := client.ListUsers(ctx, req.StringVariable("customer_id"))
	if err != nil {
		return checks.Outcome{}, fmt.Errorf("list google workspace users: %w", err)
	}

	var out checks.Outcome
	for _, u := range users {
		if u.Suspended || u.Archived {
			continue
		}

		severity := "medium"
		if u.IsAdmin {
			severity = "high"
		}

		switch {
		case !u.IsEnrolledIn2Sv:
			out.Findings = append(out.Findings, checks.Finding{
				Title:        "User is not enrolled in 2-Step Verification",
				Description:  fmt.Sprintf("%s can sign in with a password alone.", u.PrimaryEmail),
				ResourceType: resourceTypeUser,
				ResourceID:   u.ID,
				Severity:     severity,
				Remediation:  "Require 2-Step Verification for the user's organizational unit and have the user enroll.",
				Evidence:     u,
			})
		case !u.IsEnforcedIn2Sv:
			out.Findings = append(out.Findings, checks.Finding{
				Title:        "2-Step Verification is not enforced",
				Description:  fmt.Sprintf("%s is enrolled, but enforcement is off and the user can turn 2SV off.", u.PrimaryEmail),
				ResourceType: resourceTypeUser,
				ResourceID:   u.ID,
				Severity:     "low",
				Remediation:  "Turn on 2-Step Verification enforcement for the user's organizational unit.",
				Evidence:     u,
			})
		default:
			out.PassingResults = append(out.PassingResults, checks.PassingResult{
				Title:        "2-Step Verification enforced",
				Description:  fmt.Sprintf("%s is enrolled in and enforced for 2SV.", u.PrimaryEmail),
				ResourceType: resourceTypeUser,
				ResourceID:   u.ID,
				Evidence:     u,
			})
		}
	}
	out.Logs = append(out.Logs, fmt.Sprintf("evaluated %d google workspace users", len(users)))
	return out, nil
}
