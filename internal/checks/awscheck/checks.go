package awscheck

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ssoadmintypes "github.com/aws/aws-sdk-go-v2/service/ssoadmin/types"
	"github.com/open-sspm/open-grc/internal/checks"
)

const (
	CheckIdentityCenterEnabled    = "aws-identity-center-enabled"
	CheckIdentityCenterUserEmails = "aws-identity-center-user-emails"
	CheckPermissionSetSession     = "aws-permission-set-session-duration"

	maxSessionDuration = 12 * time.Hour
)

// ClientFactory builds a client for one check request.
type ClientFactory func(ctx context.Context, opts Options) (*Client, error)

// Register binds the AWS checks to r. A nil factory uses New.
func Register(r *checks.Runner, factory ClientFactory) error {
	if factory == nil {
		factory = New
	}
	pack := &pack{factory: factory}
	return errors.Join(
		r.Register(CheckIdentityCenterEnabled, checks.CheckFunc(pack.identityCenterEnabled)),
		r.Register(CheckIdentityCenterUserEmails, checks.CheckFunc(pack.userEmails)),
		r.Register(CheckPermissionSetSession, checks.CheckFunc(pack.permissionSetSessionDuration)),
	)
}

type pack struct {
	factory ClientFactory
}

func optionsFromRequest(req checks.Request) Options {
	return Options{
		Region:          req.StringVariable("region"),
		InstanceArn:     req.StringVariable("instance_arn"),
		IdentityStoreID: req.StringVariable("identity_store_id"),
		AccessKeyID:     req.Credentials["access_key_id"],
		SecretAccessKey: req.Credentials["secret_access_key"],
		SessionToken:    req.Credentials["session_token"],
	}
}

func (p *pack) client(ctx context.Context, req checks.Request) (*Client, error) {
	client, err := p.factory(ctx, optionsFromRequest(req))
	if err != nil {
		return nil, fmt.Errorf("aws client: %w", err)
	}
	return client, nil
}

func (p *pack) identityCenterEnabled(ctx context.Context, req checks.Request) (checks.Outcome, error) {
	client, err := p.client(ctx, req)
	if err != nil {
		return checks.Outcome{}, err
	}
	instances, err := client.listInstances(ctx)
	if err != nil {
		return checks.Outcome{}, fmt.Errorf("list identity center instances: %w", err)
	}

	region := req.StringVariable("region")
	var out checks.Outcome
	if len(instances) == 0 {
		out.Findings = append(out.Findings, checks.Finding{
			Title:        "IAM Identity Center is not enabled",
			Description:  fmt.Sprintf("No IAM Identity Center instance was found in %s.", region),
			ResourceType: "AWS::SSO::Instance",
			ResourceID:   region,
			Severity:     "medium",
			Remediation:  "Enable IAM Identity Center and manage workforce access through it instead of IAM users.",
			Evidence:     map[string]any{"region": region, "instances": 0},
		})
		return out, nil
	}

	for _, inst := range instances {
		if inst.Status != "" && inst.Status != string(ssoadmintypes.InstanceStatusActive) {
			out.Findings = append(out.Findings, checks.Finding{
				Title:        "IAM Identity Center instance is not active",
				Description:  fmt.Sprintf("Instance %s has status %s.", inst.Arn, inst.Status),
				ResourceType: "AWS::SSO::Instance",
				ResourceID:   inst.Arn,
				Severity:     "medium",
				Remediation:  "Investigate the instance status in the IAM Identity Center console.",
				Evidence:     inst,
			})
			continue
		}
		out.PassingResults = append(out.PassingResults, checks.PassingResult{
			Title:        "IAM Identity Center is enabled",
			Description:  fmt.Sprintf("Instance %s is active.", inst.Arn),
			ResourceType: "AWS::SSO::Instance",
			ResourceID:   inst.Arn,
			Evidence:     inst,
		})
	}
	return out, nil
}

func (p *pack) userEmails(ctx context.Context, req checks.Request) (checks.Outcome, error) {
	client, err := p.client(ctx, req)
	if err != nil {
		return checks.Outcome{}, err
	}
	users, err := client.listUsers(ctx)
	if err != nil {
		return checks.Outcome{}, fmt.Errorf("list identity store users: %w", err)
	}

	var out checks.Outcome
	for _, u := range users {
		name := u.DisplayName
		if name == "" {
			name = u.UserName
		}
		if name == "" {
			name = u.ID
		}
		if u.Email == "" {
			out.Findings = append(out.Findings, checks.Finding{
				Title:        "Identity Center user has no email",
				Description:  fmt.Sprintf("User %s has no email address, so access cannot be attributed to an employee.", name),
				ResourceType: "AWS::IdentityStore::User",
				ResourceID:   u.ID,
				Severity:     "low",
				Remediation:  "Add a primary email address to the user or remove the user.",
				Evidence:     u,
			})
			continue
		}
		out.PassingResults = append(out.PassingResults, checks.PassingResult{
			Title:        "Identity Center user has an email",
			Description:  fmt.Sprintf("User %s has email %s.", name, u.Email),
			ResourceType: "AWS::IdentityStore::User",
			ResourceID:   u.ID,
			Evidence:     u,
		})
	}
	return out, nil
}

func (p *pack) permissionSetSessionDuration(ctx context.Context, req checks.Request) (checks.Outcome, error) {
	client, err := p.client(ctx, req)
	if err != nil {
		return checks.Outcome{}, err
	}
	sets, err := client.listPermissionSets(ctx)
	if err != nil {
		return checks.Outcome{}, fmt.Errorf("list permission sets: %w", err)
	}

	var out checks.Outcome
	for _, ps := range sets {
		duration, err := parseSessionDuration(ps.SessionDuration)
		if err != nil {
			out.Logs = append(out.Logs, fmt.Sprintf("permission set %s: %v", ps.Arn, err))
			continue
		}
		evidence := map[string]any{"name": ps.Name, "sessionDuration": ps.SessionDuration}
		if duration > maxSessionDuration {
			out.Findings = append(out.Findings, checks.Finding{
				Title:        "Permission set session duration exceeds 12 hours",
				Description:  fmt.Sprintf("Permission set %s allows sessions of %s.", ps.Name, duration),
				ResourceType: "AWS::SSO::PermissionSet",
				ResourceID:   ps.Arn,
				Severity:     "low",
				Remediation:  "Reduce the permission set session duration to 12 hours or less.",
				Evidence:     evidence,
			})
			continue
		}
		out.PassingResults = append(out.PassingResults, checks.PassingResult{
			Title:        "Permission set session duration is bounded",
			Description:  fmt.Sprintf("Permission set %s allows sessions of %s.", ps.Name, duration),
			ResourceType: "AWS::SSO::PermissionSet",
			ResourceID:   ps.Arn,
			Evidence:     evidence,
		})
	}
	return out, nil
}

// parseSessionDuration parses the ISO 8601 durations AWS returns, such as
// PT1H or PT2H30M. An empty value is the AWS default of one hour.
func parseSessionDuration(raw string) (time.Duration, error) {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	if raw == "" {
		return time.Hour, nil
	}
	if !strings.HasPrefix(raw, "PT") || len(raw) == 2 {
		return 0, fmt.Errorf("unsupported session duration %q", raw)
	}
	d, err := time.ParseDuration(strings.ToLower(strings.TrimPrefix(raw, "PT")))
	if err != nil {
		return 0, fmt.Errorf("unsupported session duration %q", raw)
	}
	return d, nil
}
