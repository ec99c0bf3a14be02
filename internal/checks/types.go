// Package checks runs the automated checks a provider manifest declares
// against a single connection.
package checks

import (
	"context"
	"log/slog"

	"github.com/open-sspm/open-grc/internal/manifest"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

const SeverityInfo = "info"

// Request carries everything a check needs to talk to the provider.
type Request struct {
	Manifest       manifest.Manifest
	AccessToken    string
	Credentials    map[string]string
	Variables      map[string]any
	ConnectionID   string
	OrganizationID string
	Logger         *slog.Logger
}

// Finding is a failed assertion about a provider resource.
type Finding struct {
	Title        string
	Description  string
	ResourceType string
	ResourceID   string
	Severity     string
	Remediation  string
	Evidence     any
}

// PassingResult is a resource that satisfied a check.
type PassingResult struct {
	Title        string
	Description  string
	ResourceType string
	ResourceID   string
	Evidence     any
}

// Outcome is what a single check produced.
type Outcome struct {
	Findings       []Finding
	PassingResults []PassingResult
	Logs           []string
}

type CheckResult struct {
	CheckID    string
	CheckName  string
	Status     string
	Result     Outcome
	DurationMs int64
}

// Report aggregates every check run for one connection.
type Report struct {
	TotalFindings int
	TotalPassing  int
	Results       []CheckResult
}

// Check is a single check implementation.
type Check interface {
	Run(ctx context.Context, req Request) (Outcome, error)
}

// CheckFunc adapts a function to Check.
type CheckFunc func(ctx context.Context, req Request) (Outcome, error)

func (f CheckFunc) Run(ctx context.Context, req Request) (Outcome, error) {
	return f(ctx, req)
}

// Executor runs all checks declared by a manifest.
type Executor interface {
	RunAll(ctx context.Context, req Request) (Report, error)
}
