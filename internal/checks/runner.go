package checks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Runner executes manifest checks against registered implementations.
type Runner struct {
	checks map[string]Check
	now    func() time.Time
}

func NewRunner() *Runner {
	return &Runner{
		checks: make(map[string]Check),
		now:    time.Now,
	}
}

// Register binds a check implementation to a manifest check id.
func (r *Runner) Register(checkID string, check Check) error {
	checkID = strings.TrimSpace(checkID)
	if checkID == "" {
		return errors.New("check id is required")
	}
	if check == nil {
		return fmt.Errorf("check %q: implementation is required", checkID)
	}
	if _, exists := r.checks[checkID]; exists {
		return fmt.Errorf("check %q already registered", checkID)
	}
	r.checks[checkID] = check
	return nil
}

// RunAll runs every check in req.Manifest sequentially. A check that errors is
// reported with StatusError and does not stop the others. Only context
// cancellation aborts the run.
func (r *Runner) RunAll(ctx context.Context, req Request) (Report, error) {
	logger := req.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var report Report
	for _, def := range req.Manifest.Checks {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		result := CheckResult{CheckID: def.ID, CheckName: def.Name}
		impl, ok := r.checks[def.ID]
		if !ok {
			result.Status = StatusSkipped
			result.Result.Logs = []string{"no implementation registered"}
			logger.Debug("check skipped", "check_id", def.ID)
			report.Results = append(report.Results, result)
			continue
		}

		started := r.now()
		outcome, err := impl.Run(ctx, req)
		result.DurationMs = r.now().Sub(started).Milliseconds()
		result.Result = outcome

		switch {
		case err != nil:
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			result.Status = StatusError
			result.Result.Logs = append(result.Result.Logs, err.Error())
			logger.Warn("check errored", "check_id", def.ID, "err", err)
		case len(outcome.Findings) > 0:
			result.Status = StatusFailed
		default:
			result.Status = StatusSuccess
		}

		report.TotalFindings += len(outcome.Findings)
		report.TotalPassing += len(outcome.PassingResults)
		report.Results = append(report.Results, result)
		logger.Info("check completed",
			"check_id", def.ID,
			"status", result.Status,
			"findings", len(outcome.Findings),
			"passing", len(outcome.PassingResults),
			"duration_ms", result.DurationMs,
		)
	}
	return report, nil
}

// Flatten returns every finding and passing result across the report in
// check order.
func (r Report) Flatten() ([]Finding, []PassingResult) {
	var findings []Finding
	var passing []PassingResult
	for _, res := range r.Results {
		findings = append(findings, res.Result.Findings...)
		passing = append(passing, res.Result.PassingResults...)
	}
	return findings, passing
}
