// Package checkrunner executes every check of one integration connection and
// records the run.
package checkrunner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/open-sspm/open-grc/internal/checks"
	"github.com/open-sspm/open-grc/internal/credentials"
	"github.com/open-sspm/open-grc/internal/db/gen"
	"github.com/open-sspm/open-grc/internal/manifest"
	"github.com/open-sspm/open-grc/internal/metrics"
)

const (
	RunStatusRunning = "running"
	RunStatusSuccess = "success"
	RunStatusFailed  = "failed"

	ConnectionStatusActive = "active"

	failRunTimeout = 5 * time.Second

	unknownProvider = "unknown"
)

// Store is the subset of queries a run reads and writes.
type Store interface {
	GetConnectionWithProvider(ctx context.Context, id string) (gen.GetConnectionWithProviderRow, error)
	CreateCheckRun(ctx context.Context, arg gen.CreateCheckRunParams) (gen.IntegrationCheckRun, error)
	InsertCheckResults(ctx context.Context, arg []gen.InsertCheckResultsParams) (int64, error)
	// CompleteCheckRun also stamps the connection's last_sync_at in the same
	// statement.
	CompleteCheckRun(ctx context.Context, arg gen.CompleteCheckRunParams) (gen.IntegrationCheckRun, error)
	FailCheckRun(ctx context.Context, arg gen.FailCheckRunParams) (int64, error)
}

// ErrRunNotRunning is returned when a run could not be marked failed because
// it already reached a terminal status.
var ErrRunNotRunning = errors.New("check run is no longer running")

// Request identifies the connection to run. ProviderSlug is optional; when
// empty the slug of the connection's provider is used.
type Request struct {
	ConnectionID   string `json:"connectionId"`
	OrganizationID string `json:"organizationId"`
	ProviderSlug   string `json:"providerSlug"`
}

type Runner struct {
	store       Store
	manifests   manifest.Lookup
	credentials credentials.Source
	executor    checks.Executor
	logger      *slog.Logger
	now         func() time.Time
	newID       func() string
}

func New(store Store, manifests manifest.Lookup, creds credentials.Source, executor checks.Executor, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		store:       store,
		manifests:   manifests,
		credentials: creds,
		executor:    executor,
		logger:      logger,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// Run executes all checks declared for the connection's provider. Expected
// conditions and failures are reported in Result. An error is returned only
// when a started run could not be marked failed.
func (r *Runner) Run(ctx context.Context, req Request) (Result, error) {
	logger := r.logger.With(
		"connection_id", req.ConnectionID,
		"organization_id", req.OrganizationID,
	)

	slug := normalizeSlug(req.ProviderSlug)
	var conn *gen.GetConnectionWithProviderRow
	if slug == "" {
		row, res, ok := r.loadConnection(ctx, req, logger)
		if !ok {
			metrics.CheckRunsTotal.WithLabelValues(unknownProvider, res.Outcome()).Inc()
			return res, nil
		}
		conn = &row
		slug = normalizeSlug(row.ProviderSlug)
	}
	logger = logger.With("provider", slug)

	res, err := r.run(ctx, req, slug, conn, logger)
	metrics.CheckRunsTotal.WithLabelValues(slug, res.Outcome()).Inc()
	return res, err
}

// loadConnection returns the connection when it exists, is active and
// belongs to the requesting organization. Otherwise ok is false and res
// describes the failure.
func (r *Runner) loadConnection(ctx context.Context, req Request, logger *slog.Logger) (row gen.GetConnectionWithProviderRow, res Result, ok bool) {
	row, err := r.store.GetConnectionWithProvider(ctx, req.ConnectionID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		logger.Warn("connection not found")
		return row, failed("Connection not found or inactive", false), false
	case err != nil:
		logger.Error("load connection failed", "err", err)
		return row, failed(fmt.Sprintf("load connection: %v", err), ctx.Err() == nil), false
	}
	if row.Status != ConnectionStatusActive || row.OrganizationID != req.OrganizationID {
		logger.Warn("connection inactive", "status", row.Status)
		return row, failed("Connection not found or inactive", false), false
	}
	return row, Result{}, true
}

func (r *Runner) run(ctx context.Context, req Request, slug string, conn *gen.GetConnectionWithProviderRow, logger *slog.Logger) (Result, error) {
	m, ok := r.manifests.Lookup(slug)
	if !ok {
		logger.Error("manifest not found")
		return failed("Manifest not found: "+slug, false), nil
	}
	if len(m.Checks) == 0 {
		logger.Info("no checks defined")
		return skipped("No checks defined"), nil
	}

	if conn == nil {
		row, res, ok := r.loadConnection(ctx, req, logger)
		if !ok {
			return res, nil
		}
		conn = &row
	}

	variables := decodeVariables(conn.Variables, logger)
	if missing := manifest.MissingVariables(m, variables); len(missing) > 0 {
		logger.Info("missing required variables", "missing", missing)
		res := skipped("Missing required variables: " + strings.Join(missing, ", "))
		res.MissingVariables = missing
		return res, nil
	}

	creds, err := r.credentials.EnsureValid(ctx, credentials.Target{
		ConnectionID:   req.ConnectionID,
		OrganizationID: req.OrganizationID,
		ProviderSlug:   slug,
		AuthType:       m.Auth.Type,
	})
	if err != nil {
		retryable := credentials.IsRetryable(err)
		logger.Error("credential validation failed", "err", err, "retryable", retryable)
		return failed(err.Error(), retryable), nil
	}
	if err := credentials.ValidateShape(m.Auth.Type, creds); err != nil {
		logger.Error("credential shape invalid", "err", err, "auth_type", m.Auth.Type)
		return failed(err.Error(), false), nil
	}

	run, err := r.store.CreateCheckRun(ctx, gen.CreateCheckRunParams{
		ID:             r.newID(),
		ConnectionID:   req.ConnectionID,
		OrganizationID: req.OrganizationID,
		StartedAt:      timestamptz(r.now()),
	})
	if err != nil {
		logger.Error("create check run failed", "err", err)
		return failed(fmt.Sprintf("create check run: %v", err), ctx.Err() == nil), nil
	}
	logger = logger.With("check_run_id", run.ID)
	logger.Info("check run started", "checks", len(m.Checks))

	res, execErr := r.execute(ctx, run, m, creds, variables, logger)
	if execErr == nil {
		return res, nil
	}

	logger.Error("check run failed", "err", execErr)
	if err := r.failRun(ctx, run, execErr); err != nil {
		return failed(execErr.Error(), false), errors.Join(execErr, err)
	}
	res = failed(execErr.Error(), false)
	res.RunID = run.ID
	return res, nil
}

func (r *Runner) execute(
	ctx context.Context,
	run gen.IntegrationCheckRun,
	m manifest.Manifest,
	creds credentials.Credentials,
	variables map[string]any,
	logger *slog.Logger,
) (Result, error) {
	report, err := r.executor.RunAll(ctx, checks.Request{
		Manifest:       m,
		AccessToken:    creds.AccessToken(),
		Credentials:    creds,
		Variables:      variables,
		ConnectionID:   run.ConnectionID,
		OrganizationID: run.OrganizationID,
		Logger:         logger,
	})
	if err != nil {
		return Result{}, fmt.Errorf("run checks: %w", err)
	}

	rows := resultRows(run.ID, report, r.now(), r.newID)
	if len(rows) > 0 {
		if _, err := r.store.InsertCheckResults(ctx, rows); err != nil {
			return Result{}, fmt.Errorf("insert check results: %w", err)
		}
	}

	status := RunStatusSuccess
	if report.TotalFindings > 0 {
		status = RunStatusFailed
	}
	completedAt := r.now()
	duration := completedAt.Sub(run.StartedAt.Time)
	if _, err := r.store.CompleteCheckRun(ctx, gen.CompleteCheckRunParams{
		ID:           run.ID,
		Status:       status,
		CompletedAt:  timestamptz(completedAt),
		DurationMs:   pgtype.Int8{Int64: duration.Milliseconds(), Valid: true},
		TotalChecked: int32(len(report.Results)),
		PassedCount:  int32(report.TotalPassing),
		FailedCount:  int32(report.TotalFindings),
	}); err != nil {
		return Result{}, fmt.Errorf("complete check run: %w", err)
	}

	slug := strings.ToLower(m.Slug)
	metrics.CheckRunDuration.WithLabelValues(slug).Observe(duration.Seconds())
	metrics.CheckResultsTotal.WithLabelValues(slug, "false").Add(float64(report.TotalFindings))
	metrics.CheckResultsTotal.WithLabelValues(slug, "true").Add(float64(report.TotalPassing))
	logger.Info("check run completed",
		"status", status,
		"findings", report.TotalFindings,
		"passing", report.TotalPassing,
		"duration_ms", duration.Milliseconds(),
	)

	return Result{
		Success:       true,
		RunID:         run.ID,
		TotalFindings: report.TotalFindings,
		TotalPassing:  report.TotalPassing,
	}, nil
}

// failRun marks the run failed. It uses a fresh context when ctx is already
// done so cancelled runs are still finalized.
func (r *Runner) failRun(ctx context.Context, run gen.IntegrationCheckRun, cause error) error {
	finishCtx := ctx
	if finishCtx.Err() != nil {
		var cancel context.CancelFunc
		finishCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), failRunTimeout)
		defer cancel()
	}

	msg := strings.TrimSpace(cause.Error())
	if msg == "" {
		msg = "check run failed"
	}
	completedAt := r.now()
	n, err := r.store.FailCheckRun(finishCtx, gen.FailCheckRunParams{
		ID:           run.ID,
		CompletedAt:  timestamptz(completedAt),
		DurationMs:   pgtype.Int8{Int64: completedAt.Sub(run.StartedAt.Time).Milliseconds(), Valid: true},
		ErrorMessage: pgtype.Text{String: msg, Valid: true},
	})
	if err != nil {
		return fmt.Errorf("mark check run %s failed: %w", run.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("mark check run %s failed: %w", run.ID, ErrRunNotRunning)
	}
	return nil
}

func normalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

func resultRows(runID string, report checks.Report, collectedAt time.Time, newID func() string) []gen.InsertCheckResultsParams {
	findings, passing := report.Flatten()
	rows := make([]gen.InsertCheckResultsParams, 0, len(findings)+len(passing))
	ts := timestamptz(collectedAt)
	for _, f := range findings {
		rows = append(rows, gen.InsertCheckResultsParams{
			ID:           newID(),
			CheckRunID:   runID,
			Passed:       false,
			Title:        f.Title,
			Description:  f.Description,
			ResourceType: f.ResourceType,
			ResourceID:   f.ResourceID,
			Severity:     f.Severity,
			Remediation:  pgtype.Text{String: f.Remediation, Valid: true},
			Evidence:     normalizeEvidence(f.Evidence),
			CollectedAt:  ts,
		})
	}
	for _, p := range passing {
		rows = append(rows, gen.InsertCheckResultsParams{
			ID:           newID(),
			CheckRunID:   runID,
			Passed:       true,
			Title:        p.Title,
			Description:  p.Description,
			ResourceType: p.ResourceType,
			ResourceID:   p.ResourceID,
			Severity:     checks.SeverityInfo,
			Evidence:     normalizeEvidence(p.Evidence),
			CollectedAt:  ts,
		})
	}
	return rows
}

// normalizeEvidence encodes evidence as JSON. Values that cannot be encoded
// are stored as null.
func normalizeEvidence(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return []byte("null")
	}
	return b
}

func decodeVariables(raw []byte, logger *slog.Logger) map[string]any {
	out := map[string]any{}
	if len(raw) == 0 {
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		logger.Warn("connection variables are not a JSON object", "err", err)
		return map[string]any{}
	}
	if out == nil {
		out = map[string]any{}
	}
	return out
}

func timestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t.UTC(), Valid: true}
}
