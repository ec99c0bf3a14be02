package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/open-sspm/open-grc/internal/checkrunner"
	"github.com/open-sspm/open-grc/internal/checks"
	"github.com/open-sspm/open-grc/internal/checks/awscheck"
	"github.com/open-sspm/open-grc/internal/checks/googlecheck"
	"github.com/open-sspm/open-grc/internal/config"
	"github.com/open-sspm/open-grc/internal/credentials"
	"github.com/open-sspm/open-grc/internal/db/gen"
	"github.com/open-sspm/open-grc/internal/employeesync"
	"github.com/open-sspm/open-grc/internal/jobs"
	"github.com/open-sspm/open-grc/internal/logging"
	"github.com/open-sspm/open-grc/internal/manifest"
	"github.com/open-sspm/open-grc/internal/taskreview"
)

const (
	jobEmployeeSync = "employee-sync"
	jobTaskReview   = "task-review"

	internalAPITimeout = 30 * time.Second
)

// app holds the dependencies shared by every command that talks to the
// database.
type app struct {
	cfg       config.Config
	pool      *pgxpool.Pool
	q         *gen.Queries
	manifests *manifest.Registry
	logger    *slog.Logger
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	manifests, err := manifest.NewBuiltinRegistry()
	if err != nil {
		return nil, fmt.Errorf("load provider manifests: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:       cfg,
		pool:      pool,
		q:         gen.New(pool),
		manifests: manifests,
		logger:    slog.Default(),
	}, nil
}

func (a *app) Close() {
	if a != nil && a.pool != nil {
		a.pool.Close()
	}
}

func newCredentialSource(cfg config.Config) (credentials.Source, error) {
	api := credentials.NewAPIClient(cfg.InternalAPIURL, cfg.InternalAPIToken, &http.Client{Timeout: internalAPITimeout})
	if cfg.CredentialsSource != config.CredentialsSourceVault {
		return api, nil
	}

	vault, err := credentials.NewVaultSource(credentials.VaultOptions{
		Address:   cfg.VaultAddr,
		Token:     cfg.VaultToken,
		Namespace: cfg.VaultNamespace,
		Mount:     cfg.VaultMount,
	})
	if err != nil {
		return nil, err
	}
	return credentials.ByAuthType{OAuth2: api, Custom: vault}, nil
}

func newCheckExecutor() (*checks.Runner, error) {
	r := checks.NewRunner()
	if err := awscheck.Register(r, nil); err != nil {
		return nil, fmt.Errorf("register aws checks: %w", err)
	}
	if err := googlecheck.Register(r, nil); err != nil {
		return nil, fmt.Errorf("register google workspace checks: %w", err)
	}
	return r, nil
}

func (a *app) checkRunner() (*checkrunner.Runner, error) {
	creds, err := newCredentialSource(a.cfg)
	if err != nil {
		return nil, err
	}
	executor, err := newCheckExecutor()
	if err != nil {
		return nil, err
	}
	return checkrunner.New(a.q, a.manifests, creds, executor, logging.WithComponent(a.logger, "checkrunner")), nil
}

func retryPolicy(cfg config.Config) jobs.RetryPolicy {
	return jobs.RetryPolicy{
		MaxAttempts: cfg.CheckRunMaxAttempts,
		BackoffBase: cfg.CheckRunBackoffBase,
		BackoffMax:  cfg.CheckRunBackoffMax,
		MaxDuration: cfg.CheckRunMaxDuration,
	}
}

func (a *app) employeeSyncJob() (jobs.ScheduledJob, error) {
	if a.cfg.InternalAPIURL == "" {
		return jobs.ScheduledJob{}, errors.New("INTERNAL_API_URL is required for employee sync")
	}
	client := employeesync.NewClient(a.cfg.InternalAPIURL, a.cfg.InternalAPIToken, nil)
	dispatcher := employeesync.NewDispatcher(a.q, a.manifests, client, logging.WithComponent(a.logger, "employeesync"))
	return jobs.ScheduledJob{
		Name:        jobEmployeeSync,
		Schedule:    a.cfg.EmployeeSyncSchedule,
		MaxDuration: a.cfg.EmployeeSyncMaxDuration,
		Run: func(ctx context.Context) error {
			_, err := dispatcher.Dispatch(ctx)
			return err
		},
	}, nil
}

func (a *app) taskReviewJob() jobs.ScheduledJob {
	job := taskreview.New(a.q, logging.WithComponent(a.logger, "taskreview"))
	return jobs.ScheduledJob{
		Name:     jobTaskReview,
		Schedule: a.cfg.TaskReviewSchedule,
		Run: func(ctx context.Context) error {
			_, err := job.Run(ctx)
			return err
		},
	}
}
