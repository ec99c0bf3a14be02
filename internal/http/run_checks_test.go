package httpapp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/open-sspm/open-grc/internal/checkrunner"
	"github.com/open-sspm/open-grc/internal/checks"
	"github.com/open-sspm/open-grc/internal/credentials"
	"github.com/open-sspm/open-grc/internal/db/gen"
	"github.com/open-sspm/open-grc/internal/http/handlers"
	"github.com/open-sspm/open-grc/internal/jobs"
	"github.com/open-sspm/open-grc/internal/manifest"
)

// runStore is an in-memory checkrunner.Store holding one connection.
type runStore struct {
	connection gen.GetConnectionWithProviderRow
	runs       []gen.CreateCheckRunParams
	results    []gen.InsertCheckResultsParams
	completed  []gen.CompleteCheckRunParams
}

func (s *runStore) GetConnectionWithProvider(context.Context, string) (gen.GetConnectionWithProviderRow, error) {
	return s.connection, nil
}

func (s *runStore) CreateCheckRun(_ context.Context, arg gen.CreateCheckRunParams) (gen.IntegrationCheckRun, error) {
	s.runs = append(s.runs, arg)
	return gen.IntegrationCheckRun{
		ID:             arg.ID,
		ConnectionID:   arg.ConnectionID,
		OrganizationID: arg.OrganizationID,
		Status:         checkrunner.RunStatusRunning,
		StartedAt:      arg.StartedAt,
	}, nil
}

func (s *runStore) InsertCheckResults(_ context.Context, arg []gen.InsertCheckResultsParams) (int64, error) {
	s.results = append(s.results, arg...)
	return int64(len(arg)), nil
}

func (s *runStore) CompleteCheckRun(_ context.Context, arg gen.CompleteCheckRunParams) (gen.IntegrationCheckRun, error) {
	s.completed = append(s.completed, arg)
	return gen.IntegrationCheckRun{ID: arg.ID, Status: arg.Status, CompletedAt: arg.CompletedAt}, nil
}

func (s *runStore) FailCheckRun(context.Context, gen.FailCheckRunParams) (int64, error) {
	return 1, nil
}

type staticCredentials struct {
	creds credentials.Credentials
}

func (s staticCredentials) EnsureValid(context.Context, credentials.Target) (credentials.Credentials, error) {
	return s.creds, nil
}

func newCheckRunner(t *testing.T, store *runStore) *checkrunner.Runner {
	t.Helper()

	reg := manifest.NewRegistry()
	if err := reg.Register(manifest.Manifest{
		Slug:     "aws",
		Name:     "AWS",
		Category: manifest.CategoryCloud,
		Auth:     manifest.Auth{Type: manifest.AuthTypeCustom},
		Checks:   []manifest.Check{{ID: "mfa", Name: "MFA"}},
	}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	executor := checks.NewRunner()
	if err := executor.Register("mfa", checks.CheckFunc(func(context.Context, checks.Request) (checks.Outcome, error) {
		return checks.Outcome{
			Findings:       []checks.Finding{{Title: "root has no MFA", Severity: "high"}},
			PassingResults: []checks.PassingResult{{Title: "alice has MFA"}},
		}, nil
	})); err != nil {
		t.Fatalf("executor.Register() error = %v", err)
	}

	creds := staticCredentials{creds: credentials.Credentials{"access_key_id": "AKIA"}}
	return checkrunner.New(store, reg, creds, executor, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRunChecksInlineResolvesProviderFromConnection(t *testing.T) {
	t.Parallel()

	store := &runStore{connection: gen.GetConnectionWithProviderRow{
		ID:             "conn_1",
		OrganizationID: "org_1",
		Status:         checkrunner.ConnectionStatusActive,
		Variables:      []byte(`{}`),
		ProviderSlug:   "aws",
	}}
	es := newTestServer(&handlers.Handlers{
		Runner:      newCheckRunner(t, store),
		RetryPolicy: jobs.RetryPolicy{MaxAttempts: 1},
	})

	rec := serve(t, es, http.MethodPost, "/v1/cloud-security/connections/conn_1/run-checks?organizationId=org_1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body=%s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var res checkrunner.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if !res.Success || res.RunID == "" || res.TotalFindings != 1 || res.TotalPassing != 1 {
		t.Fatalf("result = %+v, want completed run with 1 finding and 1 passing", res)
	}
	if len(store.runs) != 1 || len(store.results) != 2 {
		t.Fatalf("runs=%d results=%d, want 1/2", len(store.runs), len(store.results))
	}
	if len(store.completed) != 1 || store.completed[0].Status != checkrunner.RunStatusFailed {
		t.Fatalf("completed = %+v, want one failed run", store.completed)
	}
}
