package employeesync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/open-sspm/open-grc/internal/credentials"
	"github.com/open-sspm/open-grc/internal/db/gen"
	"github.com/open-sspm/open-grc/internal/manifest"
)

type fakeStore struct {
	orgs        []gen.ListOrganizationsWithEmployeeSyncRow
	orgsErr     error
	connections map[string]gen.GetActiveConnectionByProviderSlugRow
	connErr     map[string]error
}

func (f *fakeStore) ListOrganizationsWithEmployeeSync(context.Context) ([]gen.ListOrganizationsWithEmployeeSyncRow, error) {
	return f.orgs, f.orgsErr
}

func (f *fakeStore) GetActiveConnectionByProviderSlug(_ context.Context, arg gen.GetActiveConnectionByProviderSlugParams) (gen.GetActiveConnectionByProviderSlugRow, error) {
	if err := f.connErr[arg.OrganizationID]; err != nil {
		return gen.GetActiveConnectionByProviderSlugRow{}, err
	}
	conn, ok := f.connections[arg.OrganizationID]
	if !ok || conn.ProviderSlug != arg.ProviderSlug {
		return gen.GetActiveConnectionByProviderSlugRow{}, pgx.ErrNoRows
	}
	return conn, nil
}

type syncCall struct {
	provider, organizationID, connectionID string
}

type fakeSyncer struct {
	calls []syncCall
	errs  map[string]error
}

func (f *fakeSyncer) SyncEmployees(_ context.Context, provider, organizationID, connectionID string) (SyncResult, error) {
	f.calls = append(f.calls, syncCall{provider, organizationID, connectionID})
	if err := f.errs[organizationID]; err != nil {
		return SyncResult{}, err
	}
	return SyncResult{Success: true, Imported: 2, Deactivated: 1}, nil
}

func builtinManifests(t *testing.T) *manifest.Registry {
	t.Helper()
	reg, err := manifest.NewBuiltinRegistry()
	if err != nil {
		t.Fatalf("NewBuiltinRegistry() error = %v", err)
	}
	return reg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDispatchSkipsAndContinuesAfterFailures(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		orgs: []gen.ListOrganizationsWithEmployeeSyncRow{
			{ID: "org_a", EmployeeSyncProvider: "google-workspace"},
			{ID: "org_b", EmployeeSyncProvider: "rippling"},
			{ID: "org_c", EmployeeSyncProvider: "bamboohr"},
			{ID: "org_d", EmployeeSyncProvider: "jumpcloud"},
			{ID: "org_e", EmployeeSyncProvider: "jumpcloud"},
		},
		connections: map[string]gen.GetActiveConnectionByProviderSlugRow{
			"org_a": {ID: "conn_a", ProviderSlug: "google-workspace"},
			"org_b": {ID: "conn_b", ProviderSlug: "rippling"},
			"org_e": {ID: "conn_e", ProviderSlug: "jumpcloud"},
		},
	}
	syncer := &fakeSyncer{errs: map[string]error{"org_b": errors.New("boom")}}

	d := NewDispatcher(store, builtinManifests(t), syncer, discardLogger())
	summary, err := d.Dispatch(context.Background())
	if err == nil || !strings.Contains(err.Error(), "org_b") {
		t.Fatalf("Dispatch() error = %v, want org_b failure", err)
	}

	want := Summary{Organizations: 5, Synced: 2, Skipped: 2, Failed: 1, Imported: 4, Deactivated: 2}
	if summary != want {
		t.Fatalf("summary = %+v, want %+v", summary, want)
	}

	if len(syncer.calls) != 3 {
		t.Fatalf("sync calls = %d, want 3", len(syncer.calls))
	}
	if got := syncer.calls[2]; got != (syncCall{"jumpcloud", "org_e", "conn_e"}) {
		t.Fatalf("last call = %+v", got)
	}
}

func TestDispatchListError(t *testing.T) {
	t.Parallel()

	store := &fakeStore{orgsErr: errors.New("db down")}
	d := NewDispatcher(store, builtinManifests(t), &fakeSyncer{}, discardLogger())
	if _, err := d.Dispatch(context.Background()); err == nil {
		t.Fatalf("Dispatch() error = nil, want error")
	}
}

func TestDispatchConnectionLookupError(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		orgs:    []gen.ListOrganizationsWithEmployeeSyncRow{{ID: "org_a", EmployeeSyncProvider: "rippling"}},
		connErr: map[string]error{"org_a": errors.New("timeout")},
	}
	syncer := &fakeSyncer{}
	d := NewDispatcher(store, builtinManifests(t), syncer, discardLogger())

	summary, err := d.Dispatch(context.Background())
	if err == nil {
		t.Fatalf("Dispatch() error = nil, want error")
	}
	if summary.Failed != 1 || len(syncer.calls) != 0 {
		t.Fatalf("summary = %+v calls = %d", summary, len(syncer.calls))
	}
}

func TestClientSyncEmployees(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/v1/integrations/sync/rippling/employees" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("organizationId"); got != "org_1" {
			t.Errorf("organizationId = %q", got)
		}
		if got := r.URL.Query().Get("connectionId"); got != "conn_1" {
			t.Errorf("connectionId = %q", got)
		}
		if got := r.Header.Get(credentials.InternalTokenHeader); got != "secret" {
			t.Errorf("token header = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"imported":3,"reactivated":1,"deactivated":2,"skipped":4,"errors":["a","b"]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "secret", srv.Client())
	res, err := c.SyncEmployees(context.Background(), "rippling", "org_1", "conn_1")
	if err != nil {
		t.Fatalf("SyncEmployees() error = %v", err)
	}
	want := SyncResult{Success: true, Imported: 3, Reactivated: 1, Deactivated: 2, Skipped: 4, Errors: 2}
	if res != want {
		t.Fatalf("result = %+v, want %+v", res, want)
	}
}

func TestClientSyncEmployeesNumericErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"success":false,"errors":7}`)
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL, "", srv.Client()).SyncEmployees(context.Background(), "jumpcloud", "org", "conn")
	if err != nil {
		t.Fatalf("SyncEmployees() error = %v", err)
	}
	if res.Errors != 7 || res.Success {
		t.Fatalf("result = %+v", res)
	}
}

func TestClientSyncEmployeesNon2xxIncludesBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "upstream exploded")
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", srv.Client()).SyncEmployees(context.Background(), "rippling", "org", "conn")
	if err == nil {
		t.Fatalf("SyncEmployees() error = nil, want error")
	}
	if !strings.Contains(err.Error(), "upstream exploded") || !strings.Contains(err.Error(), "502") {
		t.Fatalf("error = %v, want status and body", err)
	}
}

func TestClientRequiresBaseURL(t *testing.T) {
	t.Parallel()

	if _, err := NewClient("  ", "", nil).SyncEmployees(context.Background(), "rippling", "o", "c"); err == nil {
		t.Fatalf("SyncEmployees() error = nil, want error")
	}
}
