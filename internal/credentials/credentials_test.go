package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	vaultapi "github.com/hashicorp/vault/api"
	"github.com/open-sspm/open-grc/internal/manifest"
)

func TestAPIClientEnsureValid(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/v1/integrations/connections/conn_1/ensure-valid-credentials" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("organizationId"); got != "org_1" {
			t.Errorf("organizationId = %q, want org_1", got)
		}
		if got := r.Header.Get(InternalTokenHeader); got != "secret" {
			t.Errorf("token header = %q, want secret", got)
		}
		writeJSON(t, w, http.StatusOK, map[string]any{
			"success": true,
			"credentials": map[string]any{
				"access_token": "tok",
				"expires_in":   3600,
				"scopes":       []string{"a", "b"},
				"refresh":      nil,
			},
		})
	}))
	defer server.Close()

	creds, err := NewAPIClient(server.URL+"/", "secret", server.Client()).EnsureValid(context.Background(), Target{
		ConnectionID:   "conn_1",
		OrganizationID: "org_1",
	})
	if err != nil {
		t.Fatalf("EnsureValid() error = %v", err)
	}
	if creds.AccessToken() != "tok" {
		t.Fatalf("AccessToken() = %q, want tok", creds.AccessToken())
	}
	if creds["expires_in"] != "3600" {
		t.Fatalf("expires_in = %q, want 3600", creds["expires_in"])
	}
	if creds["scopes"] != `["a","b"]` {
		t.Fatalf("scopes = %q", creds["scopes"])
	}
	if _, ok := creds["refresh"]; ok {
		t.Fatal("nil credential values should be dropped")
	}
}

func TestAPIClientEnsureValid_ErrorClassification(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name          string
		status        int
		body          string
		wantRetryable bool
		wantMessage   string
	}{
		{name: "server error", status: http.StatusBadGateway, body: "upstream down", wantRetryable: true, wantMessage: "upstream down"},
		{name: "client error", status: http.StatusNotFound, body: `{"message":"Connection not found"}`, wantRetryable: false, wantMessage: "Connection not found"},
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{}`, wantRetryable: true},
		{name: "unsuccessful", status: http.StatusOK, body: `{"success":false,"message":"refresh token revoked"}`, wantRetryable: false, wantMessage: "refresh token revoked"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			_, err := NewAPIClient(server.URL, "", server.Client()).EnsureValid(context.Background(), Target{ConnectionID: "c", OrganizationID: "o"})
			if err == nil {
				t.Fatal("expected error")
			}
			if got := IsRetryable(err); got != tc.wantRetryable {
				t.Fatalf("IsRetryable() = %v, want %v (err=%v)", got, tc.wantRetryable, err)
			}
			if tc.wantMessage != "" && !strings.Contains(err.Error(), tc.wantMessage) {
				t.Fatalf("error = %q, want to contain %q", err.Error(), tc.wantMessage)
			}
		})
	}
}

func TestAPIClientEnsureValid_TransportErrorIsRetryable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewAPIClient(url, "", nil).EnsureValid(context.Background(), Target{ConnectionID: "c", OrganizationID: "o"})
	if !IsRetryable(err) {
		t.Fatalf("IsRetryable(%v) = false, want true", err)
	}
}

func TestValidateShape(t *testing.T) {
	t.Parallel()

	if err := ValidateShape(manifest.AuthTypeOAuth2, Credentials{"access_token": "  "}); err == nil {
		t.Fatal("expected missing access_token error")
	}
	if err := ValidateShape(manifest.AuthTypeOAuth2, Credentials{"access_token": "tok"}); err != nil {
		t.Fatalf("ValidateShape(oauth2) error = %v", err)
	}
	if err := ValidateShape(manifest.AuthTypeCustom, Credentials{}); err == nil {
		t.Fatal("expected empty credentials error")
	}
	if err := ValidateShape(manifest.AuthTypeCustom, Credentials{"api_key": ""}); err != nil {
		t.Fatalf("ValidateShape(custom) error = %v", err)
	}
}

type staticSource struct {
	name  string
	calls int
}

func (s *staticSource) EnsureValid(context.Context, Target) (Credentials, error) {
	s.calls++
	return Credentials{"source": s.name}, nil
}

func TestByAuthType(t *testing.T) {
	t.Parallel()

	oauth := &staticSource{name: "api"}
	custom := &staticSource{name: "vault"}
	router := ByAuthType{OAuth2: oauth, Custom: custom}

	got, _ := router.EnsureValid(context.Background(), Target{AuthType: manifest.AuthTypeOAuth2})
	if got["source"] != "api" {
		t.Fatalf("oauth2 routed to %q", got["source"])
	}
	got, _ = router.EnsureValid(context.Background(), Target{AuthType: manifest.AuthTypeCustom})
	if got["source"] != "vault" {
		t.Fatalf("custom routed to %q", got["source"])
	}

	fallback := ByAuthType{OAuth2: oauth}
	got, _ = fallback.EnsureValid(context.Background(), Target{AuthType: manifest.AuthTypeCustom})
	if got["source"] != "api" {
		t.Fatalf("custom without vault routed to %q", got["source"])
	}
}

type fakeKV struct {
	path   string
	secret *vaultapi.KVSecret
	err    error
}

func (f *fakeKV) Get(_ context.Context, path string) (*vaultapi.KVSecret, error) {
	f.path = path
	return f.secret, f.err
}

func TestVaultSourceEnsureValid(t *testing.T) {
	t.Parallel()

	kv := &fakeKV{secret: &vaultapi.KVSecret{Data: map[string]any{"access_key_id": "AKIA", "secret_access_key": "s3cr3t"}}}
	src := &VaultSource{kv: kv}

	creds, err := src.EnsureValid(context.Background(), Target{OrganizationID: "org_1", ConnectionID: "conn_1"})
	if err != nil {
		t.Fatalf("EnsureValid() error = %v", err)
	}
	if kv.path != "integrations/org_1/conn_1" {
		t.Fatalf("path = %q", kv.path)
	}
	if creds["access_key_id"] != "AKIA" {
		t.Fatalf("access_key_id = %q", creds["access_key_id"])
	}
}

func TestVaultSourceEnsureValid_Errors(t *testing.T) {
	t.Parallel()

	notFound := &VaultSource{kv: &fakeKV{err: vaultapi.ErrSecretNotFound}}
	_, err := notFound.EnsureValid(context.Background(), Target{OrganizationID: "o", ConnectionID: "c"})
	if err == nil || IsRetryable(err) {
		t.Fatalf("not found err = %v, want non-retryable error", err)
	}

	unavailable := &VaultSource{kv: &fakeKV{err: &vaultapi.ResponseError{StatusCode: http.StatusServiceUnavailable}}}
	_, err = unavailable.EnsureValid(context.Background(), Target{OrganizationID: "o", ConnectionID: "c"})
	if !IsRetryable(err) {
		t.Fatalf("503 err = %v, want retryable", err)
	}

	forbidden := &VaultSource{kv: &fakeKV{err: &vaultapi.ResponseError{StatusCode: http.StatusForbidden}}}
	_, err = forbidden.EnsureValid(context.Background(), Target{OrganizationID: "o", ConnectionID: "c"})
	if err == nil || IsRetryable(err) {
		t.Fatalf("403 err = %v, want non-retryable", err)
	}

	var credErr *Error
	if !errors.As(err, &credErr) {
		t.Fatalf("err = %T, want *Error", err)
	}
}

func TestNewVaultSource_RequiresAddressAndToken(t *testing.T) {
	t.Parallel()

	if _, err := NewVaultSource(VaultOptions{Token: "t"}); err == nil {
		t.Fatal("expected address error")
	}
	if _, err := NewVaultSource(VaultOptions{Address: "http://127.0.0.1:8200"}); err == nil {
		t.Fatal("expected token error")
	}
	if _, err := NewVaultSource(VaultOptions{Address: "http://127.0.0.1:8200", Token: "t"}); err != nil {
		t.Fatalf("NewVaultSource() error = %v", err)
	}
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, payload any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		t.Errorf("encode response: %v", err)
	}
}
