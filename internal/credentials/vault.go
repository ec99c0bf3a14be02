package credentials

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	vaultapi "github.com/hashicorp/vault/api"
)

const defaultVaultMount = "secret"

// VaultOptions configure the Vault backed source.
type VaultOptions struct {
	Address   string
	Token     string
	Namespace string
	Mount     string
}

// VaultSource reads connection credentials from a KV v2 mount at
// integrations/<organization>/<connection>.
type VaultSource struct {
	kv kvReader
}

type kvReader interface {
	Get(ctx context.Context, secretPath string) (*vaultapi.KVSecret, error)
}

func NewVaultSource(opts VaultOptions) (*VaultSource, error) {
	address := strings.TrimSpace(opts.Address)
	if address == "" {
		return nil, errors.New("vault address is required")
	}
	token := strings.TrimSpace(opts.Token)
	if token == "" {
		return nil, errors.New("vault token is required")
	}

	cfg := vaultapi.DefaultConfig()
	cfg.Address = address
	cfg.HttpClient = &http.Client{Timeout: defaultHTTPTimeout}
	// Retries are owned by the job pool.
	cfg.MaxRetries = 0

	client, err := vaultapi.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault client setup: %w", err)
	}
	if ns := strings.TrimSpace(opts.Namespace); ns != "" {
		client.SetNamespace(ns)
	}
	client.SetToken(token)

	mount := strings.Trim(strings.TrimSpace(opts.Mount), "/")
	if mount == "" {
		mount = defaultVaultMount
	}
	return &VaultSource{kv: client.KVv2(mount)}, nil
}

func (s *VaultSource) EnsureValid(ctx context.Context, target Target) (Credentials, error) {
	path := secretPath(target)
	secret, err := s.kv.Get(ctx, path)
	if err != nil {
		if errors.Is(err, vaultapi.ErrSecretNotFound) {
			return nil, &Error{Message: "no credentials stored at " + path}
		}
		return nil, &Error{Message: "read vault secret", Retryable: vaultRetryable(ctx, err), Err: err}
	}
	if secret == nil {
		return nil, &Error{Message: "no credentials stored at " + path}
	}
	return flatten(secret.Data), nil
}

func secretPath(target Target) string {
	return "integrations/" + strings.TrimSpace(target.OrganizationID) + "/" + strings.TrimSpace(target.ConnectionID)
}

func vaultRetryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var respErr *vaultapi.ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode >= 500 || respErr.StatusCode == http.StatusTooManyRequests
	}
	return true
}
