package employeesync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/open-sspm/open-grc/internal/credentials"
)

const (
	defaultHTTPTimeout = 5 * time.Minute
	maxErrorBodyBytes  = 4 << 10
)

// SyncResult is the internal API's report for one organization.
type SyncResult struct {
	Success     bool       `json:"success"`
	Imported    int        `json:"imported"`
	Reactivated int        `json:"reactivated"`
	Deactivated int        `json:"deactivated"`
	Skipped     int        `json:"skipped"`
	Errors      errorCount `json:"errors"`
}

// errorCount accepts either a number or a list of error messages.
type errorCount int

func (c *errorCount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*c = 0
		return nil
	}
	if b[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		*c = errorCount(len(items))
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*c = errorCount(n)
	return nil
}

// Client triggers employee syncs through the internal API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:      strings.TrimSpace(token),
		httpClient: httpClient,
	}
}

func (c *Client) SyncEmployees(ctx context.Context, provider, organizationID, connectionID string) (SyncResult, error) {
	if c.baseURL == "" {
		return SyncResult{}, fmt.Errorf("internal API URL is not configured")
	}

	endpoint := fmt.Sprintf("%s/v1/integrations/sync/%s/employees?%s",
		c.baseURL,
		url.PathEscape(provider),
		url.Values{
			"organizationId": {organizationID},
			"connectionId":   {connectionID},
		}.Encode(),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return SyncResult{}, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set(credentials.InternalTokenHeader, c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return SyncResult{}, fmt.Errorf("sync %s employees: %w", provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return SyncResult{}, fmt.Errorf("sync %s employees: status %d: %s", provider, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out SyncResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return SyncResult{}, fmt.Errorf("decode %s sync response: %w", provider, err)
	}
	return out, nil
}
