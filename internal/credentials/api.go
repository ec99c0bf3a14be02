package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// InternalTokenHeader authenticates calls to the internal API.
	InternalTokenHeader = "X-Internal-Token"

	defaultHTTPTimeout = 30 * time.Second
	maxErrorBodyBytes  = 4 << 10
)

// APIClient calls the internal ensure-valid-credentials endpoint, which
// refreshes expired OAuth tokens before returning them.
type APIClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewAPIClient(baseURL, token string, httpClient *http.Client) *APIClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &APIClient{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:      strings.TrimSpace(token),
		httpClient: httpClient,
	}
}

type ensureValidResponse struct {
	Success     bool           `json:"success"`
	Credentials map[string]any `json:"credentials"`
	Message     string         `json:"message"`
}

func (c *APIClient) EnsureValid(ctx context.Context, target Target) (Credentials, error) {
	if c.baseURL == "" {
		return nil, &Error{Message: "internal API URL is not configured"}
	}

	endpoint := fmt.Sprintf("%s/v1/integrations/connections/%s/ensure-valid-credentials?%s",
		c.baseURL,
		url.PathEscape(target.ConnectionID),
		url.Values{"organizationId": {target.OrganizationID}}.Encode(),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, &Error{Message: "build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set(InternalTokenHeader, c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Message: "ensure valid credentials", Retryable: ctx.Err() == nil, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &Error{Message: "read response", Retryable: true, Err: err}
	}

	var payload ensureValidResponse
	decodeErr := json.Unmarshal(body, &payload)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(payload.Message)
		if decodeErr != nil || msg == "" {
			msg = truncate(strings.TrimSpace(string(body)), maxErrorBodyBytes)
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &Error{
			Message:    msg,
			StatusCode: resp.StatusCode,
			Retryable:  resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests,
		}
	}
	if decodeErr != nil {
		return nil, &Error{Message: "decode response", Err: decodeErr}
	}
	if !payload.Success {
		msg := strings.TrimSpace(payload.Message)
		if msg == "" {
			msg = "credential validation failed"
		}
		return nil, &Error{Message: msg}
	}
	return flatten(payload.Credentials), nil
}

// flatten converts decoded credential values to strings. Nested values are
// re-encoded as JSON.
func flatten(in map[string]any) Credentials {
	out := make(Credentials, len(in))
	for k, v := range in {
		switch t := v.(type) {
		case nil:
			continue
		case string:
			out[k] = t
		case float64, bool:
			out[k] = fmt.Sprint(t)
		default:
			b, err := json.Marshal(t)
			if err != nil {
				continue
			}
			out[k] = string(b)
		}
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
