package googlecheck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	defaultDirectoryBaseURL = "https://admin.googleapis.com/admin/directory/v1"
	defaultTimeout          = 60 * time.Second
	defaultCustomer         = "my_customer"
	maxAttempts             = 4
	maxResponseBytes        = 8 << 20
)

// Options configure a Directory API client.
type Options struct {
	AccessToken      string
	HTTPClient       *http.Client
	DirectoryBaseURL string
}

// Client reads users from the Admin SDK Directory API with a connection's
// OAuth access token.
type Client struct {
	http             *http.Client
	directoryBaseURL string
}

// User is the subset of a Directory user the checks inspect.
type User struct {
	ID              string `json:"id"`
	PrimaryEmail    string `json:"primaryEmail"`
	Suspended       bool   `json:"suspended"`
	Archived        bool   `json:"archived"`
	IsAdmin         bool   `json:"isAdmin"`
	IsEnrolledIn2Sv bool   `json:"isEnrolledIn2Sv"`
	IsEnforcedIn2Sv bool   `json:"isEnforcedIn2Sv"`
}

func New(ctx context.Context, opts Options) (*Client, error) {
	token := strings.TrimSpace(opts.AccessToken)
	if token == "" {
		return nil, errors.New("google workspace access token is required")
	}

	base := opts.HTTPClient
	if base == nil {
		base = &http.Client{Timeout: defaultTimeout}
	}
	// The oauth2 client reads its base transport from the context.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
	httpClient.Timeout = base.Timeout

	baseURL := strings.TrimRight(strings.TrimSpace(opts.DirectoryBaseURL), "/")
	if baseURL == "" {
		baseURL = defaultDirectoryBaseURL
	}
	return &Client{http: httpClient, directoryBaseURL: baseURL}, nil
}

func (c *Client) ListUsers(ctx context.Context, customerID string) ([]User, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		customerID = defaultCustomer
	}

	var (
		out       []User
		pageToken string
	)
	for {
		query := url.Values{
			"customer":   {customerID},
			"maxResults": {"500"},
			"orderBy":    {"email"},
		}
		if pageToken != "" {
			query.Set("pageToken", pageToken)
		}

		body, err := c.get(ctx, c.directoryBaseURL+"/users?"+query.Encode())
		if err != nil {
			return nil, err
		}

		var page struct {
			NextPageToken string `json:"nextPageToken"`
			Users         []User `json:"users"`
		}
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("decode google workspace users page: %w", err)
		}
		out = append(out, page.Users...)

		pageToken = strings.TrimSpace(page.NextPageToken)
		if pageToken == "" {
			return out, nil
		}
	}
}

func (c *Client) get(ctx context.Context, requestURL string) ([]byte, error) {
	var lastErr error
	backoff := 500 * time.Millisecond

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, 8*time.Second)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return body, nil
		}
		lastErr = fmt.Errorf("google api request failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
		if !shouldRetryStatus(resp.StatusCode) {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

func shouldRetryStatus(statusCode int) bool {
	if statusCode == http.StatusTooManyRequests {
		return true
	}
	return statusCode >= 500 && statusCode < 600
}
