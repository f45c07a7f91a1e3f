// SPDX-License-Identifier: MPL-2.0

package gitlab

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	// APIPath is appended to the configured host to reach the v4 REST API.
	APIPath = "/api/v4"

	// TokenHeader carries the personal access token.
	TokenHeader = "PRIVATE-TOKEN"

	// maxJSONResponseBytes is the upper bound on JSON API response size (10 MB).
	maxJSONResponseBytes = 10 << 20
)

// ErrInvalidBaseURL is returned by NewClient when the host URL cannot be used.
var ErrInvalidBaseURL = errors.New("invalid GitLab URL")

type (
	// Client talks to a single GitLab instance.
	Client struct {
		httpClient *http.Client
		baseURL    string // host + APIPath, no trailing slash
		token      string // optional; requests are anonymous when empty
		userAgent  string
		perPage    int // 0 leaves the server default in place
	}

	// ClientOption configures a Client during construction.
	ClientOption func(*Client)
)

// WithHTTPClient sets a custom HTTP client, useful for tests, proxies or timeouts.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithToken sets the personal access token sent in the PRIVATE-TOKEN header.
func WithToken(token string) ClientOption {
	return func(cl *Client) {
		cl.token = token
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(cl *Client) {
		cl.userAgent = ua
	}
}

// WithPerPage sets the per_page parameter of list requests. Only the first page
// is ever read, so this bounds how many items a list call can return.
func WithPerPage(n int) ClientOption {
	return func(cl *Client) {
		cl.perPage = n
	}
}

// NewClient creates a Client for the GitLab host at rawURL (e.g. "https://gitlab.com").
// The API path is appended automatically; a URL that already ends in /api/v4 is accepted.
func NewClient(rawURL string, opts ...ClientOption) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(rawURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidBaseURL)
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q has no http(s) scheme", ErrInvalidBaseURL, rawURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: %q has no host", ErrInvalidBaseURL, rawURL)
	}

	c := &Client{
		httpClient: http.DefaultClient,
		baseURL:    strings.TrimSuffix(trimmed, APIPath) + APIPath,
		userAgent:  "glops/dev",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API root this client sends requests to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// PathID escapes a numeric id or a namespaced path ("group/project") for use as
// a single URL path segment, the way the API expects it.
func PathID(id string) string {
	return url.PathEscape(id)
}

// listQuery returns a query with per_page applied when configured.
func (c *Client) listQuery() url.Values {
	q := url.Values{}
	if c.perPage > 0 {
		q.Set("per_page", strconv.Itoa(c.perPage))
	}
	return q
}

// do executes a request against endpoint (relative to the API root) and decodes
// the JSON response into out when out is non-nil. A non-nil in is sent as a JSON body.
func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, in, out any) error {
	reqURL := c.baseURL + endpoint
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var body io.Reader = http.NoBody
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set(TokenHeader, c.token)
	}

	slog.Debug("gitlab request", "method", method, "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{URL: reqURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	if !IsSuccess(resp.StatusCode) {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes)) //nolint:errcheck // Best-effort body capture for diagnostics.
		return &RemoteError{
			Method:     method,
			URL:        reqURL,
			StatusCode: resp.StatusCode,
			Body:       string(text),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxJSONResponseBytes)).Decode(out); err != nil {
		return &DecodeError{URL: reqURL, Err: err}
	}
	return nil
}
