// Package crm is the HTTP client for the Xeno CRM REST API.
//
// The client keeps a cookie jar so the session cookie set by the server at
// login (or supplied with WithSessionCookie) is attached to every /api call.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/leapstack-labs/xenocrm/pkg/rules"
	"golang.org/x/net/publicsuffix"
)

// maxErrorBody caps how much of a failed response is kept in StatusError.
const maxErrorBody = 512

// Client talks to one CRM API base URL.
type Client struct {
	base    *url.URL
	http    *http.Client
	logger  *slog.Logger
	timeout time.Duration

	cookieName  string
	cookieValue string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient uses hc for transport. Its Jar is replaced by the client's own.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		cp := *hc
		c.http = &cp
	}
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSessionCookie seeds the jar with an existing session cookie.
func WithSessionCookie(name, value string) Option {
	return func(c *Client) {
		c.cookieName = name
		c.cookieValue = value
	}
}

// WithTimeout bounds each request. Zero means no per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// New creates a client for baseURL, which must be an absolute http(s) URL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := ParseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	c := &Client{
		base:   u,
		http:   &http.Client{},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	if c.cookieName != "" && c.cookieValue != "" {
		jar.SetCookies(u, []*http.Cookie{{
			Name:  c.cookieName,
			Value: c.cookieValue,
			Path:  "/",
		}})
	}
	c.http.Jar = jar

	return c, nil
}

// ParseBaseURL validates an API base URL and strips any trailing slash.
func ParseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("api url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid api url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid api url %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid api url %q: missing host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// LoginURL is the full-page navigation target that starts the OAuth login.
func (c *Client) LoginURL() string {
	return c.endpoint("/auth/google")
}

// LogoutURL is the full-page navigation target that ends the session.
func (c *Client) LogoutURL() string {
	return c.endpoint("/auth/logout")
}

// IsLoggedIn asks the API whether the current session is authenticated.
func (c *Client) IsLoggedIn(ctx context.Context) (bool, error) {
	var resp sessionResponse
	if err := c.do(ctx, http.MethodGet, "/api/is-logged-in", nil, &resp); err != nil {
		return false, err
	}
	return resp.Success, nil
}

// PreviewAudience returns the number of customers matching tree.
func (c *Client) PreviewAudience(ctx context.Context, tree rules.Group) (int, error) {
	const path = "/api/campaigns/preview"
	var resp previewResponse
	if err := c.do(ctx, http.MethodPost, path, tree, &resp); err != nil {
		return 0, err
	}
	if resp.Count == nil {
		return 0, fmt.Errorf("%w: POST %s: missing count", ErrMalformedResponse, path)
	}
	return *resp.Count, nil
}

// TextToRules forwards prompt to the AI endpoint and returns the tree it produced.
// The tree is not validated.
func (c *Client) TextToRules(ctx context.Context, prompt string) (rules.Group, error) {
	const path = "/api/ai/text-to-rules"
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, path, promptRequest{Prompt: prompt}, &raw); err != nil {
		return rules.Group{}, err
	}
	tree, err := rules.ParseBytes(raw)
	if err != nil {
		return rules.Group{}, fmt.Errorf("%w: POST %s: %v", ErrMalformedResponse, path, err)
	}
	return tree, nil
}

// CreateCampaign stores a campaign named name for tree and returns the raw response.
func (c *Client) CreateCampaign(ctx context.Context, name string, tree rules.Group) (Campaign, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/api/campaigns/create", createCampaignRequest{Name: name, Rules: tree}, &raw); err != nil {
		return nil, err
	}
	return Campaign(raw), nil
}

// ListCustomers fetches the full customer collection in server order.
func (c *Client) ListCustomers(ctx context.Context) ([]Customer, error) {
	const path = "/api/customers"
	var resp customersResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Customers == nil {
		return nil, fmt.Errorf("%w: GET %s: missing customers", ErrMalformedResponse, path)
	}
	return *resp.Customers, nil
}

func (c *Client) endpoint(path string) string {
	u := *c.base
	u.Path = c.base.Path + path
	return u.String()
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s %s request: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reader)
	if err != nil {
		return fmt.Errorf("failed to build %s %s request: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("api request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	c.logger.Debug("api request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start))
	if err != nil {
		return fmt.Errorf("failed to read %s %s response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       truncate(strings.TrimSpace(string(data)), maxErrorBody),
		}
	}

	if out == nil {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], bytes.TrimSpace(data)...)
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrMalformedResponse, method, path, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
