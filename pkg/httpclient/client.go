// Package httpclient is a small JSON REST client with bearer-token
// authentication, request logging and retries on transient failures.
// The fixture loader uses it to read GitHub issues.
package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"digital.vasic.skilleval/pkg/logging"
)

// GitHubAPI is the public GitHub REST endpoint.
const GitHubAPI = "https://api.github.com"

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// ClientOption configures an APIClient via functional options.
type ClientOption func(*APIClient)

// APIClient wraps net/http.Client for JSON GET requests. Defaults
// match common conventions so callers can use NewAPIClient(url)
// with zero options.
type APIClient struct {
	baseURL    string
	token      string
	headers    map[string]string
	attempts   uint
	delay      time.Duration
	timeout    time.Duration
	logger     logging.Logger
	httpClient *http.Client
}

// NewAPIClient creates an API client targeting the given base URL.
func NewAPIClient(baseURL string, opts ...ClientOption) *APIClient {
	c := &APIClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		headers:  map[string]string{},
		attempts: 3,
		delay:    500 * time.Millisecond,
		timeout:  30 * time.Second,
		logger:   logging.NullLogger{},
	}
	for _, o := range opts {
		o(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
		if c.token != "" {
			c.httpClient = oauth2.NewClient(context.Background(),
				oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.token}))
		}
	}
	c.httpClient.Timeout = c.timeout
	return c
}

// NewGitHubClient returns a client for the GitHub REST API. An
// empty token makes unauthenticated requests.
func NewGitHubClient(token string, opts ...ClientOption) *APIClient {
	base := []ClientOption{
		WithToken(token),
		WithHeader("Accept", "application/vnd.github+json"),
		WithHeader("X-GitHub-Api-Version", "2022-11-28"),
	}
	return NewAPIClient(GitHubAPI, append(base, opts...)...)
}

// WithToken authenticates every request with a static bearer token.
func WithToken(token string) ClientOption {
	return func(c *APIClient) { c.token = token }
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) ClientOption {
	return func(c *APIClient) { c.headers[key] = value }
}

// WithTimeout overrides the default HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *APIClient) { c.timeout = d }
}

// WithRetry sets the attempt count and initial backoff delay.
func WithRetry(attempts uint, delay time.Duration) ClientOption {
	return func(c *APIClient) {
		c.attempts = attempts
		c.delay = delay
	}
}

// WithLogger logs requests and responses at debug level.
func WithLogger(l logging.Logger) ClientOption {
	return func(c *APIClient) { c.logger = l }
}

// WithHTTPClient replaces the transport. WithToken is ignored when
// a client is supplied.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *APIClient) { c.httpClient = hc }
}

// GetRaw performs a GET and returns status code and raw body bytes.
// Network errors and 5xx/429 responses are retried; other statuses
// are returned to the caller as-is.
func (c *APIClient) GetRaw(
	ctx context.Context, path string,
) (int, []byte, error) {
	var (
		status int
		data   []byte
	)
	err := retry.Do(
		func() error {
			var err error
			status, data, err = c.do(ctx, path)
			if err != nil {
				return err
			}
			if status >= 500 || status == http.StatusTooManyRequests {
				return &StatusError{StatusCode: status, Body: string(data)}
			}
			return nil
		},
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("retrying request",
				logging.String("path", path),
				logging.Int("attempt", int(n)+1),
				logging.Err(err))
		}),
	)
	var se *StatusError
	if errors.As(err, &se) {
		return status, data, nil
	}
	if err != nil {
		return status, nil, err
	}
	return status, data, nil
}

// GetJSON performs a GET and decodes a 2xx JSON body into out.
func (c *APIClient) GetJSON(ctx context.Context, path string, out any) error {
	status, data, err := c.GetRaw(ctx, path)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return &StatusError{StatusCode: status, Body: string(data)}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrap(err, "parse response")
	}
	return nil
}

func (c *APIClient) do(ctx context.Context, path string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.baseURL+path, nil,
	)
	if err != nil {
		return 0, nil, retry.Unrecoverable(errors.Wrap(err, "create request"))
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	id := uuid.NewString()
	c.logger.LogAPIRequest(logging.APIRequestLog{
		RequestID: id,
		Method:    req.Method,
		URL:       req.URL.String(),
		Headers:   flatten(req.Header),
	})

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, errors.Wrap(err, "read response")
	}

	c.logger.LogAPIResponse(logging.APIResponseLog{
		RequestID:      id,
		StatusCode:     resp.StatusCode,
		Headers:        flatten(resp.Header),
		BodyLength:     len(data),
		ResponseTimeMs: time.Since(start).Milliseconds(),
	})
	return resp.StatusCode, data, nil
}

// BaseURL returns the configured base URL.
func (c *APIClient) BaseURL() string {
	return c.baseURL
}

func flatten(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		out[k] = h.Get(k)
	}
	return out
}
