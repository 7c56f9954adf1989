// Package httputil is a small JSON-over-HTTP client with bounded retry,
// shared by the outbound REST integrations.
package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// RequestDetails holds the details for an HTTP request
type RequestDetails struct {
	Method      string
	URL         string
	Query       url.Values
	Headers     map[string]string
	RequestBody interface{}
}

// ClientOptions holds options for customizing the HTTP client
type ClientOptions struct {
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

// DefaultClientOptions returns a 30s timeout and no retries
func DefaultClientOptions() ClientOptions {
	return ClientOptions{Timeout: 30 * time.Second, RetryDelay: time.Second}
}

// StatusError reports a non-2xx response
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request to %s failed with status code %d: %s", e.URL, e.StatusCode, e.Body)
}

// Temporary reports whether the status is worth retrying
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Client sends requests with the configured retry policy
type Client struct {
	http    *http.Client
	options ClientOptions
	logger  zerolog.Logger
}

// NewClient creates a client. A zero Timeout leaves requests unbounded
// except by the caller's context.
func NewClient(options ClientOptions, logger zerolog.Logger) *Client {
	return &Client{
		http:    &http.Client{Timeout: options.Timeout},
		options: options,
		logger:  logger,
	}
}

// SendRequest executes the request and returns the response body of the
// first successful attempt. Transport errors, 429 and 5xx responses are
// retried up to RetryAttempts times; other statuses fail immediately.
func (c *Client) SendRequest(ctx context.Context, details RequestDetails) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.options.RetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.options.RetryDelay):
			}
		}

		req, err := createRequest(ctx, details)
		if err != nil {
			return nil, err
		}

		body, err := c.do(req)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var statusErr *StatusError
		if errors.As(err, &statusErr) && !statusErr.Temporary() {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, err
		}

		c.logger.Warn().Err(err).Int("attempt", attempt+1).Str("url", details.URL).Msg("HTTP request failed")
	}

	return nil, errors.Wrapf(lastErr, "request to %s failed after %d attempts", details.URL, c.options.RetryAttempts+1)
}

// GetJSON sends a GET and decodes the JSON response into out
func (c *Client) GetJSON(ctx context.Context, details RequestDetails, out interface{}) error {
	details.Method = http.MethodGet
	body, err := c.SendRequest(ctx, details)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "error decoding response")
	}
	return nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "error sending request to %s", req.URL.Redacted())
	}
	defer func() {
		if err := drainAndCloseBody(resp.Body); err != nil {
			c.logger.Debug().Err(err).Msg("Error closing response body")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading response from %s", req.URL.Redacted())
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{URL: req.URL.Redacted(), StatusCode: resp.StatusCode, Body: truncate(string(body), 512)}
	}

	return body, nil
}

func createRequest(ctx context.Context, details RequestDetails) (*http.Request, error) {
	method := details.Method
	if method == "" {
		method = http.MethodPost
	}

	var body io.Reader
	if details.RequestBody != nil {
		jsonBody, err := json.Marshal(details.RequestBody)
		if err != nil {
			return nil, errors.Wrap(err, "error marshaling request")
		}
		body = bytes.NewReader(jsonBody)
	}

	target := details.URL
	if len(details.Query) > 0 {
		target += "?" + details.Query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, errors.Wrapf(err, "error creating request for URL %s", details.URL)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for key, value := range details.Headers {
		req.Header.Set(key, value)
	}

	return req, nil
}

func drainAndCloseBody(body io.ReadCloser) error {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return fmt.Errorf("error draining body: %w", err)
	}
	if err := body.Close(); err != nil {
		return fmt.Errorf("error closing body: %w", err)
	}
	return nil
}

// truncate keeps at most n runes of s
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
