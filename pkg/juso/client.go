// Package juso talks to the Korean road-name address API (business.juso.go.kr):
// keyword search, detail (dong/floor/unit) lookup and English address lookup.
package juso

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/NERVsystems/postcodemcp/pkg/postcode"
	"github.com/NERVsystems/postcodemcp/pkg/version"
)

const (
	// DefaultTimeout bounds every upstream call when no timeout is configured.
	DefaultTimeout = 10 * time.Second

	// API endpoints
	SearchAPIURL = "https://business.juso.go.kr/addrlink/addrLinkApi.do"
	DetailAPIURL = "https://business.juso.go.kr/addrlink/addrDetailApi.do"

	maxResponseBytes = 4 << 20
)

// ClientOptions configures a Client.
type ClientOptions struct {
	Timeout   time.Duration
	UserAgent string
	Limiter   *RateLimiter
	Logger    *slog.Logger
}

// Client issues GET requests to the Juso endpoints and decodes JSON objects.
// Every failure is reported as a *postcode.UpstreamError.
type Client struct {
	http      *http.Client
	userAgent string
	limiter   *RateLimiter
	logger    *slog.Logger
}

// NewClient creates a Client with connection pooling.
func NewClient(opts ClientOptions) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = version.UserAgent()
	}
	if opts.Limiter == nil {
		opts.Limiter = NewRateLimiter(0, 1)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Client{
		http: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
			Timeout: opts.Timeout,
		},
		userAgent: opts.UserAgent,
		limiter:   opts.Limiter,
		logger:    opts.Logger.With("component", "juso_client"),
	}
}

// UserAgent returns the User-Agent header sent with every request.
func (c *Client) UserAgent() string {
	return c.userAgent
}

// GetJSON calls endpoint with params and returns the decoded JSON object.
func (c *Client) GetJSON(ctx context.Context, service, endpoint string, params url.Values) (map[string]any, error) {
	if err := c.limiter.Wait(ctx, service); err != nil {
		return nil, c.fail(service, endpoint, 0, "rate limit wait aborted", err)
	}

	reqURL, err := url.Parse(endpoint)
	if err != nil {
		return nil, c.fail(service, endpoint, 0, "invalid endpoint URL", err)
	}
	reqURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, c.fail(service, endpoint, 0, "failed to create request", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// *url.Error carries the full request URL, confirmation key included.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = fmt.Errorf("%s %s: %w", uerr.Op, endpoint, uerr.Err)
		}
		return nil, c.fail(service, endpoint, 0, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, c.fail(service, endpoint, resp.StatusCode, http.StatusText(resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, c.fail(service, endpoint, resp.StatusCode, "failed to read response body", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, c.fail(service, endpoint, resp.StatusCode, "malformed response body", err)
	}
	if payload == nil {
		return nil, c.fail(service, endpoint, resp.StatusCode, "empty response body", nil)
	}

	return payload, nil
}

// fail logs an upstream failure and builds the error returned to callers.
// The query string is never logged since it carries the confirmation key.
func (c *Client) fail(service, endpoint string, status int, message string, cause error) error {
	c.logger.Warn("upstream request failed",
		"service", service,
		"endpoint", endpoint,
		"status", status,
		"message", message,
		"error", cause)

	return &postcode.UpstreamError{
		Service:    service,
		StatusCode: status,
		Message:    message,
		Err:        cause,
	}
}
