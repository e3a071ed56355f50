// Package github talks to the GitHub REST API about the issue a word was
// submitted through.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.github.com"

// Close reasons accepted by the issues API.
const (
	ReasonCompleted  = "completed"
	ReasonNotPlanned = "not_planned"
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github api: status %d: %s", e.StatusCode, e.Message)
}

// Temporary reports whether repeating the request may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

type Client struct {
	token      string
	repo       string
	baseURL    string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
	limiter    *rate.Limiter
	logger     *slog.Logger
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

func WithRetry(maxRetries int) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
	}
}

// WithBackoff sets the base delay between retries; attempt n waits n times it.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) {
		c.backoff = d
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		transport := c.httpClient.Transport
		c.httpClient = &http.Client{
			Timeout:   timeout,
			Transport: transport,
		}
	}
}

func WithRateLimit(requestsPerMinute int, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), burst)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient builds a client for the owner/name repository.
func NewClient(token, repo string, opts ...Option) *Client {
	c := &Client{
		token:   token,
		repo:    repo,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries: 3,
		backoff:    time.Second,
		limiter:    rate.NewLimiter(rate.Limit(1), 5),
		logger:     slog.Default().With("component", "github_client"),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.logger.Debug("github client initialized",
		"base_url", c.baseURL,
		"repo", c.repo,
		"max_retries", c.maxRetries,
		"rate_limit", fmt.Sprintf("%v req/s", c.limiter.Limit()))

	return c
}

// Comment posts body as a new comment on an issue.
func (c *Client) Comment(ctx context.Context, number int, body string) error {
	path := fmt.Sprintf("/repos/%s/issues/%d/comments", c.repo, number)
	return c.do(ctx, http.MethodPost, path, map[string]string{"body": body})
}

// Close closes an issue with the given state reason.
func (c *Client) Close(ctx context.Context, number int, reason string) error {
	path := fmt.Sprintf("/repos/%s/issues/%d", c.repo, number)
	payload := map[string]string{"state": "closed"}
	if reason != "" {
		payload["state_reason"] = reason
	}
	return c.do(ctx, http.MethodPatch, path, payload)
}

func (c *Client) do(ctx context.Context, method, path string, payload any) error {
	requestID := uuid.NewString()
	startTime := time.Now()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait failed: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(attempt) * c.backoff
			c.logger.Debug("retry backoff",
				"request_id", requestID,
				"attempt", attempt,
				"backoff", wait)

			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := c.send(ctx, method, path, body)
		if err == nil {
			c.logger.Info("github request successful",
				"request_id", requestID,
				"method", method,
				"path", path,
				"attempt", attempt,
				"duration_ms", time.Since(startTime).Milliseconds())
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			c.logger.Error("github request failed with non-retryable error",
				"request_id", requestID,
				"method", method,
				"path", path,
				"error", err)
			return err
		}

		c.logger.Warn("github request failed, will retry",
			"request_id", requestID,
			"attempt", attempt,
			"error", err)
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) send(ctx context.Context, method, path string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var apiResp struct {
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(respBody))
	if json.Unmarshal(respBody, &apiResp) == nil && apiResp.Message != "" {
		msg = apiResp.Message
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	// Transport errors are worth another try.
	return true
}
