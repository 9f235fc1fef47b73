package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// RetryPolicy decides how many attempts an outbound call gets, how long to
// wait between them, and which failures are worth retrying.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
	Retryable   func(err error, status int) bool
}

// DefaultRetryPolicy retries up to maxAttempts with linearly increasing
// backoff (base, 2*base, ...), on network errors, HTTP 429 and 5xx.
func DefaultRetryPolicy(maxAttempts int, base time.Duration) RetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if base <= 0 {
		base = time.Second
	}
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		Backoff:     func(attempt int) time.Duration { return time.Duration(attempt) * base },
		Retryable: func(err error, status int) bool {
			if err != nil {
				return true
			}
			return status == http.StatusTooManyRequests || status >= 500
		},
	}
}

// StatusError is a non-2xx HTTP response surfaced as an error.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Status, e.Body)
}

// Client is an HTTP client for the public Reddit JSON endpoints. Every request
// carries the configured User-Agent; transient failures are retried per the
// policy.
type Client struct {
	http      *http.Client
	policy    RetryPolicy
	userAgent string
	sleep     func(time.Duration)
}

// NewClient creates a Reddit client.
func NewClient(timeout time.Duration, userAgent string, policy RetryPolicy) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		policy:    policy,
		userAgent: userAgent,
		sleep:     nil,
	}
}

// GetJSON issues a GET with query params and decodes the JSON response into
// out, retrying per the client's policy.
func (c *Client) GetJSON(ctx context.Context, rawURL string, params url.Values, out interface{}) error {
	u := rawURL
	if len(params) > 0 {
		u = rawURL + "?" + params.Encode()
	}

	var lastErr error
	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
		} else {
			status := resp.StatusCode
			if status >= 200 && status < 300 {
				err = json.NewDecoder(resp.Body).Decode(out)
				resp.Body.Close()
				if err != nil {
					return fmt.Errorf("decode %s: %w", rawURL, err)
				}
				return nil
			}
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			resp.Body.Close()
			lastErr = &StatusError{Status: status, Body: string(b)}
			if !c.policy.Retryable(nil, status) {
				return lastErr
			}
		}

		if attempt < c.policy.MaxAttempts {
			if err := c.wait(ctx, c.policy.Backoff(attempt)); err != nil {
				return err
			}
		}
	}
	return lastErr
}

func (c *Client) wait(ctx context.Context, d time.Duration) error {
	if c.sleep != nil {
		c.sleep(d)
		return ctx.Err()
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
