package musicapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// get performs a GET request against path and returns the response body.
//
// When retry is true, network errors and temporary status codes are retried
// with exponential backoff up to the client's MaxRetries. A non-200 status
// is returned as *Error.
func (c *Client) get(ctx context.Context, path string, query url.Values, retry bool) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	attempts := 1
	if retry {
		attempts = c.maxRetries
	}

	var lastErr error
	backoff := 500 * time.Millisecond

	for i := 0; i < attempts; i++ {
		c.logDebugf("musicapi: GET %s (attempt %d/%d)", path, i+1, attempts)

		body, err := c.do(ctx, reqURL)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !isRetryableError(err) || i == attempts-1 {
			break
		}

		c.logDebugf("musicapi: retrying %s after error: %v", path, err)
		if !sleep(ctx, backoff) {
			return nil, ctx.Err()
		}
		backoff = nextBackoff(backoff)
	}

	if attempts > 1 && isRetryableError(lastErr) {
		return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
	}
	return nil, lastErr
}

// do makes a single HTTP request.
func (c *Client) do(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(errorMessage(body)),
		}
	}

	return body, nil
}

// getJSON performs a retrying GET and decodes the {success, data} envelope.
func getJSON[T any](ctx context.Context, c *Client, path string, query url.Values) (T, error) {
	var zero T

	body, err := c.get(ctx, path, query, true)
	if err != nil {
		return zero, err
	}

	var env envelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		return zero, fmt.Errorf("failed to parse JSON response: %w", err)
	}
	if !env.Success {
		if env.Error != "" {
			return zero, fmt.Errorf("%w: %s", ErrUnsuccessful, env.Error)
		}
		return zero, ErrUnsuccessful
	}

	return env.Data, nil
}

// errorMessage extracts a readable message from an error response body.
// JSON envelopes yield their error field, anything else is truncated.
func errorMessage(body []byte) string {
	var env envelope[json.RawMessage]
	if err := json.Unmarshal(body, &env); err == nil && env.Error != "" {
		return env.Error
	}
	const maxLen = 200
	if len(body) > maxLen {
		return string(body[:maxLen])
	}
	return string(body)
}

// shouldRetryNetworkError checks if a network error is retryable.
func shouldRetryNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// sleep waits for the specified duration or until context is cancelled.
// Returns true if sleep completed, false if context was cancelled.
func sleep(ctx context.Context, duration time.Duration) bool {
	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// nextBackoff calculates the next backoff duration with exponential increase.
// Maximum backoff is capped at 10 seconds.
func nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > 10*time.Second {
		return 10 * time.Second
	}
	return next
}
