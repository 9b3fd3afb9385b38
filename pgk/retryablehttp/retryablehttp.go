package retryablehttp

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"time"
)

const defaultRetryAfter = 60 * time.Second

type RetryConfig struct {
	MaxRetries int           // default 3
	BaseDelay  time.Duration // default 100ms
	MaxDelay   time.Duration // default 5s
	MaxJitter  time.Duration // default 100ms
}

// RetryableClient resends a request on network errors, 5xx, 408 and 429,
// backing off exponentially with jitter. Billing export shares one instance
// across its workers.
type RetryableClient struct {
	client      *http.Client
	retryConfig RetryConfig
}

// NewRetryableClient fills zero fields of config with the defaults noted on RetryConfig.
func NewRetryableClient(config RetryConfig) *RetryableClient {
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.BaseDelay == 0 {
		config.BaseDelay = 100 * time.Millisecond
	}
	if config.MaxDelay == 0 {
		config.MaxDelay = 5 * time.Second
	}
	if config.MaxJitter == 0 {
		config.MaxJitter = 100 * time.Millisecond
	}

	return &RetryableClient{
		client:      &http.Client{},
		retryConfig: config,
	}
}

func (c *RetryableClient) isRetryable(resp *http.Response, err error) bool {
	if err != nil {
		return true
	}

	if resp == nil {
		return false
	}

	statusCode := resp.StatusCode
	return statusCode == 0 ||
		(statusCode >= 500 && statusCode <= 599) ||
		statusCode == http.StatusTooManyRequests ||
		statusCode == http.StatusRequestTimeout
}

// Do sends req until it gets a non-retryable response or runs out of attempts.
// Requests with a body must be built with http.NewRequest so that GetBody is set.
// When attempts are exhausted the last response is returned together with the
// error, its body already closed.
func (c *RetryableClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error

	req = req.WithContext(ctx)

	for attempt := 0; attempt <= c.retryConfig.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if attempt > 0 && req.GetBody != nil {
			body, bodyErr := req.GetBody()
			if bodyErr != nil {
				return nil, fmt.Errorf("rewind request body: %w", bodyErr)
			}
			req.Body = body
		}

		resp, err = c.client.Do(req)

		if err == nil && !c.isRetryable(resp, nil) {
			return resp, nil
		}

		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if attempt == c.retryConfig.MaxRetries {
			if resp != nil {
				return resp, fmt.Errorf("last attempt failed: %s", resp.Status)
			}
			return nil, fmt.Errorf("last attempt failed: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.backoffDelay(attempt)):
		}
	}

	return nil, fmt.Errorf("unexpected error")
}

// backoffDelay doubles BaseDelay per attempt up to MaxDelay and adds jitter.
func (c *RetryableClient) backoffDelay(attempt int) time.Duration {
	backoff := time.Duration(1<<uint(attempt)) * c.retryConfig.BaseDelay
	if backoff > c.retryConfig.MaxDelay {
		backoff = c.retryConfig.MaxDelay
	}

	jitter := time.Duration(rand.Int63n(int64(c.retryConfig.MaxJitter)))
	return backoff + jitter
}

// RetryAfter reads the Retry-After header in seconds, falling back to a minute.
func RetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return defaultRetryAfter
	}

	if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
		if seconds, err := strconv.ParseInt(retryAfter, 10, 64); err == nil && seconds >= 0 {
			return time.Duration(seconds) * time.Second
		}
	}

	return defaultRetryAfter
}
