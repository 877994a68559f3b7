package llm

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxAttempts       int           // Maximum number of attempts
	Multiplier        int           // Exponential backoff multiplier
	BaseDelay         time.Duration // Unit of the backoff (default 1s)
	MaxWaitPerAttempt time.Duration // Maximum wait time per attempt
	MaxTotalWait      time.Duration // Maximum total wait time
}

// DefaultRetryConfig returns default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:       3,
		Multiplier:        1,
		BaseDelay:         time.Second,
		MaxWaitPerAttempt: 10 * time.Second,
		MaxTotalWait:      30 * time.Second,
	}
}

// StatusError reports the last HTTP status after retries were exhausted.
type StatusError struct {
	StatusCode int
	Attempts   int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("request failed with status %d after %d attempts: %s", e.StatusCode, e.Attempts, e.Body)
	}
	return fmt.Sprintf("request failed with status %d after %d attempts", e.StatusCode, e.Attempts)
}

// RetryClient wraps http.Client with retry logic
type RetryClient struct {
	client *http.Client
	config *RetryConfig
}

// NewRetryClient creates a new retry client
func NewRetryClient(config *RetryConfig) *RetryClient {
	return NewRetryClientWithTimeout(180*time.Second, config)
}

// NewRetryClientWithTimeout creates a retry client with custom timeout
func NewRetryClientWithTimeout(timeout time.Duration, config *RetryConfig) *RetryClient {
	if config == nil {
		config = DefaultRetryConfig()
	}
	if config.BaseDelay <= 0 {
		config.BaseDelay = time.Second
	}
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}

	return &RetryClient{
		client: &http.Client{
			Timeout: timeout,
		},
		config: config,
	}
}

// Do executes an HTTP request with retry logic
func (rc *RetryClient) Do(req *http.Request) (*http.Response, error) {
	return rc.DoWithContext(req.Context(), req)
}

// DoWithContext executes an HTTP request with retry logic and context.
// 429 and 5xx responses and transport errors are retried; other statuses are
// returned to the caller untouched.
func (rc *RetryClient) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	var lastErr error
	var lastStatus int
	var lastBody string

	totalStartTime := time.Now()
	attempts := 0

	for attempt := 0; attempt < rc.config.MaxAttempts; attempt++ {
		attempts++

		// Each attempt needs a fresh body reader
		reqClone := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("failed to rewind request body: %w", err)
			}
			reqClone.Body = body
		}

		resp, err := rc.client.Do(reqClone)
		if err == nil {
			if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode < 500 {
				return resp, nil
			}
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			_ = resp.Body.Close()
			lastStatus, lastBody, lastErr = resp.StatusCode, string(raw), nil
		} else {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
		}

		if attempt == rc.config.MaxAttempts-1 {
			break
		}

		waitTime := rc.calculateWaitTime(attempt)
		if time.Since(totalStartTime)+waitTime > rc.config.MaxTotalWait {
			break
		}

		timer := time.NewTimer(waitTime)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("request failed after %d attempts: %w", attempts, lastErr)
	}
	return nil, &StatusError{StatusCode: lastStatus, Attempts: attempts, Body: lastBody}
}

// calculateWaitTime calculates wait time using exponential backoff
func (rc *RetryClient) calculateWaitTime(attempt int) time.Duration {
	// Exponential backoff: 2^attempt * multiplier * base
	multiplier := rc.config.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}
	baseWait := time.Duration(math.Pow(2, float64(attempt))) * time.Duration(multiplier) * rc.config.BaseDelay

	if rc.config.MaxWaitPerAttempt > 0 && baseWait > rc.config.MaxWaitPerAttempt {
		baseWait = rc.config.MaxWaitPerAttempt
	}

	return baseWait
}

// SetTimeout updates the client timeout
func (rc *RetryClient) SetTimeout(timeout time.Duration) {
	rc.client.Timeout = timeout
}

// GetTimeout returns the current client timeout
func (rc *RetryClient) GetTimeout() time.Duration {
	return rc.client.Timeout
}
