package analyzer

import (
	"context"
	"errors"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// ErrInvalidResponse marks replies that arrived but could not be used.
var ErrInvalidResponse = errors.New("invalid LLM response")

// TransientError wraps a failure that may succeed on retry.
type TransientError struct {
	err error
}

func (e *TransientError) Error() string { return e.err.Error() }
func (e *TransientError) Unwrap() error { return e.err }

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}

// classify marks rate limits, server errors and transport failures as transient.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	default:
		// No HTTP status: connection reset, timeout, DNS.
		return &TransientError{err: err}
	}

	if status == http.StatusTooManyRequests || status >= http.StatusInternalServerError {
		return &TransientError{err: err}
	}
	return err
}

// RetryConfig holds retry configuration for LLM requests.
type RetryConfig struct {
	MaxAttempts       int
	BackoffBase       time.Duration
	BackoffMultiplier float64
	MaxBackoff        time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		BackoffBase:       2 * time.Second,
		BackoffMultiplier: 2.0,
		MaxBackoff:        30 * time.Second,
	}
}

func (c RetryConfig) backoff(attempt int) time.Duration {
	d := float64(c.BackoffBase)
	for i := 1; i < attempt; i++ {
		d *= c.BackoffMultiplier
	}
	if c.MaxBackoff > 0 && time.Duration(d) > c.MaxBackoff {
		return c.MaxBackoff
	}
	return time.Duration(d)
}
