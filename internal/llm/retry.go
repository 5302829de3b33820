package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/domain"
)

// DefaultBackoffs are the waits before the second and third attempts.
var DefaultBackoffs = []time.Duration{1 * time.Second, 2 * time.Second}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// RetryPolicy bounds a model call. Attempts = 1 + len(Backoffs).
type RetryPolicy struct {
	Backoffs       []time.Duration
	AttemptTimeout time.Duration
	Sleep          SleepFunc
}

// DefaultRetryPolicy returns the default policy with the given per-attempt timeout
func DefaultRetryPolicy(attemptTimeout time.Duration) RetryPolicy {
	return RetryPolicy{
		Backoffs:       DefaultBackoffs,
		AttemptTimeout: attemptTimeout,
		Sleep:          SleepContext,
	}
}

// RetryResult is what a bounded generation produced.
type RetryResult struct {
	Text     string
	Attempts int
	// LastErr is the error of the final failed attempt, nil once text arrived.
	LastErr error
}

// GenerateWithRetry calls gen until it returns non-empty text or the attempts
// run out. Errors never abort the loop early except when the model is
// unavailable or ctx itself is done.
func GenerateWithRetry(ctx context.Context, gen domain.Generator, prompt string, policy RetryPolicy) RetryResult {
	sleep := policy.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	var res RetryResult
	for attempt := 0; attempt <= len(policy.Backoffs); attempt++ {
		if err := ctx.Err(); err != nil {
			res.LastErr = domain.TimeoutError("context done before attempt", err)
			break
		}

		res.Attempts++
		text, err := generateOnce(ctx, gen, prompt, policy.AttemptTimeout)
		if err == nil && strings.TrimSpace(text) != "" {
			res.Text = text
			res.LastErr = nil
			return res
		}
		if err != nil {
			res.LastErr = err
		}
		if errors.Is(err, domain.ErrModelUnavailable) || isPermanent(err) {
			break
		}

		// Don't wait after last attempt
		if attempt == len(policy.Backoffs) {
			break
		}
		if err := sleep(ctx, policy.Backoffs[attempt]); err != nil {
			res.LastErr = domain.TimeoutError("backoff interrupted", err)
			break
		}
	}
	return res
}

func generateOnce(ctx context.Context, gen domain.Generator, prompt string, timeout time.Duration) (string, error) {
	attemptCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	text, err := gen.GenerateText(attemptCtx, prompt)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && !domain.IsType(err, domain.ErrorTypeTimeout) {
		return text, domain.TimeoutError("model call timed out", err)
	}
	return text, err
}

// SleepContext waits with context cancellation support
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// StatusError is a non-200 answer from an HTTP model endpoint.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Body)
}

func isPermanent(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && !shouldRetry(se.Code)
}

// shouldRetry reports whether an HTTP status is transient
func shouldRetry(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
