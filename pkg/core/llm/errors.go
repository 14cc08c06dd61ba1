package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// CallError wraps a provider failure with a transient/permanent classification.
// Transient errors (timeouts, rate limits, 5xx) are worth retrying; permanent
// errors (bad request, auth, malformed response) degrade the owning stage.
type CallError struct {
	Provider  string
	Transient bool
	Err       error
}

func (e *CallError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("LLM_CALL_ERROR (%s, %s): %v", e.Provider, kind, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a CallError marked transient, or a
// context deadline (treated as transient so callers may retry with a fresh
// budget).
func IsTransient(err error) bool {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Transient
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// WithRetry invokes fn up to attempts times, backing off between transient
// failures. Permanent failures and context cancellation return immediately.
func WithRetry(ctx context.Context, attempts int, baseDelay time.Duration, fn func() (string, error)) (string, error) {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	delay := baseDelay
	for i := 0; i < attempts; i++ {
		out, err := fn()
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !IsTransient(err) {
			return "", err
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return "", lastErr
}
