package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWithRetryRecoversFromTransientFailure(t *testing.T) {
	calls := 0
	out, err := WithRetry(context.Background(), 3, time.Millisecond, func() (string, error) {
		calls++
		if calls < 3 {
			return "", &CallError{Provider: "gemini", Transient: true, Err: errors.New("rate limited")}
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("WithRetry: %v", err)
	}
	if out != "ok" || calls != 3 {
		t.Errorf("out = %q after %d calls", out, calls)
	}
}

func TestWithRetryStopsOnPermanentFailure(t *testing.T) {
	permanent := &CallError{Provider: "gemini", Transient: false, Err: errors.New("invalid api key")}
	calls := 0
	_, err := WithRetry(context.Background(), 3, time.Millisecond, func() (string, error) {
		calls++
		return "", permanent
	})
	if calls != 1 {
		t.Errorf("permanent failure retried %d times", calls)
	}
	var ce *CallError
	if !errors.As(err, &ce) || ce.Transient {
		t.Errorf("err = %v", err)
	}
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	transient := &CallError{Provider: "deepseek", Transient: true, Err: errors.New("upstream 503")}
	calls := 0
	_, err := WithRetry(context.Background(), 3, time.Millisecond, func() (string, error) {
		calls++
		return "", transient
	})
	if calls != 3 {
		t.Errorf("got %d attempts, want 3", calls)
	}
	if !errors.Is(err, transient.Err) {
		t.Errorf("last error not returned: %v", err)
	}
}

func TestWithRetryHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := WithRetry(ctx, 3, time.Minute, func() (string, error) {
		return "", &CallError{Provider: "gemini", Transient: true, Err: errors.New("timeout")}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestIsTransient(t *testing.T) {
	if IsTransient(errors.New("plain")) {
		t.Error("plain errors are permanent")
	}
	if !IsTransient(&CallError{Transient: true}) {
		t.Error("transient CallError not detected")
	}
	if !IsTransient(context.DeadlineExceeded) {
		t.Error("deadline exceeded should be retryable")
	}
	wrapped := &CallError{Provider: "gemini", Transient: true, Err: errors.New("429")}
	if !IsTransient(wrapped) {
		t.Error("wrapped transient not detected")
	}
}
