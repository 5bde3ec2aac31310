package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

type retryableErr struct {
	retryable bool
}

func (e *retryableErr) Error() string     { return "provider error" }
func (e *retryableErr) IsRetryable() bool { return e.retryable }

func fastConfig() *Config {
	return &Config{
		MaxRetries:   2,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"declared retryable", &retryableErr{retryable: true}, true},
		{"declared permanent", &retryableErr{retryable: false}, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"rate limited", errors.New("429 Too Many Requests"), true},
		{"timeout", errors.New("request timed out"), true},
		{"auth failure", errors.New("401 unauthorized"), false},
		{"generic", errors.New("something broke"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestDoIfRetryable_SucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	err := DoIfRetryable(context.Background(), fastConfig(), func() error {
		attempts++
		if attempts < 3 {
			return &retryableErr{retryable: true}
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestDoIfRetryable_PermanentErrorReturnsImmediately(t *testing.T) {
	attempts := 0
	permanent := &retryableErr{retryable: false}
	err := DoIfRetryable(context.Background(), fastConfig(), func() error {
		attempts++
		return permanent
	})

	if !errors.Is(err, permanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (no retry on permanent error)", attempts)
	}
}

func TestDoIfRetryable_NilConfigRunsOnce(t *testing.T) {
	attempts := 0
	transient := errors.New("dial tcp: connection refused")
	err := DoIfRetryable(context.Background(), nil, func() error {
		attempts++
		return transient
	})

	if !errors.Is(err, transient) {
		t.Fatalf("expected the transient error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (nil config disables retrying)", attempts)
	}
}

func TestResultIfRetryable_NilConfigRunsOnce(t *testing.T) {
	attempts := 0
	_, err := ResultIfRetryable(context.Background(), nil, func() (string, error) {
		attempts++
		return "", &retryableErr{retryable: true}
	})

	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (nil config disables retrying)", attempts)
	}
}

func TestDoIfRetryable_ExhaustsRetries(t *testing.T) {
	attempts := 0
	transient := &retryableErr{retryable: true}
	err := DoIfRetryable(context.Background(), fastConfig(), func() error {
		attempts++
		return transient
	})

	if !errors.Is(err, transient) {
		t.Fatalf("expected last error, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3 (initial + 2 retries)", attempts)
	}
}

func TestDoIfRetryable_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	cfg := &Config{
		MaxRetries:   5,
		InitialDelay: time.Hour,
		MaxDelay:     time.Hour,
		Multiplier:   2.0,
	}

	attempts := 0
	done := make(chan error, 1)
	go func() {
		done <- DoIfRetryable(ctx, cfg, func() error {
			attempts++
			return &retryableErr{retryable: true}
		})
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("DoIfRetryable did not respect context cancellation")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestResultIfRetryable(t *testing.T) {
	attempts := 0
	result, err := ResultIfRetryable(context.Background(), fastConfig(), func() (string, error) {
		attempts++
		if attempts < 2 {
			return "", &retryableErr{retryable: true}
		}
		return "ok", nil
	})

	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if result != "ok" {
		t.Errorf("result = %q, want ok", result)
	}
}

func TestApplyJitter_Bounds(t *testing.T) {
	delay := 100 * time.Millisecond
	for i := 0; i < 50; i++ {
		jittered := applyJitter(delay, 0.1)
		if jittered < 90*time.Millisecond || jittered > 110*time.Millisecond {
			t.Fatalf("jittered delay %v outside +/-10%% of %v", jittered, delay)
		}
	}
	if applyJitter(delay, 0) != delay {
		t.Error("zero jitter factor must not change the delay")
	}
}
