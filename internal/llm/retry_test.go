package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetry_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	got, err := Retry(context.Background(), 2, LinearBackoff(time.Millisecond), func(_ context.Context) (int, error) {
		calls++
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 || calls != 1 {
		t.Errorf("got %d after %d calls, want 42 after 1", got, calls)
	}
}

func TestRetry_ExactAttemptCount(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	_, err := Retry(context.Background(), 2, LinearBackoff(time.Millisecond), func(_ context.Context) (int, error) {
		calls++
		return 0, boom
	})

	// maxRetries+1 attempts, no more, no fewer.
	if calls != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", calls)
	}
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Errorf("expected ErrRetriesExhausted, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped last error, got %v", err)
	}
}

func TestRetry_RecoversMidway(t *testing.T) {
	calls := 0
	got, err := Retry(context.Background(), 3, LinearBackoff(time.Millisecond), func(_ context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" || calls != 3 {
		t.Errorf("got %q after %d calls", got, calls)
	}
}

func TestRetry_ContextCancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := Retry(ctx, 5, LinearBackoff(time.Hour), func(_ context.Context) (int, error) {
		calls++
		return 0, errors.New("always")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 attempt before cancellation, got %d", calls)
	}
}

func TestLinearBackoff(t *testing.T) {
	delay := LinearBackoff(500 * time.Millisecond)
	if d := delay(1); d != 500*time.Millisecond {
		t.Errorf("attempt 1: got %v", d)
	}
	if d := delay(2); d != time.Second {
		t.Errorf("attempt 2: got %v", d)
	}
}
