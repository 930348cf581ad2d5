package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func retryOnlyConfig() Config {
	return Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 1 * time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	}
}

func alwaysRetryable(err error) ErrorClassification {
	return ErrorClassification{Retryable: err != nil, RecordFailure: err != nil}
}

func TestExecuteRetriesTemporaryFailure(t *testing.T) {
	exec := NewExecutor(retryOnlyConfig())

	attempts := 0
	errTemp := errors.New("temporary")
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errTemp
		}
		return nil
	}, alwaysRetryable)
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestExecuteDoesNotRetryPermanentFailure(t *testing.T) {
	exec := NewExecutor(retryOnlyConfig())

	attempts := 0
	errPermanent := errors.New("permanent")
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		return errPermanent
	}, func(error) ErrorClassification {
		return ErrorClassification{Retryable: false, RecordFailure: false}
	})
	if !errors.Is(err, errPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected single attempt, got %d", attempts)
	}
}

func TestBreakerOpensAfterConsecutiveFailuresAndShortCircuits(t *testing.T) {
	cfg := retryOnlyConfig()
	cfg.RetryMaxAttempts = 1
	cfg.BreakerEnabled = true
	cfg.BreakerMinRequests = 5
	cfg.BreakerFailureRatio = 0.5
	cfg.BreakerOpenTimeout = time.Hour

	exec := NewExecutor(cfg)
	errDown := errors.New("downstream down")

	attempts := 0
	for i := 0; i < 5; i++ {
		_ = exec.Execute(context.Background(), "llm", func(context.Context) error {
			attempts++
			return errDown
		}, alwaysRetryable)
	}

	err := exec.Execute(context.Background(), "llm", func(context.Context) error {
		attempts++
		return nil
	}, alwaysRetryable)
	if !IsCircuitOpen(err) {
		t.Fatalf("expected open-circuit error, got %v", err)
	}
	if attempts != 5 {
		t.Fatalf("expected downstream untouched while open, attempts=%d", attempts)
	}

	stats := exec.Stats()
	if stats["llm"].State != "open" {
		t.Fatalf("expected open state, got %s", stats["llm"].State)
	}
	if stats["llm"].TotalFailures != 5 {
		t.Fatalf("expected 5 recorded failures, got %d", stats["llm"].TotalFailures)
	}
}

func TestBreakerRecoversThroughHalfOpen(t *testing.T) {
	cfg := retryOnlyConfig()
	cfg.RetryMaxAttempts = 1
	cfg.BreakerEnabled = true
	cfg.BreakerMinRequests = 2
	cfg.BreakerFailureRatio = 0.5
	cfg.BreakerOpenTimeout = 10 * time.Millisecond
	cfg.BreakerHalfOpenMaxCalls = 3

	exec := NewExecutor(cfg)
	errDown := errors.New("downstream down")

	for i := 0; i < 2; i++ {
		_ = exec.Execute(context.Background(), "llm", func(context.Context) error {
			return errDown
		}, alwaysRetryable)
	}
	if exec.Stats()["llm"].State != "open" {
		t.Fatalf("expected open state after failures")
	}

	time.Sleep(20 * time.Millisecond)

	for i := 0; i < 3; i++ {
		if err := exec.Execute(context.Background(), "llm", func(context.Context) error {
			return nil
		}, alwaysRetryable); err != nil {
			t.Fatalf("half-open trial %d failed: %v", i, err)
		}
	}
	if state := exec.Stats()["llm"].State; state != "closed" {
		t.Fatalf("expected closed after successful trials, got %s", state)
	}
}

func TestResetForcesBreakerClosed(t *testing.T) {
	cfg := retryOnlyConfig()
	cfg.RetryMaxAttempts = 1
	cfg.BreakerEnabled = true
	cfg.BreakerMinRequests = 2
	cfg.BreakerFailureRatio = 0.5
	cfg.BreakerOpenTimeout = time.Hour

	exec := NewExecutor(cfg)
	errDown := errors.New("downstream down")
	for i := 0; i < 2; i++ {
		_ = exec.Execute(context.Background(), "llm", func(context.Context) error {
			return errDown
		}, alwaysRetryable)
	}
	if exec.Stats()["llm"].State != "open" {
		t.Fatalf("expected open state before reset")
	}

	exec.Reset("llm")

	stats := exec.Stats()["llm"]
	if stats.State != "closed" {
		t.Fatalf("expected closed after reset, got %s", stats.State)
	}
	if stats.TotalRequests != 0 || stats.TotalFailures != 0 {
		t.Fatalf("expected zeroed counters after reset, got %+v", stats)
	}

	if err := exec.Execute(context.Background(), "llm", func(context.Context) error {
		return nil
	}, alwaysRetryable); err != nil {
		t.Fatalf("expected pass-through after reset, got %v", err)
	}
}

func TestTimedCallCountsTimeoutAsFailure(t *testing.T) {
	cfg := retryOnlyConfig()
	cfg.RetryMaxAttempts = 1
	cfg.CallTimeout = 5 * time.Millisecond
	cfg.SlowCallThreshold = 1 * time.Millisecond

	exec := NewExecutor(cfg)
	err := exec.Execute(context.Background(), "slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}

	stats := exec.Stats()["slow"]
	if stats.TotalTimeouts != 1 {
		t.Fatalf("expected 1 timeout, got %d", stats.TotalTimeouts)
	}
	if stats.TotalFailures != 1 {
		t.Fatalf("timeout must also count as failure, got %d", stats.TotalFailures)
	}
	if stats.TotalSlowCalls != 1 {
		t.Fatalf("expected slow call recorded, got %d", stats.TotalSlowCalls)
	}
}
