package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig() Config {
	return Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2.0,
		BreakerEnabled:      false,
	}
}

func TestExecuteRetriesRetryableErrors(t *testing.T) {
	exec := NewExecutor(fastConfig())
	errFlaky := errors.New("connection reset")

	calls := 0
	err := exec.Execute(context.Background(), "publish", func(context.Context) error {
		calls++
		if calls < 3 {
			return errFlaky
		}
		return nil
	}, func(error) ErrorClassification {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	})
	if err != nil {
		t.Fatalf("expected recovery within the retry budget: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestExecuteStopsAtAttemptBudget(t *testing.T) {
	exec := NewExecutor(fastConfig())
	errDown := errors.New("broker down")

	calls := 0
	err := exec.Execute(context.Background(), "publish", func(context.Context) error {
		calls++
		return errDown
	}, func(error) ErrorClassification {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	})
	if !errors.Is(err, errDown) {
		t.Fatalf("expected the last error to surface, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", calls)
	}
}

func TestExecuteDoesNotRetryPermanentErrors(t *testing.T) {
	exec := NewExecutor(fastConfig())
	errBad := errors.New("invalid subject")

	calls := 0
	err := exec.Execute(context.Background(), "publish", func(context.Context) error {
		calls++
		return errBad
	}, func(error) ErrorClassification {
		return ErrorClassification{Retryable: false, RecordFailure: true}
	})
	if !errors.Is(err, errBad) {
		t.Fatalf("expected the error back, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("permanent errors must not be retried, got %d attempts", calls)
	}
}

func TestExecuteHonorsContextCancellation(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    5,
		RetryInitialBackoff: 50 * time.Millisecond,
		RetryMaxBackoff:     50 * time.Millisecond,
		RetryMultiplier:     1.0,
		BreakerEnabled:      false,
	})

	ctx, cancel := context.WithCancel(context.Background())
	errFlaky := errors.New("transient")
	calls := 0
	err := exec.Execute(ctx, "publish", func(context.Context) error {
		calls++
		cancel()
		return errFlaky
	}, func(error) ErrorClassification {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	})
	if err == nil {
		t.Fatalf("cancelled execution must error")
	}
	if calls != 1 {
		t.Fatalf("cancellation must stop the retry loop, got %d attempts", calls)
	}
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	cfg := fastConfig()
	cfg.RetryMaxAttempts = 1
	cfg.BreakerEnabled = true
	cfg.BreakerMinRequests = 4
	cfg.BreakerFailureRatio = 0.5
	cfg.BreakerOpenTimeout = time.Minute
	exec := NewExecutor(cfg)

	errDown := errors.New("storage offline")
	record := func(error) ErrorClassification {
		return ErrorClassification{Retryable: false, RecordFailure: true}
	}

	var err error
	for i := 0; i < 10; i++ {
		err = exec.Execute(context.Background(), "save", func(context.Context) error {
			return errDown
		}, record)
		if IsCircuitOpen(err) {
			return
		}
	}
	t.Fatalf("breaker never opened, last error: %v", err)
}

func TestBreakerIgnoresNonFailures(t *testing.T) {
	cfg := fastConfig()
	cfg.RetryMaxAttempts = 1
	cfg.BreakerEnabled = true
	cfg.BreakerMinRequests = 3
	exec := NewExecutor(cfg)

	errBusiness := errors.New("matter not found")
	skip := func(error) ErrorClassification {
		return ErrorClassification{Retryable: false, RecordFailure: false}
	}

	for i := 0; i < 20; i++ {
		err := exec.Execute(context.Background(), "get", func(context.Context) error {
			return errBusiness
		}, skip)
		if IsCircuitOpen(err) {
			t.Fatalf("business errors must not trip the breaker (call %d)", i)
		}
	}
}

func TestBreakersAreScopedPerOperation(t *testing.T) {
	cfg := fastConfig()
	cfg.RetryMaxAttempts = 1
	cfg.BreakerEnabled = true
	cfg.BreakerMinRequests = 3
	cfg.BreakerOpenTimeout = time.Minute
	exec := NewExecutor(cfg)

	errDown := errors.New("down")
	record := func(error) ErrorClassification {
		return ErrorClassification{RecordFailure: true}
	}
	for i := 0; i < 10; i++ {
		_ = exec.Execute(context.Background(), "flaky-op", func(context.Context) error {
			return errDown
		}, record)
	}

	// A different operation keeps its own closed breaker.
	err := exec.Execute(context.Background(), "healthy-op", func(context.Context) error {
		return nil
	}, record)
	if err != nil {
		t.Fatalf("healthy operation must be unaffected: %v", err)
	}
}
