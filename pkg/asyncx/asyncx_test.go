package asyncx_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Abraxas-365/rewardwallet/pkg/asyncx"
)

func TestAllSettled_IsolatesFailures(t *testing.T) {
	items := []int{1, 2, 3, 4}
	boom := errors.New("boom")

	results := asyncx.AllSettled(context.Background(), items, func(_ context.Context, n int) (int, error) {
		if n == 3 {
			return 0, boom
		}
		if n == 4 {
			panic("kaboom")
		}
		return n * 10, nil
	})

	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	if !results[0].OK() || results[0].Value != 10 || results[1].Value != 20 {
		t.Fatalf("unexpected successful results: %+v", results)
	}
	if !errors.Is(results[2].Err, boom) {
		t.Fatalf("expected boom for item 3, got %v", results[2].Err)
	}
	var pe *asyncx.PanicError
	if !errors.As(results[3].Err, &pe) {
		t.Fatalf("expected recovered panic for item 4, got %v", results[3].Err)
	}
}

func TestRetryWithBackoff_SucceedsEventually(t *testing.T) {
	var calls atomic.Int32
	v, err := asyncx.RetryWithBackoff(context.Background(), 3, time.Millisecond, func(context.Context) (string, error) {
		if calls.Add(1) < 3 {
			return "", errors.New("not yet")
		}
		return "ok", nil
	})
	if err != nil || v != "ok" {
		t.Fatalf("expected ok, got %q %v", v, err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
}

func TestRetryWithBackoff_ReturnsLastError(t *testing.T) {
	last := errors.New("last")
	_, err := asyncx.RetryWithBackoff(context.Background(), 2, time.Millisecond, func(context.Context) (int, error) {
		return 0, last
	})
	if !errors.Is(err, last) {
		t.Fatalf("expected last error, got %v", err)
	}
}

func TestRetryWithBackoff_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := asyncx.RetryWithBackoff(ctx, 5, time.Second, func(context.Context) (int, error) {
		t.Fatal("fn must not run on a cancelled context")
		return 0, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
