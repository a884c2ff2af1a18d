package jobx_test

import (
	"testing"
	"time"

	"github.com/Abraxas-365/rewardwallet/pkg/jobx"
)

func TestBackoff_Fixed(t *testing.T) {
	b := jobx.Backoff{Type: jobx.BackoffFixed, Delay: time.Second}
	for attempt := 1; attempt <= 5; attempt++ {
		d := b.Next(attempt)
		if d < 800*time.Millisecond || d > 1200*time.Millisecond {
			t.Fatalf("attempt %d: delay %s outside jitter window", attempt, d)
		}
	}
}

func TestBackoff_ExponentialDoublesAndCaps(t *testing.T) {
	b := jobx.Backoff{Type: jobx.BackoffExponential, Delay: time.Second}

	if d := b.Next(3); d < 3200*time.Millisecond || d > 4800*time.Millisecond {
		t.Fatalf("third attempt should wait about 4s, got %s", d)
	}
	if d := b.Next(40); d > 72*time.Minute {
		t.Fatalf("expected capped delay, got %s", d)
	}
}

func TestBackoff_ZeroDelay(t *testing.T) {
	if d := (jobx.Backoff{}).Next(3); d != 0 {
		t.Fatalf("expected 0, got %s", d)
	}
}
