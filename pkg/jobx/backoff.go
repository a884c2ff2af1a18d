package jobx

import (
	"math/rand/v2"
	"time"
)

// BackoffType selects how retry delays grow.
type BackoffType string

const (
	BackoffFixed       BackoffType = "fixed"
	BackoffExponential BackoffType = "exponential"
)

// Backoff describes the delay before a failed job is retried.
type Backoff struct {
	Type  BackoffType   `json:"type"`
	Delay time.Duration `json:"delay"`
}

// maxBackoff caps exponential growth.
const maxBackoff = time.Hour

// Next returns the delay before the attempt following attemptsMade, with
// +/-20% jitter so that jobs failing together do not retry together.
func (b Backoff) Next(attemptsMade int) time.Duration {
	if b.Delay <= 0 {
		return 0
	}

	base := b.Delay
	if b.Type == BackoffExponential && attemptsMade > 1 {
		shift := min(attemptsMade-1, 20)
		base = b.Delay * time.Duration(1<<shift)
		if base > maxBackoff || base <= 0 {
			base = maxBackoff
		}
	}

	jitter := 0.8 + rand.Float64()*0.4
	return time.Duration(float64(base) * jitter)
}
