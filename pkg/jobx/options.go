package jobx

import "time"

// WorkerOptions configures the job processing client.
type WorkerOptions struct {
	Concurrency     int
	PollInterval    time.Duration
	ShutdownTimeout time.Duration
	StalledInterval time.Duration
	LeaseDuration   time.Duration

	// Defaults applied to jobs enqueued without explicit values.
	DefaultAttempts int
	DefaultBackoff  Backoff
}

func defaultWorkerOptions() WorkerOptions {
	return WorkerOptions{
		Concurrency:     5,
		PollInterval:    500 * time.Millisecond,
		ShutdownTimeout: 30 * time.Second,
		StalledInterval: 3500 * time.Millisecond,
		LeaseDuration:   30 * time.Second,
		DefaultAttempts: 3,
		DefaultBackoff:  Backoff{Type: BackoffExponential, Delay: time.Second},
	}
}

// WorkerOption is a functional option for configuring the client.
type WorkerOption func(*WorkerOptions)

// WithConcurrency sets the number of worker slots.
func WithConcurrency(n int) WorkerOption {
	return func(o *WorkerOptions) {
		if n > 0 {
			o.Concurrency = n
		}
	}
}

// WithPollInterval sets the idle wait between claim attempts and the delayed
// promotion interval.
func WithPollInterval(d time.Duration) WorkerOption {
	return func(o *WorkerOptions) {
		if d > 0 {
			o.PollInterval = d
		}
	}
}

// WithShutdownTimeout sets the maximum time to wait for in-flight jobs on shutdown.
func WithShutdownTimeout(d time.Duration) WorkerOption {
	return func(o *WorkerOptions) {
		o.ShutdownTimeout = d
	}
}

// WithStalledInterval sets how often expired leases are reclaimed.
func WithStalledInterval(d time.Duration) WorkerOption {
	return func(o *WorkerOptions) {
		if d > 0 {
			o.StalledInterval = d
		}
	}
}

// WithLeaseDuration sets how long a claim stays valid without a heartbeat.
func WithLeaseDuration(d time.Duration) WorkerOption {
	return func(o *WorkerOptions) {
		if d > 0 {
			o.LeaseDuration = d
		}
	}
}

// WithDefaultAttempts sets the attempt budget of jobs enqueued without one.
func WithDefaultAttempts(n int) WorkerOption {
	return func(o *WorkerOptions) {
		if n > 0 {
			o.DefaultAttempts = n
		}
	}
}

// WithDefaultBackoff sets the retry backoff of jobs enqueued without one.
func WithDefaultBackoff(b Backoff) WorkerOption {
	return func(o *WorkerOptions) {
		o.DefaultBackoff = b
	}
}

// EnqueueOptions are per-job overrides.
type EnqueueOptions struct {
	JobID    string
	Delay    time.Duration
	Priority int
	Attempts int
	Backoff  *Backoff
	Repeat   string
}

// EnqueueOption is a functional option for Enqueue.
type EnqueueOption func(*EnqueueOptions)

// WithJobID sets a caller chosen id; enqueueing an existing id fails with ErrJobExists.
func WithJobID(id string) EnqueueOption {
	return func(o *EnqueueOptions) { o.JobID = id }
}

// WithDelay defers the first availability of the job.
func WithDelay(d time.Duration) EnqueueOption {
	return func(o *EnqueueOptions) { o.Delay = d }
}

// WithPriority orders waiting jobs; lower values are served first.
func WithPriority(p int) EnqueueOption {
	return func(o *EnqueueOptions) { o.Priority = p }
}

// WithAttempts overrides the attempt budget.
func WithAttempts(n int) EnqueueOption {
	return func(o *EnqueueOptions) { o.Attempts = n }
}

// WithBackoff overrides the retry backoff.
func WithBackoff(b Backoff) EnqueueOption {
	return func(o *EnqueueOptions) { o.Backoff = &b }
}
