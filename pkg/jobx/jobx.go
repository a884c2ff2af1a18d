package jobx

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Abraxas-365/rewardwallet/pkg/errx"
	"github.com/Abraxas-365/rewardwallet/pkg/logx"
	"github.com/google/uuid"
)

// HandlerFunc processes a job. Return nil on success, an error to trigger
// retry, or an error wrapped with Unrecoverable to fail without retry.
type HandlerFunc func(ctx context.Context, job *Job) error

// FailedFunc is invoked exactly once when a job reaches terminal failure.
type FailedFunc func(ctx context.Context, job *Job, cause error)

// ListenerFunc receives lifecycle events emitted by this process.
type ListenerFunc func(Event)

// JobEnqueuer stores new jobs.
type JobEnqueuer interface {
	// Enqueue stores job and makes it available at job.ReadyAt. It fails with
	// ErrJobExists when a job with the same id is already stored.
	Enqueue(ctx context.Context, job *Job) error
}

// JobStatusReader reads job state.
type JobStatusReader interface {
	GetJob(ctx context.Context, jobID string) (*Job, error)
	Counts(ctx context.Context) (Counts, error)
}

// JobProcessor provides backend operations for the worker loop.
type JobProcessor interface {
	// Claim moves the next ready job to active with a lease, incrementing its
	// attempts and issuing a fresh job.LockToken. Returns nil when nothing is
	// ready.
	Claim(ctx context.Context, lease time.Duration) (*Job, error)
	// Heartbeat, Complete, Retry and Fail act only while job is active under
	// job.LockToken, and fail with ErrLockLost otherwise.
	Heartbeat(ctx context.Context, job *Job, lease time.Duration) error
	Complete(ctx context.Context, job *Job) error
	Retry(ctx context.Context, job *Job, delay time.Duration) error
	Fail(ctx context.Context, job *Job) error
	PromoteDelayed(ctx context.Context) (int, error)
	// ReclaimStalled returns jobs whose lease expired to waiting. Jobs with no
	// attempts left are failed instead and returned separately.
	ReclaimStalled(ctx context.Context) (reclaimed []string, failed []string, err error)
}

// EventBus carries lifecycle events across processes.
type EventBus interface {
	Publish(ctx context.Context, ev Event) error
	Subscribe(ctx context.Context) (<-chan Event, func(), error)
}

// Queue combines all backend operations.
type Queue interface {
	JobEnqueuer
	JobStatusReader
	JobProcessor
	EventBus
	Name() string
	Ping(ctx context.Context) error
}

// Client is the main entry point for enqueuing and processing jobs.
type Client struct {
	queue Queue
	opts  WorkerOptions

	mu        sync.RWMutex
	handlers  map[string]HandlerFunc
	fallback  HandlerFunc
	onFailed  []FailedFunc
	listeners []ListenerFunc
	running   bool
}

// NewClient creates a new job processing client bound to one queue.
func NewClient(queue Queue, options ...WorkerOption) *Client {
	opts := defaultWorkerOptions()
	for _, o := range options {
		o(&opts)
	}
	return &Client{
		queue:    queue,
		opts:     opts,
		handlers: make(map[string]HandlerFunc),
	}
}

// Queue returns the backend the client is bound to.
func (c *Client) Queue() Queue { return c.queue }

// Options returns the effective worker options.
func (c *Client) Options() WorkerOptions { return c.opts }

// Register adds a handler for a given job name.
func (c *Client) Register(name string, handler HandlerFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[name] = handler
}

// HandleDefault sets the handler for names without a registered handler.
func (c *Client) HandleDefault(handler HandlerFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fallback = handler
}

// OnFailed registers a callback for terminal failures.
func (c *Client) OnFailed(fn FailedFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onFailed = append(c.onFailed, fn)
}

// OnEvent registers a lifecycle listener.
func (c *Client) OnEvent(fn ListenerFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Ready checks the backend connection.
func (c *Client) Ready(ctx context.Context) error {
	if err := c.queue.Ping(ctx); err != nil {
		return NewError(ErrQueueUnavailable, err).WithDetail("queue", c.queue.Name())
	}
	return nil
}

// Enqueue marshals payload and stores a job named name. It never waits for
// processing.
func (c *Client) Enqueue(ctx context.Context, name string, payload any, options ...EnqueueOption) (*Job, error) {
	if name == "" {
		return nil, jobxErrors.New(ErrInvalidJob).WithDetail("reason", "empty job name")
	}

	var eo EnqueueOptions
	for _, o := range options {
		o(&eo)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, jobxErrors.NewWithCause(ErrInvalidPayload, err).WithDetail("job_name", name)
	}

	now := time.Now().UTC()
	job := &Job{
		ID:          eo.JobID,
		Name:        name,
		Queue:       c.queue.Name(),
		Payload:     data,
		Status:      JobStatusWaiting,
		MaxAttempts: c.opts.DefaultAttempts,
		Priority:    eo.Priority,
		Backoff:     c.opts.DefaultBackoff,
		Repeat:      eo.Repeat,
		EnqueuedAt:  now,
		ReadyAt:     now,
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if eo.Attempts > 0 {
		job.MaxAttempts = eo.Attempts
	}
	if eo.Backoff != nil {
		job.Backoff = *eo.Backoff
	}
	if eo.Delay > 0 {
		job.Status = JobStatusDelayed
		job.ReadyAt = now.Add(eo.Delay)
	}

	if err := c.queue.Enqueue(ctx, job); err != nil {
		if errx.HasCode(err, ErrJobExists) {
			return nil, err
		}
		return nil, errx.Wrap(err, "failed to enqueue job", errx.TypeExternal).
			WithDetail("job_name", name).
			WithDetail("queue", c.queue.Name())
	}
	return job, nil
}

// GetJob returns the current state of a job.
func (c *Client) GetJob(ctx context.Context, jobID string) (*Job, error) {
	return c.queue.GetJob(ctx, jobID)
}

// Start begins processing jobs. It blocks until ctx is cancelled and in-flight
// jobs drain or the shutdown timeout elapses.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return jobxErrors.New(ErrAlreadyRunning)
	}
	c.running = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	logx.Infof("jobx: starting %d workers on queue %s", c.opts.Concurrency, c.queue.Name())

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		c.schedulerLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		c.stalledLoop(ctx)
	}()

	for i := range c.opts.Concurrency {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			c.workerLoop(ctx, id)
		}(i)
	}

	<-ctx.Done()
	logx.Infof("jobx: shutting down workers on queue %s...", c.queue.Name())

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logx.Infof("jobx: all workers on queue %s stopped", c.queue.Name())
	case <-time.After(c.opts.ShutdownTimeout):
		logx.Warnf("jobx: shutdown of queue %s timed out, in-flight jobs will be reclaimed as stalled", c.queue.Name())
	}
	return nil
}

func (c *Client) schedulerLoop(ctx context.Context) {
	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := c.queue.PromoteDelayed(ctx); err != nil && ctx.Err() == nil {
				logx.WithError(err).Warn("jobx: failed to promote delayed jobs")
			}
		}
	}
}

func (c *Client) stalledLoop(ctx context.Context) {
	ticker := time.NewTicker(c.opts.StalledInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkStalled(ctx)
		}
	}
}

func (c *Client) checkStalled(ctx context.Context) {
	reclaimed, failed, err := c.queue.ReclaimStalled(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logx.WithError(err).Warn("jobx: failed to reclaim stalled jobs")
		}
		return
	}

	for _, id := range reclaimed {
		c.emit(ctx, Event{Kind: EventStalled, JobID: id, Queue: c.queue.Name(), At: time.Now().UTC()})
	}

	for _, id := range failed {
		job, err := c.queue.GetJob(ctx, id)
		if err != nil {
			logx.WithError(err).Errorf("jobx: stalled job %s failed but could not be loaded", id)
			continue
		}
		cause := jobxErrors.New(ErrJobStalled).WithDetail("job_id", id)
		c.emit(ctx, Event{Kind: EventStalled, JobID: id, Name: job.Name, Queue: job.Queue, AttemptsMade: job.AttemptsMade, At: time.Now().UTC()})
		c.finalize(ctx, job, cause)
	}
}

func (c *Client) workerLoop(ctx context.Context, id int) {
	for {
		if ctx.Err() != nil {
			return
		}

		job, err := c.queue.Claim(ctx, c.opts.LeaseDuration)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logx.WithError(err).Warnf("jobx: worker %d claim error", id)
		}
		if job == nil {
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.opts.PollInterval):
			}
			continue
		}

		c.processJob(ctx, job)
	}
}

// processJob runs the handler detached from ctx cancellation: once a job is
// claimed it runs to completion, shutdown only stops new claims. When the
// lease was lost meanwhile the outcome is discarded: the job belongs to
// whoever reclaimed it.
func (c *Client) processJob(ctx context.Context, job *Job) {
	runCtx := context.WithoutCancel(ctx)

	c.emit(runCtx, newEvent(EventActive, job))

	// The heartbeat reads its own copy; the handler may mutate job.
	claim := *job
	hbCtx, stopHeartbeat := context.WithCancel(runCtx)
	go c.heartbeat(hbCtx, &claim)

	err := c.invoke(runCtx, job)
	stopHeartbeat()

	if err == nil {
		if cErr := c.queue.Complete(runCtx, job); cErr != nil {
			if errx.HasCode(cErr, ErrLockLost) {
				logx.WithError(cErr).Warnf("jobx: lease of job %s lost, result discarded", job.ID)
				return
			}
			logx.WithError(cErr).Errorf("jobx: failed to complete job %s", job.ID)
			return
		}
		c.emit(runCtx, newEvent(EventCompleted, job))
		c.scheduleNext(runCtx, job)
		return
	}

	job.FailedReason = err.Error()
	job.Stacktrace = append(job.Stacktrace, fmt.Sprintf("attempt %d: %s", job.AttemptsMade, err.Error()))

	if IsUnrecoverable(err) || job.Exhausted() {
		c.finalize(runCtx, job, err)
		return
	}

	delay := job.Backoff.Next(job.AttemptsMade)
	if rErr := c.queue.Retry(runCtx, job, delay); rErr != nil {
		if errx.HasCode(rErr, ErrLockLost) {
			logx.WithError(rErr).Warnf("jobx: lease of job %s lost, retry dropped", job.ID)
			return
		}
		logx.WithError(rErr).Errorf("jobx: failed to schedule retry of job %s", job.ID)
		return
	}

	ev := newEvent(EventRetrying, job)
	ev.Reason = job.FailedReason
	c.emit(runCtx, ev)
}

// finalize marks job failed and runs the terminal failure callbacks once.
// Jobs already failed by the stalled check skip the transition.
func (c *Client) finalize(ctx context.Context, job *Job, cause error) {
	if job.Status != JobStatusFailed {
		if err := c.queue.Fail(ctx, job); err != nil {
			if errx.HasCode(err, ErrLockLost) {
				logx.WithError(err).Warnf("jobx: lease of job %s lost, failure dropped", job.ID)
				return
			}
			logx.WithError(err).Errorf("jobx: failed to mark job %s as failed", job.ID)
		}
	}

	ev := newEvent(EventFailed, job)
	ev.Reason = cause.Error()
	c.emit(ctx, ev)

	c.mu.RLock()
	callbacks := append([]FailedFunc(nil), c.onFailed...)
	c.mu.RUnlock()

	for _, fn := range callbacks {
		fn(ctx, job, cause)
	}
	c.scheduleNext(ctx, job)
}

func (c *Client) invoke(ctx context.Context, job *Job) (err error) {
	c.mu.RLock()
	handler, ok := c.handlers[job.Name]
	if !ok {
		handler = c.fallback
	}
	c.mu.RUnlock()

	if handler == nil {
		return Unrecoverable(jobxErrors.New(ErrNoHandler).WithDetail("job_name", job.Name))
	}

	defer func() {
		if p := recover(); p != nil {
			err = errx.New(fmt.Sprintf("job handler panicked: %v", p), errx.TypeInternal).
				WithDetail("job_id", job.ID)
		}
	}()
	return handler(ctx, job)
}

// heartbeat extends the lease until ctx is done or the lease is lost.
func (c *Client) heartbeat(ctx context.Context, job *Job) {
	ticker := time.NewTicker(c.opts.LeaseDuration / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := c.queue.Heartbeat(ctx, job, c.opts.LeaseDuration)
			if err == nil || ctx.Err() != nil {
				continue
			}
			if errx.HasCode(err, ErrLockLost) {
				logx.WithError(err).Warnf("jobx: lease of job %s lost, another worker may run it", job.ID)
				return
			}
			logx.WithError(err).Warnf("jobx: heartbeat failed for job %s", job.ID)
		}
	}
}

// ReportProgress publishes a progress event for a running job.
func (c *Client) ReportProgress(ctx context.Context, job *Job, percent int) {
	ev := newEvent(EventProgress, job)
	ev.Progress = percent
	c.emit(ctx, ev)
}

func (c *Client) emit(ctx context.Context, ev Event) {
	c.mu.RLock()
	listeners := append([]ListenerFunc(nil), c.listeners...)
	c.mu.RUnlock()

	for _, fn := range listeners {
		fn(ev)
	}

	if err := c.queue.Publish(ctx, ev); err != nil {
		logx.WithError(err).Warnf("jobx: failed to publish %s event for job %s", ev.Kind, ev.JobID)
	}
}
