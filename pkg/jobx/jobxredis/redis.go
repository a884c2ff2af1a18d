package jobxredis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Abraxas-365/rewardwallet/pkg/jobx"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// stalledReason is recorded on jobs failed by lease expiry.
const stalledReason = "job stalled more than allowable limit"

// priorityWeight spaces priorities so that enqueue time only orders jobs of
// equal priority.
const priorityWeight = 1e13

// Options tunes a RedisQueue.
type Options struct {
	// Prefix namespaces all keys, default "jobx".
	Prefix string
	// CompletedTTL expires completed jobs; zero keeps them.
	CompletedTTL time.Duration
}

// RedisQueue implements jobx.Queue backed by Redis. Each job is a hash;
// wait, delayed, active, completed and failed are sorted sets of job ids.
type RedisQueue struct {
	rdb  redis.UniversalClient
	name string
	opts Options
}

var _ jobx.Queue = (*RedisQueue)(nil)

// NewRedisQueue creates a Redis-backed queue named name.
func NewRedisQueue(rdb redis.UniversalClient, name string, opts Options) *RedisQueue {
	if opts.Prefix == "" {
		opts.Prefix = "jobx"
	}
	return &RedisQueue{rdb: rdb, name: name, opts: opts}
}

// Name returns the queue name.
func (q *RedisQueue) Name() string { return q.name }

func (q *RedisQueue) key(part string) string {
	return fmt.Sprintf("%s:%s:%s", q.opts.Prefix, q.name, part)
}

func (q *RedisQueue) jobPrefix() string       { return q.key("job:") }
func (q *RedisQueue) jobKey(id string) string { return q.jobPrefix() + id }
func (q *RedisQueue) waitKey() string         { return q.key("wait") }
func (q *RedisQueue) delayedKey() string      { return q.key("delayed") }
func (q *RedisQueue) activeKey() string       { return q.key("active") }
func (q *RedisQueue) failedKey() string       { return q.key("failed") }
func (q *RedisQueue) doneKey() string         { return q.key("completed") }
func (q *RedisQueue) eventsKey() string       { return q.key("events") }

// jobDef is the immutable part of a job, stored as JSON in the data field.
type jobDef struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Queue      string          `json:"queue"`
	Payload    json.RawMessage `json:"payload"`
	Priority   int             `json:"priority"`
	Backoff    jobx.Backoff    `json:"backoff"`
	Repeat     string          `json:"repeat,omitempty"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// Ping checks the connection.
func (q *RedisQueue) Ping(ctx context.Context) error {
	return q.rdb.Ping(ctx).Err()
}

// Enqueue stores job atomically. An existing id yields jobx.ErrJobExists.
func (q *RedisQueue) Enqueue(ctx context.Context, job *jobx.Job) error {
	data, err := json.Marshal(jobDef{
		ID:         job.ID,
		Name:       job.Name,
		Queue:      job.Queue,
		Payload:    job.Payload,
		Priority:   job.Priority,
		Backoff:    job.Backoff,
		Repeat:     job.Repeat,
		EnqueuedAt: job.EnqueuedAt,
	})
	if err != nil {
		return redisErrors.NewWithCause(ErrMarshal, err).WithDetail("job_id", job.ID)
	}

	waitScore := float64(job.Priority)*priorityWeight + float64(job.EnqueuedAt.UnixMilli())

	created, err := enqueueScript.Run(ctx, q.rdb,
		[]string{q.jobKey(job.ID), q.waitKey(), q.delayedKey()},
		job.ID,
		data,
		string(job.Status),
		job.ReadyAt.UnixMilli(),
		strconv.FormatFloat(waitScore, 'f', -1, 64),
		job.MaxAttempts,
	).Int()
	if err != nil {
		return redisErrors.NewWithCause(ErrEnqueue, err).
			WithDetail("queue", q.name).
			WithDetail("job_id", job.ID)
	}
	if created == 0 {
		return jobx.NewError(jobx.ErrJobExists, nil).WithDetail("job_id", job.ID)
	}
	return nil
}

// GetJob retrieves a job by id.
func (q *RedisQueue) GetJob(ctx context.Context, jobID string) (*jobx.Job, error) {
	fields, err := q.rdb.HGetAll(ctx, q.jobKey(jobID)).Result()
	if err != nil {
		return nil, redisErrors.NewWithCause(ErrGetJob, err).WithDetail("job_id", jobID)
	}
	if len(fields) == 0 {
		return nil, jobx.NewError(jobx.ErrJobNotFound, nil).WithDetail("job_id", jobID)
	}
	return decodeJob(jobID, fields)
}

func decodeJob(jobID string, fields map[string]string) (*jobx.Job, error) {
	var def jobDef
	if err := json.Unmarshal([]byte(fields["data"]), &def); err != nil {
		return nil, redisErrors.NewWithCause(ErrUnmarshal, err).WithDetail("job_id", jobID)
	}

	job := &jobx.Job{
		ID:           def.ID,
		Name:         def.Name,
		Queue:        def.Queue,
		Payload:      def.Payload,
		Status:       jobx.JobStatus(fields["status"]),
		AttemptsMade: atoi(fields["attempts"]),
		MaxAttempts:  atoi(fields["maxAttempts"]),
		Priority:     def.Priority,
		Backoff:      def.Backoff,
		Repeat:       def.Repeat,
		FailedReason: fields["failedReason"],
		EnqueuedAt:   def.EnqueuedAt,
		ReadyAt:      millis(fields["readyAt"]),
		LockToken:    fields["token"],
	}
	if r := fields["result"]; r != "" {
		job.Result = json.RawMessage(r)
	}
	if st := fields["stacktrace"]; st != "" {
		if err := json.Unmarshal([]byte(st), &job.Stacktrace); err != nil {
			return nil, redisErrors.NewWithCause(ErrUnmarshal, err).WithDetail("job_id", jobID)
		}
	}
	if v := fields["startedAt"]; v != "" {
		t := millis(v)
		job.StartedAt = &t
	}
	if v := fields["finishedAt"]; v != "" {
		t := millis(v)
		job.FinishedAt = &t
	}
	return job, nil
}

// Claim moves the next waiting job to active under a lease and a new lock
// token.
func (q *RedisQueue) Claim(ctx context.Context, lease time.Duration) (*jobx.Job, error) {
	now := time.Now()
	token := uuid.NewString()
	id, err := claimScript.Run(ctx, q.rdb,
		[]string{q.waitKey(), q.activeKey()},
		now.Add(lease).UnixMilli(),
		now.UnixMilli(),
		q.jobPrefix(),
		token,
	).Text()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, redisErrors.NewWithCause(ErrClaim, err).WithDetail("queue", q.name)
	}
	return q.GetJob(ctx, id)
}

// Heartbeat extends the lease of a job still held under job.LockToken.
func (q *RedisQueue) Heartbeat(ctx context.Context, job *jobx.Job, lease time.Duration) error {
	held, err := heartbeatScript.Run(ctx, q.rdb,
		[]string{q.jobKey(job.ID), q.activeKey()},
		job.ID,
		job.LockToken,
		time.Now().Add(lease).UnixMilli(),
	).Int()
	if err != nil {
		return redisErrors.NewWithCause(ErrHeartbeat, err).WithDetail("job_id", job.ID)
	}
	if held == 0 {
		return lockLost(job, "heartbeat")
	}
	return nil
}

// Complete marks job completed and stores its result.
func (q *RedisQueue) Complete(ctx context.Context, job *jobx.Job) error {
	now := time.Now()
	cutoff := now.Add(-q.opts.CompletedTTL).UnixMilli()

	held, err := completeScript.Run(ctx, q.rdb,
		[]string{q.jobKey(job.ID), q.activeKey(), q.doneKey()},
		job.ID,
		job.LockToken,
		now.UnixMilli(),
		string(job.Result),
		q.opts.CompletedTTL.Milliseconds(),
		cutoff,
	).Int()
	if err != nil {
		return redisErrors.NewWithCause(ErrComplete, err).WithDetail("job_id", job.ID)
	}
	if held == 0 {
		return lockLost(job, "complete")
	}

	job.Status = jobx.JobStatusCompleted
	job.FinishedAt = &now
	job.LockToken = ""
	return nil
}

// Retry moves job to delayed until now+delay, keeping its failure history.
func (q *RedisQueue) Retry(ctx context.Context, job *jobx.Job, delay time.Duration) error {
	stack, err := json.Marshal(job.Stacktrace)
	if err != nil {
		return redisErrors.NewWithCause(ErrMarshal, err).WithDetail("job_id", job.ID)
	}
	readyAt := time.Now().Add(delay)

	held, err := retryScript.Run(ctx, q.rdb,
		[]string{q.jobKey(job.ID), q.activeKey(), q.delayedKey()},
		job.ID,
		job.LockToken,
		readyAt.UnixMilli(),
		job.FailedReason,
		string(stack),
	).Int()
	if err != nil {
		return redisErrors.NewWithCause(ErrRetry, err).
			WithDetail("job_id", job.ID).
			WithDetail("delay", delay.String())
	}
	if held == 0 {
		return lockLost(job, "retry")
	}

	job.Status = jobx.JobStatusDelayed
	job.ReadyAt = readyAt
	job.LockToken = ""
	return nil
}

// Fail marks job failed for good.
func (q *RedisQueue) Fail(ctx context.Context, job *jobx.Job) error {
	stack, err := json.Marshal(job.Stacktrace)
	if err != nil {
		return redisErrors.NewWithCause(ErrMarshal, err).WithDetail("job_id", job.ID)
	}
	now := time.Now()

	held, err := failScript.Run(ctx, q.rdb,
		[]string{q.jobKey(job.ID), q.activeKey(), q.failedKey()},
		job.ID,
		job.LockToken,
		now.UnixMilli(),
		job.FailedReason,
		string(stack),
	).Int()
	if err != nil {
		return redisErrors.NewWithCause(ErrFail, err).WithDetail("job_id", job.ID)
	}
	if held == 0 {
		return lockLost(job, "fail")
	}

	job.Status = jobx.JobStatusFailed
	job.FinishedAt = &now
	job.LockToken = ""
	return nil
}

func lockLost(job *jobx.Job, op string) error {
	return jobx.NewError(jobx.ErrLockLost, nil).
		WithDetail("job_id", job.ID).
		WithDetail("op", op)
}

// PromoteDelayed moves delayed jobs whose time has come back to wait.
func (q *RedisQueue) PromoteDelayed(ctx context.Context) (int, error) {
	n, err := promoteScript.Run(ctx, q.rdb,
		[]string{q.delayedKey(), q.waitKey()},
		time.Now().UnixMilli(),
		q.jobPrefix(),
	).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, redisErrors.NewWithCause(ErrPromote, err).WithDetail("queue", q.name)
	}
	return n, nil
}

// ReclaimStalled handles active jobs whose lease expired.
func (q *RedisQueue) ReclaimStalled(ctx context.Context) ([]string, []string, error) {
	res, err := reclaimScript.Run(ctx, q.rdb,
		[]string{q.activeKey(), q.waitKey(), q.failedKey()},
		time.Now().UnixMilli(),
		q.jobPrefix(),
		stalledReason,
	).Slice()
	if err != nil {
		return nil, nil, redisErrors.NewWithCause(ErrReclaim, err).WithDetail("queue", q.name)
	}
	if len(res) != 2 {
		return nil, nil, redisErrors.New(ErrReclaim).WithDetail("reply_len", len(res))
	}
	return toStrings(res[0]), toStrings(res[1]), nil
}

// Counts returns the number of jobs per state.
func (q *RedisQueue) Counts(ctx context.Context) (jobx.Counts, error) {
	pipe := q.rdb.Pipeline()
	wait := pipe.ZCard(ctx, q.waitKey())
	delayed := pipe.ZCard(ctx, q.delayedKey())
	active := pipe.ZCard(ctx, q.activeKey())
	failed := pipe.ZCard(ctx, q.failedKey())
	if _, err := pipe.Exec(ctx); err != nil {
		return jobx.Counts{}, redisErrors.NewWithCause(ErrCounts, err).WithDetail("queue", q.name)
	}
	return jobx.Counts{
		Waiting: wait.Val(),
		Delayed: delayed.Val(),
		Active:  active.Val(),
		Failed:  failed.Val(),
	}, nil
}

// Publish broadcasts ev on the queue event channel.
func (q *RedisQueue) Publish(ctx context.Context, ev jobx.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return redisErrors.NewWithCause(ErrMarshal, err).WithDetail("job_id", ev.JobID)
	}
	if err := q.rdb.Publish(ctx, q.eventsKey(), data).Err(); err != nil {
		return redisErrors.NewWithCause(ErrPublish, err).WithDetail("job_id", ev.JobID)
	}
	return nil
}

// Subscribe listens on the queue event channel. The subscription is
// confirmed before returning. The channel closes after the returned cancel
// func is called or ctx is done.
func (q *RedisQueue) Subscribe(ctx context.Context) (<-chan jobx.Event, func(), error) {
	ps := q.rdb.Subscribe(ctx, q.eventsKey())
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, redisErrors.NewWithCause(ErrSubscribe, err).WithDetail("queue", q.name)
	}

	out := make(chan jobx.Event, 64)
	subCtx, cancel := context.WithCancel(ctx)

	go func() {
		defer close(out)
		defer ps.Close()

		msgs := ps.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev jobx.Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					continue
				}
				select {
				case out <- ev:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return out, cancel, nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func millis(s string) time.Time {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n == 0 {
		return time.Time{}
	}
	return time.UnixMilli(n).UTC()
}

func toStrings(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
